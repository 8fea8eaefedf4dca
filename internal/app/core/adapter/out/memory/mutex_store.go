package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-moneybox/internal/app/core/domain"
	"github.com/JoeShih716/go-moneybox/internal/app/core/usecase"
	"github.com/JoeShih716/go-moneybox/pkg/wal"
)

// MutexStore 是一個使用 RWMutex 保護的記憶體帳戶儲存
//
// 結構:
//
//	accounts: 帳戶資料 Map
//	mu: RWMutex 用於保護帳戶資料
//	wal: Write-Ahead Log 實例 (可為 nil)
//
// 讀取回傳的是複本，呼叫端修改後必須 Update 才會生效。
type MutexStore struct {
	accounts map[uuid.UUID]*domain.Account
	mu       sync.RWMutex
	wal      *wal.WAL
}

// NewMutexStore 建立一個新的 MutexStore 實例
//
// 參數:
//
//	accounts: 初始帳戶資料 Map
//	wal: Write-Ahead Log 實例
//
// 回傳:
//
//	*MutexStore: MutexStore 實例
//	error: 初始化錯誤 (如 WAL 恢復失敗)
func NewMutexStore(accounts map[uuid.UUID]*domain.Account, wal *wal.WAL) (*MutexStore, error) {
	store := &MutexStore{
		accounts: cloneAccounts(accounts),
		wal:      wal,
	}
	if _, err := recoverFromWAL(wal, store.accounts); err != nil {
		return nil, err
	}
	return store, nil
}

// GetAccountByID 取得帳戶複本
//
// 參數:
//
//	ctx: 上下文
//	id: 帳戶 ID
//
// 回傳:
//
//	*domain.Account: 帳戶複本
//	error: domain.ErrAccountNotFound
func (m *MutexStore) GetAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account.Clone(), nil
}

// Update 先寫 WAL 再更新記憶體
func (m *MutexStore) Update(ctx context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	if err := appendToWAL(m.wal, account); err != nil {
		return err
	}
	m.accounts[account.ID] = account.Clone()
	return nil
}

// Create 新增帳戶 (佈建用，不屬於交易流程)
func (m *MutexStore) Create(ctx context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; ok {
		return domain.ErrAccountAlreadyExists
	}
	if err := appendToWAL(m.wal, account); err != nil {
		return err
	}
	m.accounts[account.ID] = account.Clone()
	return nil
}

// LoadAllAccounts 回傳所有帳戶的複本
func (m *MutexStore) LoadAllAccounts(ctx context.Context) (map[uuid.UUID]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAccounts(m.accounts), nil
}

var _ usecase.AccountStore = (*MutexStore)(nil)
