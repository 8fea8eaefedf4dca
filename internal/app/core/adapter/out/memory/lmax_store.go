package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-moneybox/internal/app/core/domain"
	"github.com/JoeShih716/go-moneybox/internal/app/core/usecase"
	"github.com/JoeShih716/go-moneybox/pkg/wal"
)

// ErrStoreStopped 核心迴圈已停止
var ErrStoreStopped = errors.New("store stopped")

type requestKind uint8

const (
	requestGet requestKind = iota + 1
	requestUpdate
	requestCreate
)

// storeRequest 請求包裝，讓呼叫端可以等待結果
type storeRequest struct {
	kind    requestKind
	id      uuid.UUID
	account *domain.Account
	result  chan storeResult // buffer 1，迴圈永遠不會卡在回傳
}

type storeResult struct {
	account *domain.Account
	err     error
}

// LMAXStore 單一寫入者的帳戶儲存
//
// 所有讀寫都經由輸送帶交給同一個 goroutine，accounts 不需要 Lock。
// 使用前必須先呼叫 Start。
type LMAXStore struct {
	accounts map[uuid.UUID]*domain.Account
	// Write-Ahead Logging
	wal *wal.WAL
	// 輸送帶 負責接收請求
	requests chan *storeRequest
	// 迴圈結束後關閉
	done chan struct{}
	// Pool 減少 GC 壓力
	requestPool sync.Pool
	startOnce   sync.Once
}

// NewLMAXStore 建立一個新的 LMAXStore 實例
//
// 參數:
//
//	accounts: 初始帳戶資料 Map
//	wal: Write-Ahead Log 實例
//
// 回傳:
//
//	*LMAXStore: LMAXStore 實例
//	error: 初始化錯誤
func NewLMAXStore(accounts map[uuid.UUID]*domain.Account, wal *wal.WAL) (*LMAXStore, error) {
	store := &LMAXStore{
		accounts: cloneAccounts(accounts),
		wal:      wal,
		requests: make(chan *storeRequest, 1000), // Buffer 1000
		done:     make(chan struct{}),
		requestPool: sync.Pool{
			New: func() interface{} {
				return &storeRequest{
					result: make(chan storeResult, 1),
				}
			},
		},
	}

	// 在啟動前先恢復資料
	if _, err := recoverFromWAL(wal, store.accounts); err != nil {
		return nil, err
	}
	return store, nil
}

// Start 啟動核心迴圈 (非同步)，ctx 結束時處理完剩下的請求後停止
func (l *LMAXStore) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		go l.run(ctx)
	})
}

// Done 迴圈停止後關閉
func (l *LMAXStore) Done() <-chan struct{} {
	return l.done
}

func (l *LMAXStore) run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			// 收到關閉信號，把剩下的請求處理完
			l.drain()
			return
		case req := <-l.requests:
			l.process(req)
		}
	}
}

func (l *LMAXStore) drain() {
	for {
		select {
		case req := <-l.requests:
			l.process(req)
		default:
			return
		}
	}
}

// process 處理單筆請求並回傳結果
func (l *LMAXStore) process(req *storeRequest) {
	switch req.kind {
	case requestGet:
		account, ok := l.accounts[req.id]
		if !ok {
			req.result <- storeResult{err: domain.ErrAccountNotFound}
			return
		}
		req.result <- storeResult{account: account.Clone()}
	case requestUpdate:
		if _, ok := l.accounts[req.account.ID]; !ok {
			req.result <- storeResult{err: domain.ErrAccountNotFound}
			return
		}
		req.result <- storeResult{err: l.persist(req.account)}
	case requestCreate:
		if _, ok := l.accounts[req.account.ID]; ok {
			req.result <- storeResult{err: domain.ErrAccountAlreadyExists}
			return
		}
		req.result <- storeResult{err: l.persist(req.account)}
	default:
		req.result <- storeResult{}
	}
}

func (l *LMAXStore) persist(account *domain.Account) error {
	// 1. 寫入 WAL
	if err := appendToWAL(l.wal, account); err != nil {
		return err
	}
	// 2. 更新狀態
	l.accounts[account.ID] = account.Clone()
	return nil
}

// submit 放入輸送帶並等待結果
// PostRequest(等待) -> Channel -> Run Loop -> WAL -> Map -> Result Channel
func (l *LMAXStore) submit(ctx context.Context, kind requestKind, id uuid.UUID, account *domain.Account) (*domain.Account, error) {
	req := l.requestPool.Get().(*storeRequest)
	req.kind = kind
	req.id = id
	req.account = account

	select {
	case l.requests <- req:
	case <-l.done:
		l.requestPool.Put(req)
		return nil, ErrStoreStopped
	case <-ctx.Done():
		l.requestPool.Put(req)
		return nil, ctx.Err()
	}

	select {
	case res := <-req.result:
		req.account = nil
		l.requestPool.Put(req)
		return res.account, res.err
	case <-l.done:
		// 迴圈已停止，請求可能在停止前剛好被處理
		select {
		case res := <-req.result:
			return res.account, res.err
		default:
			return nil, ErrStoreStopped
		}
	case <-ctx.Done():
		// 迴圈之後仍可能寫入 result，這個 request 不放回 Pool
		return nil, ctx.Err()
	}
}

// GetAccountByID 取得帳戶複本
func (l *LMAXStore) GetAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return l.submit(ctx, requestGet, id, nil)
}

// Update 保存帳戶
func (l *LMAXStore) Update(ctx context.Context, account *domain.Account) error {
	_, err := l.submit(ctx, requestUpdate, account.ID, account.Clone())
	return err
}

// Create 新增帳戶
func (l *LMAXStore) Create(ctx context.Context, account *domain.Account) error {
	_, err := l.submit(ctx, requestCreate, account.ID, account.Clone())
	return err
}

var _ usecase.AccountStore = (*LMAXStore)(nil)
