package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-moneybox/internal/app/core/domain"
	"github.com/JoeShih716/go-moneybox/pkg/wal"
)

// accountRecord 寫入 WAL 的帳戶快照，重放時以最後一筆為準
type accountRecord struct {
	AccountID uuid.UUID       `json:"account_id"`
	UserID    uuid.UUID       `json:"user_id"`
	UserName  string          `json:"user_name"`
	Email     string          `json:"email"`
	Balance   decimal.Decimal `json:"balance"`
	Withdrawn decimal.Decimal `json:"withdrawn"`
	PaidIn    decimal.Decimal `json:"paid_in"`
	UpdatedAt int64           `json:"updated_at"`
}

func newAccountRecord(a *domain.Account, now time.Time) accountRecord {
	rec := accountRecord{
		AccountID: a.ID,
		Balance:   a.Balance,
		Withdrawn: a.Withdrawn,
		PaidIn:    a.PaidIn,
		UpdatedAt: now.UnixMilli(),
	}
	if a.User != nil {
		rec.UserID = a.User.ID
		rec.UserName = a.User.Name
		rec.Email = a.User.Email
	}
	return rec
}

func (r accountRecord) toDomain() *domain.Account {
	var user *domain.User
	if r.UserID != uuid.Nil || r.Email != "" {
		user = &domain.User{ID: r.UserID, Name: r.UserName, Email: r.Email}
	}
	return &domain.Account{
		ID:        r.AccountID,
		User:      user,
		Balance:   r.Balance,
		Withdrawn: r.Withdrawn,
		PaidIn:    r.PaidIn,
	}
}

// cloneAccounts 複製初始帳戶，避免與呼叫端共用指標
func cloneAccounts(accounts map[uuid.UUID]*domain.Account) map[uuid.UUID]*domain.Account {
	out := make(map[uuid.UUID]*domain.Account, len(accounts))
	for id, a := range accounts {
		out[id] = a.Clone()
	}
	return out
}

// recoverFromWAL 從 WAL 檔案恢復帳戶狀態
// 只在建構時呼叫 (單執行緒)，無需 Lock
func recoverFromWAL(journal *wal.WAL, accounts map[uuid.UUID]*domain.Account) (int, error) {
	if journal == nil {
		return 0, nil
	}
	count := 0
	err := wal.Replay(journal, func(rec accountRecord) error {
		accounts[rec.AccountID] = rec.toDomain()
		count++
		return nil
	})
	return count, err
}

// appendToWAL 寫入並刷入硬碟 (Critical Path)
// 失敗時 WAL 已截回上一筆完整紀錄，呼叫端不可更新記憶體狀態
func appendToWAL(journal *wal.WAL, a *domain.Account) error {
	if journal == nil {
		return nil
	}
	if err := journal.Write(newAccountRecord(a, time.Now())); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrWALWriteFailed, err)
	}
	if err := journal.Flush(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrWALWriteFailed, err)
	}
	return nil
}
