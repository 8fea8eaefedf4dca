package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-moneybox/internal/app/core/domain"
)

// AccountStore 帳戶儲存介面
//
// Update 之間沒有交易保證：轉帳會依序呼叫兩次 Update，
// 第二次失敗時第一次不會回滾。需要原子性的呼叫端應自行包一層 unit of work。
type AccountStore interface {
	// GetAccountByID 取得帳戶，不存在時回傳 domain.ErrAccountNotFound
	GetAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	// Update 保存帳戶完整狀態
	Update(ctx context.Context, account *domain.Account) error
}

// Notifier 通知介面 (Email / SMS 等)
type Notifier interface {
	// NotifyFundsLow 餘額過低
	NotifyFundsLow(ctx context.Context, address string) error
	// NotifyApproachingPayInLimit 即將達到入帳上限
	NotifyApproachingPayInLimit(ctx context.Context, address string) error
}

// Option 設定交易操作的選項
type Option func(*options)

type options struct {
	policy domain.Policy
}

// WithPolicy 覆寫預設門檻
func WithPolicy(p domain.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

func buildOptions(opts []Option) options {
	o := options{policy: domain.DefaultPolicy()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// notifyOwner 帳戶沒有擁有者 (沒有通知地址) 時不發送
func notifyOwner(ctx context.Context, address string, send func(context.Context, string) error) error {
	if address == "" {
		return nil
	}
	return send(ctx, address)
}
