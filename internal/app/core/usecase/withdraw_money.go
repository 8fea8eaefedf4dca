package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-moneybox/internal/app/core/domain"
)

// WithdrawMoney 提款
type WithdrawMoney struct {
	store    AccountStore
	notifier Notifier
	policy   domain.Policy
}

// NewWithdrawMoney 建立提款操作，未指定 Policy 時使用 domain.DefaultPolicy
func NewWithdrawMoney(store AccountStore, notifier Notifier, opts ...Option) *WithdrawMoney {
	o := buildOptions(opts)
	return &WithdrawMoney{
		store:    store,
		notifier: notifier,
		policy:   o.policy,
	}
}

// Execute 執行提款，餘額不足時回傳 domain.ErrInsufficientFunds 且不修改帳戶
func (w *WithdrawMoney) Execute(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrAmountMustBePositive
	}

	account, err := w.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("get account %s: %w", accountID, err)
	}

	if !w.policy.CanDebit(account, amount) {
		return fmt.Errorf("%w to withdraw from", domain.ErrInsufficientFunds)
	}

	account.ApplyDebit(amount)

	if w.policy.IsFundsLow(account) {
		if err := notifyOwner(ctx, account.NotificationAddress(), w.notifier.NotifyFundsLow); err != nil {
			return fmt.Errorf("notify funds low: %w", err)
		}
	}

	if err := w.store.Update(ctx, account); err != nil {
		return fmt.Errorf("update account %s: %w", account.ID, err)
	}
	return nil
}
