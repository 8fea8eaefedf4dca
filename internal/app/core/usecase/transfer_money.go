package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-moneybox/internal/app/core/domain"
)

// TransferMoney 轉帳：from 扣款、to 入帳
type TransferMoney struct {
	store    AccountStore
	notifier Notifier
	policy   domain.Policy
}

// NewTransferMoney 建立轉帳操作，未指定 Policy 時使用 domain.DefaultPolicy
func NewTransferMoney(store AccountStore, notifier Notifier, opts ...Option) *TransferMoney {
	o := buildOptions(opts)
	return &TransferMoney{
		store:    store,
		notifier: notifier,
		policy:   o.policy,
	}
}

// Execute 執行轉帳
//
// 參數:
//
//	ctx: 上下文
//	fromID: 扣款帳戶
//	toID: 入帳帳戶
//	amount: 金額 (必須為正)
//
// 回傳:
//
//	error: domain.ErrInsufficientFunds / domain.ErrPayInLimitExceeded，或 Store / Notifier 的錯誤
//
// 檢查失敗時不會修改任何帳戶，也不會呼叫 Update。
// 兩次 Update 不是原子操作：from 保存成功而 to 失敗時，from 的變更不會回滾。
func (t *TransferMoney) Execute(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrAmountMustBePositive
	}
	if fromID == toID {
		return domain.ErrCannotTransferToSameAccount
	}

	// 1. 載入帳戶
	from, err := t.store.GetAccountByID(ctx, fromID)
	if err != nil {
		return fmt.Errorf("get account %s: %w", fromID, err)
	}
	to, err := t.store.GetAccountByID(ctx, toID)
	if err != nil {
		return fmt.Errorf("get account %s: %w", toID, err)
	}

	// 2. 檢查 (不修改任何狀態)
	// 兩者皆失敗時回報入帳上限
	if !t.policy.CanCredit(to, amount) {
		return domain.ErrPayInLimitExceeded
	}
	if !t.policy.CanDebit(from, amount) {
		return fmt.Errorf("%w to make transfer", domain.ErrInsufficientFunds)
	}

	// 3. 扣款 / 入帳
	from.ApplyDebit(amount)
	to.ApplyCredit(amount)

	// 4. 通知 (沒有擁有者的帳戶略過)
	if t.policy.IsFundsLow(from) {
		if err := notifyOwner(ctx, from.NotificationAddress(), t.notifier.NotifyFundsLow); err != nil {
			return fmt.Errorf("notify funds low: %w", err)
		}
	}
	if t.policy.IsApproachingPayInLimit(to) {
		if err := notifyOwner(ctx, to.NotificationAddress(), t.notifier.NotifyApproachingPayInLimit); err != nil {
			return fmt.Errorf("notify approaching pay in limit: %w", err)
		}
	}

	// 5. 保存
	if err := t.store.Update(ctx, from); err != nil {
		return fmt.Errorf("update account %s: %w", from.ID, err)
	}
	if err := t.store.Update(ctx, to); err != nil {
		return fmt.Errorf("update account %s: %w", to.ID, err)
	}
	return nil
}
