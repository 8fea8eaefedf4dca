package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-moneybox/internal/app/core/domain"
)

// CoreUseCase 是核心業務邏輯層，提供給 driving adapter (gRPC) 使用
type CoreUseCase struct {
	store    AccountStore
	transfer *TransferMoney
	withdraw *WithdrawMoney
}

// NewCoreUseCase 以同一組 Store / Notifier / Option 組出轉帳與提款操作
func NewCoreUseCase(store AccountStore, notifier Notifier, opts ...Option) *CoreUseCase {
	return &CoreUseCase{
		store:    store,
		transfer: NewTransferMoney(store, notifier, opts...),
		withdraw: NewWithdrawMoney(store, notifier, opts...),
	}
}

// Transfer 轉帳
func (c *CoreUseCase) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) error {
	return c.transfer.Execute(ctx, fromID, toID, amount)
}

// Withdraw 提款
func (c *CoreUseCase) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	return c.withdraw.Execute(ctx, accountID, amount)
}

// GetAccount 取得帳戶目前狀態
func (c *CoreUseCase) GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	return c.store.GetAccountByID(ctx, accountID)
}
