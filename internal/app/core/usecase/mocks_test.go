package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/JoeShih716/go-moneybox/internal/app/core/domain"
)

type mockAccountStore struct {
	mock.Mock
}

func (m *mockAccountStore) GetAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *mockAccountStore) Update(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyFundsLow(ctx context.Context, address string) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *mockNotifier) NotifyApproachingPayInLimit(ctx context.Context, address string) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

type fixture struct {
	john  *domain.User
	peter *domain.User
	from  *domain.Account
	to    *domain.Account

	store    *mockAccountStore
	notifier *mockNotifier
}

// setupAccounts 建立 john (from) 與 peter (to) 兩個帳戶，GetAccountByID 回傳同一個指標
func setupAccounts(t *testing.T, fromBalance, toPaidIn, toBalance int64) *fixture {
	t.Helper()
	f := &fixture{
		john:     &domain.User{ID: uuid.New(), Name: "John Doe", Email: "john.doe@gmail.com"},
		peter:    &domain.User{ID: uuid.New(), Name: "Peter Fiddle", Email: "peter.fiddle@gmail.com"},
		store:    &mockAccountStore{},
		notifier: &mockNotifier{},
	}
	f.from = domain.NewAccount(uuid.New(), f.john, decimal.NewFromInt(fromBalance))
	f.to = domain.NewAccount(uuid.New(), f.peter, decimal.NewFromInt(toBalance))
	f.to.PaidIn = decimal.NewFromInt(toPaidIn)

	f.store.On("GetAccountByID", mock.Anything, f.from.ID).Return(f.from, nil).Maybe()
	f.store.On("GetAccountByID", mock.Anything, f.to.ID).Return(f.to, nil).Maybe()

	t.Cleanup(func() {
		f.store.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})
	return f
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
