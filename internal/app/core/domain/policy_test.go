package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/JoeShih716/go-moneybox/internal/app/core/domain"
)

func TestDefaultPolicy(t *testing.T) {
	p := domain.DefaultPolicy()

	assert.True(t, p.PayInLimit.Equal(dec(4000)))
	assert.True(t, p.LowFundsThreshold.Equal(dec(500)))
	assert.True(t, p.PayInLimitWarningMargin.Equal(dec(500)))
}

func TestPolicy_CanDebit(t *testing.T) {
	p := domain.DefaultPolicy()
	a := domain.NewAccount(uuid.New(), nil, dec(100))

	assert.True(t, p.CanDebit(a, dec(99)))
	assert.True(t, p.CanDebit(a, dec(100)))
	assert.False(t, p.CanDebit(a, dec(101)))
}

func TestPolicy_CanCredit(t *testing.T) {
	p := domain.DefaultPolicy()
	a := domain.NewAccount(uuid.New(), nil, dec(0))
	a.PaidIn = dec(3000)

	assert.True(t, p.CanCredit(a, dec(1000)))
	assert.False(t, p.CanCredit(a, dec(1001)))
}

func TestPolicy_IsFundsLow(t *testing.T) {
	p := domain.DefaultPolicy()

	tests := []struct {
		balance int64
		want    bool
	}{
		{balance: 0, want: true},
		{balance: 499, want: true},
		{balance: 500, want: false},
		{balance: 1000, want: false},
	}
	for _, tt := range tests {
		a := domain.NewAccount(uuid.New(), nil, dec(tt.balance))
		assert.Equal(t, tt.want, p.IsFundsLow(a), "balance %d", tt.balance)
	}
}

func TestPolicy_IsApproachingPayInLimit(t *testing.T) {
	p := domain.DefaultPolicy()

	tests := []struct {
		paidIn int64
		want   bool
	}{
		{paidIn: 0, want: false},
		{paidIn: 3499, want: false},
		{paidIn: 3500, want: true},
		{paidIn: 4000, want: true},
	}
	for _, tt := range tests {
		a := domain.NewAccount(uuid.New(), nil, dec(0))
		a.PaidIn = dec(tt.paidIn)
		assert.Equal(t, tt.want, p.IsApproachingPayInLimit(a), "paidIn %d", tt.paidIn)
	}
}

func TestPolicy_Custom(t *testing.T) {
	p := domain.Policy{
		PayInLimit:              dec(100),
		LowFundsThreshold:       dec(10),
		PayInLimitWarningMargin: dec(20),
	}
	a := domain.NewAccount(uuid.New(), nil, dec(9))
	a.PaidIn = dec(80)

	assert.True(t, p.IsFundsLow(a))
	assert.True(t, p.IsApproachingPayInLimit(a))
	assert.False(t, p.CanCredit(a, dec(21)))
}

func TestDefaultPolicy_ReturnsCopy(t *testing.T) {
	p := domain.DefaultPolicy()
	p.PayInLimit = dec(1)
	p.LowFundsThreshold = dec(1)
	p.PayInLimitWarningMargin = dec(0)

	fresh := domain.DefaultPolicy()
	assert.True(t, fresh.PayInLimit.Equal(dec(4000)))
	assert.True(t, fresh.LowFundsThreshold.Equal(dec(500)))
	assert.True(t, fresh.PayInLimitWarningMargin.Equal(dec(500)))
}
