package domain

import "github.com/shopspring/decimal"

var (
	// lowFundsThreshold 扣款後餘額低於此值時通知擁有者
	lowFundsThreshold = decimal.NewFromInt(500)

	// payInLimitWarningMargin 累計入帳距離上限在此範圍內時通知擁有者
	payInLimitWarningMargin = decimal.NewFromInt(500)
)

// Policy 交易使用的門檻值
type Policy struct {
	PayInLimit              decimal.Decimal
	LowFundsThreshold       decimal.Decimal
	PayInLimitWarningMargin decimal.Decimal
}

// DefaultPolicy 回傳系統預設門檻
func DefaultPolicy() Policy {
	return Policy{
		PayInLimit:              payInLimit,
		LowFundsThreshold:       lowFundsThreshold,
		PayInLimitWarningMargin: payInLimitWarningMargin,
	}
}

// CanDebit 扣款後餘額不可為負
func (p Policy) CanDebit(a *Account, amount decimal.Decimal) bool {
	return !a.Balance.Sub(amount).IsNegative()
}

// CanCredit 入帳後 PaidIn 不可超過上限
func (p Policy) CanCredit(a *Account, amount decimal.Decimal) bool {
	return a.PaidIn.Add(amount).LessThanOrEqual(p.PayInLimit)
}

// IsFundsLow 餘額嚴格小於 LowFundsThreshold
func (p Policy) IsFundsLow(a *Account) bool {
	return a.Balance.LessThan(p.LowFundsThreshold)
}

// IsApproachingPayInLimit PaidIn >= PayInLimit - PayInLimitWarningMargin
func (p Policy) IsApproachingPayInLimit(a *Account) bool {
	return a.PaidIn.GreaterThanOrEqual(p.PayInLimit.Sub(p.PayInLimitWarningMargin))
}
