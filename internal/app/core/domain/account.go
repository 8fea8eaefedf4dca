package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// payInLimit 單一帳戶累計入帳上限，只透過 DefaultPolicy 對外
var payInLimit = decimal.NewFromInt(4000)

// Account 帳戶
//
// Withdrawn / PaidIn 為累計值，只增不減，僅供稽核使用
type Account struct {
	ID        uuid.UUID
	User      *User
	Balance   decimal.Decimal
	Withdrawn decimal.Decimal
	PaidIn    decimal.Decimal
}

// NewAccount 建立帳戶，Withdrawn / PaidIn 從 0 開始
func NewAccount(id uuid.UUID, user *User, balance decimal.Decimal) *Account {
	return &Account{
		ID:      id,
		User:    user,
		Balance: balance,
	}
}

// ApplyDebit 扣款並累加 Withdrawn
// 不做任何檢查，餘額是否足夠由呼叫端負責
func (a *Account) ApplyDebit(amount decimal.Decimal) {
	a.Balance = a.Balance.Sub(amount)
	a.Withdrawn = a.Withdrawn.Add(amount)
}

// ApplyCredit 入帳並累加 PaidIn
// 不做任何檢查，入帳上限由呼叫端負責
func (a *Account) ApplyCredit(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
	a.PaidIn = a.PaidIn.Add(amount)
}

// NotificationAddress 回傳帳戶擁有者的通知地址，沒有擁有者時回傳空字串
func (a *Account) NotificationAddress() string {
	if a.User == nil {
		return ""
	}
	return a.User.Email
}

// Clone 回傳深拷貝，Store 用來隔離呼叫端對記憶體狀態的修改
func (a *Account) Clone() *Account {
	c := *a
	if a.User != nil {
		u := *a.User
		c.User = &u
	}
	return &c
}
