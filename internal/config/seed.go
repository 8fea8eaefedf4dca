package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-moneybox/internal/app/core/domain"
)

// ErrInvalidSeedAccount 初始帳戶違反帳戶不變式 (負數金額或超過入帳上限)
var ErrInvalidSeedAccount = errors.New("config: invalid seed account")

type seedFile struct {
	Accounts []seedAccount `yaml:"accounts"`
}

// 金額用字串避免 float 精度問題
type seedAccount struct {
	ID        string   `yaml:"id"`
	Balance   string   `yaml:"balance"`
	Withdrawn string   `yaml:"withdrawn"`
	PaidIn    string   `yaml:"paid_in"`
	User      seedUser `yaml:"user"`
}

type seedUser struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// LoadSeed 讀取初始帳戶檔，供未接 MySQL 的記憶體 Store 使用
func LoadSeed(path string) (map[uuid.UUID]*domain.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	accounts := make(map[uuid.UUID]*domain.Account, len(f.Accounts))
	for i, sa := range f.Accounts {
		account, err := sa.toDomain()
		if err != nil {
			return nil, fmt.Errorf("seed account #%d: %w", i, err)
		}
		if _, exists := accounts[account.ID]; exists {
			return nil, fmt.Errorf("seed account %s: %w", account.ID, domain.ErrAccountAlreadyExists)
		}
		accounts[account.ID] = account
	}
	return accounts, nil
}

func (sa seedAccount) toDomain() (*domain.Account, error) {
	id, err := uuid.Parse(sa.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	balance, err := parseAmount(sa.Balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}
	withdrawn, err := parseAmount(sa.Withdrawn)
	if err != nil {
		return nil, fmt.Errorf("invalid withdrawn: %w", err)
	}
	paidIn, err := parseAmount(sa.PaidIn)
	if err != nil {
		return nil, fmt.Errorf("invalid paid_in: %w", err)
	}

	var user *domain.User
	if sa.User.Email != "" || sa.User.ID != "" {
		userID := uuid.New()
		if sa.User.ID != "" {
			if userID, err = uuid.Parse(sa.User.ID); err != nil {
				return nil, fmt.Errorf("invalid user id: %w", err)
			}
		}
		user = &domain.User{ID: userID, Name: sa.User.Name, Email: sa.User.Email}
	}

	account := domain.NewAccount(id, user, balance)
	account.Withdrawn = withdrawn
	account.PaidIn = paidIn
	if err := validateSeedAccount(account); err != nil {
		return nil, err
	}
	return account, nil
}

// validateSeedAccount 初始資料也必須符合交易後才會出現的狀態
func validateSeedAccount(a *domain.Account) error {
	switch {
	case a.Balance.IsNegative():
		return fmt.Errorf("%w: negative balance %s", ErrInvalidSeedAccount, a.Balance)
	case a.Withdrawn.IsNegative():
		return fmt.Errorf("%w: negative withdrawn %s", ErrInvalidSeedAccount, a.Withdrawn)
	case a.PaidIn.IsNegative():
		return fmt.Errorf("%w: negative paid_in %s", ErrInvalidSeedAccount, a.PaidIn)
	}
	if limit := domain.DefaultPolicy().PayInLimit; a.PaidIn.GreaterThan(limit) {
		return fmt.Errorf("%w: paid_in %s exceeds pay in limit %s", ErrInvalidSeedAccount, a.PaidIn, limit)
	}
	return nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
