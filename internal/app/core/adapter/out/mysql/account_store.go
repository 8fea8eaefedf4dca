package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-moneybox/internal/app/core/domain"
	"github.com/JoeShih716/go-moneybox/internal/app/core/usecase"
	"github.com/JoeShih716/go-moneybox/pkg/mysql"
)

// sqlUser 對應資料庫的 users 表
type sqlUser struct {
	ID    string `gorm:"primaryKey;type:char(36)"`
	Name  string `gorm:"size:255"`
	Email string `gorm:"size:255"`
}

func (*sqlUser) TableName() string {
	return "users"
}

// sqlAccount 對應資料庫的 accounts 表
type sqlAccount struct {
	ID        string          `gorm:"primaryKey;type:char(36)"`
	UserID    string          `gorm:"type:char(36);index"`
	User      *sqlUser        `gorm:"foreignKey:UserID;references:ID"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Withdrawn decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	PaidIn    decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	UpdatedAt int64           `gorm:"autoUpdateTime:milli"` // 自動更新時間
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

func (a *sqlAccount) toDomain() (*domain.Account, error) {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return nil, fmt.Errorf("parse account id %q: %w", a.ID, err)
	}
	account := &domain.Account{
		ID:        id,
		Balance:   a.Balance,
		Withdrawn: a.Withdrawn,
		PaidIn:    a.PaidIn,
	}
	if a.User != nil {
		userID, err := uuid.Parse(a.User.ID)
		if err != nil {
			return nil, fmt.Errorf("parse user id %q: %w", a.User.ID, err)
		}
		account.User = &domain.User{ID: userID, Name: a.User.Name, Email: a.User.Email}
	}
	return account, nil
}

// AccountStore 以 GORM 實作的帳戶儲存
//
// 每次 Update 都是獨立的 SQL，不開交易。
type AccountStore struct {
	client *mysql.Client
}

// NewAccountStore 建立 MySQL 帳戶儲存
func NewAccountStore(client *mysql.Client) *AccountStore {
	return &AccountStore{
		client: client,
	}
}

// Migrate 建立 / 更新資料表
func (s *AccountStore) Migrate(ctx context.Context) error {
	return s.client.DB().WithContext(ctx).AutoMigrate(&sqlUser{}, &sqlAccount{})
}

// GetAccountByID 取得帳戶 (含擁有者)
func (s *AccountStore) GetAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var row sqlAccount
	err := s.client.DB().WithContext(ctx).
		Preload("User").
		Where("id = ?", id.String()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// Update 只更新金額欄位，擁有者資料不會被修改
func (s *AccountStore) Update(ctx context.Context, account *domain.Account) error {
	result := s.client.DB().WithContext(ctx).
		Model(&sqlAccount{ID: account.ID.String()}).
		Updates(map[string]any{
			"balance":   account.Balance,
			"withdrawn": account.Withdrawn,
			"paid_in":   account.PaidIn,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Create 新增帳戶，擁有者已存在時沿用 (佈建用)
func (s *AccountStore) Create(ctx context.Context, account *domain.Account) error {
	return s.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := sqlAccount{
			ID:        account.ID.String(),
			Balance:   account.Balance,
			Withdrawn: account.Withdrawn,
			PaidIn:    account.PaidIn,
		}
		if account.User != nil {
			user := sqlUser{ID: account.User.ID.String(), Name: account.User.Name, Email: account.User.Email}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
				return err
			}
			row.UserID = user.ID
		}
		err := tx.Omit(clause.Associations).Create(&row).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAccountAlreadyExists
		}
		return err
	})
}

// LoadAllAccounts 載入所有帳戶，用來初始化記憶體 Store
func (s *AccountStore) LoadAllAccounts(ctx context.Context) (map[uuid.UUID]*domain.Account, error) {
	var rows []sqlAccount
	if err := s.client.DB().WithContext(ctx).Preload("User").Find(&rows).Error; err != nil {
		return nil, err
	}
	accounts := make(map[uuid.UUID]*domain.Account, len(rows))
	for i := range rows {
		account, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		accounts[account.ID] = account
	}
	return accounts, nil
}

var _ usecase.AccountStore = (*AccountStore)(nil)
