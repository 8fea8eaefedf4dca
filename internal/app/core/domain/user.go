package domain

import "github.com/google/uuid"

// User 帳戶擁有者，生命週期由外部系統管理
type User struct {
	ID    uuid.UUID
	Name  string
	Email string
}
