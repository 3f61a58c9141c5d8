package model

import (
	"time"

	"gorm.io/gorm"
)

// ユーザーの状態
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
	UserStatusBlocked  UserStatus = "BLOCKED"
)

type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"type:varchar(255)" json:"name"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"`
	RoleID       int64      `gorm:"not null;index" json:"role_id"`
	Role         *Role      `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Status       UserStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`

	// 2FA有効ユーザーだけ値を持つ（base32）。setup/disableフローでのみ更新する
	TOTPSecret string `gorm:"column:totp_secret;type:varchar(64)" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
