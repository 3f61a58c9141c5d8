package model

import "time"

// ログインごとに1行作る（使い回しはしない）。refresh時は同じ行を更新する。
type Device struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64     `gorm:"not null;index" json:"user_id"`
	UserAgent  string    `gorm:"type:varchar(512)" json:"user_agent"`
	IP         string    `gorm:"type:varchar(45)" json:"ip"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	LastActive time.Time `gorm:"not null" json:"last_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
