package model

import "time"

// リフレッシュトークン。DBには平文ではなくSHA-256ハッシュを保存する。
// ソフトデリートはしない：rotation/logoutで物理削除し、削除済みトークンは二度と使えない。
type RefreshToken struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TokenHash string    `gorm:"not null;uniqueIndex" json:"-"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	DeviceID  int64     `gorm:"not null;index" json:"device_id"`
	Device    *Device   `gorm:"foreignKey:DeviceID" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
