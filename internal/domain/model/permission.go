package model

import (
	"time"

	"gorm.io/gorm"
)

// 許可対象のHTTPメソッド
type HTTPMethod string

const (
	MethodGet     HTTPMethod = "GET"
	MethodPost    HTTPMethod = "POST"
	MethodPut     HTTPMethod = "PUT"
	MethodPatch   HTTPMethod = "PATCH"
	MethodDelete  HTTPMethod = "DELETE"
	MethodHead    HTTPMethod = "HEAD"
	MethodOptions HTTPMethod = "OPTIONS"
)

// APIの1エンドポイント = 1パーミッション。
// (path, method)は未削除レコードの中で一意。
type Permission struct {
	ID     int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Path   string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_permission_path_method" json:"path"`
	Method HTTPMethod `gorm:"type:varchar(10);not null;uniqueIndex:idx_permission_path_method" json:"method"`
	Module string     `gorm:"type:varchar(100);not null" json:"module"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
