package model

import "time"

// 認証系イベントの種類
type AuditAction string

const (
	AuditActionLogin          AuditAction = "LOGIN"
	AuditActionLoginFailed    AuditAction = "LOGIN_FAILED"
	AuditActionTokenRefresh   AuditAction = "TOKEN_REFRESH"
	AuditActionLogout         AuditAction = "LOGOUT"
	AuditActionPasswordReset  AuditAction = "PASSWORD_RESET"
	AuditActionTwoFAEnabled   AuditAction = "2FA_ENABLED"
	AuditActionTwoFADisabled  AuditAction = "2FA_DISABLED"
	AuditActionSessionsRevoke AuditAction = "SESSIONS_REVOKED"
)

// 監査ログ。「誰が」「何を」「どこから」を残す。
// 書き込みはbest-effort（失敗しても認証フローは止めない）。
type AuditLog struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"index" json:"user_id"`

	//対象ユーザーが特定できない失敗はemailだけ残す
	Email string `gorm:"index" json:"email"`

	Action    AuditAction `gorm:"type:varchar(30);not null;index" json:"action"`
	UserAgent string      `gorm:"type:varchar(512)" json:"user_agent"`
	IP        string      `gorm:"type:varchar(45)" json:"ip"`
	CreatedAt time.Time   `gorm:"not null;index" json:"created_at"`
}
