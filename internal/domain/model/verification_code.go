package model

import "time"

// OTPの用途
type CodePurpose string

const (
	PurposeRegister       CodePurpose = "REGISTER"
	PurposeForgotPassword CodePurpose = "FORGOT_PASSWORD"
	PurposeLogin          CodePurpose = "LOGIN"
	PurposeDisable2FA     CodePurpose = "DISABLE_2FA"
)

// メール送信するOTPコード。
// (email, purpose)ごとに生きているコードは最大1件：再発行は上書きする。
type VerificationCode struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string      `gorm:"not null;uniqueIndex:idx_code_email_purpose" json:"email"`
	Code      string      `gorm:"type:varchar(6);not null" json:"-"`
	Purpose   CodePurpose `gorm:"type:varchar(20);not null;uniqueIndex:idx_code_email_purpose" json:"purpose"`
	ExpiresAt time.Time   `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time   `json:"created_at"`
}
