package mailer

import "app/internal/domain/model"

// OTPメール送信の約束。実装はinternal/infra/mail（SMTP）。
type Mailer interface {
	SendOTP(to string, code string, purpose model.CodePurpose) error
}
