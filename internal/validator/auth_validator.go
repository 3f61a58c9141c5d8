package validator

import (
	"context"
	"regexp"
	"strings"

	"app/internal/apperr"
	"app/internal/domain/model"
	"app/internal/usecase"
)

var (
	//入力不正はすべて422で返す（fieldで対象項目を指す）
	errEmailMalformed   = apperr.Unprocessable("EMAIL_INVALID", "email is required or malformed").WithField("email")
	errPasswordTooShort = apperr.Unprocessable("PASSWORD_TOO_SHORT", "password must be at least 8 characters").WithField("password")
	errCodeMalformed    = apperr.Unprocessable("CODE_MALFORMED", "verification code must be 6 digits").WithField("code")
	errPurposeInvalid   = apperr.Unprocessable("PURPOSE_INVALID", "unknown code purpose").WithField("purpose")
)

// ざっくりしたemail形式チェック（厳密なRFC準拠はしない）
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type authValidator struct{}

// Usecaseはinterfaceを依存注入
func NewAuthValidator() usecase.AuthValidator {
	return &authValidator{}
}

// 会員登録の入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, email string, password string, code string) error {
	if err := checkEmail(email); err != nil {
		return err
	}
	//パスワード最低文字数（MVP: 8）
	if len(password) < 8 {
		return errPasswordTooShort
	}
	if !isSixDigits(code) {
		return errCodeMalformed
	}
	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	if err := checkEmail(email); err != nil {
		return err
	}
	if password == "" {
		return errPasswordTooShort
	}
	return nil
}

// OTP発行の入力を検証
func (v *authValidator) ValidateSendOTP(ctx context.Context, email string, purpose model.CodePurpose) error {
	if err := checkEmail(email); err != nil {
		return err
	}
	switch purpose {
	case model.PurposeRegister, model.PurposeForgotPassword, model.PurposeLogin, model.PurposeDisable2FA:
		return nil
	default:
		return errPurposeInvalid
	}
}

// パスワード再設定の入力を検証
func (v *authValidator) ValidateForgotPassword(ctx context.Context, email string, newPassword string, code string) error {
	if err := checkEmail(email); err != nil {
		return err
	}
	if len(newPassword) < 8 {
		return errPasswordTooShort
	}
	if !isSixDigits(code) {
		return errCodeMalformed
	}
	return nil
}

func checkEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !emailRe.MatchString(email) {
		return errEmailMalformed
	}
	return nil
}

func isSixDigits(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
