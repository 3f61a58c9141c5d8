package mail

import (
	"fmt"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/mailer"

	gomail "github.com/go-mail/mail"
)

type smtpMailer struct {
	host string
	port int
	user string
	pass string
	from string
}

// SMTP実装。SMTP_HOST未設定の環境（ローカル）ではNopMailerを使うこと。
func NewSMTPMailer(cfg config.Config) mailer.Mailer {
	return &smtpMailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.SMTPFrom,
	}
}

func (s *smtpMailer) SendOTP(to string, code string, purpose model.CodePurpose) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subjectFor(purpose))
	m.SetBody("text/plain", fmt.Sprintf("Your verification code is %s. It expires shortly.", code))

	d := gomail.NewDialer(s.host, s.port, s.user, s.pass)
	return d.DialAndSend(m)
}

func subjectFor(purpose model.CodePurpose) string {
	switch purpose {
	case model.PurposeRegister:
		return "Confirm your registration"
	case model.PurposeForgotPassword:
		return "Reset your password"
	case model.PurposeLogin:
		return "Your login code"
	case model.PurposeDisable2FA:
		return "Confirm disabling two-factor authentication"
	default:
		return "Your verification code"
	}
}

// 送信先が無い環境用のダミー実装。コードはログにも出さない
type nopMailer struct{}

func NewNopMailer() mailer.Mailer { return &nopMailer{} }

func (n *nopMailer) SendOTP(to string, code string, purpose model.CodePurpose) error { return nil }
