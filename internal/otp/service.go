package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"app/internal/domain/model"
	"app/internal/repository"
)

var (
	//コード不一致（存在しない場合も含む）
	ErrInvalidCode = errors.New("invalid verification code")
	//コードは合っているが期限切れ
	ErrCodeExpired = errors.New("verification code expired")
)

// 用途別6桁OTPの発行・検証。
type Service struct {
	codes repository.VerificationCodeRepository
	ttl   time.Duration
}

func NewService(codes repository.VerificationCodeRepository, ttl time.Duration) *Service {
	return &Service{codes: codes, ttl: ttl}
}

// 6桁コードを発行して(email, purpose)で上書き保存する。
// 期限内に再発行しても古いコードは残らない（常に最新1件）。
func (s *Service) Issue(ctx context.Context, email string, purpose model.CodePurpose) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", err
	}

	vc := &model.VerificationCode{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(s.ttl),
	}

	if err := s.codes.Upsert(ctx, vc); err != nil {
		return "", err
	}
	return code, nil
}

// コードを検証する。期限は検証した瞬間の時刻と比較する（発行時ではない）。
// expires_atちょうどは期限切れ扱い。
func (s *Service) Validate(ctx context.Context, email string, code string, purpose model.CodePurpose) error {
	vc, err := s.codes.Find(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return ErrInvalidCode
		}
		return err
	}

	if vc.Code != code {
		return ErrInvalidCode
	}

	if !time.Now().Before(vc.ExpiresAt) {
		return ErrCodeExpired
	}

	return nil
}

// 検証してから削除する。登録・パスワードリセットなど1回きりのフロー用
func (s *Service) Consume(ctx context.Context, email string, code string, purpose model.CodePurpose) error {
	if err := s.Validate(ctx, email, code, purpose); err != nil {
		return err
	}
	return s.codes.Delete(ctx, email, purpose)
}

// 検証済みコードの後始末用。検証はしない
func (s *Service) Forget(ctx context.Context, email string, purpose model.CodePurpose) error {
	return s.codes.Delete(ctx, email, purpose)
}

// 一様ランダムな6桁（000000〜999999）
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
