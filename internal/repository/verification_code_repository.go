package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

var ErrCodeNotFound = errors.New("verification code not found")

// OTPコードの保存・取得・削除
type VerificationCodeRepository interface {
	//(email, purpose)で上書き保存。既存コードがあっても積み上げない
	Upsert(ctx context.Context, code *model.VerificationCode) error
	//(email, purpose)で1件取得。なければErrCodeNotFound
	Find(ctx context.Context, email string, purpose model.CodePurpose) (*model.VerificationCode, error)
	//使用済みコードを削除
	Delete(ctx context.Context, email string, purpose model.CodePurpose) error
}
