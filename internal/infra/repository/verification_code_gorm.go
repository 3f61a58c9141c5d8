package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	domainrepo "app/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type verificationCodeGormRepository struct {
	db *gorm.DB
}

func NewVerificationCodeGormRepository(db *gorm.DB) domainrepo.VerificationCodeRepository {
	return &verificationCodeGormRepository{db: db}
}

// (email, purpose)で上書き保存。古いコードは積み上げず常に1件に保つ。
func (r *verificationCodeGormRepository) Upsert(ctx context.Context, code *model.VerificationCode) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}, {Name: "purpose"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at", "created_at"}),
		}).
		Create(code).Error
}

// (email, purpose)で1件取得。
func (r *verificationCodeGormRepository) Find(ctx context.Context, email string, purpose model.CodePurpose) (*model.VerificationCode, error) {
	var code model.VerificationCode

	err := r.db.WithContext(ctx).
		Where("email = ? AND purpose = ?", email, purpose).
		First(&code).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrepo.ErrCodeNotFound
		}
		return nil, err
	}

	return &code, nil
}

// 使用済みコードを削除する。0件でもエラーにしない（best-effort削除で呼ばれる）。
func (r *verificationCodeGormRepository) Delete(ctx context.Context, email string, purpose model.CodePurpose) error {
	return r.db.WithContext(ctx).
		Where("email = ? AND purpose = ?", email, purpose).
		Delete(&model.VerificationCode{}).Error
}
