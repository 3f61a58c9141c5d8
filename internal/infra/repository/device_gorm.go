package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
	domainrepo "app/internal/repository"

	"gorm.io/gorm"
)

type deviceGormRepository struct {
	db *gorm.DB
}

func NewDeviceGormRepository(db *gorm.DB) domainrepo.DeviceRepository {
	return &deviceGormRepository{db: db}
}

// デバイスを新規作成。
func (r *deviceGormRepository) Create(ctx context.Context, device *model.Device) error {
	if err := r.db.WithContext(ctx).Create(device).Error; err != nil {
		return err
	}
	return nil
}

// UA/IP/last_activeだけ更新する。
func (r *deviceGormRepository) Update(ctx context.Context, deviceID int64, userAgent string, ip string, lastActive time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ?", deviceID).
		Updates(map[string]interface{}{
			"user_agent":  userAgent,
			"ip":          ip,
			"last_active": lastActive,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainrepo.ErrDeviceNotFound
	}
	return nil
}

// is_activeをfalseにする。
func (r *deviceGormRepository) Deactivate(ctx context.Context, deviceID int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ?", deviceID).
		Update("is_active", false)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainrepo.ErrDeviceNotFound
	}
	return nil
}
