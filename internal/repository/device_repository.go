package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
	"time"
)

var ErrDeviceNotFound = errors.New("device not found")

// デバイス（セッションの紐付け先）の保存・更新
type DeviceRepository interface {
	//新規デバイスを作成。ログインのたびに必ず1行増える
	Create(ctx context.Context, device *model.Device) error
	//UA/IP/last_activeを更新（行の差し替えはしない）
	Update(ctx context.Context, deviceID int64, userAgent string, ip string, lastActive time.Time) error
	//is_activeをfalseにする（logout時）
	Deactivate(ctx context.Context, deviceID int64) error
}
