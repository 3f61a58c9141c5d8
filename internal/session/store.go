package session

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"app/internal/domain/model"
	"app/internal/repository"
)

// 削除済み（または最初から存在しない）トークンが提示された
var ErrTokenRevoked = errors.New("refresh token revoked")

// デバイスとリフレッシュトークンの永続化をまとめたストア。
// rotationの「一度きり」はConsumeRefreshTokenの削除件数で保証する：
// 同じトークンで競争しても、実際に行を消せた1リクエストだけが先に進める。
type Store struct {
	devices repository.DeviceRepository
	tokens  repository.RefreshTokenRepository
}

func NewStore(devices repository.DeviceRepository, tokens repository.RefreshTokenRepository) *Store {
	return &Store{devices: devices, tokens: tokens}
}

// ログイン/OAuthコールバックのたびに新しいデバイス行を作る（使い回し判定はしない）。
func (s *Store) CreateDevice(ctx context.Context, userID int64, userAgent string, ip string) (*model.Device, error) {
	device := &model.Device{
		UserID:     userID,
		UserAgent:  userAgent,
		IP:         ip,
		IsActive:   true,
		LastActive: time.Now(),
	}
	if err := s.devices.Create(ctx, device); err != nil {
		return nil, err
	}
	return device, nil
}

// リフレッシュトークンを保存する。平文は持たずSHA-256ハッシュだけDBに入れる。
// expiresAtはトークン自身のexpをそのまま渡すこと。
func (s *Store) SaveRefreshToken(ctx context.Context, userID int64, deviceID int64, tokenPlain string, expiresAt time.Time) error {
	return s.tokens.Create(ctx, &model.RefreshToken{
		TokenHash: hashToken(tokenPlain),
		UserID:    userID,
		DeviceID:  deviceID,
		ExpiresAt: expiresAt,
	})
}

// 提示されたトークンの行をUser・Role付きで引く。
func (s *Store) FindRefreshToken(ctx context.Context, tokenPlain string) (*model.RefreshToken, error) {
	rt, err := s.tokens.FindByHash(ctx, hashToken(tokenPlain))
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil, ErrTokenRevoked
		}
		return nil, err
	}
	return rt, nil
}

// トークン行を削除して無効化する。既に消えていればErrTokenRevoked。
// rotation/logout双方の単回使用ゲート。
func (s *Store) ConsumeRefreshToken(ctx context.Context, tokenPlain string) error {
	err := s.tokens.DeleteByHash(ctx, hashToken(tokenPlain))
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return ErrTokenRevoked
		}
		return err
	}
	return nil
}

// refresh時のデバイス更新。行の差し替えはせずUA/IP/last_activeだけ触る。
func (s *Store) TouchDevice(ctx context.Context, deviceID int64, userAgent string, ip string) error {
	return s.devices.Update(ctx, deviceID, userAgent, ip, time.Now())
}

// logout時にデバイスを非アクティブにする。
func (s *Store) DeactivateDevice(ctx context.Context, deviceID int64) error {
	return s.devices.Deactivate(ctx, deviceID)
}

// ユーザーの全リフレッシュトークンを削除する（全端末ログアウト・管理用）。
func (s *Store) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	return s.tokens.DeleteAllByUserID(ctx, userID)
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
