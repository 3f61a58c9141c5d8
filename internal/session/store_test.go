package session

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mock: DeviceRepository
// =====================

type MockDeviceRepository struct {
	mock.Mock
}

func (m *MockDeviceRepository) Create(ctx context.Context, device *model.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *MockDeviceRepository) Update(ctx context.Context, deviceID int64, userAgent string, ip string, lastActive time.Time) error {
	args := m.Called(ctx, deviceID, userAgent, ip, lastActive)
	return args.Error(0)
}

func (m *MockDeviceRepository) Deactivate(ctx context.Context, deviceID int64) error {
	args := m.Called(ctx, deviceID)
	return args.Error(0)
}

// =====================
// Mock: RefreshTokenRepository
// =====================

type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	rt, _ := args.Get(0).(*model.RefreshToken)
	return rt, args.Error(1)
}

func (m *MockRefreshTokenRepository) DeleteByHash(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) DeleteAllByUserID(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func wantHash(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func TestStore_SaveRefreshToken_StoresHashOnly(t *testing.T) {
	ctx := context.Background()
	devices := new(MockDeviceRepository)
	tokens := new(MockRefreshTokenRepository)
	store := NewStore(devices, tokens)

	exp := time.Now().Add(24 * time.Hour)

	var saved *model.RefreshToken
	tokens.On("Create", ctx, mock.AnythingOfType("*model.RefreshToken")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*model.RefreshToken)
		}).
		Return(nil)

	require.NoError(t, store.SaveRefreshToken(ctx, 1, 2, "plain-token", exp))

	require.NotNil(t, saved)
	//平文は保存されない
	assert.NotEqual(t, "plain-token", saved.TokenHash)
	assert.Equal(t, wantHash("plain-token"), saved.TokenHash)
	assert.Equal(t, int64(1), saved.UserID)
	assert.Equal(t, int64(2), saved.DeviceID)
	assert.Equal(t, exp, saved.ExpiresAt)
}

func TestStore_FindRefreshToken(t *testing.T) {
	ctx := context.Background()
	devices := new(MockDeviceRepository)
	tokens := new(MockRefreshTokenRepository)
	store := NewStore(devices, tokens)

	tokens.On("FindByHash", ctx, wantHash("plain-token")).Return(&model.RefreshToken{
		ID:     7,
		UserID: 1,
	}, nil)

	rt, err := store.FindRefreshToken(ctx, "plain-token")
	require.NoError(t, err)
	assert.Equal(t, int64(7), rt.ID)
}

func TestStore_FindRefreshToken_Unknown(t *testing.T) {
	ctx := context.Background()
	devices := new(MockDeviceRepository)
	tokens := new(MockRefreshTokenRepository)
	store := NewStore(devices, tokens)

	tokens.On("FindByHash", ctx, mock.Anything).Return(nil, repository.ErrRefreshTokenNotFound)

	_, err := store.FindRefreshToken(ctx, "never-issued")
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestStore_ConsumeRefreshToken_SingleUseGate(t *testing.T) {
	ctx := context.Background()
	devices := new(MockDeviceRepository)
	tokens := new(MockRefreshTokenRepository)
	store := NewStore(devices, tokens)

	//1回目は削除成功、2回目は行が無い
	tokens.On("DeleteByHash", ctx, wantHash("plain-token")).Return(nil).Once()
	tokens.On("DeleteByHash", ctx, wantHash("plain-token")).Return(repository.ErrRefreshTokenNotFound).Once()

	assert.NoError(t, store.ConsumeRefreshToken(ctx, "plain-token"))
	assert.ErrorIs(t, store.ConsumeRefreshToken(ctx, "plain-token"), ErrTokenRevoked)
}

func TestStore_CreateDevice(t *testing.T) {
	ctx := context.Background()
	devices := new(MockDeviceRepository)
	tokens := new(MockRefreshTokenRepository)
	store := NewStore(devices, tokens)

	devices.On("Create", ctx, mock.AnythingOfType("*model.Device")).Return(nil)

	device, err := store.CreateDevice(ctx, 1, "Mozilla/5.0", "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, int64(1), device.UserID)
	assert.Equal(t, "Mozilla/5.0", device.UserAgent)
	assert.Equal(t, "203.0.113.9", device.IP)
	assert.True(t, device.IsActive)
	assert.WithinDuration(t, time.Now(), device.LastActive, 2*time.Second)
}

func TestStore_RevokeAll(t *testing.T) {
	ctx := context.Background()
	devices := new(MockDeviceRepository)
	tokens := new(MockRefreshTokenRepository)
	store := NewStore(devices, tokens)

	tokens.On("DeleteAllByUserID", ctx, int64(1)).Return(int64(3), nil)

	n, err := store.RevokeAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
