package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(accessTTL, refreshTTL time.Duration) *Codec {
	return NewCodec("access-secret", "refresh-secret", accessTTL, refreshTTL)
}

func TestCodec_AccessRoundTrip(t *testing.T) {
	c := newTestCodec(15*time.Minute, 24*time.Hour)

	signed, exp, err := c.SignAccess(42, "user@example.com", 7, 3, "ADMIN")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 2*time.Second)

	claims, err := c.VerifyAccess(signed)
	require.NoError(t, err)

	//uuid/iat/exp以外は入れたclaimsがそのまま返る
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, int64(7), claims.DeviceID)
	assert.Equal(t, int64(3), claims.RoleID)
	assert.Equal(t, "ADMIN", claims.RoleName)
	assert.NotEmpty(t, claims.UUID)
	assert.NotNil(t, claims.IssuedAt)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestCodec_SameClaimsNeverSameToken(t *testing.T) {
	c := newTestCodec(15*time.Minute, 24*time.Hour)

	//同じclaimsでもuuidが違うのでビット単位で別トークンになる
	t1, _, err := c.SignAccess(1, "a@b.com", 1, 1, "CLIENT")
	require.NoError(t, err)
	t2, _, err := c.SignAccess(1, "a@b.com", 1, 1, "CLIENT")
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)

	r1, _, err := c.SignRefresh(1, "a@b.com")
	require.NoError(t, err)
	r2, _, err := c.SignRefresh(1, "a@b.com")
	require.NoError(t, err)

	assert.NotEqual(t, r1, r2)
}

func TestCodec_ExpiredAccessToken(t *testing.T) {
	//過去に期限切れになるTTL
	c := newTestCodec(-1*time.Minute, 24*time.Hour)

	signed, _, err := c.SignAccess(1, "a@b.com", 1, 1, "CLIENT")
	require.NoError(t, err)

	claims, err := c.VerifyAccess(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestCodec_MalformedToken(t *testing.T) {
	c := newTestCodec(15*time.Minute, 24*time.Hour)

	claims, err := c.VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrMalformedToken)
	assert.Nil(t, claims)
}

func TestCodec_TamperedSignature(t *testing.T) {
	c := newTestCodec(15*time.Minute, 24*time.Hour)

	signed, _, err := c.SignAccess(1, "a@b.com", 1, 1, "CLIENT")
	require.NoError(t, err)

	claims, err := c.VerifyAccess(signed + "x")
	assert.ErrorIs(t, err, ErrMalformedToken)
	assert.Nil(t, claims)
}

func TestCodec_RefreshNotAcceptedAsAccess(t *testing.T) {
	c := newTestCodec(15*time.Minute, 24*time.Hour)

	//refreshはaccessと別シークレットなので、accessとして検証すると必ず落ちる
	refresh, _, err := c.SignRefresh(1, "a@b.com")
	require.NoError(t, err)

	claims, err := c.VerifyAccess(refresh)
	assert.Error(t, err)
	assert.Nil(t, claims)

	//逆方向も同じ
	access, _, err := c.SignAccess(1, "a@b.com", 1, 1, "CLIENT")
	require.NoError(t, err)

	rClaims, err := c.VerifyRefresh(access)
	assert.Error(t, err)
	assert.Nil(t, rClaims)
}

func TestCodec_RefreshExpiryMatchesReturnedValue(t *testing.T) {
	c := newTestCodec(15*time.Minute, 24*time.Hour)

	signed, exp, err := c.SignRefresh(1, "a@b.com")
	require.NoError(t, err)

	claims, err := c.VerifyRefresh(signed)
	require.NoError(t, err)

	//DB保存に使うexpはトークン自身のexpと同一（秒精度）
	assert.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())
}
