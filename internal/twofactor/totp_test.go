package twofactor

import (
	"encoding/base32"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	svc := NewService("MyApp")

	sec, err := svc.GenerateSecret("a@b.com")
	require.NoError(t, err)

	//paddingの無いbase32で、デコードすると20バイト
	assert.NotContains(t, sec.Base32, "=")
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(sec.Base32)
	require.NoError(t, err)
	assert.Len(t, raw, secretBytes)

	//URIに必要なパラメータが揃っている
	assert.True(t, strings.HasPrefix(sec.URI, "otpauth://totp/MyApp:a@b.com?"))
	assert.Contains(t, sec.URI, "secret="+sec.Base32)
	assert.Contains(t, sec.URI, "issuer=MyApp")
	assert.Contains(t, sec.URI, "period=30")
	assert.Contains(t, sec.URI, "digits=6")
}

func TestGenerateSecret_Unique(t *testing.T) {
	svc := NewService("MyApp")

	a, err := svc.GenerateSecret("a@b.com")
	require.NoError(t, err)
	b, err := svc.GenerateSecret("a@b.com")
	require.NoError(t, err)

	assert.NotEqual(t, a.Base32, b.Base32)
}

func TestVerify_CurrentAndAdjacentSteps(t *testing.T) {
	svc := NewService("MyApp")

	raw := []byte("12345678901234567890")
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)

	//ステップ境界の直前だと途中でbaseがずれるので少し待つ
	if rem := time.Now().Unix() % periodSec; rem >= periodSec-2 {
		time.Sleep(time.Duration(periodSec-rem) * time.Second)
	}
	base := time.Now().Unix() / periodSec

	//現在と前後1ステップは通る
	for _, step := range []int64{-1, 0, 1} {
		code := hotpCode(raw, base+step)
		assert.True(t, svc.Verify(code, "a@b.com", secret), "step %d", step)
	}

	//2ステップ離れたコードは拒否
	assert.False(t, svc.Verify(hotpCode(raw, base-2), "a@b.com", secret))
	assert.False(t, svc.Verify(hotpCode(raw, base+2), "a@b.com", secret))
}

func TestVerify_RejectsMalformedInput(t *testing.T) {
	svc := NewService("MyApp")

	raw := []byte("12345678901234567890")
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)

	assert.False(t, svc.Verify("", "a@b.com", secret))
	assert.False(t, svc.Verify("12345", "a@b.com", secret))
	assert.False(t, svc.Verify("1234567", "a@b.com", secret))
	assert.False(t, svc.Verify("12345a", "a@b.com", secret))
}

func TestVerify_RejectsBadSecret(t *testing.T) {
	svc := NewService("MyApp")

	assert.False(t, svc.Verify("123456", "a@b.com", "not!!base32"))
	assert.False(t, svc.Verify("123456", "a@b.com", ""))
}

func TestVerify_TrimsWhitespace(t *testing.T) {
	svc := NewService("MyApp")

	raw := []byte("12345678901234567890")
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)

	code := hotpCode(raw, time.Now().Unix()/periodSec)
	assert.True(t, svc.Verify(" "+code+" ", "a@b.com", secret))
}

func TestHotpCode_RFC4226Vectors(t *testing.T) {
	//RFC 4226 Appendix Dのテストベクタ
	secret := []byte("12345678901234567890")

	want := []string{
		"755224", "287082", "359152", "969429", "338314",
		"254676", "287922", "162583", "399871", "520489",
	}
	for counter, expected := range want {
		assert.Equal(t, expected, hotpCode(secret, int64(counter)), "counter %d", counter)
	}
}
