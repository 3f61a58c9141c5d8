package twofactor

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	secretBytes = 20
	digits      = 6
	periodSec   = 30
	//前後1ステップまで許容（時計ズレ対策）
	skewSteps = 1
)

// TOTP（RFC 6238）の生成・検証。SHA-1 / 30秒 / 6桁固定。
type Service struct {
	issuer string
}

func NewService(issuer string) *Service {
	return &Service{issuer: issuer}
}

type Secret struct {
	//base32（padding無し）。ユーザーに永続化する
	Base32 string
	//QRコード登録用のotpauth URI
	URI string
}

// 新しいシークレットを作る。labelはユーザーのemail。
func (s *Service) GenerateSecret(email string) (*Secret, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}

	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	secret := enc.EncodeToString(raw)

	return &Secret{
		Base32: secret,
		URI:    s.provisionURI(secret, email),
	}, nil
}

// コードを検証する。現在ステップと前後skewSteps分を受け付ける。
func (s *Service) Verify(code string, email string, secretBase32 string) bool {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != digits || !isNumeric(trimmed) {
		return false
	}

	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	secret, err := enc.DecodeString(strings.ToUpper(secretBase32))
	if err != nil || len(secret) == 0 {
		return false
	}

	base := time.Now().Unix() / periodSec
	for step := int64(-skewSteps); step <= skewSteps; step++ {
		counter := base + step
		if counter < 0 {
			continue
		}
		want := hotpCode(secret, counter)
		if subtle.ConstantTimeCompare([]byte(want), []byte(trimmed)) == 1 {
			return true
		}
	}
	return false
}

func (s *Service) provisionURI(secretBase32 string, account string) string {
	label := url.PathEscape(s.issuer + ":" + account)

	v := url.Values{}
	v.Set("secret", secretBase32)
	v.Set("issuer", s.issuer)
	v.Set("period", fmt.Sprintf("%d", periodSec))
	v.Set("digits", fmt.Sprintf("%d", digits))
	v.Set("algorithm", "SHA1")

	return "otpauth://totp/" + label + "?" + v.Encode()
}

// HOTP（RFC 4226）1カウンター分のコード
func hotpCode(secret []byte, counter int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
