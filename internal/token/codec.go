package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	//署名は正しいが期限切れ
	ErrExpiredToken = errors.New("token expired")
	//署名か構造が壊れている
	ErrMalformedToken = errors.New("token malformed")
	//その他のデコード失敗
	ErrVerificationFailed = errors.New("token verification failed")
)

// アクセストークンのclaims。ロール情報とデバイスIDを持つ。
type AccessClaims struct {
	UserID   int64  `json:"userId"`
	Email    string `json:"email"`
	DeviceID int64  `json:"deviceId"`
	RoleID   int64  `json:"roleId"`
	RoleName string `json:"roleName"`
	UUID     string `json:"uuid"`
	jwt.RegisteredClaims
}

// リフレッシュトークンのclaims。ロールは持たない（claims形状でaccessと区別する）。
type RefreshClaims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	UUID   string `json:"uuid"`
	jwt.RegisteredClaims
}

// access/refreshを別シークレット・別TTLで署名/検証するコーデック。
// 署名のたびにUUIDを埋めるので、同じclaimsでも2回発行すればトークンは必ず別物になる。
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewCodec(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) *Codec {
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// アクセストークンを署名して返す（HS512）。
func (c *Codec) SignAccess(userID int64, email string, deviceID int64, roleID int64, roleName string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(c.accessTTL)

	claims := AccessClaims{
		UserID:   userID,
		Email:    email,
		DeviceID: deviceID,
		RoleID:   roleID,
		RoleName: roleName,
		UUID:     uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// リフレッシュトークンを署名して返す。
// 返すexpはトークン自身のexpと同じ値：DB保存（RefreshToken.ExpiresAt）にそのまま使う。
func (c *Codec) SignRefresh(userID int64, email string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(c.refreshTTL)

	claims := RefreshClaims{
		UserID: userID,
		Email:  email,
		UUID:   uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// アクセストークンを検証する。エラー時はclaimsを返さない。
func (c *Codec) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.verify(tokenString, claims, c.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// リフレッシュトークンを検証する。accessシークレットで署名されたトークンはここで必ず落ちる。
func (c *Codec) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.verify(tokenString, claims, c.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *Codec) verify(tokenString string, claims jwt.Claims, secret []byte) error {
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS512 {
			return nil, ErrMalformedToken
		}
		return secret, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return ErrMalformedToken
		default:
			return ErrVerificationFailed
		}
	}

	if tok == nil || !tok.Valid {
		return ErrVerificationFailed
	}
	return nil
}
