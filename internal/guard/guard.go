package guard

import (
	"context"
	"errors"
	"strings"

	"app/internal/apperr"
	"app/internal/response"
	"app/internal/token"

	"github.com/labstack/echo/v4"
)

// Composerがcontextに入れるキー（ハンドラはc.Get()で読む）
const (
	CtxUserIDKey   = "auth_user_id"   // int64
	CtxEmailKey    = "auth_email"     // string
	CtxDeviceIDKey = "auth_device_id" // int64
	CtxRoleIDKey   = "auth_role_id"   // int64
	CtxRoleNameKey = "auth_role_name" // string
	CtxClaimsKey   = "auth_claims"    // *token.AccessClaims
)

// 認証ストラテジー。interfaceのポリモーフィズムではなくenum+switchで評価する。
type Strategy int

const (
	//Bearerトークン必須（デフォルト）
	StrategyBearer Strategy = iota
	//常に成功（明示的な公開エンドポイント）
	StrategyNone
)

// 複数ストラテジーの合成方法
type Combinator int

const (
	CombineAND Combinator = iota
	CombineOR
)

// ルートごとの宣言。宣言が無いルートはDefaultPolicy()を使う。
type Policy struct {
	Strategies []Strategy
	Combine    Combinator
}

func DefaultPolicy() Policy {
	return Policy{Strategies: []Strategy{StrategyBearer}, Combine: CombineAND}
}

func Public() Policy {
	return Policy{Strategies: []Strategy{StrategyNone}, Combine: CombineAND}
}

// アクセストークンの検証だけを切り出した依存
type TokenVerifier interface {
	VerifyAccess(tokenString string) (*token.AccessClaims, error)
}

// RBAC判定だけを切り出した依存
type Authorizer interface {
	Authorize(ctx context.Context, roleID int64, path string, method string) (bool, error)
}

// リクエストごとの認証・認可の単一入口。
// ストラテジー評価は宣言順に直列で行う（short-circuitとエラー優先順位を保つため）。
type Composer struct {
	verifier TokenVerifier
	rbac     Authorizer
}

func NewComposer(verifier TokenVerifier, rbac Authorizer) *Composer {
	return &Composer{verifier: verifier, rbac: rbac}
}

// policyに従って評価するechoミドルウェアを返す。
func (g *Composer) Middleware(policy Policy) echo.MiddlewareFunc {
	if len(policy.Strategies) == 0 {
		policy = DefaultPolicy()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := g.evaluatePolicy(c, policy); err != nil {
				return response.Error(c, err)
			}
			return next(c)
		}
	}
}

func (g *Composer) evaluatePolicy(c echo.Context, policy Policy) *apperr.Error {
	if policy.Combine == CombineOR {
		return g.evaluateOR(c, policy.Strategies)
	}
	return g.evaluateAND(c, policy.Strategies)
}

// OR：最初に成功したストラテジーで打ち切り。全滅なら最後の型付きエラーを返す。
func (g *Composer) evaluateOR(c echo.Context, strategies []Strategy) *apperr.Error {
	var last *apperr.Error
	for _, s := range strategies {
		err := g.evaluate(c, s)
		if err == nil {
			return nil
		}
		last = err
	}
	if last != nil {
		return last
	}
	return apperr.Unauthorized("UNAUTHORIZED", "unauthorized")
}

// AND：宣言順に全部成功が必要。最初の失敗で打ち切る。
func (g *Composer) evaluateAND(c echo.Context, strategies []Strategy) *apperr.Error {
	for _, s := range strategies {
		if err := g.evaluate(c, s); err != nil {
			return err
		}
	}
	return nil
}

// 1ストラテジーの評価。variantごとの処理はここのswitchに足す。
func (g *Composer) evaluate(c echo.Context, s Strategy) *apperr.Error {
	switch s {
	case StrategyNone:
		return nil
	case StrategyBearer:
		return g.evaluateBearer(c)
	default:
		return apperr.Unauthorized("UNAUTHORIZED", "unknown auth strategy")
	}
}

func (g *Composer) evaluateBearer(c echo.Context) *apperr.Error {
	raw, ok := extractBearer(c)
	if !ok {
		return apperr.Unauthorized("TOKEN_MISSING", "token missing or malformed")
	}

	claims, err := g.verifier.VerifyAccess(raw)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpiredToken):
			return apperr.Unauthorized("TOKEN_EXPIRED", "access token expired")
		case errors.Is(err, token.ErrMalformedToken):
			return apperr.Unauthorized("TOKEN_INVALID", "access token invalid")
		default:
			return apperr.Unauthorized("UNAUTHORIZED", "unauthorized")
		}
	}

	//検証済みclaimsをリクエストcontextへ
	c.Set(CtxUserIDKey, claims.UserID)
	c.Set(CtxEmailKey, claims.Email)
	c.Set(CtxDeviceIDKey, claims.DeviceID)
	c.Set(CtxRoleIDKey, claims.RoleID)
	c.Set(CtxRoleNameKey, claims.RoleName)
	c.Set(CtxClaimsKey, claims)

	allowed, err := g.rbac.Authorize(c.Request().Context(), claims.RoleID, c.Request().URL.Path, c.Request().Method)
	if err != nil || !allowed {
		return apperr.Forbidden("FORBIDDEN", "permission denied")
	}
	return nil
}

func extractBearer(c echo.Context) (string, bool) {
	authz := c.Request().Header.Get(echo.HeaderAuthorization)
	if authz == "" {
		return "", false
	}

	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	raw := strings.TrimSpace(parts[1])
	if raw == "" {
		return "", false
	}
	return raw, true
}

// ハンドラ用：contextからuser_idを取り出す
func UserIDFromContext(c echo.Context) (int64, bool) {
	v, ok := c.Get(CtxUserIDKey).(int64)
	return v, ok && v > 0
}

// ハンドラ用：contextからemailを取り出す
func EmailFromContext(c echo.Context) (string, bool) {
	v, ok := c.Get(CtxEmailKey).(string)
	return v, ok && v != ""
}

// ハンドラ用：contextから検証済みclaims一式を取り出す
func ClaimsFromContext(c echo.Context) (*token.AccessClaims, bool) {
	v, ok := c.Get(CtxClaimsKey).(*token.AccessClaims)
	return v, ok && v != nil
}
