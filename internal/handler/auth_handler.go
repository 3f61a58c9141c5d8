package handler

import (
	"net/http"
	"strconv"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/guard"
	"app/internal/middleware"
	"app/internal/response"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// /auth配下のHTTP
type AuthHandler struct {
	uc *usecase.AuthUsecase
}

// DI
func NewAuthHandler(uc *usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type sendOTPRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totpCode"`
	Code     string `json:"code"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

type disable2FARequest struct {
	TOTPCode string `json:"totpCode"`
	Code     string `json:"code"`
}

// ルート登録。guardのポリシーはここで静的に宣言する（ランタイム introspection はしない）。
func (h *AuthHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, g *guard.Composer, rdb *redis.Client) {
	public := g.Middleware(guard.Public())
	bearer := g.Middleware(guard.DefaultPolicy())
	//Bearerで識別できれば使うが、無くても通す（OR短絡）
	optional := g.Middleware(guard.Policy{
		Strategies: []guard.Strategy{guard.StrategyBearer, guard.StrategyNone},
		Combine:    guard.CombineOR,
	})

	//総当たり対策：OTP発行とログインだけ絞る
	limited := middleware.RateLimit(rdb, 10, time.Minute)

	base := e.Group(cfg.RoutePrefix)

	auth := base.Group("/auth")
	auth.POST("/register", h.register, public)
	auth.POST("/otp", h.sendOTP, public, limited)
	auth.POST("/login", h.login, public, limited)
	auth.POST("/refresh-token", h.refresh, public)
	auth.POST("/logout", h.logout, public)
	auth.POST("/forgot-password", h.forgotPassword, public)
	auth.GET("/google-link", h.googleLink, public)
	auth.GET("/google/callback", h.googleCallback, public)
	auth.POST("/2fa/setup", h.setup2FA, bearer)
	auth.POST("/2fa/disable", h.disable2FA, bearer)
	auth.POST("/logout-all", h.logoutAll, bearer)

	base.GET("/profile", h.me, bearer)
	base.GET("/profile/audit", h.auditTrail, bearer)
	base.GET("/health", h.health, optional)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Register(c.Request().Context(), usecase.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Code:     req.Code,
	})
	if err != nil {
		return writeError(c, err)
	}

	return response.JSON(c, http.StatusCreated, out)
}

func (h *AuthHandler) sendOTP(c echo.Context) error {
	var req sendOTPRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.SendOTP(c.Request().Context(), req.Email, model.CodePurpose(req.Purpose))
	if err != nil {
		return writeError(c, err)
	}

	return response.JSON(c, http.StatusOK, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Login(c.Request().Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		TOTPCode: req.TOTPCode,
		Code:     req.Code,
	}, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return writeError(c, err)
	}

	return response.JSON(c, http.StatusOK, out)
}

func (h *AuthHandler) refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Refresh(c.Request().Context(), req.RefreshToken, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return writeError(c, err)
	}

	return response.JSON(c, http.StatusOK, out)
}

func (h *AuthHandler) logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Logout(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return writeError(c, err)
	}

	return response.JSON(c, http.StatusOK, out)
}

func (h *AuthHandler) logoutAll(c echo.Context) error {
	userID, ok := guard.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	count, err := h.uc.RevokeAllSessions(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return response.JSON(c, http.StatusOK, map[string]int64{"revoked": count})
}

func (h *AuthHandler) forgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.ForgotPassword(c.Request().Context(), usecase.ForgotPasswordInput{
		Email:       req.Email,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return writeError(c, err)
	}

	return response.JSON(c, http.StatusOK, out)
}

func (h *AuthHandler) setup2FA(c echo.Context) error {
	userID, ok := guard.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.Setup2FA(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return response.JSON(c, http.StatusOK, out)
}

func (h *AuthHandler) disable2FA(c echo.Context) error {
	userID, ok := guard.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req disable2FARequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Disable2FA(c.Request().Context(), userID, req.TOTPCode, req.Code)
	if err != nil {
		return writeError(c, err)
	}

	return response.JSON(c, http.StatusOK, out)
}

func (h *AuthHandler) googleLink(c echo.Context) error {
	return response.JSON(c, http.StatusOK, map[string]string{"url": h.uc.GoogleLink()})
}

func (h *AuthHandler) googleCallback(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return badRequest(c, "code is required")
	}

	out, err := h.uc.GoogleCallback(c.Request().Context(), code, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return writeError(c, err)
	}

	return response.JSON(c, http.StatusOK, out)
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, ok := guard.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return response.JSON(c, http.StatusOK, out)
}

func (h *AuthHandler) auditTrail(c echo.Context) error {
	userID, ok := guard.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	out, err := h.uc.AuditTrail(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return writeError(c, err)
	}

	return response.JSON(c, http.StatusOK, out)
}

func (h *AuthHandler) health(c echo.Context) error {
	//Bearerで通っていればemailも返す（optionalポリシーの確認用）
	body := map[string]string{"status": "ok"}
	if email, ok := guard.EmailFromContext(c); ok {
		body["email"] = email
	}
	return response.JSON(c, http.StatusOK, body)
}
