package usecase

import (
	"context"
	"errors"

	"app/internal/apperr"
	"app/internal/domain/model"
	"app/internal/mailer"
	"app/internal/oauth"
	"app/internal/otp"
	"app/internal/repository"
	"app/internal/session"
	"app/internal/token"
	"app/internal/twofactor"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

// 認証フローの業務エラー。codeはclient向けに安定させる。
var (
	//422 emailのユーザーがいない（フォームUX優先であえて区別して返す）
	ErrEmailNotExists = apperr.Unprocessable("EMAIL_NOT_EXISTS", "email does not exist").WithField("email")
	//422 パスワード不一致
	ErrPasswordIncorrect = apperr.Unprocessable("PASSWORD_INCORRECT", "password is incorrect").WithField("password")
	//409 email重複
	ErrEmailAlreadyExists = apperr.Conflict("EMAIL_ALREADY_EXISTS", "email already exists").WithField("email")
	//422 OTP不正
	ErrInvalidOTP = apperr.Unprocessable("INVALID_OTP", "verification code is invalid").WithField("code")
	//422 OTP期限切れ
	ErrOTPExpired = apperr.Unprocessable("OTP_EXPIRED", "verification code has expired").WithField("code")
	//422 TOTPコード不正
	ErrInvalidTOTP = apperr.Unprocessable("INVALID_TOTP", "totp code is invalid").WithField("totpCode")
	//422 2FA有効ユーザーはtotpCodeとcodeのどちらか片方だけ
	ErrInvalidTOTPAndCode = apperr.Unprocessable("INVALID_TOTP_AND_CODE", "exactly one of totpCode or code is required")
	//422 すでに2FA有効
	ErrTOTPAlreadyEnabled = apperr.Unprocessable("TOTP_ALREADY_ENABLED", "totp is already enabled")
	//422 2FAが有効でないのにdisableしようとした
	ErrTOTPNotEnabled = apperr.Unprocessable("TOTP_NOT_ENABLED", "totp is not enabled")
	//401 提示されたrefresh tokenは失効済み（rotation済み・logout済み・未発行を含む）
	ErrRefreshTokenRevoked = apperr.Unauthorized("REFRESH_TOKEN_REVOKED", "refresh token revoked")
	//401 汎用（内部詳細は漏らさない）
	ErrUnauthorized = apperr.Unauthorized("UNAUTHORIZED", "unauthorized")
	//403 BLOCKED/INACTIVEユーザー
	ErrUserNotActive = apperr.Forbidden("USER_NOT_ACTIVE", "user is not active")
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, email string, password string, code string) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateSendOTP(ctx context.Context, email string, purpose model.CodePurpose) error
	ValidateForgotPassword(ctx context.Context, email string, newPassword string, code string) error
}

type UserDTO struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	RoleID       int64  `json:"role_id"`
	RoleName     string `json:"role_name"`
	Status       string `json:"status"`
	TwoFAEnabled bool   `json:"two_fa_enabled"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Code     string
}

type LoginInput struct {
	Email    string
	Password string
	//2FA有効ユーザー用：TOTPコードかメールOTPのどちらか片方だけ
	TOTPCode string
	Code     string
}

type LoginOutput struct {
	User   UserDTO   `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

type ForgotPasswordInput struct {
	Email       string
	Code        string
	NewPassword string
}

type TwoFASetupOutput struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

type SuccessOutput struct {
	Message string `json:"message"`
}

const defaultRoleCacheKey = "default_role"

// 認証フロー（register/login/refresh/logout/forgot-password/2FA）の調整役。
type AuthUsecase struct {
	users     repository.UserRepository
	roles     repository.RoleRepository
	audits    repository.AuditLogRepository
	sessions  *session.Store
	codec     *token.Codec
	otp       *otp.Service
	twofa     *twofactor.Service
	mail      mailer.Mailer
	google    oauth.GoogleProvider
	validator AuthValidator

	//デフォルトロールは実質不変の設定値なのでプロセス生存中キャッシュしてよい。
	//モジュール変数ではなくこのインスタンスが所有する。
	defaultRoleName string
	roleCache       *gocache.Cache
}

func NewAuthUsecase(
	users repository.UserRepository,
	roles repository.RoleRepository,
	audits repository.AuditLogRepository,
	sessions *session.Store,
	codec *token.Codec,
	otpSvc *otp.Service,
	twofa *twofactor.Service,
	mail mailer.Mailer,
	google oauth.GoogleProvider,
	validator AuthValidator,
	defaultRoleName string,
) *AuthUsecase {
	return &AuthUsecase{
		users:           users,
		roles:           roles,
		audits:          audits,
		sessions:        sessions,
		codec:           codec,
		otp:             otpSvc,
		twofa:           twofa,
		mail:            mail,
		google:          google,
		validator:       validator,
		defaultRoleName: defaultRoleName,
		roleCache:       gocache.New(gocache.NoExpiration, gocache.NoExpiration),
	}
}

// 会員登録。REGISTER用途のOTPが正しいことが前提。
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (*UserDTO, error) {
	if err := u.validator.ValidateRegister(ctx, in.Email, in.Password, in.Code); err != nil {
		return nil, err
	}

	if err := u.otp.Validate(ctx, in.Email, in.Code, model.PurposeRegister); err != nil {
		return nil, mapOTPError(err)
	}

	role, err := u.defaultRole(ctx)
	if err != nil {
		return nil, err
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &model.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: string(pwHash),
		RoleID:       role.ID,
		Status:       model.UserStatusActive,
	}

	//email重複レースはDBのuniqueで最終防衛
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, apperr.Internal(err)
	}

	//使い終わったコードはbest-effortで削除（失敗しても登録は成立）
	_ = u.otp.Forget(ctx, in.Email, model.PurposeRegister)

	dto := toUserDTO(user, role.Name)
	return &dto, nil
}

// OTPを発行してメール送信する。
// REGISTER用途は未登録email限定、それ以外は登録済みemail限定。
func (u *AuthUsecase) SendOTP(ctx context.Context, email string, purpose model.CodePurpose) (*SuccessOutput, error) {
	if err := u.validator.ValidateSendOTP(ctx, email, purpose); err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if purpose == model.PurposeRegister {
		if user != nil {
			return nil, ErrEmailAlreadyExists
		}
	} else if user == nil {
		return nil, ErrEmailNotExists
	}

	code, err := u.otp.Issue(ctx, email, purpose)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if err := u.mail.SendOTP(email, code, purpose); err != nil {
		return nil, apperr.Internal(err)
	}

	return &SuccessOutput{Message: "verification code sent"}, nil
}

// ログイン。2FA有効ユーザーはtotpCodeかメールOTP（LOGIN用途）のどちらか片方が必須。
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput, userAgent string, ip string) (*LoginOutput, error) {
	if err := u.validator.ValidateLogin(ctx, in.Email, in.Password); err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, ErrEmailNotExists
	}

	if user.Status != model.UserStatusActive {
		return nil, ErrUserNotActive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		u.audit(ctx, user.ID, user.Email, model.AuditActionLoginFailed, userAgent, ip)
		return nil, ErrPasswordIncorrect
	}

	//2FA有効なら第二要素を要求
	if user.TOTPSecret != "" {
		if err := u.checkSecondFactor(ctx, user, in.TOTPCode, in.Code); err != nil {
			u.audit(ctx, user.ID, user.Email, model.AuditActionLoginFailed, userAgent, ip)
			return nil, err
		}
	}

	role, err := u.roles.FindByID(ctx, user.RoleID)
	if err != nil || role == nil {
		return nil, apperr.Internal(err)
	}

	device, err := u.sessions.CreateDevice(ctx, user.ID, userAgent, ip)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	pair, err := u.issueTokenPair(ctx, user, role.Name, device.ID)
	if err != nil {
		return nil, err
	}

	u.audit(ctx, user.ID, user.Email, model.AuditActionLogin, userAgent, ip)

	return &LoginOutput{User: toUserDTO(user, role.Name), Tokens: *pair}, nil
}

// トークンペア発行（login/refresh/OAuth callback共通）。
// refresh行のexpires_atにはトークン自身のexpと同じ値を入れる。
func (u *AuthUsecase) issueTokenPair(ctx context.Context, user *model.User, roleName string, deviceID int64) (*TokenPair, error) {
	access, _, err := u.codec.SignAccess(user.ID, user.Email, deviceID, user.RoleID, roleName)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	refresh, refreshExp, err := u.codec.SignRefresh(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if err := u.sessions.SaveRefreshToken(ctx, user.ID, deviceID, refresh, refreshExp); err != nil {
		return nil, apperr.Internal(err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// refresh tokenのrotation。
// 旧トークン行の削除が単回使用のゲート：同じトークンの同時refreshは片方しか通らない。
// 認証エラーとして認識できない失敗は全部401に畳む。
func (u *AuthUsecase) Refresh(ctx context.Context, refreshToken string, userAgent string, ip string) (*TokenPair, error) {
	if _, err := u.codec.VerifyRefresh(refreshToken); err != nil {
		return nil, ErrUnauthorized
	}

	rt, err := u.sessions.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrTokenRevoked) {
			return nil, ErrRefreshTokenRevoked
		}
		return nil, ErrUnauthorized
	}

	user := rt.User
	if user == nil || user.Role == nil {
		return nil, ErrUnauthorized
	}

	//単回使用ゲート。ここで0件なら他リクエストにrotationを取られている
	if err := u.sessions.ConsumeRefreshToken(ctx, refreshToken); err != nil {
		if errors.Is(err, session.ErrTokenRevoked) {
			return nil, ErrRefreshTokenRevoked
		}
		return nil, ErrUnauthorized
	}

	access, _, err := u.codec.SignAccess(user.ID, user.Email, rt.DeviceID, user.RoleID, user.Role.Name)
	if err != nil {
		return nil, ErrUnauthorized
	}
	refresh, refreshExp, err := u.codec.SignRefresh(user.ID, user.Email)
	if err != nil {
		return nil, ErrUnauthorized
	}

	//デバイス更新と新トークン保存は並行。両方終わるまで返さない
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return u.sessions.TouchDevice(gctx, rt.DeviceID, userAgent, ip)
	})
	g.Go(func() error {
		return u.sessions.SaveRefreshToken(gctx, user.ID, rt.DeviceID, refresh, refreshExp)
	})
	if err := g.Wait(); err != nil {
		return nil, ErrUnauthorized
	}

	u.audit(ctx, user.ID, user.Email, model.AuditActionTokenRefresh, userAgent, ip)

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ログアウト。refresh token行を消してデバイスを非アクティブにする。
func (u *AuthUsecase) Logout(ctx context.Context, refreshToken string) (*SuccessOutput, error) {
	if _, err := u.codec.VerifyRefresh(refreshToken); err != nil {
		return nil, ErrUnauthorized
	}

	rt, err := u.sessions.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrTokenRevoked) {
			return nil, ErrRefreshTokenRevoked
		}
		return nil, apperr.Internal(err)
	}

	if err := u.sessions.ConsumeRefreshToken(ctx, refreshToken); err != nil {
		if errors.Is(err, session.ErrTokenRevoked) {
			return nil, ErrRefreshTokenRevoked
		}
		return nil, apperr.Internal(err)
	}

	_ = u.sessions.DeactivateDevice(ctx, rt.DeviceID)

	u.audit(ctx, rt.UserID, "", model.AuditActionLogout, "", "")

	return &SuccessOutput{Message: "logout success"}, nil
}

// 全端末ログアウト（管理向け）。削除できた件数を返す。
func (u *AuthUsecase) RevokeAllSessions(ctx context.Context, userID int64) (int64, error) {
	count, err := u.sessions.RevokeAll(ctx, userID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	u.audit(ctx, userID, "", model.AuditActionSessionsRevoke, "", "")
	return count, nil
}

// パスワード再設定。FORGOT_PASSWORD用途のOTPが必要。
func (u *AuthUsecase) ForgotPassword(ctx context.Context, in ForgotPasswordInput) (*SuccessOutput, error) {
	if err := u.validator.ValidateForgotPassword(ctx, in.Email, in.NewPassword, in.Code); err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, ErrEmailNotExists
	}

	if err := u.otp.Validate(ctx, in.Email, in.Code, model.PurposeForgotPassword); err != nil {
		return nil, mapOTPError(err)
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user.PasswordHash = string(pwHash)
	if err := u.users.Update(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}

	//単回使用：使ったコードは消す
	_ = u.otp.Forget(ctx, in.Email, model.PurposeForgotPassword)

	u.audit(ctx, user.ID, user.Email, model.AuditActionPasswordReset, "", "")

	return &SuccessOutput{Message: "password updated"}, nil
}

// 2FAセットアップ。既に有効ならエラー。
func (u *AuthUsecase) Setup2FA(ctx context.Context, userID int64) (*TwoFASetupOutput, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, ErrEmailNotExists
	}
	if user.TOTPSecret != "" {
		return nil, ErrTOTPAlreadyEnabled
	}

	secret, err := u.twofa.GenerateSecret(user.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user.TOTPSecret = secret.Base32
	if err := u.users.Update(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}

	u.audit(ctx, user.ID, user.Email, model.AuditActionTwoFAEnabled, "", "")

	return &TwoFASetupOutput{Secret: secret.Base32, URI: secret.URI}, nil
}

// 2FA解除。loginと同じ「どちらか片方だけ」ルール（OTPはDISABLE_2FA用途・単回使用）。
func (u *AuthUsecase) Disable2FA(ctx context.Context, userID int64, totpCode string, code string) (*SuccessOutput, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, ErrEmailNotExists
	}
	if user.TOTPSecret == "" {
		return nil, ErrTOTPNotEnabled
	}

	hasTOTP := totpCode != ""
	hasCode := code != ""
	if hasTOTP == hasCode {
		return nil, ErrInvalidTOTPAndCode
	}

	if hasTOTP {
		if !u.twofa.Verify(totpCode, user.Email, user.TOTPSecret) {
			return nil, ErrInvalidTOTP
		}
	} else {
		if err := u.otp.Consume(ctx, user.Email, code, model.PurposeDisable2FA); err != nil {
			return nil, mapOTPError(err)
		}
	}

	user.TOTPSecret = ""
	if err := u.users.Update(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}

	u.audit(ctx, user.ID, user.Email, model.AuditActionTwoFADisabled, "", "")

	return &SuccessOutput{Message: "totp disabled"}, nil
}

// Google認可URLを返す。
func (u *AuthUsecase) GoogleLink() string {
	return u.google.AuthURL(uuid.NewString())
}

// Google callback。email一致のユーザーが居なければデフォルトロールで新規作成する。
func (u *AuthUsecase) GoogleCallback(ctx context.Context, code string, userAgent string, ip string) (*LoginOutput, error) {
	profile, err := u.google.Exchange(ctx, code)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := u.users.FindByEmail(ctx, profile.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if user == nil {
		role, err := u.defaultRole(ctx)
		if err != nil {
			return nil, err
		}

		//パスワードログイン不可のランダム値を入れておく
		pwHash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperr.Internal(err)
		}

		user = &model.User{
			Email:        profile.Email,
			Name:         profile.Name,
			PasswordHash: string(pwHash),
			RoleID:       role.ID,
			Status:       model.UserStatusActive,
		}
		if err := u.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrEmailTaken) {
				return nil, ErrEmailAlreadyExists
			}
			return nil, apperr.Internal(err)
		}
	}

	if user.Status != model.UserStatusActive {
		return nil, ErrUserNotActive
	}

	role, err := u.roles.FindByID(ctx, user.RoleID)
	if err != nil || role == nil {
		return nil, apperr.Internal(err)
	}

	device, err := u.sessions.CreateDevice(ctx, user.ID, userAgent, ip)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	pair, err := u.issueTokenPair(ctx, user, role.Name, device.ID)
	if err != nil {
		return nil, err
	}

	u.audit(ctx, user.ID, user.Email, model.AuditActionLogin, userAgent, ip)

	return &LoginOutput{User: toUserDTO(user, role.Name), Tokens: *pair}, nil
}

// 自分の認証イベント履歴を新しい順で返す。
func (u *AuthUsecase) AuditTrail(ctx context.Context, userID int64, limit int, offset int) ([]model.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	logs, err := u.audits.List(ctx, repository.AuditLogFilter{
		UserID: &userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return logs, nil
}

// /profile用。guardを通ったuserIDで自分を引く。
func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, ErrUnauthorized
	}

	roleName := ""
	if role, err := u.roles.FindByID(ctx, user.RoleID); err == nil && role != nil {
		roleName = role.Name
	}

	dto := toUserDTO(user, roleName)
	return &dto, nil
}

// 2FAの第二要素チェック。totpCodeとcodeは排他で必ず片方だけ。
func (u *AuthUsecase) checkSecondFactor(ctx context.Context, user *model.User, totpCode string, code string) error {
	hasTOTP := totpCode != ""
	hasCode := code != ""
	if hasTOTP == hasCode {
		return ErrInvalidTOTPAndCode
	}

	if hasTOTP {
		if !u.twofa.Verify(totpCode, user.Email, user.TOTPSecret) {
			return ErrInvalidTOTP
		}
		return nil
	}

	//LOGIN用途のOTPは検証のみ（期限が切れるまで同一コードを使える）
	if err := u.otp.Validate(ctx, user.Email, code, model.PurposeLogin); err != nil {
		return mapOTPError(err)
	}
	return nil
}

// デフォルトロールのget-or-load。設定値扱いなので無効化はしない。
func (u *AuthUsecase) defaultRole(ctx context.Context) (*model.Role, error) {
	if v, ok := u.roleCache.Get(defaultRoleCacheKey); ok {
		if role, ok := v.(*model.Role); ok {
			return role, nil
		}
	}

	role, err := u.roles.FindByName(ctx, u.defaultRoleName)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if role == nil {
		return nil, apperr.Internal(errors.New("default role not found: " + u.defaultRoleName))
	}

	u.roleCache.Set(defaultRoleCacheKey, role, gocache.NoExpiration)
	return role, nil
}

// 監査ログはbest-effort。失敗してもフローは止めない
func (u *AuthUsecase) audit(ctx context.Context, userID int64, email string, action model.AuditAction, userAgent string, ip string) {
	_ = u.audits.Create(ctx, model.AuditLog{
		UserID:    userID,
		Email:     email,
		Action:    action,
		UserAgent: userAgent,
		IP:        ip,
	})
}

func mapOTPError(err error) error {
	switch {
	case errors.Is(err, otp.ErrInvalidCode):
		return ErrInvalidOTP
	case errors.Is(err, otp.ErrCodeExpired):
		return ErrOTPExpired
	default:
		return apperr.Internal(err)
	}
}

func toUserDTO(u *model.User, roleName string) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		RoleID:       u.RoleID,
		RoleName:     roleName,
		Status:       string(u.Status),
		TwoFAEnabled: u.TOTPSecret != "",
	}
}
