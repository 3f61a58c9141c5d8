package main

import (
	"log"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/guard"
	"app/internal/handler"
	"app/internal/infra/db"
	infraMail "app/internal/infra/mail"
	infraOAuth "app/internal/infra/oauth"
	infraRepo "app/internal/infra/repository"
	"app/internal/mailer"
	"app/internal/otp"
	"app/internal/rbac"
	"app/internal/server"
	"app/internal/session"
	"app/internal/token"
	"app/internal/twofactor"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/joho/godotenv"
)

func main() {
	//.envは無くてもよい（本番は環境変数直指定）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Role{},
		&model.Permission{},
		&model.Device{},
		&model.RefreshToken{},
		&model.VerificationCode{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal(err)
	}

	//rate limiter用redis（REDIS_ADDR未設定ならnil＝無効）
	rdb := db.ConnectRedis(cfg)

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	roleRepo := infraRepo.NewRoleGormRepository(gormDB)
	deviceRepo := infraRepo.NewDeviceGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenGormRepository(gormDB)
	codeRepo := infraRepo.NewVerificationCodeGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//コア部品
	codec := token.NewCodec(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	otpSvc := otp.NewService(codeRepo, cfg.OTPTTL)
	twofaSvc := twofactor.NewService(cfg.TOTPIssuer)
	sessions := session.NewStore(deviceRepo, rtRepo)
	checker := rbac.NewChecker(roleRepo, cfg.RoutePrefix)

	//外部コラボレーター
	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = infraMail.NewSMTPMailer(cfg)
	} else {
		mail = infraMail.NewNopMailer()
	}
	google := infraOAuth.NewGoogleProvider(cfg)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(
		userRepo, roleRepo, auditRepo,
		sessions, codec, otpSvc, twofaSvc,
		mail, google,
		validator.NewAuthValidator(),
		cfg.DefaultRole,
	)

	//Guard（リクエストごとの認証・認可の単一入口）
	composer := guard.NewComposer(codec, checker)

	//Handler生成
	authH := handler.NewAuthHandler(authUC)

	//Server起動
	if err := server.Start(cfg, authH, composer, rdb); err != nil {
		log.Fatal(err)
	}
}
