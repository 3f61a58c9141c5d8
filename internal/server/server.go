package server

import (
	"app/internal/config"
	"app/internal/guard"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

// echoを組み立てて起動する。
func Start(cfg config.Config, authH *handler.AuthHandler, g *guard.Composer, rdb *redis.Client) error {
	e := New(cfg, authH, g, rdb)
	return e.Start(":" + cfg.Port)
}

// ルート登録済みの*echo.Echoを返す（テストからも使う）。
func New(cfg config.Config, authH *handler.AuthHandler, g *guard.Composer, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	authH.RegisterRoutes(e, cfg, g, rdb)

	return e
}
