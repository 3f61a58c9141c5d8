package middleware

import (
	"fmt"
	"net/http"
	"time"

	"app/internal/response"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// IP×ルート単位の固定ウィンドウrate limit（OTP発行・ログイン用）。
// rdbがnil（REDIS_ADDR未設定）ならそのまま素通しにする。
func RateLimit(rdb *redis.Client, limit int, window time.Duration) echo.MiddlewareFunc {
	if rdb == nil || limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := fmt.Sprintf("rl:%s:%s", c.RealIP(), c.Request().URL.Path)
			ctx := c.Request().Context()

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				//rate limiterの障害でログインを止めない
				return next(c)
			}
			if count == 1 {
				_ = rdb.Expire(ctx, key, window).Err()
			}

			if count > int64(limit) {
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
				//429はapperrの分類外なので直接書く
				return c.JSON(http.StatusTooManyRequests, response.ErrorBody{
					Code:       "TOO_MANY_REQUESTS",
					Message:    "too many requests, slow down",
					StatusCode: http.StatusTooManyRequests,
					Path:       c.Request().URL.Path,
				})
			}

			return next(c)
		}
	}
}
