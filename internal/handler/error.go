package handler

import (
	"errors"
	"net/http"

	"app/internal/apperr"
	"app/internal/response"

	"github.com/labstack/echo/v4"
)

// usecaseのエラーをHTTPレスポンスへ変換する。
// apperr以外（想定外）はInternalに畳んで詳細を漏らさない。
func writeError(c echo.Context, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return response.Error(c, appErr)
	}
	return response.Error(c, apperr.Internal(err))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, response.ErrorBody{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		StatusCode: http.StatusBadRequest,
		Path:       c.Request().URL.Path,
	})
}

func unauthorized(c echo.Context) error {
	return response.Error(c, apperr.Unauthorized("UNAUTHORIZED", "unauthorized"))
}
