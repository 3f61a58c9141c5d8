package response

import (
	"net/http"

	"app/internal/apperr"

	"github.com/labstack/echo/v4"
)

// 成功レスポンスの封筒。dataに本体、status/pathをメタとして載せる。
type Envelope struct {
	Data       interface{} `json:"data"`
	StatusCode int         `json:"statusCode"`
	Path       string      `json:"path"`
}

// エラーレスポンス。codeは安定値、fieldは問題のあった入力項目（あれば）。
type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	StatusCode int    `json:"statusCode"`
	Path       string `json:"path"`
}

func JSON(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{
		Data:       data,
		StatusCode: status,
		Path:       c.Request().URL.Path,
	})
}

// apperr.ErrorをHTTPレスポンスへ変換する。
func Error(c echo.Context, err *apperr.Error) error {
	status := StatusOf(err.Kind)
	return c.JSON(status, ErrorBody{
		Code:       err.Code,
		Message:    err.Message,
		Field:      err.Field,
		StatusCode: status,
		Path:       c.Request().URL.Path,
	})
}

func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnprocessable:
		return http.StatusUnprocessableEntity
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
