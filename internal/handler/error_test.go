package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"app/internal/apperr"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestWriteError_AppError(t *testing.T) {
	c, rec := newTestContext(t)

	err := apperr.Unprocessable("PASSWORD_INCORRECT", "password is incorrect").WithField("password")
	require.NoError(t, writeError(c, err))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "PASSWORD_INCORRECT")
	assert.Contains(t, body, `"field":"password"`)
	assert.Contains(t, body, `"path":"/auth/login"`)
}

func TestWriteError_WrappedAppError(t *testing.T) {
	c, rec := newTestContext(t)

	inner := apperr.Conflict("EMAIL_ALREADY_EXISTS", "email already exists")
	require.NoError(t, writeError(c, inner))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "EMAIL_ALREADY_EXISTS")
}

func TestWriteError_UnknownErrorBecomesInternal(t *testing.T) {
	c, rec := newTestContext(t)

	require.NoError(t, writeError(c, errors.New("pq: connection refused")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "INTERNAL_ERROR")
	//内部エラーの詳細はレスポンスに出さない
	assert.NotContains(t, body, "connection refused")
}

func TestBadRequest(t *testing.T) {
	c, rec := newTestContext(t)

	require.NoError(t, badRequest(c, "invalid body"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}
