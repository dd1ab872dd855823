package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTime() time.Time {
	return time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
}

func runHandler(t *testing.T, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Use(Middleware())
	e.GET("/test", handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_PassesThroughSuccess(t *testing.T) {
	rec := runHandler(t, func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMiddleware_StructuredErrorBecomesEnvelope(t *testing.T) {
	rec := runHandler(t, func(c echo.Context) error {
		return NotFoundError("line not found").WithField("code", "L99")
	})

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "line not found", body["error"])
	assert.Equal(t, "not_found", body["type"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestMiddleware_PlainErrorBecomesInternal(t *testing.T) {
	rec := runHandler(t, func(c echo.Context) error {
		return assert.AnError
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal", body["type"])
	assert.Equal(t, "internal server error", body["error"], "internal causes are not leaked to clients")
}

func TestWrapHTTPError(t *testing.T) {
	err := WrapHTTPError(echo.NewHTTPError(http.StatusNotFound, "no route"))
	assert.Equal(t, TypeNotFound, err.Type)
	assert.Equal(t, "no route", err.Message)

	err = WrapHTTPError(echo.NewHTTPError(http.StatusTeapot))
	assert.Equal(t, TypeInternal, err.Type)
}
