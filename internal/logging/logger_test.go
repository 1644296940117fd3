package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "pool-api", "production")
	l.Info().Str("component", "test").Msg("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "pool-api", line["service"])
	assert.Equal(t, "hello", line["message"])
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(New(&buf, "pool-api", "production")))
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, float64(http.StatusNoContent), line["status"])
	assert.Equal(t, "/healthz", line["uri"])
}
