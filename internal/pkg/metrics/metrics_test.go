package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/v1/health":   "/v1/health",
		"/v1/levels":   "/v1/levels",
		"/v1/levels/3": "/v1/levels/:id",
		"/v1/challenges/ar/8d3f5c2e-1b7a-4c41-9f0e-2a6b7c8d9e10/capture/2": "/v1/challenges/ar/:id/capture/:id",
		"/ws/challenges/not-a-uuid":                                        "/ws/challenges/not-a-uuid",
		"/metrics":                                                         "/metrics",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizePath(in), in)
	}
}

type fakeStat struct{}

func (fakeStat) AcquiredConns() int32     { return 2 }
func (fakeStat) IdleConns() int32         { return 3 }
func (fakeStat) TotalConns() int32        { return 5 }
func (fakeStat) EmptyAcquireCount() int64 { return 7 }

func TestUpdateDBPoolMetrics(t *testing.T) {
	UpdateDBPoolMetrics(fakeStat{})
	assert.Equal(t, 2.0, testutil.ToFloat64(dbPoolConns.WithLabelValues("acquired")))
	assert.Equal(t, 3.0, testutil.ToFloat64(dbPoolConns.WithLabelValues("idle")))
	assert.Equal(t, 5.0, testutil.ToFloat64(dbPoolConns.WithLabelValues("total")))
	assert.Equal(t, 7.0, testutil.ToFloat64(dbPoolEmptyAcquires))
}

func TestMiddlewareAndHandler(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/metrics", Handler())
	app.Get("/v1/levels/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/levels/:id", "200"))
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/levels/4", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/levels/:id", "200"))
	assert.Equal(t, before+1, after)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), "cityhunt_http_requests_total"))
}
