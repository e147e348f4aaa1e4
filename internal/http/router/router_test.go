package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"forum_search_backend/internal/events"
	apphttp "forum_search_backend/internal/http"
	"forum_search_backend/platform/config"
	"forum_search_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeModule struct {
	bus events.Bus
}

func (m *fakeModule) Name() string { return "fake" }

func (m *fakeModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.V1.Group("/fake")
	g.Use(ctx.RateLimit)
	g.GET("", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
}

func (m *fakeModule) RegisterHandlers(bus events.Bus) {
	m.bus = bus
}

type routesOnly struct{}

func (routesOnly) Name() string { return "routes-only" }

func (routesOnly) RegisterRoutes(*apphttp.RouterContext) {}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func testApp(health apphttp.HealthChecker, modules ...apphttp.Module) *apphttp.App {
	return &apphttp.App{
		Config: &config.Config{
			CORSOrigins:              []string{"http://localhost:4567"},
			SearchRateLimitPerMinute: 60,
			SearchRateLimitBurst:     1,
		},
		Logger:   logger.Nop(),
		Health:   health,
		EventBus: events.NewInMemoryBus(logger.Nop()),
		Modules:  modules,
	}
}

func get(engine *gin.Engine, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNewSubscribesModulesOnAppBus(t *testing.T) {
	mod := &fakeModule{}
	app := testApp(pinger{}, mod, routesOnly{})

	New(app)

	require.NotNil(t, mod.bus)
	assert.Same(t, app.EventBus, mod.bus)
}

func TestNewMountsModulesBehindRateLimit(t *testing.T) {
	engine := New(testApp(pinger{}, &fakeModule{}))

	first := get(engine, "/api/v1/fake")
	require.Equal(t, http.StatusOK, first.Code)
	assert.NotEmpty(t, first.Header().Get("X-Request-ID"))

	second := get(engine, "/api/v1/fake")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		health apphttp.HealthChecker
		status int
	}{
		{name: "store up", health: pinger{}, status: http.StatusOK},
		{name: "store down", health: pinger{err: errors.New("connection refused")}, status: http.StatusServiceUnavailable},
		{name: "no checker", health: nil, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(New(testApp(tt.health)), "/api/health")
			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(New(testApp(pinger{})), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
