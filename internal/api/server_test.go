package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/student-bot/backend/internal/query"
	"github.com/student-bot/backend/pkg/config"
)

type rosterStore struct{}

func (rosterStore) Query(_ context.Context, q string, _ ...interface{}) ([][]string, error) {
	if strings.Contains(q, "RegisterNumber") {
		return [][]string{{"Prasad Kumar", "21CS045"}}, nil
	}
	return nil, nil
}

func (rosterStore) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{ReadTimeout: 5, WriteTimeout: 5, BodyLimit: 1 << 20, Development: true},
		Query:     config.QueryConfig{MaxLength: 500},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 100},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestServer(t *testing.T, ready func(context.Context) error) *fiber.App {
	t.Helper()
	app, stop := NewServer(testConfig(), Deps{
		Engine: query.NewEngine(rosterStore{}, query.Options{}),
		Ready:  ready,
	})
	t.Cleanup(stop)
	return app
}

func TestServer_LegacyQueryRoute(t *testing.T) {
	app := newTestServer(t, nil)

	for _, path := range []string{"/query", "/api/v1/query"} {
		req := httptest.NewRequest("POST", path, strings.NewReader(`{"query":"What is the roll number of Prasad Kumar?"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body struct {
			Response string `json:"response"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "The roll number of Prasad Kumar is 21CS045.", body.Response)
	}
}

func TestServer_ValidationRunsBeforeHandler(t *testing.T) {
	app := newTestServer(t, nil)

	req := httptest.NewRequest("POST", "/query", strings.NewReader(`{"query":"<script>x</script>"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestServer_HealthAndReady(t *testing.T) {
	app := newTestServer(t, func(context.Context) error { return errors.New("db gone") })

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_Metrics(t *testing.T) {
	app := newTestServer(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestServer_WebSocketRequiresUpgrade(t *testing.T) {
	app := newTestServer(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
