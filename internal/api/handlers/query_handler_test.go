package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/student-bot/backend/internal/intent"
	"github.com/student-bot/backend/internal/query"
	"github.com/student-bot/backend/internal/storage/models"
)

type fakeResolver struct {
	result        query.Result
	invalidateErr error
	texts         []string
	invalidated   int
}

func (f *fakeResolver) Resolve(_ context.Context, text string) query.Result {
	f.texts = append(f.texts, text)
	return f.result
}

func (f *fakeResolver) InvalidateCache(context.Context) error {
	f.invalidated++
	return f.invalidateErr
}

type fakeHistory struct {
	mu        sync.Mutex
	records   []*models.QueryRecord
	insertErr error
	gotUser   string
	gotLimit  int
}

func (f *fakeHistory) InsertQueryRecord(_ context.Context, r *models.QueryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
	return f.insertErr
}

func (f *fakeHistory) GetQueryHistory(_ context.Context, userID string, limit int) ([]models.QueryRecord, error) {
	f.gotUser, f.gotLimit = userID, limit
	out := make([]models.QueryRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, *r)
	}
	return out, nil
}

func newTestApp(r Resolver, h HistoryStore) *fiber.App {
	qh := NewQueryHandler(r, h)
	app := fiber.New()
	app.Post("/query", qh.HandleQuery)
	app.Get("/history", qh.GetQueryHistory)
	app.Delete("/cache", qh.InvalidateCache)
	return app
}

func decode(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHandleQuery(t *testing.T) {
	resolver := &fakeResolver{result: query.Result{
		Response: "The roll number of Prasad Kumar is 21CS045.",
		Intent:   intent.RollNumber,
	}}
	history := &fakeHistory{}
	app := newTestApp(resolver, history)

	status, body := decode(t, app, "POST", "/query", `{"query":"What is the roll number of Prasad Kumar?","user_id":"u1"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "The roll number of Prasad Kumar is 21CS045.", body["response"])
	assert.Equal(t, "roll_number", body["intent"])
	assert.Equal(t, false, body["cached"])
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, []string{"What is the roll number of Prasad Kumar?"}, resolver.texts)

	require.Len(t, history.records, 1)
	assert.Equal(t, "u1", history.records[0].UserID)
	assert.Equal(t, body["id"], history.records[0].ID)
}

func TestHandleQuery_CacheHitHasNoIntent(t *testing.T) {
	resolver := &fakeResolver{result: query.Result{Response: "cached answer", CacheHit: true}}
	app := newTestApp(resolver, nil)

	_, body := decode(t, app, "POST", "/query", `{"query":"cgpa of Prasad"}`)

	assert.Equal(t, true, body["cached"])
	assert.Equal(t, "", body["intent"])
}

func TestHandleQuery_HistoryFailureStillAnswers(t *testing.T) {
	resolver := &fakeResolver{result: query.Result{Response: "ok", Intent: intent.Skills}}
	app := newTestApp(resolver, &fakeHistory{insertErr: errors.New("disk full")})

	status, body := decode(t, app, "POST", "/query", `{"query":"skills of Prasad"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["response"])
}

func TestHandleQuery_BadRequests(t *testing.T) {
	resolver := &fakeResolver{}
	app := newTestApp(resolver, nil)

	status, body := decode(t, app, "POST", "/query", `{"query":"   "}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Query is required", body["error"])

	status, _ = decode(t, app, "POST", "/query", `not json`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	assert.Empty(t, resolver.texts)
}

func TestGetQueryHistory(t *testing.T) {
	history := &fakeHistory{records: []*models.QueryRecord{{ID: "1", QueryText: "q", Response: "a"}}}
	app := newTestApp(&fakeResolver{}, history)

	status, body := decode(t, app, "GET", "/history?user_id=u1&limit=500", "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["history"], 1)
	assert.Equal(t, "u1", history.gotUser)
	assert.Equal(t, defaultHistoryLimit, history.gotLimit)
}

func TestGetQueryHistory_Disabled(t *testing.T) {
	app := newTestApp(&fakeResolver{}, nil)

	status, _ := decode(t, app, "GET", "/history", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}

func TestInvalidateCache(t *testing.T) {
	resolver := &fakeResolver{}
	app := newTestApp(resolver, nil)

	status, body := decode(t, app, "DELETE", "/cache", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "invalidated", body["status"])
	assert.Equal(t, 1, resolver.invalidated)

	resolver.invalidateErr = errors.New("redis down")
	status, _ = decode(t, app, "DELETE", "/cache", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
}

// countingResolver fails the test if two Resolve calls overlap.
type countingResolver struct {
	t      *testing.T
	mu     sync.Mutex
	active int
	calls  int
}

func (c *countingResolver) Resolve(context.Context, string) query.Result {
	c.mu.Lock()
	c.active++
	if c.active > 1 {
		c.t.Error("concurrent Resolve")
	}
	c.mu.Unlock()

	c.mu.Lock()
	c.active--
	c.calls++
	c.mu.Unlock()
	return query.Result{}
}

func (c *countingResolver) InvalidateCache(context.Context) error { return nil }

func TestSerialize(t *testing.T) {
	inner := &countingResolver{t: t}
	s := Serialize(inner)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Resolve(context.Background(), "q")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, inner.calls)
}
