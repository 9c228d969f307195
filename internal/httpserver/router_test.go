package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trackjoi/internal/handler"
	"trackjoi/internal/service/activity"
	"trackjoi/internal/service/auth"
	"trackjoi/internal/service/stats"
	"trackjoi/pkg/trace"
	"trackjoi/pkg/util"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testApp struct {
	t      *testing.T
	store  *memStore
	engine *gin.Engine
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	store := newMemStore()
	logger := zap.NewNop()

	authSvc := auth.NewService(store, util.NewTokenIssuer("test-secret", 30*24*time.Hour), logger)
	activitySvc := activity.NewService(store, store, time.UTC, logger)
	statsSvc := stats.NewService(store, time.UTC)

	router := NewRouter(Handlers{
		Auth:     handler.NewAuthHandler(authSvc, logger),
		Activity: handler.NewActivityHandler(activitySvc, logger),
		Stats:    handler.NewStatsHandler(statsSvc, logger),
	}, authSvc, store, 5*time.Second, logger)

	return &testApp{t: t, store: store, engine: router.Engine}
}

func (a *testApp) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func (a *testApp) register(email string) string {
	a.t.Helper()
	w, body := a.do(http.MethodPost, "/api/register", "", gin.H{"email": email, "password": "secret1"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return body["token"].(string)
}

func (a *testApp) createActivity(token, name string, days ...string) int64 {
	a.t.Helper()
	w, body := a.do(http.MethodPost, "/api/activities", token, gin.H{"name": name, "days": days})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return int64(body["activity"].(map[string]any)["id"].(float64))
}

func TestHabitTrackingScenario(t *testing.T) {
	app := newTestApp(t)
	token := app.register("runner@example.com")

	id := app.createActivity(token, "Run", "fri", "mon", "wed")

	w, _ := app.do(http.MethodPost, fmt.Sprintf("/api/activities/%d/complete", id), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body := app.do(http.MethodGet, "/api/activities", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := body["activities"].([]any)
	require.Len(t, list, 1)
	run := list[0].(map[string]any)
	assert.Equal(t, "Run", run["name"])
	assert.Equal(t, []any{"mon", "wed", "fri"}, run["days"])
	assert.Equal(t, float64(1), run["completed_this_week"])

	w, body = app.do(http.MethodGet, "/api/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	week := body["stats"].(map[string]any)["week"].(map[string]any)
	assert.Equal(t, float64(1), week["total_activities"])
	assert.Equal(t, float64(1), week["completed_activities"])
	assert.Equal(t, float64(100), week["completion_rate"])

	daily := body["stats"].(map[string]any)["daily"].([]any)
	require.Len(t, daily, 1)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), daily[0].(map[string]any)["completed_date"])
	assert.Equal(t, float64(1), daily[0].(map[string]any)["completed_count"])
}

func TestCompletionIsIdempotent(t *testing.T) {
	app := newTestApp(t)
	token := app.register("a@example.com")
	id := app.createActivity(token, "Read", "tue")
	path := fmt.Sprintf("/api/activities/%d/complete", id)

	w, _ := app.do(http.MethodPost, path, token, gin.H{"status": "skipped", "notes": "tired"})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = app.do(http.MethodPost, path, token, gin.H{"status": "completed", "notes": "done"})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Len(t, app.store.logs, 1)
	for _, l := range app.store.logs {
		assert.Equal(t, "completed", string(l.Status))
		assert.Equal(t, "done", *l.Notes)
	}

	w, body := app.do(http.MethodPost, path, token, gin.H{"date": "yesterday"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, body["error"])
}

func TestOwnershipIsolation(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice@example.com")
	bob := app.register("bob@example.com")
	id := app.createActivity(alice, "Swim", "sat")
	path := fmt.Sprintf("/api/activities/%d", id)

	w, body := app.do(http.MethodPut, path, bob, gin.H{"name": "Mine now", "days": []string{"sun"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "activity not found", body["error"])

	w, _ = app.do(http.MethodDelete, path, bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = app.do(http.MethodPost, path+"/complete", bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = app.do(http.MethodGet, "/api/activities", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["activities"])

	w, body = app.do(http.MethodGet, "/api/activities", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := body["activities"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Swim", list[0].(map[string]any)["name"])
	assert.Empty(t, app.store.logs)
}

func TestUpdateReplacesDaysAndDeleteHides(t *testing.T) {
	app := newTestApp(t)
	token := app.register("a@example.com")
	id := app.createActivity(token, "Gym", "mon", "thu")
	path := fmt.Sprintf("/api/activities/%d", id)

	w, body := app.do(http.MethodPut, path, token, gin.H{"name": "Gym", "days": []string{"sun", "tue"}, "reminder": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := body["activity"].(map[string]any)
	assert.Equal(t, []any{"tue", "sun"}, updated["days"])
	assert.Equal(t, true, updated["reminder"])

	w, body = app.do(http.MethodPut, path, token, gin.H{"name": "Gym"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name and days of week are required", body["error"])

	w, _ = app.do(http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = app.do(http.MethodGet, "/api/activities", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["activities"])

	w, _ = app.do(http.MethodDelete, "/api/activities/abc", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)
	app.register("a@example.com")

	w, body := app.do(http.MethodPost, "/api/register", "", gin.H{"email": "a@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "user with this email already exists", body["error"])

	w, _ = app.do(http.MethodPost, "/api/register", "", gin.H{"email": "b@example.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = app.do(http.MethodPost, "/api/login", "", gin.H{"email": "a@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "a@example.com", body["user"].(map[string]any)["email"])

	wrongPass, wrongPassBody := app.do(http.MethodPost, "/api/login", "", gin.H{"email": "a@example.com", "password": "nope-nope"})
	unknown, unknownBody := app.do(http.MethodPost, "/api/login", "", gin.H{"email": "ghost@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrongPassBody, unknownBody)

	w, _ = app.do(http.MethodPost, "/api/login", "", gin.H{"email": "a@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	w, body := app.do(http.MethodGet, "/api/activities", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "access token is missing", body["error"])

	w, body = app.do(http.MethodGet, "/api/stats", "garbage", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "invalid token", body["error"])
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	w, body := app.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", body["status"])

	app.store.pingErr = errPingFailed
	w, body = app.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "ERROR", body["status"])
}

func TestTraceIDEchoed(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(trace.HeaderName, "abc123")
	w := httptest.NewRecorder()
	app.engine.ServeHTTP(w, req)
	assert.Equal(t, "abc123", w.Header().Get(trace.HeaderName))

	w = httptest.NewRecorder()
	app.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Len(t, w.Header().Get(trace.HeaderName), 32)
}
