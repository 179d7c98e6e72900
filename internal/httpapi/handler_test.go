package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmsathi/internal/config"
	"farmsathi/internal/contextstore"
	"farmsathi/internal/history"
	"farmsathi/internal/intent"
	"farmsathi/internal/orchestrator"
	"farmsathi/internal/provider"
	"farmsathi/pkg"
)

type stubConnector struct {
	snapshot *pkg.ExternalDataSnapshot
}

func (c *stubConnector) Name() string { return "weather" }

func (c *stubConnector) Fetch(_ context.Context, queryKey string) (*pkg.ExternalDataSnapshot, error) {
	out := *c.snapshot
	out.QueryKey = queryKey
	return &out, nil
}

func newTestServer(t *testing.T) (http.Handler, history.Store, contextstore.Store) {
	t.Helper()

	contexts := contextstore.NewMemoryStore(10)
	turns := history.NewMemoryStore()

	orch, err := orchestrator.New(orchestrator.Deps{
		Classifier: intent.NewClassifier(config.IntentConfig{}, true),
		Contexts:   contexts,
		Weather: &stubConnector{snapshot: &pkg.ExternalDataSnapshot{
			Provider:  "weather",
			Weather:   &pkg.WeatherData{TempC: 27, Humidity: 60, Condition: "haze", WindKmh: 8},
			Freshness: pkg.FreshnessLive,
		}},
		Providers:       []orchestrator.Provider{provider.NewRulesProvider()},
		History:         turns,
		ProviderTimeout: 2 * time.Second,
		DefaultLanguage: "en",
		Languages:       []string{"en", "hi"},
	})
	require.NoError(t, err)

	return NewServer(orch, turns, contexts, ""), turns, contexts
}

func postMessage(t *testing.T, handler http.Handler, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat/message", strings.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestMessageRequiresIdentityHeader(t *testing.T) {
	handler, _, _ := newTestServer(t)

	rec := postMessage(t, handler, "", `{"message":"hello"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMessageRejectsBadBodies(t *testing.T) {
	handler, _, _ := newTestServer(t)

	rec := postMessage(t, handler, "farmer-1", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postMessage(t, handler, "farmer-1", `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	long := strings.Repeat("x", 1001)
	rec = postMessage(t, handler, "farmer-1", `{"message":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessageFlowReturnsAnswerAndDataCard(t *testing.T) {
	handler, turns, _ := newTestServer(t)

	rec := postMessage(t, handler, "farmer-1", `{"message":"what is the weather today","language":"en"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Message   string                    `json:"message"`
		Data      *pkg.ExternalDataSnapshot `json:"data"`
		Type      string                    `json:"type"`
		Timestamp string                    `json:"timestamp"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Contains(t, resp.Message, "27°C")
	assert.Equal(t, "weather", resp.Type)
	require.NotNil(t, resp.Data)
	require.NotNil(t, resp.Data.Weather)
	assert.Equal(t, 60, resp.Data.Weather.Humidity)
	_, err := time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, err)

	recorded, err := turns.History(context.Background(), "farmer-1", 0)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
}

func TestMessageContextHintsUpdateProfile(t *testing.T) {
	handler, _, contexts := newTestServer(t)

	rec := postMessage(t, handler, "farmer-1", `{"message":"hello","context":{"location":"Pune","crop_type":"rice"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	convCtx, err := contexts.Get(context.Background(), "farmer-1")
	require.NoError(t, err)
	assert.Equal(t, "Pune", convCtx.Location)
	assert.Equal(t, "rice", convCtx.CropType)
}

func TestHistoryEndpoint(t *testing.T) {
	handler, _, _ := newTestServer(t)

	for _, msg := range []string{"first question", "second question"} {
		rec := postMessage(t, handler, "farmer-1", `{"message":"`+msg+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history?limit=1", nil)
	req.Header.Set("X-User-ID", "farmer-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var turns []pkg.ChatTurn
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &turns))
	require.Len(t, turns, 1)
	assert.Equal(t, "second question", turns[0].UserMessage)
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	handler, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history?limit=zero", nil)
	req.Header.Set("X-User-ID", "farmer-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearHistoryEndpoint(t *testing.T) {
	handler, turns, _ := newTestServer(t)

	rec := postMessage(t, handler, "farmer-1", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/chat/history", nil)
	req.Header.Set("X-User-ID", "farmer-1")
	del := httptest.NewRecorder()
	handler.ServeHTTP(del, req)
	require.Equal(t, http.StatusOK, del.Code)

	recorded, err := turns.History(context.Background(), "farmer-1", 0)
	require.NoError(t, err)
	assert.Empty(t, recorded)
}

func TestHistoryEndpointsRequireIdentity(t *testing.T) {
	handler, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/chat/history", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
