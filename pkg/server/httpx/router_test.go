package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/busmock/busmock/pkg/event"
	"github.com/busmock/busmock/pkg/server/api"
	"github.com/busmock/busmock/pkg/server/jobs"
)

func newDeps(t *testing.T, queueSize int) *api.Deps {
	t.Helper()
	manager := jobs.NewMemoryManager(1, queueSize, nil)
	return &api.Deps{
		Ready:  &atomic.Bool{},
		Config: api.DefaultConfig(),
		Jobs:   manager,
	}
}

func TestNewRouter_HealthzMounted(t *testing.T) {
	router := NewRouter(newDeps(t, 1))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())
}

func TestNewRouter_ReadyzFollowsFlag(t *testing.T) {
	deps := newDeps(t, 1)
	router := NewRouter(deps)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	deps.Ready.Store(true)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestNewRouter_PutEventsOnAnyPath(t *testing.T) {
	deps := newDeps(t, 10)
	manager := deps.Jobs.(*jobs.MemoryManager)
	require.NoError(t, manager.Start(t.Context()))
	t.Cleanup(func() { _ = manager.Stop(t.Context()) })

	router := NewRouter(deps)

	for _, path := range []string{"/", "/events", "/some/nested/path"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"Entries":[{"Source":"shop"}]}`))
		req.Header.Set("Content-Type", "application/x-amz-json-1.1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, path)
		var resp event.PutEventsResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Entries, 1)
		require.NotEmpty(t, resp.Entries[0].EventID)
	}
}

func TestNewRouter_TestEventPattern(t *testing.T) {
	router := NewRouter(newDeps(t, 1))

	body := `{"Event":{"source":"shop"},"EventPattern":{"source":[{"prefix":"sh"}]}}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, PathTestEventPattern, strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"Result":true}`, w.Body.String())
}

func TestNewRouter_Stats(t *testing.T) {
	router := NewRouter(newDeps(t, 1))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, PathStats, nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"subscriptions"`)
}

func TestNewRouter_GetOnRootNotAllowed(t *testing.T) {
	router := NewRouter(newDeps(t, 1))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
