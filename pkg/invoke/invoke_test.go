package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPInvoker(t *testing.T) {
	var got map[string]any
	var handler string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler = r.Header.Get(HandlerHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	inv := NewHTTPInvoker(srv.URL, 0)
	require.NoError(t, inv.Invoke(context.Background(), "fn", map[string]any{"id": "e1"}))
	require.Equal(t, "fn", handler)
	require.Equal(t, "e1", got["id"])
}

func TestHTTPInvoker_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "kaboom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewHTTPInvoker(srv.URL, 0).Invoke(context.Background(), "fn", map[string]any{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status code: 500")
	require.Contains(t, err.Error(), "kaboom")
}

func TestHTTPInvoker_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	require.Error(t, NewHTTPInvoker(url, 0).Invoke(context.Background(), "fn", map[string]any{}))
}

func TestCommandInvoker(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	out := filepath.Join(t.TempDir(), "event.json")

	inv, err := NewCommandInvoker([]string{"sh", "-c", `cat > "$OUT"`}, "", map[string]string{"OUT": out})
	require.NoError(t, err)
	require.NoError(t, inv.Invoke(context.Background(), "fn", map[string]any{"id": "e1"}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"e1"}`, string(data))

	failing, err := NewCommandInvoker([]string{"sh", "-c", "echo nope >&2; exit 3"}, "", nil)
	require.NoError(t, err)
	err = failing.Invoke(context.Background(), "fn", map[string]any{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "nope")
}

func TestNewCommandInvoker_Empty(t *testing.T) {
	_, err := NewCommandInvoker(nil, "", nil)
	require.Error(t, err)
}

func TestRouter(t *testing.T) {
	r := NewRouter()
	called := ""
	r.Register("b", InvokerFunc(func(_ context.Context, id string, _ map[string]any) error {
		called = id
		return nil
	}))
	r.Register("a", InvokerFunc(func(context.Context, string, map[string]any) error { return nil }))

	require.Equal(t, []string{"a", "b"}, r.Handlers())
	require.NoError(t, r.Invoke(context.Background(), "b", nil))
	require.Equal(t, "b", called)

	err := r.Invoke(context.Background(), "missing", nil)
	require.True(t, errors.Is(err, ErrUnknownHandler))
}
