package v1

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busmock/busmock/pkg/server/api"
)

func newPost(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestValidationError_Error(t *testing.T) {
	var nilErr *ValidationError
	assert.Equal(t, "", nilErr.Error())
	assert.Equal(t, "validation failed", (&ValidationError{}).Error())
	assert.Equal(t, "Entries: invalid", (&ValidationError{Field: "Entries"}).Error())
	assert.Equal(t, "Entries: required", (&ValidationError{Field: "Entries", Reason: "required"}).Error())
	assert.True(t, errors.Is(&ValidationError{Field: "x"}, api.ErrBadRequest))
}

func TestParsePutEvents(t *testing.T) {
	r := newPost(`{"Entries":[
		{"Source":"shop","DetailType":"OrderPlaced","Detail":"{\"id\":1}"},
		{"EventBusName":"orders","Source":"shop"}
	]}`)

	req, err := ParsePutEvents(r, "default")
	require.NoError(t, err)
	require.Len(t, req.Entries, 2)
	assert.Equal(t, "default", req.Entries[0].EventBusName)
	assert.Equal(t, "orders", req.Entries[1].EventBusName)
	assert.Equal(t, `{"id":1}`, req.Entries[0].Detail)
}

func TestParsePutEvents_NoDefaultBus(t *testing.T) {
	r := newPost(`{"Entries":[{"Source":"shop"},{"EventBusName":"orders","Source":"shop"}]}`)

	req, err := ParsePutEvents(r, "")
	require.NoError(t, err)
	require.Len(t, req.Entries, 2)
	assert.Empty(t, req.Entries[0].EventBusName)
	assert.Equal(t, "orders", req.Entries[1].EventBusName)
}

func TestParsePutEvents_Invalid(t *testing.T) {
	tests := map[string]string{
		"malformed": `{"Entries":`,
		"empty":     `{"Entries":[]}`,
		"missing":   `{}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePutEvents(newPost(body), "default")
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, http.StatusBadRequest, api.StatusFor(err))
		})
	}
}

func TestParsePutEvents_TooLarge(t *testing.T) {
	r := newPost(`{"Entries":[{"Source":"a-rather-long-source-name"}]}`)
	w := httptest.NewRecorder()
	r.Body = http.MaxBytesReader(w, r.Body, 8)

	_, err := ParsePutEvents(r, "default")
	require.Error(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, api.StatusFor(err))
}

func TestParseTestEventPattern(t *testing.T) {
	t.Run("objects", func(t *testing.T) {
		doc, p, err := ParseTestEventPattern(newPost(`{"Event":{"source":"shop"},"EventPattern":{"source":["shop"]}}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"source": "shop"}, doc)
		assert.Equal(t, map[string]any{"source": []any{"shop"}}, p)
	})

	t.Run("strings", func(t *testing.T) {
		doc, p, err := ParseTestEventPattern(newPost(`{"Event":"{\"source\":\"shop\"}","EventPattern":"{\"source\":[\"shop\"]}"}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"source": "shop"}, doc)
		assert.Equal(t, map[string]any{"source": []any{"shop"}}, p)
	})

	t.Run("missing pattern", func(t *testing.T) {
		_, _, err := ParseTestEventPattern(newPost(`{"Event":{"source":"shop"}}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "EventPattern")
	})

	t.Run("pattern not an object", func(t *testing.T) {
		_, _, err := ParseTestEventPattern(newPost(`{"Event":{},"EventPattern":"[1,2]"}`))
		require.Error(t, err)
	})
}
