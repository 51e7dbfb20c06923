package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// HandlerHeader names the handler on outgoing HTTP invocations.
const HandlerHeader = "X-Busmock-Handler"

// HTTPInvoker POSTs the JSON envelope to a fixed URL.
type HTTPInvoker struct {
	URL    string
	Client *http.Client
}

// NewHTTPInvoker returns an HTTPInvoker with its own client. A zero timeout
// leaves the client without a deadline.
func NewHTTPInvoker(url string, timeout time.Duration) *HTTPInvoker {
	return &HTTPInvoker{URL: url, Client: &http.Client{Timeout: timeout}}
}

// Invoke sends the envelope. Any non-2xx status is an error.
func (h *HTTPInvoker) Invoke(ctx context.Context, handlerID string, envelope map[string]any) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HandlerHeader, handlerID)

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("invoke %s: %w", handlerID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("invoke %s: unexpected status code: %d: %s", handlerID, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	log.Debug().Str("handler", handlerID).Int("status", resp.StatusCode).Msg("HTTP handler invoked")
	return nil
}
