package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rshade/boqlca/internal/inventory"
	"github.com/rshade/boqlca/internal/logging"
)

// LookupPath is the HTTP path of the lookup endpoint.
const LookupPath = "/v1/lookup"

const (
	defaultRemoteTimeout = 30 * time.Second
	maxErrorBody         = 4096
)

// Remote calls a lookup service over HTTP. The request body is a JSON array
// of items; the response is a JSON array of results of the same length.
type Remote struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemote returns a client for the service at baseURL. A nil client gets
// a default with a 30 second timeout.
func NewRemote(baseURL string, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{Timeout: defaultRemoteTimeout}
	}
	return &Remote{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

// Lookup implements Lookup.
func (r *Remote) Lookup(ctx context.Context, items []inventory.Item) (results []Result, err error) {
	log := logging.FromContext(ctx)
	start := time.Now()
	defer func() { observeDuration("remote", err, time.Since(start).Seconds()) }()

	if items == nil {
		items = []inventory.Item{}
	}
	body, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding lookup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+LookupPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if traceID := logging.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set(logging.TraceIDHeader, traceID)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Warn().
			Str("component", "lookup").
			Str("operation", "remote_lookup").
			Str("url", r.baseURL).
			Err(err).
			Msg("lookup service unreachable")
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if len(results) != len(items) {
		return nil, fmt.Errorf("%w: got %d results for %d items", ErrMalformedResponse, len(results), len(items))
	}

	log.Debug().
		Str("component", "lookup").
		Str("operation", "remote_lookup").
		Int("item_count", len(items)).
		Dur("duration", time.Since(start)).
		Msg("remote lookup complete")

	return results, nil
}
