// Package supabase implements the remote contract against a hosted Supabase
// project: PostgREST for table rows and GoTrue for password sessions.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"medminder-go/internal/remote"
	"medminder-go/pkg/logger"
)

const (
	Provider = "supabase"

	defaultTimeout = 10 * time.Second
	restPrefix     = "/rest/v1/"
	authPrefix     = "/auth/v1/"

	// Rows come back in creation order, as the store appends them.
	createdOrder = "created_at.asc"
)

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	sessions remote.SessionStore
	log      logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	session *session
	loaded  bool
}

func New(cfg Config, sessions remote.SessionStore, log logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		sessions: sessions,
		log:      log.With("provider", Provider),
		now:      time.Now,
	}
}

// Remote exposes the client through the per-entity contract.
func (c *Client) Remote() *remote.Client {
	return &remote.Client{
		Provider:    Provider,
		Medications: medications{c},
		Reminders:   reminders{c},
		Users:       users{c},
	}
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   interface{}
	token  string
	single bool
}

// do performs one round trip and returns the raw body of a 2xx response.
func (c *Client) do(ctx context.Context, req request) ([]byte, int, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: marshal body: %w", req.op, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: build request: %w", req.op, err)
	}

	token := req.token
	if token == "" {
		token = c.apiKey
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")
	if req.single {
		httpReq.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.method == http.MethodPost || req.method == http.MethodPatch {
		httpReq.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", req.op, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s: read body: %w", req.op, err)
	}

	c.log.Debug("supabase: request done", "op", req.op, "method", req.method, "status", resp.StatusCode)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, resp.StatusCode, parseError(req.op, resp.StatusCode, payload)
	}

	return payload, resp.StatusCode, nil
}

func parseError(op string, status int, payload []byte) error {
	message := firstNonEmpty(
		gjson.GetBytes(payload, "message").String(),
		gjson.GetBytes(payload, "msg").String(),
		gjson.GetBytes(payload, "error_description").String(),
		gjson.GetBytes(payload, "error").String(),
		strings.TrimSpace(string(payload)),
		http.StatusText(status),
	)
	code := firstNonEmpty(
		gjson.GetBytes(payload, "error_code").String(),
		gjson.GetBytes(payload, "code").String(),
	)
	return &remote.Error{Op: op, Status: status, Code: code, Message: message}
}

// firstRow decodes the first element of a PostgREST representation array.
// It returns false when the array is empty.
func firstRow(payload []byte, dst interface{}) (bool, error) {
	row := gjson.GetBytes(payload, "0")
	if !row.Exists() {
		return false, nil
	}
	if err := json.Unmarshal([]byte(row.Raw), dst); err != nil {
		return false, err
	}
	return true, nil
}

// userQuery selects one profile row with its caregivers embedded in
// creation order.
func userQuery(userID string) url.Values {
	return url.Values{
		"id":               {eq(userID)},
		"select":           {"*,caregivers(*)"},
		"caregivers.order": {createdOrder},
	}
}

func eq(value string) string {
	return "eq." + value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
