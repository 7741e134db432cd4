package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 4 << 20 // 4 MiB
)

// TokenSource supplies the bearer token sent with every request.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that never changes.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// SwappableToken holds the most recent token presented by a user so requests
// issued later use it.
type SwappableToken struct {
	v atomic.Value
}

// Set replaces the token.
func (s *SwappableToken) Set(token string) { s.v.Store(token) }

// Token returns the last token set, or "".
func (s *SwappableToken) Token() string {
	v, _ := s.v.Load().(string)
	return v
}

// Error is returned for non-2xx responses. Its message is the one the API
// reported, which the slices show verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

var errNoBoard = errors.New("no board selected")

// Client talks to the board REST API.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

// New creates a Client. A nil httpClient gets one with a default timeout.
func New(baseURL string, httpClient *http.Client, token TokenSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if token == nil {
		token = StaticToken("")
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, token: token}
}

type apiError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, payload)
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	return sonic.Unmarshal(payload, out)
}

func decodeError(status int, payload []byte) error {
	var ae apiError
	if err := sonic.Unmarshal(payload, &ae); err == nil && ae.Message != "" {
		return &Error{Status: status, Message: ae.Message}
	}
	msg := strings.TrimSpace(string(payload))
	if msg == "" || len(msg) > 200 {
		msg = http.StatusText(status)
	}
	return &Error{Status: status, Message: msg}
}
