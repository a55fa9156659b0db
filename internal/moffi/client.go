package moffi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/moffi-scheduler/internal/logging"
)

// DefaultBaseURL is the public Moffi API root.
const DefaultBaseURL = "https://api.moffi.io/api"

const defaultTimeout = 20 * time.Second

// Client is a Moffi API client. A Client holds at most one bearer token;
// build one Client per user session.
type Client struct {
	hc    *http.Client
	base  string
	token string
	log   *slog.Logger
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func New(opts Options) *Client {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		hc:   hc,
		base: strings.TrimRight(base, "/"),
		log:  logging.OrDiscard(opts.Logger),
	}
}

// Profile is the subset of the signin response the scheduler uses.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Token     string `json:"token"`
}

// Signin authenticates against the API and keeps the returned token for
// subsequent queries.
func (c *Client) Signin(ctx context.Context, username, password string) (Profile, error) {
	payload := map[string]string{
		"captcha":  "NOT_PROVIDED",
		"email":    username,
		"password": password,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Profile{}, err
	}
	status, body, err := c.do(ctx, http.MethodPost, c.url("/signin", nil), b, false)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if status != http.StatusOK {
		return Profile{}, fmt.Errorf("%w: status %d: %s", ErrAuthFailed, status, truncate(body))
	}
	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return Profile{}, fmt.Errorf("%w: decode profile: %v", ErrAuthFailed, err)
	}
	if p.Token == "" {
		return Profile{}, fmt.Errorf("%w: no token found on profile", ErrAuthFailed)
	}
	c.token = p.Token
	return p, nil
}

// SetToken installs a token obtained elsewhere.
func (c *Client) SetToken(token string) { c.token = token }

// Authenticated reports whether the client holds a bearer token.
func (c *Client) Authenticated() bool { return c.token != "" }

// Query sends an authenticated request. path is relative to the API root
// ("/orders/count") unless it already starts with it. body, when non-nil, is
// sent as JSON. out, when non-nil, receives the decoded JSON response.
func (c *Client) Query(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if !c.Authenticated() {
		return ErrAuthRequired
	}
	var b []byte
	if body != nil {
		var err error
		b, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	method = strings.ToUpper(method)
	status, respBody, err := c.do(ctx, method, c.url(path, params), b, true)
	if err != nil {
		return &RemoteError{Method: method, Path: path, Err: err}
	}
	if status < 200 || status >= 300 {
		return &RemoteError{Method: method, Path: path, StatusCode: status, Body: truncate(respBody)}
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &RemoteError{Method: method, Path: path, StatusCode: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) url(path string, params url.Values) string {
	u := path
	if !strings.HasPrefix(u, c.base) {
		if !strings.HasPrefix(u, "/") {
			u = "/" + u
		}
		u = c.base + u
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, auth bool) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return 0, nil, err
	}
	reqID := uuid.NewString()
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-request-id", reqID)
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	if auth {
		req.Header.Set("authorization", "Bearer "+c.token)
	}

	start := time.Now()
	res, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	c.log.Debug("moffi request", "method", method, "url", req.URL.Path, "status", res.StatusCode,
		"request_id", reqID, "elapsed", time.Since(start))
	if err != nil {
		return res.StatusCode, nil, err
	}
	return res.StatusCode, b, nil
}

func truncate(b []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
