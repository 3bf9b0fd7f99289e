package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	signInPath     = "/sign-in/email"
	signUpPath     = "/sign-up/email"
	getSessionPath = "/get-session"

	defaultTimeout = 10 * time.Second

	// Responses larger than this are treated as malformed.
	maxResponseBytes = 1 << 20
)

// ErrMalformedResponse is returned when the provider answers with a body
// that does not decode into the expected envelope.
var ErrMalformedResponse = errors.New("identity: malformed provider response")

// HTTPConfig configures [HTTPClient]. BaseURL is required; Timeout
// defaults to 10s and bounds each round trip in addition to any caller
// context deadline.
type HTTPConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// HTTPClient implements [Client] against the provider's REST surface:
// POST {base}/sign-in/email, POST {base}/sign-up/email and
// GET {base}/get-session.
type HTTPClient struct {
	base *url.URL
	http *http.Client
}

// NewHTTPClient validates cfg and returns a ready client.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("identity: base URL required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("identity: parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.New("identity: base URL must be absolute")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &HTTPClient{base: base, http: hc}, nil
}

func (c *HTTPClient) SignInEmail(ctx context.Context, in SignInInput) (*AuthResponse, error) {
	return c.postAuth(ctx, signInPath, in)
}

func (c *HTTPClient) SignUpEmail(ctx context.Context, in SignUpInput) (*AuthResponse, error) {
	return c.postAuth(ctx, signUpPath, in)
}

// GetSession consults the provider with the caller's ambient request
// headers. Cookie and Authorization are the only headers forwarded; the
// provider is the sole judge of what constitutes an active session.
func (c *HTTPClient) GetSession(ctx context.Context, headers http.Header) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(getSessionPath), nil)
	if err != nil {
		return nil, err
	}
	if headers != nil {
		if cookie := headers.Get("Cookie"); cookie != "" {
			req.Header.Set("Cookie", cookie)
		}
		if auth := headers.Get("Authorization"); auth != "" {
			req.Header.Set("Authorization", auth)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity: get-session status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if sess.ID == "" {
		return nil, nil
	}

	return &sess, nil
}

// postAuth runs one sign-in/sign-up round trip. Provider-declined
// attempts (4xx with a JSON error payload) come back inside the
// envelope; 5xx and transport failures are Go errors.
func (c *HTTPClient) postAuth(ctx context.Context, path string, payload any) (*AuthResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("identity: provider status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		var perr Error
		if err := json.Unmarshal(raw, &perr); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return &AuthResponse{Err: &perr}, nil
	}

	var data AuthData
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	return &AuthResponse{Data: &data}, nil
}

func (c *HTTPClient) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String()
}
