// Package moltin is a client for the Elastic Path (Moltin) commerce API
// covering the catalog, customers and carts used by the shop.
package moltin

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
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nstonic/Fish-bot/core/logger"
	"github.com/nstonic/Fish-bot/core/netutil"
)

const (
	// DefaultBaseURL is the public Moltin API endpoint.
	DefaultBaseURL = "https://api.moltin.com"
	// MinTokenMargin is the shortest allowed refresh margin before token expiry.
	MinTokenMargin = 300 * time.Second

	customerTokenHeader = "x-moltin-customer-token"
	defaultMaxBodyBytes = 20 << 20
)

// Config configures a Client.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// PriceBookID selects the price book joined by GetProductWithPrice.
	PriceBookID string
	// Currency is the price book currency code, RUB when empty.
	Currency string
	// TokenMargin is raised to MinTokenMargin when shorter.
	TokenMargin time.Duration
	// MaxBodyBytes rejects longer responses; 20 MiB when zero.
	MaxBodyBytes int64

	HTTPClient *http.Client
	// Now is overridable in tests.
	Now func() time.Time
}

type accessToken struct {
	value     string
	expiresAt time.Time
}

// Client is safe for concurrent use. It owns the client-credentials token
// and refreshes it before every call that would otherwise use a token
// inside the safety margin.
type Client struct {
	cfg  Config
	http *http.Client

	mu    sync.Mutex
	token accessToken
	sf    singleflight.Group
}

// New builds a Client; zero config fields get defaults.
func New(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Currency == "" {
		cfg.Currency = "RUB"
	}
	if cfg.TokenMargin < MinTokenMargin {
		cfg.TokenMargin = MinTokenMargin
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = netutil.BuildHTTPClient(netutil.ClientOptions{Timeout: 10 * time.Second, Retries: 2})
	}
	return &Client{cfg: cfg, http: hc}
}

type call struct {
	op            string
	method        string
	path          string
	json          any
	form          url.Values
	customerToken string
	anonymous     bool
}

// do runs c, checks the response and decodes its JSON body into out when out
// is non-nil.
func (c *Client) do(ctx context.Context, req call, out any) error {
	body, status, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if err := checkResponse(req.op, status, body); err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RemoteAPIError{Op: req.op, Status: status, Message: "malformed response: " + err.Error()}
	}
	return nil
}

func (c *Client) send(ctx context.Context, req call) ([]byte, int, error) {
	target := req.path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.cfg.BaseURL + target
	}

	var payload io.Reader
	contentType := ""
	switch {
	case req.json != nil:
		data, err := json.Marshal(req.json)
		if err != nil {
			return nil, 0, fmt.Errorf("moltin %s: encode request: %w", req.op, err)
		}
		payload = bytes.NewReader(data)
		contentType = "application/json"
	case req.form != nil:
		payload = strings.NewReader(req.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, payload)
	if err != nil {
		return nil, 0, fmt.Errorf("moltin %s: build request: %w", req.op, err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if !req.anonymous {
		tok, err := c.accessToken(ctx)
		if err != nil {
			return nil, 0, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+tok)
	}
	if req.customerToken != "" {
		httpReq.Header.Set(customerTokenHeader, req.customerToken)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		logger.Warn(ctx, logger.CompCommerce, "commerce.request",
			slog.String("op", req.op),
			slog.String("status", "fail"),
			slog.String("cause", netutil.Classify(err)),
			slog.Duration("duration", logger.Took(start)),
		)
		return nil, 0, &TransientIOError{Op: req.op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, resp.StatusCode, &TransientIOError{Op: req.op, Err: err}
	}
	if int64(len(body)) > c.cfg.MaxBodyBytes {
		return nil, resp.StatusCode, &RemoteAPIError{
			Op:      req.op,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("response body exceeds %d bytes", c.cfg.MaxBodyBytes),
		}
	}
	logger.Debug(ctx, logger.CompCommerce, "commerce.request",
		slog.String("op", req.op),
		slog.Int("http_code", resp.StatusCode),
		slog.Duration("duration", logger.Took(start)),
	)
	return body, resp.StatusCode, nil
}

// checkResponse rejects non-2xx statuses and JSON bodies that carry a
// non-empty top-level "errors" array.
func checkResponse(op string, status int, body []byte) error {
	var envelope struct {
		Errors []apiError `json:"errors"`
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		_ = json.Unmarshal(trimmed, &envelope)
	}
	if status >= 200 && status < 300 && len(envelope.Errors) == 0 {
		return nil
	}

	msg := http.StatusText(status)
	if len(envelope.Errors) > 0 {
		e := envelope.Errors[0]
		msg = strings.TrimSpace(e.Title + ": " + e.Detail)
		msg = strings.Trim(msg, ": ")
	} else if s := strings.TrimSpace(string(body)); s != "" {
		msg = logger.SanitizeLimit(s, 200)
	}
	return &RemoteAPIError{Op: op, Status: status, Message: msg}
}

// accessToken returns a token valid for longer than the margin, fetching a
// new one when needed. Concurrent refreshes share one request.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if tok, ok := c.currentToken(); ok {
		return tok, nil
	}
	v, err, _ := c.sf.Do("token", func() (any, error) {
		if tok, ok := c.currentToken(); ok {
			return tok, nil
		}
		fresh, err := c.fetchToken(ctx)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.token = fresh
		c.mu.Unlock()
		logger.Debug(ctx, logger.CompCommerce, "commerce.token.refresh",
			slog.Time("expires_at", fresh.expiresAt),
		)
		return fresh.value, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) currentToken() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.value == "" {
		return "", false
	}
	if !c.cfg.Now().Add(c.cfg.TokenMargin).Before(c.token.expiresAt) {
		return "", false
	}
	return c.token.value, true
}

func (c *Client) fetchToken(ctx context.Context) (accessToken, error) {
	var out tokenData
	err := c.do(ctx, call{
		op:     "access_token",
		method: http.MethodPost,
		path:   "/oauth/access_token",
		form: url.Values{
			"client_id":     {c.cfg.ClientID},
			"client_secret": {c.cfg.ClientSecret},
			"grant_type":    {"client_credentials"},
		},
		anonymous: true,
	}, &out)
	if err != nil {
		return accessToken{}, err
	}
	if out.AccessToken == "" {
		return accessToken{}, &RemoteAPIError{Op: "access_token", Status: http.StatusOK, Message: "empty access token"}
	}
	expires := time.Unix(out.Expires, 0)
	if out.Expires <= 0 {
		expires = c.cfg.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	}
	return accessToken{value: out.AccessToken, expiresAt: expires}, nil
}

// derivePassword returns the e-mail local part. Existing customer accounts
// were created with it, so it must stay stable.
func derivePassword(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
