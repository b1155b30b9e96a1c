package storefrontapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const (
	defaultBaseURL        = "http://172.20.10.5:8080/api"
	defaultTimeout        = 10 * time.Second
	errorBodyReadLimit    = 64 * 1024
	validationFailedError = "Validation failed"
)

// Client talks to the storefront REST API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	credentials *CredentialStore
	logg        *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithCredentials attaches the bearer token store used for every request.
func WithCredentials(store *CredentialStore) Option {
	return func(c *Client) {
		c.credentials = store
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

// NewClient builds a client from the API config.
func NewClient(cfg config.APIConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logg:       logger.Nop(),
	}
	if trimmed := strings.TrimSpace(cfg.BaseURL); trimmed != "" {
		client.baseURL = trimmed
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Credentials returns the attached credential store, which may be nil.
func (c *Client) Credentials() *CredentialStore {
	return c.credentials
}

// call describes one request. fallback is the message used when the backend
// gives no error text of its own.
type call struct {
	method   string
	path     string
	query    url.Values
	body     any
	fallback string
}

// do executes the call and decodes the JSON response into out. It returns the
// HTTP status on success.
func (c *Client) do(ctx context.Context, req call, out any) (int, error) {
	if c == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "storefront api client not configured")
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.buildURL(req.path, req.query), body)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token := c.bearer(ctx); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, req.fallback)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		if resp.StatusCode == http.StatusUnauthorized && c.credentials != nil {
			if clearErr := c.credentials.Clear(ctx); clearErr != nil {
				c.logg.Error(ctx, "error removing stored credentials", clearErr)
			}
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return resp.StatusCode, statusError(resp.StatusCode, raw, req.fallback)
	}

	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response")
	}
	return resp.StatusCode, nil
}

func (c *Client) bearer(ctx context.Context) string {
	if c.credentials == nil {
		return ""
	}
	token, err := c.credentials.Token(ctx)
	if err != nil {
		c.logg.Error(ctx, "error reading stored token", err)
		return ""
	}
	return token
}

func (c *Client) buildURL(path string, query url.Values) string {
	base := strings.TrimRight(c.baseURL, "/")
	out := fmt.Sprintf("%s/%s", base, strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		out += "?" + query.Encode()
	}
	return out
}

type errorBody struct {
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

// statusError maps a failed response to a typed error. The backend's
// "error" text wins over "message", then over field validation errors.
func statusError(status int, raw []byte, fallback string) error {
	code := pkgerrors.CodeForStatus(status)
	message := fallback

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case strings.TrimSpace(body.Error) != "":
			message = body.Error
		case strings.TrimSpace(body.Message) != "":
			message = body.Message
		case len(body.Errors) > 0 && string(body.Errors) != "null":
			message = joinFieldErrors(body.Errors)
		}
	}

	return pkgerrors.Wrap(code, fmt.Errorf("status %d", status), message).
		WithDetails(map[string]any{"status": status})
}

// joinFieldErrors flattens {"field": ["msg", ...]} or {"field": "msg"} into
// one comma separated message, fields in name order.
func joinFieldErrors(raw json.RawMessage) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return validationFailedError
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		var many []string
		if err := json.Unmarshal(fields[name], &many); err == nil {
			parts = append(parts, many...)
			continue
		}
		var one string
		if err := json.Unmarshal(fields[name], &one); err == nil && one != "" {
			parts = append(parts, one)
		}
	}
	if len(parts) == 0 {
		return validationFailedError
	}
	return strings.Join(parts, ", ")
}

func pageQuery(page, size int) url.Values {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("size", fmt.Sprint(size))
	return q
}
