package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/stowry-go"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultExpires is the default presigned URL expiry in seconds (15 minutes).
	DefaultExpires = 900

	requestIDHeader = "X-Request-Id"
	filesPath       = "/files"
)

// Client performs operations against a filekeep server.
type Client struct {
	config     *Config
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	c := &Client{
		config: &Config{
			Endpoint:  strings.TrimSuffix(cfg.Endpoint, "/"),
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// AddFile registers name under its content key, pointing at fileURL.
// The record is owned by the account behind the configured access key.
func (c *Client) AddFile(ctx context.Context, name, fileURL string) (*AddResult, error) {
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, fmt.Errorf("add file: %w", err)
	}

	body, err := json.Marshal(serverAddRequest{Name: name, URL: fileURL})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var out serverAddResponse
	if err := c.do(ctx, http.MethodPost, filesPath, body, http.StatusCreated, &out); err != nil {
		return nil, fmt.Errorf("add file %s: %w", name, err)
	}

	return &AddResult{Key: out.Key, Name: name, URL: fileURL}, nil
}

// GetFile fetches the record stored under key. A missing record yields an
// error matching ErrNotFound.
func (c *Client) GetFile(ctx context.Context, key string) (*FileInfo, error) {
	var out FileInfo
	if err := c.do(ctx, http.MethodGet, filePath(key), nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("get file %s: %w", key, err)
	}
	return &out, nil
}

// ListFiles returns the files owned by account, as the server orders them.
func (c *Client) ListFiles(ctx context.Context, account string) (*ListResult, error) {
	if account == "" {
		return nil, fmt.Errorf("list files: %w", ErrEmptyAccount)
	}

	var out serverListResponse
	path := "/accounts/" + url.PathEscape(account) + filesPath
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("list files of %s: %w", account, err)
	}

	items := out.Items
	if items == nil {
		items = []FileInfo{}
	}
	return &ListResult{Account: account, Items: items}, nil
}

// DeleteFiles deletes each key in turn. Per-key failures are reported in the
// results; the returned error is reserved for unusable input.
func (c *Client) DeleteFiles(ctx context.Context, keys []string) ([]DeleteResult, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("delete: %w", ErrNoKeys)
	}
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}

	results := make([]DeleteResult, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			results = append(results, DeleteResult{Key: key, Err: err})
			continue
		}

		err := c.do(ctx, http.MethodDelete, filePath(key), nil, http.StatusNoContent, nil)
		results = append(results, DeleteResult{Key: key, Deleted: err == nil, Err: err})
	}

	return results, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	return nil
}

// filePath returns the escaped path of the record stored under key. Keys
// may contain '/' and '+'.
func filePath(key string) string {
	return (&url.URL{Path: filesPath + "/" + key}).EscapedPath()
}

// do sends one request and decodes a successful response into out.
// rawPath is escaped; the server verifies signatures against its decoded
// form.
func (c *Client) do(ctx context.Context, method, rawPath string, body []byte, want int, out any) error {
	target := c.config.Endpoint + rawPath
	if c.config.AccessKey != "" && c.config.SecretKey != "" {
		path, err := url.PathUnescape(rawPath)
		if err != nil {
			return fmt.Errorf("unescape path: %w", err)
		}
		target += "?" + c.presign(method, path, DefaultExpires).Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != want {
		return parseServerError(resp, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// presign builds the stowry-go signature parameters for method and the
// unescaped path.
func (c *Client) presign(method, path string, expires int) url.Values {
	if expires <= 0 {
		expires = DefaultExpires
	}

	timestamp := c.now().Unix()
	sig := stowry.Sign(c.config.SecretKey, method, path, timestamp, int64(expires))

	query := url.Values{}
	query.Set(stowry.StowryCredentialParam, c.config.AccessKey)
	query.Set(stowry.StowryDateParam, strconv.FormatInt(timestamp, 10))
	query.Set(stowry.StowryExpiresParam, strconv.Itoa(expires))
	query.Set(stowry.StowrySignatureParam, sig)
	return query
}

// parseServerError extracts the error code and message from a server response.
func parseServerError(resp *http.Response, body []byte) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get(requestIDHeader),
		Body:       string(body),
	}

	var se serverError
	if err := json.Unmarshal(body, &se); err == nil {
		apiErr.Code = se.Error
		apiErr.Message = se.Message
	}

	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " " + e.Code + ": " + e.Message
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when no record is stored under the key (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when authentication fails (401).
	// This typically means invalid or missing credentials.
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrForbidden is returned when the caller does not own the record it
	// tried to delete (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}
)
