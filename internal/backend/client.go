// Package backend talks to the PurePac REST API. It owns request building,
// authentication headers, envelope decoding and the mapping of transport and
// upstream failures onto domain errors. Nothing is cached and nothing is
// retried.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mahabub-bd/purepac-admin/internal/domain"
	"github.com/mahabub-bd/purepac-admin/internal/listing"
)

const (
	DefaultTimeout    = 15 * time.Second
	DefaultUploadPath = "attachment"

	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// Request outcomes reported to an Observer.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Observer receives one call per completed backend request.
type Observer interface {
	ObserveBackendRequest(resource, method, outcome string, elapsed time.Duration)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	UploadPath string

	// HTTPClient overrides the default client; its Timeout is left as is.
	HTTPClient *http.Client
	Logger     *slog.Logger
	Observer   Observer
	// RequestID extracts the inbound request id from ctx for forwarding.
	RequestID func(context.Context) string
}

// Client is a REST client for the admin backend. It is safe for concurrent use.
type Client struct {
	base       *url.URL
	token      string
	uploadPath string
	http       *http.Client
	logger     *slog.Logger
	observer   Observer
	requestID  func(context.Context) string
}

// New creates a Client. BaseURL must be an absolute http(s) URL.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("backend: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" || base.Host == "" {
		return nil, fmt.Errorf("backend: base url %q must be an absolute http(s) URL", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	uploadPath := strings.Trim(cfg.UploadPath, "/")
	if uploadPath == "" {
		uploadPath = DefaultUploadPath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:       base,
		token:      cfg.Token,
		uploadPath: uploadPath,
		http:       hc,
		logger:     logger,
		observer:   cfg.Observer,
		requestID:  cfg.RequestID,
	}, nil
}

// List reads one page of a collection. Filters equal to the "all" sentinel
// are never sent.
func (c *Client) List(ctx context.Context, resource string, q listing.Query) (listing.Page[Record], error) {
	var env struct {
		Data       []Record `json:"data"`
		Total      int      `json:"total"`
		TotalPages int      `json:"totalPages"`
	}
	if err := c.do(ctx, http.MethodGet, resource, c.endpoint(q.Values(), resource), nil, "", &env); err != nil {
		return listing.Page[Record]{}, err
	}

	page := listing.Page[Record]{Items: env.Data, TotalItems: env.Total, TotalPages: env.TotalPages}
	if page.Items == nil {
		page.Items = []Record{}
	}
	if page.TotalPages == 0 && page.TotalItems > 0 {
		page.TotalPages = listing.TotalPages(page.TotalItems, q.Limit)
	}
	return page, nil
}

// Get reads a single record. Both a bare object and one wrapped in the write
// envelope's data field are accepted.
func (c *Client) Get(ctx context.Context, resource, id string) (Record, error) {
	var rec Record
	if err := c.do(ctx, http.MethodGet, resource, c.endpoint(nil, resource, id), nil, "", &rec); err != nil {
		return nil, err
	}
	if inner, ok := rec["data"].(map[string]any); ok && isEnvelope(rec) {
		return Record(inner), nil
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// Reference reads a whole, unpaginated collection, for option lists. Both a
// bare array and {data: [...]} are accepted.
func (c *Client) Reference(ctx context.Context, resource string) ([]Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, resource, c.endpoint(nil, resource), nil, "", &raw); err != nil {
		return nil, err
	}

	var items []Record
	if err := decode(raw, &items); err == nil {
		return items, nil
	}
	var env struct {
		Data []Record `json:"data"`
	}
	if err := decode(raw, &env); err != nil {
		return nil, unavailable(err)
	}
	if env.Data == nil {
		env.Data = []Record{}
	}
	return env.Data, nil
}

// Create posts a new record and returns the created entity when the backend
// echoes it.
func (c *Client) Create(ctx context.Context, resource string, payload map[string]any) (Record, error) {
	return c.write(ctx, http.MethodPost, resource, c.endpoint(nil, resource), payload)
}

// Update sends a partial update.
func (c *Client) Update(ctx context.Context, resource, id string, payload map[string]any) (Record, error) {
	return c.write(ctx, http.MethodPatch, resource, c.endpoint(nil, resource, id), payload)
}

// Delete removes a record. Any 2xx response is success.
func (c *Client) Delete(ctx context.Context, resource, id string) error {
	return c.do(ctx, http.MethodDelete, resource, c.endpoint(nil, resource, id), nil, "", nil)
}

// Upload stores a file as an attachment and returns its id. The stored file
// name is randomized; only the original extension is kept.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	name := uuid.NewString() + strings.ToLower(path.Ext(filename))
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("backend: create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("backend: read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("backend: close multipart: %w", err)
	}

	var env writeEnvelope
	status, err := c.send(ctx, http.MethodPost, c.uploadPath, c.endpoint(nil, c.uploadPath), &buf, mw.FormDataContentType(), &env)
	if err != nil {
		return "", err
	}
	if err := env.check(status); err != nil {
		return "", err
	}

	var data Record
	if err := decode(env.Data, &data); err != nil || data.ID() == "" {
		return "", domain.NewAppError(domain.CodeUnavailable, "upload response carries no attachment id", err)
	}
	return data.ID(), nil
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

type writeEnvelope struct {
	StatusCode int             `json:"statusCode"`
	Message    json.RawMessage `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// check reports whether the envelope signals success. A body without
// statusCode falls back to the HTTP status.
func (e writeEnvelope) check(httpStatus int) error {
	status := e.StatusCode
	if status == 0 {
		status = httpStatus
	}
	if status == http.StatusOK || status == http.StatusCreated {
		return nil
	}
	return domain.NewUpstreamError(status, messageText(e.Message))
}

func (c *Client) write(ctx context.Context, method, resource, endpoint string, payload map[string]any) (Record, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("backend: encode payload: %w", err)
	}

	var raw json.RawMessage
	status, err := c.send(ctx, method, resource, endpoint, bytes.NewReader(body), "application/json", &raw)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Record{}, nil
	}

	var env writeEnvelope
	if err := decode(raw, &env); err != nil {
		return nil, unavailable(err)
	}
	if err := env.check(status); err != nil {
		return nil, err
	}
	rec := Record{}
	if isObject(env.Data) {
		if err := decode(env.Data, &rec); err != nil {
			return nil, unavailable(err)
		}
	}
	return rec, nil
}

func (c *Client) do(ctx context.Context, method, resource, endpoint string, body io.Reader, contentType string, out any) error {
	_, err := c.send(ctx, method, resource, endpoint, body, contentType, out)
	return err
}

// send performs one request, decoding a 2xx body into out when out is not nil.
// It returns the HTTP status of a successful response.
func (c *Client) send(ctx context.Context, method, resource, endpoint string, body io.Reader, contentType string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.requestID != nil {
		if id := c.requestID(ctx); id != "" {
			req.Header.Set(requestIDHeader, id)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed",
			slog.String("method", method),
			slog.String("path", req.URL.Path),
			slog.Duration("latency", elapsed),
			slog.String("error", err.Error()),
		)
		c.observe(resource, method, OutcomeError, elapsed)
		return 0, unavailable(err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "backend request",
		slog.String("method", method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", elapsed),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		upstream := domain.NewUpstreamError(resp.StatusCode, upstreamMessage(raw))
		c.logger.WarnContext(ctx, "backend rejected request",
			slog.String("method", method),
			slog.String("path", req.URL.Path),
			slog.Int("status", resp.StatusCode),
			slog.String("message", upstream.Message),
		)
		c.observe(resource, method, OutcomeRejected, elapsed)
		return resp.StatusCode, upstream
	}

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			c.observe(resource, method, OutcomeError, elapsed)
			return 0, unavailable(err)
		}
		if len(bytes.TrimSpace(raw)) > 0 {
			if err := decode(raw, out); err != nil {
				c.observe(resource, method, OutcomeError, elapsed)
				return 0, unavailable(err)
			}
		}
	}
	c.observe(resource, method, OutcomeOK, elapsed)
	return resp.StatusCode, nil
}

// endpoint joins the base URL with escaped path segments and a query.
func (c *Client) endpoint(query url.Values, segments ...string) string {
	u := *c.base
	parts := []string{strings.TrimSuffix(u.Path, "/")}
	for _, s := range segments {
		for _, p := range strings.Split(strings.Trim(s, "/"), "/") {
			if p != "" {
				parts = append(parts, url.PathEscape(p))
			}
		}
	}
	u.RawPath = strings.Join(parts, "/")
	u.Path, _ = url.PathUnescape(u.RawPath)
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) observe(resource, method, outcome string, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveBackendRequest(metricResource(resource), method, outcome, elapsed)
	}
}

// metricResource keeps label cardinality bounded: only the first segment.
func metricResource(resource string) string {
	resource = strings.Trim(resource, "/")
	if i := strings.IndexByte(resource, '/'); i >= 0 {
		return resource[:i]
	}
	return resource
}

func decode(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(out)
}

// isEnvelope reports whether every key of rec belongs to the write envelope.
func isEnvelope(rec Record) bool {
	for key := range rec {
		switch key {
		case "statusCode", "message", "data":
		default:
			return false
		}
	}
	return true
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func unavailable(err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return domain.NewAppError(domain.CodeUnavailable, domain.ErrUnavailable.Message, err)
}

// upstreamMessage extracts the message of an error body. The backend sends
// either a string or a list of validation messages.
func upstreamMessage(raw []byte) string {
	var body struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if msg := messageText(body.Message); msg != "" {
		return msg
	}
	return body.Error
}

func messageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return ""
}
