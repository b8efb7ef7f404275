package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is where spreadsheets are exported from when no base URL is configured.
	DefaultBaseURL = "https://docs.google.com/spreadsheets/d"

	// DefaultUserAgent is sent with every export request.
	DefaultUserAgent = "Sheets FDW"

	// DefaultTimeout bounds a single export request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResponseBytes caps how much of a response body is read (50MB).
	DefaultMaxResponseBytes int64 = 50 * 1024 * 1024
)

// Request is an outgoing export request.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    string
}

// Response is what the transport hands back: status and the whole body.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport performs export requests. It owns timeouts; callers do not retry.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// HTTPTransport is a Transport backed by net/http.
type HTTPTransport struct {
	Client           *http.Client
	MaxResponseBytes int64
}

// NewHTTPTransport creates a transport with the given request timeout and
// body size cap. Zero values fall back to the defaults.
func NewHTTPTransport(timeout time.Duration, maxResponseBytes int64) *HTTPTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxResponseBytes <= 0 {
		maxResponseBytes = DefaultMaxResponseBytes
	}
	return &HTTPTransport{
		Client:           &http.Client{Timeout: timeout},
		MaxResponseBytes: maxResponseBytes,
	}
}

// Do sends req and reads the full response body.
func (t *HTTPTransport) Do(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader = http.NoBody
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := t.Client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	limit := t.MaxResponseBytes
	if limit <= 0 {
		limit = DefaultMaxResponseBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// TableOptions are the per-scan options of one foreign table.
type TableOptions struct {
	SpreadSheetID string `json:"spread_sheet_id" yaml:"spread_sheet_id"`
	SheetID       string `json:"sheet_id,omitempty" yaml:"sheet_id,omitempty"`
}

// TableOptionsFrom reads options the way a host passes them, as a string map.
// spread_sheet_id is required; sheet_id is optional.
func TableOptionsFrom(opts map[string]string) (TableOptions, error) {
	id := opts["spread_sheet_id"]
	if id == "" {
		return TableOptions{}, newError(ErrMissingOption, "", "spread_sheet_id", nil)
	}
	return TableOptions{SpreadSheetID: id, SheetID: opts["sheet_id"]}, nil
}

// BuildURL returns the export URL for a spreadsheet, optionally narrowed to
// one sheet (gid).
func BuildURL(baseURL string, opts TableOptions) string {
	id := url.PathEscape(opts.SpreadSheetID)
	if opts.SheetID != "" {
		return fmt.Sprintf("%s/%s/gviz/tq?gid=%s&tqx=out:json", baseURL, id, url.QueryEscape(opts.SheetID))
	}
	return fmt.Sprintf("%s/%s/gviz/tq?tqx=out:json", baseURL, id)
}
