package sheets

import (
	"log/slog"
	"strings"
)

// Adapter holds the configuration and the per-scan state of one scan session.
//
// An Adapter is not safe for concurrent use and runs at most one scan at a
// time. Hosts that serve several scans at once create one Adapter per scan.
type Adapter struct {
	baseURL   string
	userAgent string
	transport Transport
	logger    *slog.Logger

	// Per-scan state. Invariant: 0 <= cursor <= len(rows).
	rows   []Row
	cols   []SheetColumn
	cursor int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithBaseURL sets the export base URL.
func WithBaseURL(baseURL string) Option {
	return func(a *Adapter) {
		a.Configure(baseURL)
	}
}

// WithTransport sets the transport used to fetch documents.
func WithTransport(t Transport) Option {
	return func(a *Adapter) {
		a.transport = t
	}
}

// WithLogger sets the logger that receives scan info events.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// WithUserAgent overrides the user-agent header.
func WithUserAgent(ua string) Option {
	return func(a *Adapter) {
		if ua != "" {
			a.userAgent = ua
		}
	}
}

// NewAdapter creates an Adapter with the default base URL and an HTTP transport.
func NewAdapter(opts ...Option) *Adapter {
	a := &Adapter{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.transport == nil {
		a.transport = NewHTTPTransport(DefaultTimeout, DefaultMaxResponseBytes)
	}
	return a
}

// Configure sets the base URL. An empty value keeps DefaultBaseURL.
func (a *Adapter) Configure(baseURL string) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	a.baseURL = baseURL
}

// BaseURL returns the configured base URL.
func (a *Adapter) BaseURL() string {
	return a.baseURL
}

// ResetBuffer drops the row buffer and rewinds the cursor. Idempotent.
func (a *Adapter) ResetBuffer() {
	a.rows = nil
	a.cols = nil
	a.cursor = 0
}

// Len returns the number of rows fetched by the current scan.
func (a *Adapter) Len() int {
	return len(a.rows)
}

// Cursor returns the index of the next row to be returned.
func (a *Adapter) Cursor() int {
	return a.cursor
}

// Remaining returns how many rows are left in the current scan.
func (a *Adapter) Remaining() int {
	return len(a.rows) - a.cursor
}

// Exhausted reports whether every fetched row has been returned.
func (a *Adapter) Exhausted() bool {
	return a.cursor >= len(a.rows)
}

// SheetColumns returns the column metadata sent with the current scan's document.
func (a *Adapter) SheetColumns() []SheetColumn {
	return a.cols
}

func (a *Adapter) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}
