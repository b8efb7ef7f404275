package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/sheetscan/internal/catalog"
	"github.com/JonMunkholm/sheetscan/internal/sheets"
)

// ServiceConfig holds the settings the Service needs from the environment.
type ServiceConfig struct {
	BaseURL            string
	UserAgent          string
	HTTPTimeout        time.Duration
	MaxResponseBytes   int64
	MaxConcurrent      int
	MaxWaitTime        time.Duration
	SessionIdleTimeout time.Duration
	DefaultLimit       int
}

// DefaultSessionIdleTimeout ends untouched scan sessions.
const DefaultSessionIdleTimeout = 5 * time.Minute

// DefaultPreviewLimit caps preview rows when no limit is given.
const DefaultPreviewLimit = 1000

// Service runs spreadsheet scans for the HTTP layer, the CLI and the refresh
// scheduler. Each scan gets its own sheets.Adapter; the Service only adds
// sessions, fetch limits and loading.
type Service struct {
	cfg       ServiceConfig
	catalog   *catalog.Registry
	transport sheets.Transport
	limiter   *ScanLimiter
	db        DB
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithDB enables loads into Postgres. A *pgxpool.Pool satisfies DB.
func WithDB(db DB) ServiceOption {
	return func(s *Service) {
		s.db = db
	}
}

// WithTransport replaces the HTTP transport, mostly for tests.
func WithTransport(t sheets.Transport) ServiceOption {
	return func(s *Service) {
		s.transport = t
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a Service over the given catalog. reg may be nil when
// only ad-hoc scans are used.
func NewService(cfg ServiceConfig, reg *catalog.Registry, opts ...ServiceOption) *Service {
	if cfg.SessionIdleTimeout <= 0 {
		cfg.SessionIdleTimeout = DefaultSessionIdleTimeout
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultPreviewLimit
	}
	if reg == nil {
		reg, _ = catalog.NewRegistry()
	}

	s := &Service{
		cfg:      cfg,
		catalog:  reg,
		limiter:  NewScanLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		logger:   slog.Default(),
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.transport == nil {
		s.transport = sheets.NewHTTPTransport(cfg.HTTPTimeout, cfg.MaxResponseBytes)
	}
	return s
}

// ListTables returns all catalog tables sorted by key.
func (s *Service) ListTables() []catalog.Table {
	return s.catalog.All()
}

// Table returns a catalog table by key.
func (s *Service) Table(key string) (catalog.Table, error) {
	t, ok := s.catalog.Get(key)
	if !ok {
		return catalog.Table{}, fmt.Errorf("%w: %s", ErrTableNotFound, key)
	}
	return t, nil
}

// Catalog returns the registry backing the service.
func (s *Service) Catalog() *catalog.Registry {
	return s.catalog
}

// Limiter returns the fetch limiter.
func (s *Service) Limiter() *ScanLimiter {
	return s.limiter
}

// LoadEnabled reports whether a database is configured.
func (s *Service) LoadEnabled() bool {
	return s.db != nil
}

func (s *Service) newAdapter(logger *slog.Logger) *sheets.Adapter {
	return sheets.NewAdapter(
		sheets.WithBaseURL(s.cfg.BaseURL),
		sheets.WithUserAgent(s.cfg.UserAgent),
		sheets.WithTransport(s.transport),
		sheets.WithLogger(logger),
	)
}

// begin runs BeginScan while holding a fetch slot.
func (s *Service) begin(ctx context.Context, a *sheets.Adapter, opts sheets.TableOptions) error {
	if err := s.limiter.Acquire(ctx); err != nil {
		return err
	}
	defer s.limiter.Release()

	return a.BeginScan(ctx, opts)
}

// Shutdown ends every open session and waits for in-flight fetches.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.end()
	}
	return s.limiter.WaitForDrain(ctx)
}
