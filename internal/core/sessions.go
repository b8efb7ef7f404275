package core

// sessions.go exposes the scan protocol over stateless requests.
//
// A session owns one sheets.Adapter for one begun scan. Requests for the same
// session are serialized by the session mutex, so the adapter itself never
// sees concurrent calls. Sessions nobody touches for SessionIdleTimeout are
// ended by the reaper.

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sheetscan/internal/logging"
	"github.com/JonMunkholm/sheetscan/internal/sheets"
)

// ScanRequest describes an ad-hoc scan.
type ScanRequest struct {
	Options sheets.TableOptions
	Columns []sheets.Column
}

// ScanInfo describes a begun scan.
type ScanInfo struct {
	ID           string
	Rows         int
	SheetColumns []sheets.SheetColumn
	StartedAt    time.Time
}

// ScanPage is the result of one Next call.
type ScanPage struct {
	Columns []sheets.Column
	Rows    []sheets.TargetRow
	Cursor  int
	Done    bool
}

type session struct {
	id      string
	opts    sheets.TableOptions
	columns []sheets.Column
	started time.Time

	mu       sync.Mutex
	adapter  *sheets.Adapter
	lastUsed time.Time
	ended    bool
}

func (sess *session) end() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.ended = true
	sess.adapter.EndScan()
}

// lock takes the session mutex. It fails if the session was ended between
// the map lookup and the lock.
func (sess *session) lock() error {
	sess.mu.Lock()
	if sess.ended {
		sess.mu.Unlock()
		return ErrSessionNotFound
	}
	return nil
}

// BeginScan fetches a spreadsheet and opens a session over its rows.
func (s *Service) BeginScan(ctx context.Context, req ScanRequest) (ScanInfo, error) {
	if err := sheets.ValidateColumns(req.Columns); err != nil {
		return ScanInfo{}, err
	}

	id := uuid.New().String()
	logger := logging.WithFields(ctx, "scan_id", id)
	a := s.newAdapter(logger)

	if err := s.begin(ctx, a, req.Options); err != nil {
		return ScanInfo{}, err
	}

	now := s.now()
	sess := &session{
		id:       id,
		opts:     req.Options,
		columns:  req.Columns,
		started:  now,
		adapter:  a,
		lastUsed: now,
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	return ScanInfo{
		ID:           id,
		Rows:         a.Len(),
		SheetColumns: a.SheetColumns(),
		StartedAt:    now,
	}, nil
}

func (s *Service) session(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Next returns up to n rows of a session. Done is set once the scan is
// exhausted. When a row fails to project the rows collected so far are
// discarded and the cursor stays on the failing row.
func (s *Service) Next(id string, n int) (ScanPage, error) {
	sess, err := s.session(id)
	if err != nil {
		return ScanPage{}, err
	}
	if n <= 0 {
		n = 1
	}

	if err := sess.lock(); err != nil {
		return ScanPage{}, err
	}
	defer sess.mu.Unlock()
	sess.lastUsed = s.now()

	page := ScanPage{Columns: sess.columns}
	start := sess.adapter.Cursor()
	for len(page.Rows) < n {
		row, ok, err := sess.adapter.IterScan(sess.columns)
		if err != nil {
			return ScanPage{}, err
		}
		if !ok {
			break
		}
		page.Rows = append(page.Rows, row)
	}
	page.Cursor = start + len(page.Rows)
	page.Done = sess.adapter.Exhausted()
	return page, nil
}

// ReScan always fails: scans are forward-only. The session is left as is.
func (s *Service) ReScan(id string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	if err := sess.lock(); err != nil {
		return err
	}
	defer sess.mu.Unlock()
	sess.lastUsed = s.now()
	return sess.adapter.ReScan()
}

// EndScan closes a session. Unknown ids are ignored.
func (s *Service) EndScan(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.end()
	}
}

// SessionCount returns the number of open sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ReapIdle ends sessions idle since before now-SessionIdleTimeout and
// returns how many were ended.
func (s *Service) ReapIdle(now time.Time) int {
	cutoff := now.Add(-s.cfg.SessionIdleTimeout)

	var stale []*session
	s.mu.Lock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastUsed.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			stale = append(stale, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range stale {
		sess.end()
		s.logger.Info("scan session expired", "scan_id", sess.id, "spread_sheet_id", sess.opts.SpreadSheetID)
	}
	return len(stale)
}

// StartReaper ends idle sessions until ctx is cancelled.
func (s *Service) StartReaper(ctx context.Context) {
	interval := s.cfg.SessionIdleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ReapIdle(s.now())
		}
	}
}
