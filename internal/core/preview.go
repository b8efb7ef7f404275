package core

import (
	"context"

	"github.com/JonMunkholm/sheetscan/internal/catalog"
	"github.com/JonMunkholm/sheetscan/internal/logging"
	"github.com/JonMunkholm/sheetscan/internal/sheets"
)

// Preview is the first rows of a catalog table.
type Preview struct {
	Table        catalog.Table
	SheetColumns []sheets.SheetColumn
	Rows         []sheets.TargetRow
	Total        int  // rows in the sheet
	Truncated    bool // Total > len(Rows)
}

// Preview scans a catalog table and returns up to limit rows. A limit of
// zero or less uses the configured default.
func (s *Service) Preview(ctx context.Context, key string, limit int) (*Preview, error) {
	t, err := s.Table(key)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	a := s.newAdapter(logging.WithFields(ctx, "table", key))
	if err := s.begin(ctx, a, t.Options()); err != nil {
		return nil, err
	}
	defer a.EndScan()

	p := &Preview{
		Table:        t,
		SheetColumns: a.SheetColumns(),
		Total:        a.Len(),
	}
	for len(p.Rows) < limit {
		row, ok, err := a.IterScan(t.Columns)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		p.Rows = append(p.Rows, row)
	}
	p.Truncated = p.Total > len(p.Rows)
	return p, nil
}

// Describe returns the column metadata the export sends for a catalog table.
func (s *Service) Describe(ctx context.Context, key string) ([]sheets.SheetColumn, error) {
	t, err := s.Table(key)
	if err != nil {
		return nil, err
	}
	return s.DescribeSheet(ctx, t.Options())
}

// DescribeSheet returns the column metadata of any spreadsheet.
func (s *Service) DescribeSheet(ctx context.Context, opts sheets.TableOptions) ([]sheets.SheetColumn, error) {
	a := s.newAdapter(logging.FromContext(ctx))
	if err := s.begin(ctx, a, opts); err != nil {
		return nil, err
	}
	defer a.EndScan()
	return a.SheetColumns(), nil
}

// Scan runs a whole ad-hoc scan and calls fn per row. The fetch slot is
// released before the first fn call.
func (s *Service) Scan(ctx context.Context, req ScanRequest, fn func(sheets.TargetRow) error) (int, error) {
	if err := sheets.ValidateColumns(req.Columns); err != nil {
		return 0, err
	}

	a := s.newAdapter(logging.FromContext(ctx))
	defer a.EndScan()
	if err := s.begin(ctx, a, req.Options); err != nil {
		return 0, err
	}
	return a.Each(ctx, req.Columns, fn)
}
