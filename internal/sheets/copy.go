package sheets

import "github.com/jackc/pgx/v5"

// CopySource feeds a begun scan to pgx.Conn.CopyFrom, one IterScan per row.
type CopySource struct {
	adapter *Adapter
	cols    []Column
	row     TargetRow
	rows    int
	err     error
}

var _ pgx.CopyFromSource = (*CopySource)(nil)

// NewCopySource wraps an adapter whose scan has already begun.
func NewCopySource(a *Adapter, cols []Column) *CopySource {
	return &CopySource{adapter: a, cols: cols}
}

// Next advances to the next row. It returns false when the scan is
// exhausted or a row failed to project; check Err to tell them apart.
func (s *CopySource) Next() bool {
	if s.err != nil {
		return false
	}
	row, ok, err := s.adapter.IterScan(s.cols)
	if err != nil {
		s.err = err
		return false
	}
	if !ok {
		return false
	}
	s.row = row
	s.rows++
	return true
}

// Values returns the current row.
func (s *CopySource) Values() ([]any, error) {
	return s.row, nil
}

// Err returns the projection error that stopped the copy, if any.
func (s *CopySource) Err() error {
	return s.err
}

// Rows returns how many rows have been handed out.
func (s *CopySource) Rows() int {
	return s.rows
}

// ColumnNames returns the column names in copy order.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
