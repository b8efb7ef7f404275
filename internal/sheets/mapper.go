package sheets

import "fmt"

// TargetRow holds one value per requested column, in the host's column order.
// Each value is a pgtype.Int8 or pgtype.Text; Valid=false is NULL.
type TargetRow []any

// Project maps a source row onto the requested columns.
//
// Column c reads cell c.Ordinal-1. A cell that is missing, null, or holds a
// null scalar yields NULL for any supported type. A column with an
// unsupported type fails the whole row, whatever the cells hold, since the
// schema itself cannot be represented.
func Project(row Row, cols []Column) (TargetRow, error) {
	for _, col := range cols {
		if col.Ordinal < 1 {
			return nil, newError(ErrInvalidColumn, "", fmt.Sprintf("column %s has ordinal %d", col.Name, col.Ordinal), nil)
		}
		if !col.Type.Supported() {
			return nil, newError(ErrUnsupportedColumnType, "", fmt.Sprintf("column %s (%s)", col.Name, col.Type), nil)
		}
	}

	out := make(TargetRow, len(cols))
	for i, col := range cols {
		v, ok := row.Value(col.CellIndex())
		if !ok {
			v = NullValue()
		}
		cell, err := Coerce(v, col.Type)
		if err != nil {
			return nil, err
		}
		out[i] = cell
	}
	return out, nil
}

// Map returns the row as plain Go values keyed by column name: int64,
// string, or nil for NULL.
func (r TargetRow) Map(cols []Column) map[string]any {
	m := make(map[string]any, len(cols))
	for i, col := range cols {
		if i < len(r) {
			m[col.Name] = Plain(r[i])
		}
	}
	return m
}

// Values returns the row as plain Go values in column order.
func (r TargetRow) Values() []any {
	out := make([]any, len(r))
	for i, v := range r {
		out[i] = Plain(v)
	}
	return out
}
