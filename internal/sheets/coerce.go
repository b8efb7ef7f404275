package sheets

// coerce.go converts loosely-typed source scalars into Postgres target values.
//
// Coercion is lenient per cell: a scalar of the wrong shape for the declared
// type yields an invalid (NULL) value rather than an error, so one odd cell
// does not abort the whole scan. Only a column type the mapper cannot
// represent at all is an error.
//
//	             Integer              Text
//	null         NULL                 NULL
//	number       trunc toward zero    NULL
//	string       NULL                 verbatim
//	bool         NULL                 NULL

import (
	"math"

	"github.com/jackc/pgx/v5/pgtype"
)

// Coerce converts s to the target type t. The result is a pgtype.Int8 or a
// pgtype.Text; Valid=false means the target cell is NULL.
func Coerce(s Scalar, t ColumnType) (any, error) {
	switch t.Kind {
	case TypeInteger:
		return ToPgInt8(s), nil
	case TypeText:
		return ToPgText(s), nil
	default:
		return nil, newError(ErrUnsupportedColumnType, "", t.String(), nil)
	}
}

// ToPgInt8 converts a numeric scalar to pgtype.Int8, truncating toward zero.
// Values beyond the int64 range saturate. Non-numeric scalars are invalid.
func ToPgInt8(s Scalar) pgtype.Int8 {
	f, ok := s.Float()
	if !ok || math.IsNaN(f) {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Int64: truncInt64(f), Valid: true}
}

// ToPgText converts a string scalar to pgtype.Text, verbatim.
// Non-string scalars are invalid.
func ToPgText(s Scalar) pgtype.Text {
	str, ok := s.Text()
	if !ok {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: str, Valid: true}
}

// truncInt64 truncates f toward zero, clamping to the int64 range.
func truncInt64(f float64) int64 {
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

// Plain unwraps a target value into int64, string, or nil for NULL.
func Plain(v any) any {
	switch x := v.(type) {
	case pgtype.Int8:
		if !x.Valid {
			return nil
		}
		return x.Int64
	case pgtype.Text:
		if !x.Valid {
			return nil
		}
		return x.String
	default:
		return v
	}
}
