package sheets

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// TypeKind is the closed set of target kinds the mapper knows about.
type TypeKind int

const (
	TypeOther TypeKind = iota
	TypeInteger
	TypeText
)

// ColumnType is the declared target type of a column. Name keeps the host's
// spelling so unsupported types can be reported back verbatim.
type ColumnType struct {
	Kind TypeKind
	Name string
}

// Supported target types.
var (
	Integer = ColumnType{Kind: TypeInteger, Name: "bigint"}
	Text    = ColumnType{Kind: TypeText, Name: "text"}
)

// Other returns an unsupported column type with the given name.
func Other(name string) ColumnType {
	return ColumnType{Kind: TypeOther, Name: name}
}

// ParseColumnType maps a Postgres type name to a ColumnType.
// Unknown names are returned as Other, never as an error: rejecting them is
// the mapper's job.
func ParseColumnType(name string) ColumnType {
	n := strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(n, '('); i >= 0 {
		n = strings.TrimSpace(n[:i])
	}
	switch n {
	case "bigint", "int8", "integer", "int", "int4", "smallint", "int2":
		return ColumnType{Kind: TypeInteger, Name: n}
	case "text", "varchar", "character varying", "bpchar", "char", "character", "name":
		return ColumnType{Kind: TypeText, Name: n}
	default:
		return Other(n)
	}
}

// ColumnTypeFromOID maps a Postgres type OID to a ColumnType.
func ColumnTypeFromOID(oid uint32) ColumnType {
	switch oid {
	case pgtype.Int8OID:
		return ColumnType{Kind: TypeInteger, Name: "int8"}
	case pgtype.Int4OID:
		return ColumnType{Kind: TypeInteger, Name: "int4"}
	case pgtype.Int2OID:
		return ColumnType{Kind: TypeInteger, Name: "int2"}
	case pgtype.TextOID:
		return ColumnType{Kind: TypeText, Name: "text"}
	case pgtype.VarcharOID:
		return ColumnType{Kind: TypeText, Name: "varchar"}
	case pgtype.BPCharOID:
		return ColumnType{Kind: TypeText, Name: "bpchar"}
	case pgtype.NameOID:
		return ColumnType{Kind: TypeText, Name: "name"}
	default:
		return Other(fmt.Sprintf("oid:%d", oid))
	}
}

func (t ColumnType) String() string {
	if t.Name != "" {
		return t.Name
	}
	switch t.Kind {
	case TypeInteger:
		return Integer.Name
	case TypeText:
		return Text.Name
	default:
		return "unknown"
	}
}

// Supported reports whether the mapper can produce values of this type.
func (t ColumnType) Supported() bool {
	return t.Kind == TypeInteger || t.Kind == TypeText
}

// MarshalText implements encoding.TextMarshaler.
func (t ColumnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ColumnType) UnmarshalText(b []byte) error {
	*t = ParseColumnType(string(b))
	return nil
}

// Column describes one target column as declared by the host.
//
// Ordinal is 1-based, as hosts number columns; the source cell read for the
// column is at index Ordinal-1 of the row's "c" array. This offset is part of
// the export format contract: cells carry no names.
type Column struct {
	Ordinal int        `json:"ordinal"`
	Name    string     `json:"name"`
	Type    ColumnType `json:"type"`
}

// CellIndex returns the 0-based source cell index for the column.
func (c Column) CellIndex() int {
	return c.Ordinal - 1
}

// ValidateColumns checks that every column has a usable ordinal and a
// unique, non-empty name. It does not reject unsupported types.
func ValidateColumns(cols []Column) error {
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		if c.Ordinal < 1 {
			return newError(ErrInvalidColumn, "", fmt.Sprintf("column %q has ordinal %d, must be >= 1", c.Name, c.Ordinal), nil)
		}
		if c.Name == "" {
			return newError(ErrInvalidColumn, "", fmt.Sprintf("column %d has no name", i+1), nil)
		}
		key := strings.ToLower(c.Name)
		if seen[key] {
			return newError(ErrInvalidColumn, "", fmt.Sprintf("duplicate column name %q", c.Name), nil)
		}
		seen[key] = true
	}
	return nil
}
