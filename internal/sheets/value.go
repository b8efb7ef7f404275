package sheets

import "strconv"

// Kind is the variant held by a Scalar.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Scalar is the loosely-typed value of a source cell ("v" in the gviz payload).
// The zero value is null.
type Scalar struct {
	kind Kind
	num  float64
	str  string
	b    bool
}

// NullValue returns the null scalar.
func NullValue() Scalar { return Scalar{} }

// NumberValue returns a numeric scalar.
func NumberValue(f float64) Scalar { return Scalar{kind: KindNumber, num: f} }

// StringValue returns a string scalar.
func StringValue(s string) Scalar { return Scalar{kind: KindString, str: s} }

// BoolValue returns a boolean scalar.
func BoolValue(b bool) Scalar { return Scalar{kind: KindBool, b: b} }

// Kind returns the variant.
func (s Scalar) Kind() Kind { return s.kind }

// IsNull reports whether the scalar is null.
func (s Scalar) IsNull() bool { return s.kind == KindNull }

// Float returns the numeric value if the scalar is a number.
func (s Scalar) Float() (float64, bool) {
	return s.num, s.kind == KindNumber
}

// Text returns the string value if the scalar is a string.
func (s Scalar) Text() (string, bool) {
	return s.str, s.kind == KindString
}

// Cell is one source cell: {"v": <scalar>, "f": "<formatted>"}.
type Cell struct {
	Value     Scalar
	Formatted string
}

// Row is one source row: {"c": [cell | null, ...]}.
type Row struct {
	Cells []*Cell
}

// Value returns the scalar at cell index i. ok is false when the row is too
// short or the slot is null; a present cell may still hold a null scalar.
func (r Row) Value(i int) (Scalar, bool) {
	if i < 0 || i >= len(r.Cells) || r.Cells[i] == nil {
		return Scalar{}, false
	}
	return r.Cells[i].Value, true
}

// SheetColumn is the column metadata the export endpoint sends in table.cols.
type SheetColumn struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Type    string `json:"type"`
	Pattern string `json:"pattern,omitempty"`
}
