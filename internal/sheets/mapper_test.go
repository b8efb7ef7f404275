package sheets

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func cells(values ...any) Row {
	var row Row
	for _, v := range values {
		switch x := v.(type) {
		case nil:
			row.Cells = append(row.Cells, nil)
		case Scalar:
			row.Cells = append(row.Cells, &Cell{Value: x})
		case float64:
			row.Cells = append(row.Cells, &Cell{Value: NumberValue(x)})
		case string:
			row.Cells = append(row.Cells, &Cell{Value: StringValue(x)})
		case bool:
			row.Cells = append(row.Cells, &Cell{Value: BoolValue(x)})
		}
	}
	return row
}

var idName = []Column{
	{Ordinal: 1, Name: "id", Type: Integer},
	{Ordinal: 2, Name: "name", Type: Text},
}

// ----------------------------------------------------------------------------
// Project Tests
// ----------------------------------------------------------------------------

func TestProject(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		cols []Column
		want []any
	}{
		{
			name: "number and string",
			row:  cells(1.0, "Alice"),
			cols: idName,
			want: []any{int64(1), "Alice"},
		},
		{
			name: "null slot",
			row:  cells(2.0, nil),
			cols: idName,
			want: []any{int64(2), nil},
		},
		{
			name: "null scalar",
			row:  cells(NullValue(), NullValue()),
			cols: idName,
			want: []any{nil, nil},
		},
		{
			name: "row shorter than columns",
			row:  cells(3.0),
			cols: idName,
			want: []any{int64(3), nil},
		},
		{
			name: "empty row",
			row:  Row{},
			cols: idName,
			want: []any{nil, nil},
		},
		{
			name: "type mismatch is null",
			row:  cells("not a number", 7.0),
			cols: idName,
			want: []any{nil, nil},
		},
		{
			name: "bool cells are null",
			row:  cells(true, false),
			cols: idName,
			want: []any{nil, nil},
		},
		{
			name: "columns read by ordinal not order",
			row:  cells("skip", 9.0, "Bob"),
			cols: []Column{
				{Ordinal: 3, Name: "name", Type: Text},
				{Ordinal: 2, Name: "id", Type: Integer},
			},
			want: []any{"Bob", int64(9)},
		},
		{
			name: "same cell read twice",
			row:  cells(5.0),
			cols: []Column{
				{Ordinal: 1, Name: "a", Type: Integer},
				{Ordinal: 1, Name: "b", Type: Text},
			},
			want: []any{int64(5), nil},
		},
		{
			name: "no columns",
			row:  cells(1.0, "x"),
			cols: nil,
			want: []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Project(tt.row, tt.cols)
			if err != nil {
				t.Fatalf("Project() error = %v", err)
			}
			if len(got) != len(tt.cols) {
				t.Fatalf("len(row) = %d, want %d", len(got), len(tt.cols))
			}
			values := got.Values()
			for i := range tt.want {
				if values[i] != tt.want[i] {
					t.Errorf("value[%d] = %v, want %v", i, values[i], tt.want[i])
				}
			}
		})
	}
}

func TestProject_CellTypesMatchColumns(t *testing.T) {
	got, err := Project(cells(NullValue(), NullValue()), idName)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if _, ok := got[0].(pgtype.Int8); !ok {
		t.Errorf("cell 0 is %T, want pgtype.Int8", got[0])
	}
	if _, ok := got[1].(pgtype.Text); !ok {
		t.Errorf("cell 1 is %T, want pgtype.Text", got[1])
	}
}

func TestProject_UnsupportedTypeFailsRow(t *testing.T) {
	cols := []Column{
		{Ordinal: 1, Name: "id", Type: Integer},
		{Ordinal: 2, Name: "active", Type: Other("boolean")},
	}

	// The outcome does not depend on what the cell holds.
	rows := []Row{
		cells(1.0, true),
		cells(1.0, nil),
		cells(1.0),
		{},
	}
	for i, row := range rows {
		_, err := Project(row, cols)
		if !errors.Is(err, ErrUnsupportedColumnType) {
			t.Errorf("row %d: error = %v, want ErrUnsupportedColumnType", i, err)
		}
	}
}

func TestProject_UnsupportedTypeNamesColumn(t *testing.T) {
	cols := []Column{{Ordinal: 1, Name: "created", Type: ParseColumnType("timestamp")}}
	_, err := Project(cells("Date(2024,0,1)"), cols)

	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if se.Detail != "column created (timestamp)" {
		t.Errorf("Detail = %q", se.Detail)
	}
}

func TestProject_InvalidOrdinal(t *testing.T) {
	cols := []Column{{Ordinal: 0, Name: "id", Type: Integer}}
	if _, err := Project(cells(1.0), cols); !errors.Is(err, ErrInvalidColumn) {
		t.Errorf("error = %v, want ErrInvalidColumn", err)
	}
}

func TestTargetRow_Map(t *testing.T) {
	row, err := Project(cells(1.0, "Alice"), idName)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	m := row.Map(idName)
	if m["id"] != int64(1) || m["name"] != "Alice" {
		t.Errorf("Map() = %v", m)
	}
}

// ----------------------------------------------------------------------------
// ValidateColumns Tests
// ----------------------------------------------------------------------------

func TestValidateColumns(t *testing.T) {
	tests := []struct {
		name    string
		cols    []Column
		wantErr bool
	}{
		{name: "valid", cols: idName},
		{name: "empty", cols: nil},
		{name: "unsupported type allowed", cols: []Column{{Ordinal: 1, Name: "x", Type: Other("json")}}},
		{name: "zero ordinal", cols: []Column{{Ordinal: 0, Name: "x", Type: Text}}, wantErr: true},
		{name: "missing name", cols: []Column{{Ordinal: 1, Type: Text}}, wantErr: true},
		{
			name: "duplicate name ignoring case",
			cols: []Column{
				{Ordinal: 1, Name: "Name", Type: Text},
				{Ordinal: 2, Name: "name", Type: Text},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumns(tt.cols)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateColumns() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidColumn) {
				t.Errorf("error = %v, want ErrInvalidColumn", err)
			}
		})
	}
}
