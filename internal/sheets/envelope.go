package sheets

// envelope.go parses the gviz export response.
//
// The endpoint prefixes its JSON with ")]}'\n" so the body cannot be executed
// as a script by a browser. The prefix must be present and is stripped before
// parsing. The payload looks like:
//
//	{"table": {"cols": [{"id": "A", "label": "id", "type": "number"}, ...],
//	           "rows": [{"c": [{"v": 1.0, "f": "1"}, {"v": "Alice"}, null]}, ...]}}

import (
	"bytes"

	"github.com/buger/jsonparser"
	jsoniter "github.com/json-iterator/go"
)

// EnvelopePrefix is the anti-hijacking prefix in front of every response body.
const EnvelopePrefix = ")]}'\n"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is the part of a parsed response the adapter keeps.
type Document struct {
	Rows    []Row
	Columns []SheetColumn
}

// ParseDocument strips the envelope prefix, parses the JSON and extracts
// table.rows (required) and table.cols (optional).
func ParseDocument(body []byte) (*Document, error) {
	payload, ok := bytes.CutPrefix(body, []byte(EnvelopePrefix))
	if !ok {
		return nil, newError(ErrInvalidEnvelope, "", "expected )]}' prefix", nil)
	}

	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, newError(ErrMalformedJSON, "", "empty body", nil)
	}
	var probe any
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, newError(ErrMalformedJSON, "", err.Error(), nil)
	}

	rows, dataType, _, err := jsonparser.Get(payload, "table", "rows")
	if err != nil || dataType != jsonparser.Array {
		return nil, newError(ErrMissingRows, "", responseError(payload), nil)
	}

	doc := &Document{Rows: make([]Row, 0)}
	_, err = jsonparser.ArrayEach(rows, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		doc.Rows = append(doc.Rows, decodeRow(value, dataType))
	})
	if err != nil {
		return nil, newError(ErrMalformedJSON, "", err.Error(), nil)
	}

	// Column metadata is informational; a missing or odd cols array is ignored.
	jsonparser.ArrayEach(payload, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if dataType != jsonparser.Object {
			return
		}
		var col SheetColumn
		if json.Unmarshal(value, &col) == nil {
			doc.Columns = append(doc.Columns, col)
		}
	}, "table", "cols")

	return doc, nil
}

// decodeRow reads {"c": [...]}. Anything else is a row with no cells.
func decodeRow(value []byte, dataType jsonparser.ValueType) Row {
	if dataType != jsonparser.Object {
		return Row{}
	}
	cells, cellsType, _, err := jsonparser.Get(value, "c")
	if err != nil || cellsType != jsonparser.Array {
		return Row{}
	}
	var row Row
	jsonparser.ArrayEach(cells, func(cell []byte, cellType jsonparser.ValueType, _ int, _ error) {
		row.Cells = append(row.Cells, decodeCell(cell, cellType))
	})
	return row
}

// decodeCell reads {"v": ..., "f": "..."}; a null slot is a nil cell.
func decodeCell(value []byte, dataType jsonparser.ValueType) *Cell {
	if dataType != jsonparser.Object {
		return nil
	}
	cell := &Cell{}
	if v, vType, _, err := jsonparser.Get(value, "v"); err == nil {
		cell.Value = decodeScalar(v, vType)
	}
	if f, err := jsonparser.GetString(value, "f"); err == nil {
		cell.Formatted = f
	}
	return cell
}

func decodeScalar(v []byte, dataType jsonparser.ValueType) Scalar {
	switch dataType {
	case jsonparser.Number:
		if f, err := jsonparser.ParseFloat(v); err == nil {
			return NumberValue(f)
		}
	case jsonparser.String:
		if s, err := jsonparser.ParseString(v); err == nil {
			return StringValue(s)
		}
	case jsonparser.Boolean:
		if b, err := jsonparser.ParseBoolean(v); err == nil {
			return BoolValue(b)
		}
	}
	return NullValue()
}

// responseError extracts the reason from an error response
// ({"status": "error", "errors": [{"detailed_message": ...}]}), if any.
func responseError(payload []byte) string {
	status, err := jsonparser.GetString(payload, "status")
	if err != nil || status != "error" {
		return ""
	}
	for _, key := range []string{"detailed_message", "message", "reason"} {
		if msg, err := jsonparser.GetString(payload, "errors", "[0]", key); err == nil && msg != "" {
			return msg
		}
	}
	return "response status is error"
}
