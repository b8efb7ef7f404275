package web

// handlers_common.go holds helpers shared by the page and API handlers.

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/sheetscan/internal/sheets"
)

// MaxRequestBodySize caps JSON request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// MaxPageSize caps rows per scan page.
const MaxPageSize = 10000

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// clientIP returns the host part of RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// rowMaps converts projected rows to column-name keyed maps for JSON.
func rowMaps(rows []sheets.TargetRow, cols []sheets.Column) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = row.Map(cols)
	}
	return out
}

// formatCellForExport renders a projected cell for CSV. NULL is empty.
func formatCellForExport(v any) string {
	switch val := sheets.Plain(v).(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(val, 10)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
