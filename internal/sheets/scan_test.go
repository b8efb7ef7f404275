package sheets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
)

// fakeTransport serves canned responses and records requests.
type fakeTransport struct {
	status   int
	body     string
	err      error
	requests []Request
}

func (f *fakeTransport) Do(_ context.Context, req Request) (*Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{StatusCode: status, Body: []byte(f.body)}, nil
}

func newTestAdapter(tr Transport) *Adapter {
	return NewAdapter(
		WithTransport(tr),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func rowsBody(n int) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf(`{"c":[{"v":%d},{"v":"row %d"}]}`, i+1, i+1)
	}
	return EnvelopePrefix + `{"table":{"rows":[` + strings.Join(rows, ",") + `]}}`
}

var opts = TableOptions{SpreadSheetID: "abc123"}

// ----------------------------------------------------------------------------
// Scan Lifecycle Tests
// ----------------------------------------------------------------------------

func TestScan_SingleRow(t *testing.T) {
	tr := &fakeTransport{body: EnvelopePrefix + `{"table":{"rows":[{"c":[{"v":1.0},{"v":"Alice"}]}]}}`}
	a := newTestAdapter(tr)

	if err := a.BeginScan(context.Background(), opts); err != nil {
		t.Fatalf("BeginScan() error = %v", err)
	}

	row, ok, err := a.IterScan(idName)
	if err != nil || !ok {
		t.Fatalf("IterScan() = %v, %v, %v", row, ok, err)
	}
	if got := row.Values(); got[0] != int64(1) || got[1] != "Alice" {
		t.Errorf("row = %v, want [1 Alice]", got)
	}

	if _, ok, err := a.IterScan(idName); ok || err != nil {
		t.Errorf("second IterScan() ok = %v, err = %v, want end of scan", ok, err)
	}
	if _, ok, _ := a.IterScan(idName); ok {
		t.Error("IterScan() after end should keep returning end of scan")
	}

	a.EndScan()
	if a.Len() != 0 || a.Cursor() != 0 {
		t.Errorf("after EndScan Len = %d, Cursor = %d", a.Len(), a.Cursor())
	}
}

func TestScan_RequestShape(t *testing.T) {
	tr := &fakeTransport{body: rowsBody(0)}
	a := newTestAdapter(tr)

	if err := a.BeginScan(context.Background(), TableOptions{SpreadSheetID: "abc123", SheetID: "2"}); err != nil {
		t.Fatalf("BeginScan() error = %v", err)
	}
	if len(tr.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(tr.requests))
	}
	req := tr.requests[0]
	if req.Method != http.MethodGet {
		t.Errorf("Method = %q, want GET", req.Method)
	}
	if req.URL != "https://docs.google.com/spreadsheets/d/abc123/gviz/tq?gid=2&tqx=out:json" {
		t.Errorf("URL = %q", req.URL)
	}
	if req.Headers.Get("user-agent") != "Sheets FDW" || req.Headers.Get("x-datasource-auth") != "true" {
		t.Errorf("Headers = %v", req.Headers)
	}
	if req.Body != "" {
		t.Errorf("Body = %q, want empty", req.Body)
	}
}

func TestScan_ReturnsExactlyNRows(t *testing.T) {
	for _, n := range []int{0, 1, 2, 17} {
		t.Run(fmt.Sprintf("%d rows", n), func(t *testing.T) {
			a := newTestAdapter(&fakeTransport{body: rowsBody(n)})
			if err := a.BeginScan(context.Background(), opts); err != nil {
				t.Fatalf("BeginScan() error = %v", err)
			}

			got := 0
			for {
				row, ok, err := a.IterScan(idName)
				if err != nil {
					t.Fatalf("IterScan() error = %v", err)
				}
				if !ok {
					break
				}
				got++
				if v := row.Values()[0]; v != int64(got) {
					t.Errorf("row %d id = %v, want source order", got, v)
				}
			}
			if got != n {
				t.Errorf("rows = %d, want %d", got, n)
			}
			if !a.Exhausted() || a.Remaining() != 0 {
				t.Errorf("Exhausted = %v, Remaining = %d", a.Exhausted(), a.Remaining())
			}
		})
	}
}

func TestScan_BeginAfterEndRefetches(t *testing.T) {
	tr := &fakeTransport{body: rowsBody(3)}
	a := newTestAdapter(tr)
	ctx := context.Background()

	if err := a.BeginScan(ctx, opts); err != nil {
		t.Fatalf("BeginScan() error = %v", err)
	}
	a.IterScan(idName)
	a.IterScan(idName)
	a.EndScan()

	tr.body = rowsBody(2)
	if err := a.BeginScan(ctx, opts); err != nil {
		t.Fatalf("second BeginScan() error = %v", err)
	}
	if len(tr.requests) != 2 {
		t.Errorf("requests = %d, want 2", len(tr.requests))
	}
	if a.Cursor() != 0 || a.Len() != 2 {
		t.Errorf("Cursor = %d, Len = %d, want 0, 2", a.Cursor(), a.Len())
	}
	row, ok, _ := a.IterScan(idName)
	if !ok || row.Values()[0] != int64(1) {
		t.Errorf("first row after refetch = %v, %v", row, ok)
	}
}

func TestScan_BeginWithoutEndReplacesBuffer(t *testing.T) {
	tr := &fakeTransport{body: rowsBody(3)}
	a := newTestAdapter(tr)

	a.BeginScan(context.Background(), opts)
	a.IterScan(idName)

	tr.body = rowsBody(1)
	if err := a.BeginScan(context.Background(), opts); err != nil {
		t.Fatalf("BeginScan() error = %v", err)
	}
	if a.Cursor() != 0 || a.Len() != 1 {
		t.Errorf("Cursor = %d, Len = %d, want 0, 1", a.Cursor(), a.Len())
	}
}

func TestScan_EndScanWithoutBegin(t *testing.T) {
	a := newTestAdapter(&fakeTransport{})
	a.EndScan()
	a.EndScan()
	if _, ok, err := a.IterScan(idName); ok || err != nil {
		t.Errorf("IterScan() on idle adapter ok = %v, err = %v", ok, err)
	}
}

func TestScan_ReScanLeavesStateUntouched(t *testing.T) {
	a := newTestAdapter(&fakeTransport{body: rowsBody(3)})
	a.BeginScan(context.Background(), opts)
	a.IterScan(idName)

	err := a.ReScan()
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("ReScan() error = %v, want ErrUnsupportedOperation", err)
	}
	if a.Cursor() != 1 || a.Len() != 3 {
		t.Errorf("Cursor = %d, Len = %d, want 1, 3", a.Cursor(), a.Len())
	}
	row, ok, _ := a.IterScan(idName)
	if !ok || row.Values()[0] != int64(2) {
		t.Errorf("scan did not continue after ReScan: %v, %v", row, ok)
	}
}

// ----------------------------------------------------------------------------
// BeginScan Failure Tests
// ----------------------------------------------------------------------------

func TestBeginScan_Errors(t *testing.T) {
	tests := []struct {
		name     string
		opts     TableOptions
		tr       *fakeTransport
		wantKind error
		wantReqs int
	}{
		{
			name:     "missing spreadsheet id",
			opts:     TableOptions{SheetID: "2"},
			tr:       &fakeTransport{body: rowsBody(1)},
			wantKind: ErrMissingOption,
			wantReqs: 0,
		},
		{
			name:     "transport failure",
			opts:     opts,
			tr:       &fakeTransport{err: errors.New("connection refused")},
			wantKind: ErrTransport,
			wantReqs: 1,
		},
		{
			name:     "non-2xx status",
			opts:     opts,
			tr:       &fakeTransport{status: http.StatusNotFound, body: "not found"},
			wantKind: ErrTransport,
			wantReqs: 1,
		},
		{
			name:     "bad envelope",
			opts:     opts,
			tr:       &fakeTransport{body: `{"table":{"rows":[]}}`},
			wantKind: ErrInvalidEnvelope,
			wantReqs: 1,
		},
		{
			name:     "malformed json",
			opts:     opts,
			tr:       &fakeTransport{body: EnvelopePrefix + `{"table":`},
			wantKind: ErrMalformedJSON,
			wantReqs: 1,
		},
		{
			name:     "missing rows",
			opts:     opts,
			tr:       &fakeTransport{body: EnvelopePrefix + `{"table":{}}`},
			wantKind: ErrMissingRows,
			wantReqs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(tt.tr)
			err := a.BeginScan(context.Background(), tt.opts)
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("BeginScan() error = %v, want %v", err, tt.wantKind)
			}
			if len(tt.tr.requests) != tt.wantReqs {
				t.Errorf("requests = %d, want %d", len(tt.tr.requests), tt.wantReqs)
			}

			var se *Error
			if errors.As(err, &se) && se.Op != "begin_scan" {
				t.Errorf("Op = %q, want begin_scan", se.Op)
			}
			if a.Len() != 0 {
				t.Errorf("Len = %d after failed BeginScan, want 0", a.Len())
			}
			if _, ok, _ := a.IterScan(idName); ok {
				t.Error("IterScan() returned a row after failed BeginScan")
			}
		})
	}
}

func TestBeginScan_FailureClearsPreviousScan(t *testing.T) {
	tr := &fakeTransport{body: rowsBody(3)}
	a := newTestAdapter(tr)
	a.BeginScan(context.Background(), opts)

	tr.body = "garbage"
	if err := a.BeginScan(context.Background(), opts); err == nil {
		t.Fatal("BeginScan() error = nil, want error")
	}
	if a.Len() != 0 || a.Cursor() != 0 {
		t.Errorf("Len = %d, Cursor = %d, want empty buffer", a.Len(), a.Cursor())
	}
}

func TestBeginScan_TransportErrorIsWrapped(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	a := newTestAdapter(&fakeTransport{err: cause})
	err := a.BeginScan(context.Background(), opts)
	if !errors.Is(err, cause) {
		t.Errorf("error = %v, want it to wrap the transport error", err)
	}
}

// ----------------------------------------------------------------------------
// IterScan Failure Tests
// ----------------------------------------------------------------------------

func TestIterScan_UnsupportedTypeKeepsCursor(t *testing.T) {
	a := newTestAdapter(&fakeTransport{body: rowsBody(2)})
	a.BeginScan(context.Background(), opts)

	bad := []Column{{Ordinal: 1, Name: "id", Type: Other("uuid")}}
	_, ok, err := a.IterScan(bad)
	if ok || !errors.Is(err, ErrUnsupportedColumnType) {
		t.Fatalf("IterScan() ok = %v, err = %v", ok, err)
	}
	var se *Error
	if errors.As(err, &se) && se.Op != "iter_scan" {
		t.Errorf("Op = %q, want iter_scan", se.Op)
	}
	if a.Cursor() != 0 {
		t.Errorf("Cursor = %d after failed IterScan, want 0", a.Cursor())
	}
}

// ----------------------------------------------------------------------------
// Write Path Tests
// ----------------------------------------------------------------------------

func TestWritesAreRejected(t *testing.T) {
	a := newTestAdapter(&fakeTransport{})
	row := TargetRow{}

	checks := map[string]error{
		"begin_modify": a.BeginModify(),
		"insert":       a.Insert(row),
		"update":       a.Update(int64(1), row),
		"delete":       a.Delete(int64(1)),
	}
	for op, err := range checks {
		if !errors.Is(err, ErrUnsupportedOperation) {
			t.Errorf("%s error = %v, want ErrUnsupportedOperation", op, err)
		}
		if !strings.HasPrefix(err.Error(), op+": ") {
			t.Errorf("%s error = %q, want op prefix", op, err.Error())
		}
	}
	a.EndModify()
}

func TestBeginScan_LogsFetchedRows(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	a := NewAdapter(WithTransport(&fakeTransport{body: rowsBody(3)}), WithLogger(logger))
	if err := a.BeginScan(context.Background(), opts); err != nil {
		t.Fatalf("BeginScan() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `msg="fetched sheet rows"`) || !strings.Contains(out, "rows=3") {
		t.Errorf("log = %q, want fetched sheet rows with rows=3", out)
	}

	buf.Reset()
	failed := NewAdapter(WithTransport(&fakeTransport{status: http.StatusNotFound}), WithLogger(logger))
	if err := failed.BeginScan(context.Background(), opts); err == nil {
		t.Fatal("BeginScan() error = nil for a 404")
	}
	if strings.Contains(buf.String(), "fetched sheet rows") {
		t.Errorf("failed BeginScan logged %q", buf.String())
	}
}

func TestEach_ContinuesFromCursor(t *testing.T) {
	a := newTestAdapter(&fakeTransport{body: rowsBody(3)})
	if err := a.BeginScan(context.Background(), opts); err != nil {
		t.Fatalf("BeginScan() error = %v", err)
	}
	if _, _, err := a.IterScan(idName); err != nil {
		t.Fatalf("IterScan() error = %v", err)
	}

	var ids []any
	n, err := a.Each(context.Background(), idName, func(row TargetRow) error {
		ids = append(ids, row.Values()[0])
		return nil
	})
	if err != nil || n != 2 {
		t.Fatalf("Each() = %d, %v, want 2, nil", n, err)
	}
	if ids[0] != int64(2) || ids[1] != int64(3) {
		t.Errorf("ids = %v, want [2 3]", ids)
	}
	if a.Len() != 3 {
		t.Error("Each() should not end the scan")
	}
}

// ----------------------------------------------------------------------------
// Scan Helper Tests
// ----------------------------------------------------------------------------

func TestScanHelper(t *testing.T) {
	a := newTestAdapter(&fakeTransport{body: rowsBody(4)})

	var names []any
	n, err := a.Scan(context.Background(), opts, idName, func(row TargetRow) error {
		names = append(names, row.Values()[1])
		return nil
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if n != 4 || len(names) != 4 || names[3] != "row 4" {
		t.Errorf("n = %d, names = %v", n, names)
	}
	if a.Len() != 0 {
		t.Errorf("Len = %d after Scan, want 0", a.Len())
	}
}

func TestScanHelper_CallbackError(t *testing.T) {
	a := newTestAdapter(&fakeTransport{body: rowsBody(4)})
	stop := errors.New("stop")

	n, err := a.Scan(context.Background(), opts, idName, func(row TargetRow) error {
		if row.Values()[0] == int64(2) {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || n != 1 {
		t.Errorf("Scan() = %d, %v, want 1, stop", n, err)
	}
	if a.Len() != 0 {
		t.Error("Scan() should end the scan on error")
	}
}

func TestScanHelper_ContextCanceled(t *testing.T) {
	a := newTestAdapter(&fakeTransport{body: rowsBody(4)})
	ctx, cancel := context.WithCancel(context.Background())

	n, err := a.Scan(ctx, opts, idName, func(TargetRow) error {
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) || n != 1 {
		t.Errorf("Scan() = %d, %v, want 1, context.Canceled", n, err)
	}
}

// ----------------------------------------------------------------------------
// Configuration Tests
// ----------------------------------------------------------------------------

func TestConfigure(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultBaseURL},
		{"   ", DefaultBaseURL},
		{"http://localhost:9000/d", "http://localhost:9000/d"},
		{"http://localhost:9000/d/", "http://localhost:9000/d"},
	}
	for _, tt := range tests {
		a := NewAdapter(WithBaseURL(tt.in))
		if a.BaseURL() != tt.want {
			t.Errorf("Configure(%q) = %q, want %q", tt.in, a.BaseURL(), tt.want)
		}
	}
}

func TestBeginScan_UsesConfiguredBaseURL(t *testing.T) {
	tr := &fakeTransport{body: rowsBody(0)}
	a := NewAdapter(WithTransport(tr), WithBaseURL("http://mock/d"))
	a.BeginScan(context.Background(), opts)

	if got := tr.requests[0].URL; got != "http://mock/d/abc123/gviz/tq?tqx=out:json" {
		t.Errorf("URL = %q", got)
	}
}

func TestWithUserAgent(t *testing.T) {
	a := NewAdapter(WithTransport(&fakeTransport{}), WithUserAgent("custom"))
	if got := a.Request(opts).Headers.Get("user-agent"); got != "custom" {
		t.Errorf("user-agent = %q, want custom", got)
	}
}
