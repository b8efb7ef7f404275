package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const (
	opBeginScan   = "begin_scan"
	opIterScan    = "iter_scan"
	opReScan      = "re_scan"
	opBeginModify = "begin_modify"
	opInsert      = "insert"
	opUpdate      = "update"
	opDelete      = "delete"
)

// Request returns the export request BeginScan sends for opts.
func (a *Adapter) Request(opts TableOptions) Request {
	headers := http.Header{}
	headers.Set("user-agent", a.userAgent)
	// asks the endpoint for a cleaner JSON body
	headers.Set("x-datasource-auth", "true")

	return Request{
		Method:  http.MethodGet,
		URL:     BuildURL(a.baseURL, opts),
		Headers: headers,
	}
}

// BeginScan fetches the spreadsheet and buffers its rows. Any previous scan
// state is discarded first, so a failed BeginScan leaves an empty buffer.
func (a *Adapter) BeginScan(ctx context.Context, opts TableOptions) error {
	a.ResetBuffer()

	if opts.SpreadSheetID == "" {
		return newError(ErrMissingOption, opBeginScan, "spread_sheet_id", nil)
	}

	resp, err := a.transport.Do(ctx, a.Request(opts))
	if err != nil {
		return newError(ErrTransport, opBeginScan, "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(ErrTransport, opBeginScan, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	doc, err := ParseDocument(resp.Body)
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			se.Op = opBeginScan
		}
		return err
	}

	a.rows = doc.Rows
	a.cols = doc.Columns
	a.cursor = 0

	a.log().InfoContext(ctx, "fetched sheet rows",
		"rows", len(a.rows),
		"spread_sheet_id", opts.SpreadSheetID,
		"sheet_id", opts.SheetID,
	)
	return nil
}

// IterScan returns the next row projected onto cols. ok is false once the
// scan is exhausted. The cursor only moves when projection succeeds, so a
// failed call can be inspected without losing the row.
func (a *Adapter) IterScan(cols []Column) (row TargetRow, ok bool, err error) {
	if a.cursor >= len(a.rows) {
		return nil, false, nil
	}

	row, err = Project(a.rows[a.cursor], cols)
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			se.Op = opIterScan
		}
		return nil, false, err
	}

	a.cursor++
	return row, true, nil
}

// ReScan is not supported: a scan is one forward pass over a single fetch.
// The current buffer and cursor are left as they are.
func (a *Adapter) ReScan() error {
	return unsupported(opReScan)
}

// EndScan releases the row buffer. It is safe to call at any time, any
// number of times, including when no scan was begun.
func (a *Adapter) EndScan() {
	a.ResetBuffer()
}

// The spreadsheet export is read-only. Every write entry point is rejected
// the same way, so a host never sees a write silently dropped.

// BeginModify rejects write access.
func (a *Adapter) BeginModify() error {
	return unsupported(opBeginModify)
}

// Insert rejects row inserts.
func (a *Adapter) Insert(TargetRow) error {
	return unsupported(opInsert)
}

// Update rejects row updates.
func (a *Adapter) Update(rowID any, row TargetRow) error {
	return unsupported(opUpdate)
}

// Delete rejects row deletes.
func (a *Adapter) Delete(rowID any) error {
	return unsupported(opDelete)
}

// EndModify is cleanup for the write path and never fails.
func (a *Adapter) EndModify() {}

// Scan runs a whole scan: begin, one fn call per row, end. EndScan always
// runs. It returns the number of rows passed to fn.
func (a *Adapter) Scan(ctx context.Context, opts TableOptions, cols []Column, fn func(TargetRow) error) (int, error) {
	defer a.EndScan()

	if err := a.BeginScan(ctx, opts); err != nil {
		return 0, err
	}
	return a.Each(ctx, cols, fn)
}

// Each calls fn for every remaining row of a begun scan and returns how many
// rows it passed. It stops at the first error from projection, fn or ctx.
func (a *Adapter) Each(ctx context.Context, cols []Column, fn func(TargetRow) error) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		row, ok, err := a.IterScan(cols)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		if err := fn(row); err != nil {
			return n, err
		}
		n++
	}
}
