// Package sheets reads a Google Sheets spreadsheet through its gviz JSON
// export and hands it to a row-oriented host as typed rows.
//
// # Scan Protocol
//
// A host drives an [Adapter] through one scan at a time:
//
//	a := sheets.NewAdapter(sheets.WithBaseURL(cfg.Sheets.BaseURL))
//	if err := a.BeginScan(ctx, sheets.TableOptions{SpreadSheetID: "abc123"}); err != nil {
//	    return err
//	}
//	defer a.EndScan()
//	for {
//	    row, ok, err := a.IterScan(cols)
//	    if err != nil || !ok {
//	        break
//	    }
//	    // use row
//	}
//
// BeginScan fetches the whole document in one request and buffers its rows.
// IterScan projects one buffered row per call and advances the cursor.
// EndScan drops the buffer; it never fails. ReScan and every write operation
// return [ErrUnsupportedOperation].
//
// # Column Mapping
//
// Columns are matched to cells by position only: column ordinal n (1-based)
// reads cell n-1 of the row's "c" array. Integer columns take numeric cells
// truncated toward zero; Text columns take string cells verbatim. A cell of
// the wrong shape, a null cell, or a missing cell becomes NULL. Any other
// column type fails the row with [ErrUnsupportedColumnType].
//
// # Errors
//
// Every failure is an [*Error] whose kind can be tested with errors.Is:
//
//   - ErrMissingOption: spread_sheet_id not set
//   - ErrTransport: request failed or returned a non-2xx status
//   - ErrInvalidEnvelope: body does not start with )]}'\n
//   - ErrMalformedJSON: body is not valid JSON
//   - ErrMissingRows: no table.rows array
//   - ErrUnsupportedColumnType, ErrInvalidColumn: unusable column schema
//   - ErrUnsupportedOperation: rescan and writes
package sheets
