// Package core runs spreadsheet scans on behalf of the service's front ends.
//
// The sheets package implements one scan over one adapter and knows nothing
// about requests, sessions or databases. This package adds them, and can be
// used by the web handlers, the CLI, or tests without modification.
//
// # Architecture
//
//   - Catalog: [catalog.Registry] names the spreadsheet-backed tables.
//   - Service: the entry point for scans, previews and loads.
//   - Sessions: begun scans addressable by id, so the scan protocol
//     (begin, iterate, rescan, end) can be driven over HTTP.
//   - ScanLimiter: caps concurrent spreadsheet fetches.
//   - Loader: replaces a Postgres table with a sheet's rows via COPY.
//   - Refresher: reloads tables on their refresh interval.
//
// # Scan Sessions
//
//	info, err := svc.BeginScan(ctx, core.ScanRequest{
//	    Options: sheets.TableOptions{SpreadSheetID: "abc123"},
//	    Columns: []sheets.Column{{Ordinal: 1, Name: "id", Type: sheets.Integer}},
//	})
//	page, err := svc.Next(info.ID, 100) // repeat until page.Done
//	svc.EndScan(info.ID)
//
// Sessions are forward-only: ReScan always fails and leaves the session
// where it was. Idle sessions are ended by [Service.StartReaper].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a code for support reference:
//
//   - SHT001-SHT008: spreadsheet fetch, parse and column errors
//   - SCN001-SCN005: sessions, limits, cancellation
//   - DB001-DB008: loading into Postgres
package core
