// Package catalog holds the spreadsheet-backed tables the service knows
// about: where each table's rows come from, how its columns map onto sheet
// cells, and optionally which Postgres table it is loaded into.
//
// Tables are declared in a YAML file:
//
//	tables:
//	  - key: people
//	    label: People
//	    spread_sheet_id: abc123
//	    sheet_id: "2"
//	    target_table: public.people
//	    refresh_interval: 1h
//	    columns:
//	      - {ordinal: 1, name: id, type: bigint}
//	      - {ordinal: 2, name: name, type: text}
package catalog

import (
	"time"

	"github.com/JonMunkholm/sheetscan/internal/sheets"
)

// Table is one catalog entry.
type Table struct {
	Key             string
	Label           string
	SpreadSheetID   string
	SheetID         string
	TargetTable     string
	RefreshInterval time.Duration
	Columns         []sheets.Column
}

// Options returns the per-scan options for the table.
func (t Table) Options() sheets.TableOptions {
	return sheets.TableOptions{SpreadSheetID: t.SpreadSheetID, SheetID: t.SheetID}
}

// DisplayName returns the label, or the key when no label is set.
func (t Table) DisplayName() string {
	if t.Label != "" {
		return t.Label
	}
	return t.Key
}

// Loadable reports whether the table has a Postgres target.
func (t Table) Loadable() bool {
	return t.TargetTable != ""
}

// Refreshes reports whether the scheduler should reload the table.
func (t Table) Refreshes() bool {
	return t.Loadable() && t.RefreshInterval > 0
}
