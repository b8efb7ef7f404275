package web

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetscan/internal/catalog"
	"github.com/JonMunkholm/sheetscan/internal/core"
	"github.com/JonMunkholm/sheetscan/internal/logging"
	"github.com/JonMunkholm/sheetscan/internal/sheets"
	"github.com/JonMunkholm/sheetscan/internal/web/templates"
)

// TableInfo is the API view of a catalog table.
type TableInfo struct {
	Key             string          `json:"key"`
	Label           string          `json:"label"`
	SpreadSheetID   string          `json:"spread_sheet_id"`
	SheetID         string          `json:"sheet_id,omitempty"`
	TargetTable     string          `json:"target_table,omitempty"`
	RefreshInterval string          `json:"refresh_interval,omitempty"`
	Columns         []sheets.Column `json:"columns"`
}

func tableInfo(t catalog.Table) TableInfo {
	info := TableInfo{
		Key:           t.Key,
		Label:         t.DisplayName(),
		SpreadSheetID: t.SpreadSheetID,
		SheetID:       t.SheetID,
		TargetTable:   t.TargetTable,
		Columns:       t.Columns,
	}
	if t.Refreshes() {
		info.RefreshInterval = t.RefreshInterval.String()
	}
	return info
}

// handleHealth reports liveness plus scan load.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"tables":       s.service.Catalog().Count(),
		"sessions":     s.service.SessionCount(),
		"limiter":      s.service.Limiter().Status(),
		"load_enabled": s.service.LoadEnabled(),
	})
}

// handleIndex renders the table list page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tables := s.service.ListTables()
	cards := make([]templates.TableCard, len(tables))
	for i, t := range tables {
		cards[i] = templates.TableCard{
			Key:           t.Key,
			Label:         t.DisplayName(),
			SpreadSheetID: t.SpreadSheetID,
			SheetID:       t.SheetID,
			Columns:       len(t.Columns),
			TargetTable:   t.TargetTable,
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Layout("Spreadsheet tables", templates.TableList(cards)).Render(r.Context(), w)
}

// handleTablePage renders a preview of a catalog table.
func (s *Server) handleTablePage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "tableKey")
	limit := parseIntParam(r, "limit", 0)

	p, err := s.service.Preview(r.Context(), key, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	params := templates.TableViewParams{
		Key:       p.Table.Key,
		Label:     p.Table.DisplayName(),
		Columns:   sheets.ColumnNames(p.Table.Columns),
		Rows:      make([][]string, len(p.Rows)),
		Nulls:     make([][]bool, len(p.Rows)),
		Total:     p.Total,
		Truncated: p.Truncated,
		Loadable:  p.Table.Loadable() && s.service.LoadEnabled(),
	}
	for i, row := range p.Rows {
		params.Rows[i] = make([]string, len(row))
		params.Nulls[i] = make([]bool, len(row))
		for j, v := range row.Values() {
			params.Rows[i][j], params.Nulls[i][j] = templates.FormatCell(v)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Layout(params.Label, templates.TableView(params)).Render(r.Context(), w)
}

// handleListTables returns the catalog.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables := s.service.ListTables()
	out := make([]TableInfo, len(tables))
	for i, t := range tables {
		out[i] = tableInfo(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": out})
}

// handleTableRows returns the first ?limit rows of a catalog table.
func (s *Server) handleTableRows(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "tableKey")
	limit := parseIntParam(r, "limit", 0)

	p, err := s.service.Preview(r.Context(), key, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"table":     tableInfo(p.Table),
		"rows":      rowMaps(p.Rows, p.Table.Columns),
		"total":     p.Total,
		"truncated": p.Truncated,
	})
}

// handleExportTable streams every row of a catalog table as CSV.
func (s *Server) handleExportTable(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "tableKey")
	t, err := s.service.Table(key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var (
		csvWriter *csv.Writer
		started   bool
		rows      int
	)
	// Headers go out with the first row so a failed fetch still gets a
	// proper error response.
	start := func() error {
		started = true
		filename := fmt.Sprintf("%s_%s.csv", t.Key, time.Now().Format("20060102_150405"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		csvWriter = csv.NewWriter(w)
		return csvWriter.Write(sheets.ColumnNames(t.Columns))
	}

	const flushInterval = 1000
	record := make([]string, len(t.Columns))
	n, err := s.service.Scan(r.Context(), core.ScanRequest{Options: t.Options(), Columns: t.Columns}, func(row sheets.TargetRow) error {
		if !started {
			if err := start(); err != nil {
				return err
			}
		}
		for i, v := range row {
			record[i] = formatCellForExport(v)
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
		rows++
		if rows%flushInterval == 0 {
			csvWriter.Flush()
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
		return csvWriter.Error()
	})
	if err == nil && !started {
		err = start()
	}
	if err != nil && !started {
		s.respondError(w, r, err)
		return
	}
	if err != nil {
		// Can't change status code after writing, just log
		logging.FromContext(r.Context()).Error("export failed", "table", key, "rows", n, "error", err)
	}
	csvWriter.Flush()
}

// handleDescribeTable returns the sheet's own column metadata.
func (s *Server) handleDescribeTable(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "tableKey")
	cols, err := s.service.Describe(r.Context(), key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if cols == nil {
		cols = []sheets.SheetColumn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"columns": cols})
}

// handleLoadTable replaces the target table with the sheet's rows.
func (s *Server) handleLoadTable(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "tableKey")
	res, err := s.service.Load(r.Context(), key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"table":       res.Table,
		"target":      res.Target,
		"rows":        res.Rows,
		"duration_ms": res.Duration.Milliseconds(),
	})
}
