package web

// handlers_scan.go exposes the scan protocol over HTTP:
//
//	POST   /api/scans               begin a scan, returns its id
//	GET    /api/scans/{id}/next?n=  next n rows
//	POST   /api/scans/{id}/rescan   always fails, scans are forward-only
//	DELETE /api/scans/{id}          end the scan

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetscan/internal/core"
	"github.com/JonMunkholm/sheetscan/internal/sheets"
)

// BeginScanRequest is the body of POST /api/scans. Either Table names a
// catalog table or SpreadSheetID and Columns describe an ad-hoc scan.
type BeginScanRequest struct {
	Table         string          `json:"table,omitempty"`
	SpreadSheetID string          `json:"spread_sheet_id,omitempty"`
	SheetID       string          `json:"sheet_id,omitempty"`
	Columns       []sheets.Column `json:"columns,omitempty"`
}

// BeginScanResponse describes a begun scan.
type BeginScanResponse struct {
	ID           string               `json:"id"`
	Rows         int                  `json:"rows"`
	Columns      []sheets.Column      `json:"columns"`
	SheetColumns []sheets.SheetColumn `json:"sheet_columns,omitempty"`
}

// NextResponse is one page of a scan.
type NextResponse struct {
	Rows   []map[string]any `json:"rows"`
	Cursor int              `json:"cursor"`
	Done   bool             `json:"done"`
}

func (s *Server) scanRequest(body BeginScanRequest) (core.ScanRequest, error) {
	if body.Table == "" {
		opts, err := sheets.TableOptionsFrom(map[string]string{
			"spread_sheet_id": body.SpreadSheetID,
			"sheet_id":        body.SheetID,
		})
		if err != nil {
			return core.ScanRequest{}, err
		}
		return core.ScanRequest{Options: opts, Columns: body.Columns}, nil
	}
	t, err := s.service.Table(body.Table)
	if err != nil {
		return core.ScanRequest{}, err
	}
	req := core.ScanRequest{Options: t.Options(), Columns: t.Columns}
	if len(body.Columns) > 0 {
		req.Columns = body.Columns
	}
	return req, nil
}

func (s *Server) handleBeginScan(w http.ResponseWriter, r *http.Request) {
	var body BeginScanRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := s.scanRequest(body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	info, err := s.service.BeginScan(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, BeginScanResponse{
		ID:           info.ID,
		Rows:         info.Rows,
		Columns:      req.Columns,
		SheetColumns: info.SheetColumns,
	})
}

func (s *Server) handleNextScan(w http.ResponseWriter, r *http.Request) {
	n := parseIntParam(r, "n", 100)
	if n > MaxPageSize {
		n = MaxPageSize
	}

	page, err := s.service.Next(chi.URLParam(r, "scanID"), n)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NextResponse{
		Rows:   rowMaps(page.Rows, page.Columns),
		Cursor: page.Cursor,
		Done:   page.Done,
	})
}

func (s *Server) handleReScan(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ReScan(chi.URLParam(r, "scanID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEndScan(w http.ResponseWriter, r *http.Request) {
	s.service.EndScan(chi.URLParam(r, "scanID"))
	w.WriteHeader(http.StatusNoContent)
}
