package api

import (
	"bytes"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/report"
	"github.com/nuclear-hardware/hms/internal/store"
)

// ReportsHandler serves sales summaries and sold-asset exports.
type ReportsHandler struct {
	DB *sql.DB
}

type summaryResponse struct {
	report.Summary
	Margin string `json:"margin_percent"`
}

// Summary handles GET /api/reports/summary.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	rows, err := store.ListSoldAssets(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to load sold assets")
		return
	}

	s := report.Summarize(rows)
	if s.ByDate == nil {
		s.ByDate = []report.DateCount{}
	}
	jsonResponse(w, http.StatusOK, summaryResponse{Summary: s, Margin: s.Margin().StringFixed(1)})
}

// SoldAssets handles GET /api/reports/sold.
func (h *ReportsHandler) SoldAssets(w http.ResponseWriter, r *http.Request) {
	rows, err := store.ListSoldAssets(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to load sold assets")
		return
	}
	if rows == nil {
		rows = []model.SoldAsset{}
	}
	jsonResponse(w, http.StatusOK, rows)
}

// CSV handles GET /api/reports/sold.csv.
func (h *ReportsHandler) CSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv", report.CSVContentType, report.WriteCSV)
}

// XLSX handles GET /api/reports/sold.xlsx.
func (h *ReportsHandler) XLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "xlsx", report.XLSXContentType, report.WriteXLSX)
}

// export renders the whole file before sending it so a failure can still be
// reported with a proper status code.
func (h *ReportsHandler) export(w http.ResponseWriter, r *http.Request, ext, contentType string, write func(io.Writer, []model.SoldAsset) error) {
	rows, err := store.ListSoldAssets(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to load sold assets")
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, rows); err != nil {
		slog.Error("failed to render export", "format", ext, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to render export")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(ext, time.Now())))
	w.Write(buf.Bytes())
}
