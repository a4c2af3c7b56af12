package web

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/report"
	"github.com/nuclear-hardware/hms/internal/store"
)

// ReportsPage handles GET /reports.
func (s *Server) ReportsPage(w http.ResponseWriter, r *http.Request) {
	p := s.page(w, r, "Sold assets")
	rows, err := store.ListSoldAssets(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list sold assets", "error", err)
		p.Error = "Failed to load sold assets."
	}

	s.Templates.Render(w, "reports.html", &struct {
		PageData
		Rows    []model.SoldAsset
		Summary report.Summary
	}{
		PageData: p,
		Rows:     rows,
		Summary:  report.Summarize(rows),
	})
}

// ReportCSV handles GET /reports/sold.csv.
func (s *Server) ReportCSV(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "csv", report.CSVContentType, report.WriteCSV)
}

// ReportXLSX handles GET /reports/sold.xlsx.
func (s *Server) ReportXLSX(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "xlsx", report.XLSXContentType, report.WriteXLSX)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, ext, contentType string, write func(io.Writer, []model.SoldAsset) error) {
	rows, err := store.ListSoldAssets(r.Context(), s.DB)
	if err != nil {
		redirectErr(w, r, "/reports", err, "Failed to load sold assets")
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, rows); err != nil {
		redirectErr(w, r, "/reports", err, "Failed to render export")
		return
	}

	slog.Info("report exported", "user", GetWebClaims(r.Context()).Username, "format", ext, "rows", len(rows))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(ext, time.Now())))
	w.Write(buf.Bytes())
}
