package web

import (
	"log/slog"
	"net/http"

	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/report"
	"github.com/nuclear-hardware/hms/internal/store"
)

// recentSales is how many sale records the dashboard shows.
const recentSales = 10

type statusCount struct {
	Status model.AssetStatus
	Count  int
}

type typeCount struct {
	Type  model.SaleType
	Count int
}

// Dashboard handles GET /.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	p := s.page(w, r, "Dashboard")

	counts, err := store.CountAssetsByStatus(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to count assets for dashboard", "error", err)
	}
	var stock []statusCount
	for _, st := range model.Statuses {
		stock = append(stock, statusCount{Status: st, Count: counts[st]})
	}

	sales, err := store.ListSaleRecords(r.Context(), s.DB, recentSales)
	if err != nil {
		slog.Error("failed to list sales for dashboard", "error", err)
	}

	// Financial totals are for managers only.
	var summary *report.Summary
	var byType []typeCount
	if roleAtLeast(p.User, model.RoleManager) {
		rows, err := store.ListSoldAssets(r.Context(), s.DB)
		if err != nil {
			slog.Error("failed to list sold assets for dashboard", "error", err)
		}
		sum := report.Summarize(rows)
		summary = &sum
		for _, t := range []model.SaleType{model.SaleTypeBulk, model.SaleTypeMixed, model.SaleTypeSingle, model.SaleTypeUnknown} {
			if n := sum.ByType[t]; n > 0 {
				byType = append(byType, typeCount{Type: t, Count: n})
			}
		}
	}

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		Stock       []statusCount
		Summary     *report.Summary
		ByType      []typeCount
		RecentSales []model.SaleRecord
	}{
		PageData:    p,
		Stock:       stock,
		Summary:     summary,
		ByType:      byType,
		RecentSales: sales,
	})
}
