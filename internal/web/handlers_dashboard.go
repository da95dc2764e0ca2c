package web

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"

	"tally/internal/core"
	"tally/internal/log"
)

// chartPayload is what the dashboard chart script reads from its JSON block.
type chartPayload struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	summary, err := s.getSummary(r.Context(), id.UserID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard summary failed",
			log.FieldError, err,
			log.FieldUserID, id.UserID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	chart, err := json.Marshal(chartPayload{
		Labels: summary.ChartLabels(),
		Values: summary.ChartValues(),
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Chart payload marshal failed", log.FieldError, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	type categoryRow struct {
		Name   string
		Amount string
	}
	data := struct {
		basePage
		TotalIncome  string
		TotalExpense string
		NetBalance   string
		Breakdown    []categoryRow
		HasExpenses  bool
		ChartData    template.JS
	}{
		basePage:     s.page(w, r, "Dashboard"),
		TotalIncome:  summary.TotalIncome.String(),
		TotalExpense: summary.TotalExpense.String(),
		NetBalance:   summary.NetBalance.String(),
		HasExpenses:  len(summary.Breakdown) > 0,
		ChartData:    template.JS(chart),
	}
	for _, c := range summary.Breakdown {
		data.Breakdown = append(data.Breakdown, categoryRow{Name: c.Name, Amount: c.Amount.String()})
	}

	s.render(w, r, http.StatusOK, "dashboard.html", data)
}

// getSummary returns the cached dashboard summary for a user, computing and
// caching it on a miss. Entry mutations call invalidateSummary, so a stale
// hit can only outlive its TTL, never a write.
func (s *Server) getSummary(ctx context.Context, userID int64) (core.Summary, error) {
	key := summaryCacheKey(userID)
	if sum, ok := s.summaries.Get(key); ok {
		s.logger.DebugContext(ctx, "Summary cache hit", log.FieldUserID, userID)
		return sum, nil
	}

	sum, err := s.ledger.Summary(ctx, userID)
	if err != nil {
		return core.Summary{}, err
	}
	s.summaries.Set(key, sum)
	return sum, nil
}
