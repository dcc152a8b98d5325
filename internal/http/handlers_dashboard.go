package http

import (
	"fmt"
	"net/http"
	"strconv"

	"moneymind/internal/charts"
	"moneymind/internal/core"
	"moneymind/internal/log"
	"moneymind/internal/query"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.Dashboard.Summary(r.Context(), userID(r))
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}
	NewResponse().JSON(toSummaryView(sum)).Write(w)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	year, err := ParseYear(r.URL.Query())
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}
	buckets, err := s.deps.Dashboard.Monthly(r.Context(), userID(r), year)
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}
	NewResponse().JSON(map[string]any{
		"year":   year,
		"months": toMonthViews(buckets),
	}).Write(w)
}

// handleMonthlyChart renders one transaction type's monthly totals as a PNG
// bar chart. type defaults to expense.
func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request) {
	year, err := ParseYear(r.URL.Query())
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}
	typ := core.Expense
	if v := r.URL.Query().Get("type"); v != "" {
		t, ok := core.ParseTransactionType(v)
		if !ok {
			ErrorFor(r, core.Invalid("type", "must be income or expense"), "").Write(w)
			return
		}
		typ = t
	}

	buckets, err := s.deps.Dashboard.Monthly(r.Context(), userID(r), year)
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}

	title := "All years"
	if year != 0 {
		title = strconv.Itoa(year)
	}
	png, err := charts.MonthlyBars(fmt.Sprintf("Monthly %s, %s", typ, title), buckets, typ)
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentDashboard).ErrorContext(r.Context(), "Failed to render chart",
			log.FieldYear, year,
			log.FieldError, err)
		InternalServerError().Write(w)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	page, err := s.deps.Activity.List(r.Context(), userID(r), query.ParsePagination(r.URL.Query()))
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}
	NewResponse().JSON(map[string]any{
		"activity":   query.Map(page, toActivityView).Items,
		"pagination": toPaginationView(page),
	}).Write(w)
}
