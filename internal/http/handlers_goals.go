package http

import (
	"net/http"

	"moneymind/internal/core"
	"moneymind/internal/log"
	"moneymind/internal/query"
	"moneymind/internal/services"
)

const goalNotFound = "Goal not found"

type goalRequest struct {
	Title         string `json:"title"`
	TargetAmount  Amount `json:"targetAmount"`
	CurrentAmount Amount `json:"currentAmount"`
	Deadline      string `json:"deadline"`
}

type contributeRequest struct {
	Amount Amount `json:"amount"`
}

// parseGoal decodes the body into a full replacement input. A missing
// currentAmount is zero.
func parseGoal(w http.ResponseWriter, r *http.Request) (services.GoalInput, error) {
	req := goalRequest{
		TargetAmount:  named("targetAmount"),
		CurrentAmount: named("currentAmount"),
	}
	if err := DecodeJSON(w, r, &req); err != nil {
		return services.GoalInput{}, err
	}
	if !req.TargetAmount.Set {
		return services.GoalInput{}, core.Invalid("targetAmount", "is required")
	}
	deadline, err := ParseDateField("deadline", req.Deadline)
	if err != nil {
		return services.GoalInput{}, err
	}
	return services.GoalInput{
		Title:         sanitizeInput(req.Title),
		TargetAmount:  req.TargetAmount.Money,
		CurrentAmount: req.CurrentAmount.Money,
		Deadline:      deadline,
	}, nil
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	// A zero Today lets the service evaluate status against its own clock.
	q := query.ParseGoalQuery(r.URL.Query(), core.Date{})
	page, err := s.deps.Goals.List(r.Context(), userID(r), q)
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}
	NewResponse().JSON(map[string]any{
		"goals":      query.Map(page, toGoalView).Items,
		"pagination": toPaginationView(page),
	}).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	in, err := parseGoal(w, r)
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}

	g, err := s.deps.Goals.Create(r.Context(), userID(r), in)
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentGoal).InfoContext(r.Context(), "Goal created",
		log.FieldOperation, log.OpCreate,
		log.FieldGoalID, g.ID,
		log.FieldAmountCents, g.TargetAmount.Cents)
	NewResponse().Status(http.StatusCreated).JSON(toGoalView(g)).Write(w)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		ErrorFor(r, err, goalNotFound).Write(w)
		return
	}
	g, err := s.deps.Goals.Get(r.Context(), userID(r), id)
	if err != nil {
		ErrorFor(r, err, goalNotFound).Write(w)
		return
	}
	NewResponse().JSON(toGoalView(g)).Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		ErrorFor(r, err, goalNotFound).Write(w)
		return
	}
	in, err := parseGoal(w, r)
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}

	g, err := s.deps.Goals.Update(r.Context(), userID(r), id, in)
	if err != nil {
		ErrorFor(r, err, goalNotFound).Write(w)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentGoal).InfoContext(r.Context(), "Goal updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldGoalID, g.ID)
	NewResponse().JSON(toGoalView(g)).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		ErrorFor(r, err, goalNotFound).Write(w)
		return
	}
	if err := s.deps.Goals.Delete(r.Context(), userID(r), id); err != nil {
		ErrorFor(r, err, goalNotFound).Write(w)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentGoal).InfoContext(r.Context(), "Goal deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldGoalID, id)
	NewResponse().Message("Goal deleted successfully").Write(w)
}

func (s *Server) handleContributeGoal(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		ErrorFor(r, err, goalNotFound).Write(w)
		return
	}
	req := contributeRequest{Amount: named("amount")}
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}
	if !req.Amount.Set {
		ErrorFor(r, core.Invalid("amount", "is required"), "").Write(w)
		return
	}

	g, err := s.deps.Goals.Contribute(r.Context(), userID(r), id, req.Amount.Money)
	if err != nil {
		ErrorFor(r, err, goalNotFound).Write(w)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentGoal).InfoContext(r.Context(), "Goal contribution recorded",
		log.FieldOperation, log.OpContribute,
		log.FieldGoalID, id,
		log.FieldAmountCents, req.Amount.Money.Cents)
	NewResponse().JSON(toGoalView(g)).Write(w)
}
