package http

import (
	"time"

	"moneymind/internal/auth"
	"moneymind/internal/core"
	"moneymind/internal/finance"
	"moneymind/internal/query"
	"moneymind/internal/services"
)

// Wire representations. Amounts go out as JSON numbers in major units and
// dates as YYYY-MM-DD.

type userView struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Bio          string    `json:"bio"`
	ProfilePhoto string    `json:"profilePhoto"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toUserView(u core.User) userView {
	return userView{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Bio:          u.Bio,
		ProfilePhoto: u.ProfilePhoto,
		CreatedAt:    u.CreatedAt,
	}
}

// sessionView keeps the signup/login shape the web client already reads:
// token, refreshToken and a trimmed-down user.
type sessionView struct {
	Message      string      `json:"message,omitempty"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresAt    time.Time   `json:"expiresAt"`
	User         sessionUser `json:"user"`
}

type sessionUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toSessionView(message string, u core.User, pair auth.TokenPair) sessionView {
	return sessionView{
		Message:      message,
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User:         sessionUser{ID: u.ID, Name: u.Name, Email: u.Email},
	}
}

type transactionView struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Amount    float64   `json:"amount"`
	Type      string    `json:"type"`
	Category  string    `json:"category"`
	Note      string    `json:"note"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

func toTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:        t.ID,
		UserID:    t.UserID,
		Amount:    t.Amount.Float(),
		Type:      string(t.Type),
		Category:  t.Category,
		Note:      t.Note,
		Date:      t.Date.String(),
		CreatedAt: t.CreatedAt,
	}
}

type goalView struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	Title         string    `json:"title"`
	TargetAmount  float64   `json:"targetAmount"`
	CurrentAmount float64   `json:"currentAmount"`
	Deadline      string    `json:"deadline"`
	CreatedAt     time.Time `json:"createdAt"`
	Status        string    `json:"status"`
	Progress      float64   `json:"progress"`
	RawProgress   float64   `json:"rawProgress"`
	Remaining     float64   `json:"remaining"`
}

func toGoalView(g services.GoalView) goalView {
	return goalView{
		ID:            g.ID,
		UserID:        g.UserID,
		Title:         g.Title,
		TargetAmount:  g.TargetAmount.Float(),
		CurrentAmount: g.CurrentAmount.Float(),
		Deadline:      g.Deadline.String(),
		CreatedAt:     g.CreatedAt,
		Status:        string(g.Status),
		Progress:      g.Progress,
		RawProgress:   g.RawProgress,
		Remaining:     g.Remaining.Float(),
	}
}

type activityView struct {
	ID         int64     `json:"id"`
	EventID    string    `json:"eventId"`
	Kind       string    `json:"kind"`
	EntityID   int64     `json:"entityId"`
	OccurredAt time.Time `json:"occurredAt"`
}

func toActivityView(a core.Activity) activityView {
	return activityView{
		ID:         a.ID,
		EventID:    a.EventID,
		Kind:       a.Kind,
		EntityID:   a.EntityID,
		OccurredAt: a.OccurredAt,
	}
}

type paginationView struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

func toPaginationView[T any](p query.Page[T]) paginationView {
	return paginationView{
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	}
}

type summaryView struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

func toSummaryView(s finance.Summary) summaryView {
	return summaryView{
		Income:  s.Income.Float(),
		Expense: s.Expense.Float(),
		Balance: s.Balance.Float(),
	}
}

type monthView struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

func toMonthViews(buckets []finance.MonthBucket) []monthView {
	out := make([]monthView, len(buckets))
	for i, b := range buckets {
		out[i] = monthView{Month: b.Month, Income: b.Income.Float(), Expense: b.Expense.Float()}
	}
	return out
}
