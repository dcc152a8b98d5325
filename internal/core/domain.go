package core

import (
	"net/mail"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	StatusCompleted GoalStatus = "completed"
	StatusOverdue   GoalStatus = "overdue"
	StatusActive    GoalStatus = "active"
)

type (
	TransactionType string

	// GoalStatus is derived from a goal's amounts and deadline at read time.
	// It is never persisted.
	GoalStatus string

	Date struct {
		time.Time
	}

	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		Phone        string
		Bio          string
		ProfilePhoto string
		CreatedAt    time.Time
	}

	Transaction struct {
		ID        int64
		UserID    int64
		Amount    Money
		Type      TransactionType
		Category  string
		Note      string
		Date      Date
		CreatedAt time.Time
	}

	Goal struct {
		ID            int64
		UserID        int64
		Title         string
		TargetAmount  Money
		CurrentAmount Money
		Deadline      Date
		CreatedAt     time.Time
	}

	// Activity is one entry of a user's audit trail, written asynchronously
	// from published change events.
	Activity struct {
		ID         int64
		EventID    string
		UserID     int64
		Kind       string
		EntityID   int64
		OccurredAt time.Time
	}
)

// ParseTransactionType accepts the two known types, case-insensitively.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, true
	case Expense:
		return Expense, true
	}
	return "", false
}

// ParseGoalStatus accepts the three derived statuses, case-insensitively.
func ParseGoalStatus(s string) (GoalStatus, bool) {
	switch GoalStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusCompleted:
		return StatusCompleted, true
	case StatusOverdue:
		return StatusOverdue, true
	case StatusActive:
		return StatusActive, true
	}
	return "", false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current UTC calendar date.
func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Status derives the goal status on the given day. Completion wins over
// an elapsed deadline.
func (g Goal) Status(today Date) GoalStatus {
	if g.CurrentAmount.Cents >= g.TargetAmount.Cents {
		return StatusCompleted
	}
	if g.Deadline.Before(today) {
		return StatusOverdue
	}
	return StatusActive
}

func (t Transaction) Validate() error {
	if t.Amount.Cents < 0 {
		return Invalid("amount", "must not be negative")
	}
	if _, ok := ParseTransactionType(string(t.Type)); !ok {
		return Invalid("type", "must be income or expense")
	}
	category := strings.TrimSpace(t.Category)
	if category == "" {
		return Invalid("category", "is required")
	}
	if len(category) > 100 {
		return Invalid("category", "too long (max 100 characters)")
	}
	if len(t.Note) > 500 {
		return Invalid("note", "too long (max 500 characters)")
	}
	if err := t.Date.Validate(); err != nil {
		return Invalid("date", "is required")
	}
	return nil
}

func (g Goal) Validate() error {
	title := strings.TrimSpace(g.Title)
	if title == "" {
		return Invalid("title", "is required")
	}
	if len(title) > 200 {
		return Invalid("title", "too long (max 200 characters)")
	}
	if g.TargetAmount.Cents <= 0 {
		return Invalid("targetAmount", "must be greater than zero")
	}
	if g.CurrentAmount.Cents < 0 {
		return Invalid("currentAmount", "must not be negative")
	}
	if err := g.Deadline.Validate(); err != nil {
		return Invalid("deadline", "is required")
	}
	return nil
}

// ValidateProfile checks the user-editable profile fields.
func (u User) ValidateProfile() error {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		return Invalid("name", "is required")
	}
	if len(name) > 100 {
		return Invalid("name", "too long (max 100 characters)")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return Invalid("email", "is not a valid address")
	}
	if len(u.Phone) > 32 {
		return Invalid("phone", "too long (max 32 characters)")
	}
	if len(u.Bio) > 1000 {
		return Invalid("bio", "too long (max 1000 characters)")
	}
	return nil
}

// NormalizeEmail lowercases and trims an address so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
