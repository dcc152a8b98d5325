package query

import (
	"cmp"
	"slices"
	"strings"

	"moneymind/internal/core"
)

// MatchesTransaction reports whether t belongs to userID and passes the
// query's filters.
func MatchesTransaction(t core.Transaction, userID int64, q TransactionQuery) bool {
	if t.UserID != userID {
		return false
	}
	if q.Type != "" && t.Type != q.Type {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(t.Category), needle) &&
			!strings.Contains(strings.ToLower(t.Note), needle) {
			return false
		}
	}
	return true
}

// MatchesGoal reports whether g belongs to userID and has the requested
// status on q.Today.
func MatchesGoal(g core.Goal, userID int64, q GoalQuery) bool {
	if g.UserID != userID {
		return false
	}
	return q.Status == "" || g.Status(q.Today) == q.Status
}

// CompareTransactions orders by the query's field, then by id, both in the
// query's direction.
func CompareTransactions(q TransactionQuery) func(a, b core.Transaction) int {
	return func(a, b core.Transaction) int {
		var c int
		switch q.SortBy {
		case SortAmount:
			c = cmp.Compare(a.Amount.Cents, b.Amount.Cents)
		case SortCategory:
			c = strings.Compare(a.Category, b.Category)
		default:
			c = a.Date.Compare(b.Date.Time)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.Order == Desc {
			return -c
		}
		return c
	}
}

// CompareGoals orders by the query's field, then by id, both in the query's
// direction.
func CompareGoals(q GoalQuery) func(a, b core.Goal) int {
	return func(a, b core.Goal) int {
		var c int
		switch q.SortBy {
		case SortDeadline:
			c = a.Deadline.Compare(b.Deadline.Time)
		case SortTargetAmount:
			c = cmp.Compare(a.TargetAmount.Cents, b.TargetAmount.Cents)
		case SortTitle:
			c = strings.Compare(a.Title, b.Title)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.Order == Desc {
			return -c
		}
		return c
	}
}

// ApplyTransactions runs q over an unscoped record set: owner scope, filter,
// count, sort, then slice. It returns the page items and the total number
// of matching records.
func ApplyTransactions(all []core.Transaction, userID int64, q TransactionQuery) ([]core.Transaction, int64) {
	q = NormalizeTransactionQuery(q)
	matched := make([]core.Transaction, 0, len(all))
	for _, t := range all {
		if MatchesTransaction(t, userID, q) {
			matched = append(matched, t)
		}
	}
	slices.SortFunc(matched, CompareTransactions(q))
	start, end := window(len(matched), q.Pagination)
	return slices.Clone(matched[start:end]), int64(len(matched))
}

// ApplyGoals is the goal counterpart of ApplyTransactions. The status filter
// runs before pagination so totals cover every page.
func ApplyGoals(all []core.Goal, userID int64, q GoalQuery) ([]core.Goal, int64) {
	q = NormalizeGoalQuery(q)
	matched := make([]core.Goal, 0, len(all))
	for _, g := range all {
		if MatchesGoal(g, userID, q) {
			matched = append(matched, g)
		}
	}
	slices.SortFunc(matched, CompareGoals(q))
	start, end := window(len(matched), q.Pagination)
	return slices.Clone(matched[start:end]), int64(len(matched))
}
