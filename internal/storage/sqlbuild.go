package storage

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"moneymind/internal/core"
	"moneymind/internal/query"
)

// Dialect captures what differs between the SQL backends.
type Dialect struct {
	Name        string
	Placeholder func(n int) string
	// TextCollate is appended to text sort keys so ordering is bytewise on
	// every backend.
	TextCollate string
	// DateArg encodes a calendar date as a query argument.
	DateArg func(core.Date) any
	// Lower is the SQL function that case-folds searched columns. It must
	// fold the way strings.ToLower folds the search term.
	Lower string
}

var (
	SQLite = Dialect{
		Name:        "sqlite",
		Placeholder: func(int) string { return "?" },
		DateArg:     func(d core.Date) any { return d.String() },
		Lower:       "unicode_lower",
	}
	Postgres = Dialect{
		Name:        "postgres",
		Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		TextCollate: ` COLLATE "C"`,
		DateArg:     func(d core.Date) any { return d.Time },
		Lower:       "LOWER",
	}
)

// Statement is SQL text with its positional arguments.
type Statement struct {
	SQL  string
	Args []any
}

// ListStatements is the page query and the count query of a list request.
// Both share the same predicate.
type ListStatements struct {
	Count  Statement
	Select Statement
}

type argList struct {
	d    Dialect
	vals []any
}

func (a *argList) add(v any) string {
	a.vals = append(a.vals, v)
	return a.d.Placeholder(len(a.vals))
}

// BuildTransactionList translates q into SQL over the transactions table.
// columns is the select list the caller scans.
func BuildTransactionList(d Dialect, columns string, userID int64, q query.TransactionQuery) ListStatements {
	q = query.NormalizeTransactionQuery(q)
	a := &argList{d: d}

	var where strings.Builder
	where.WriteString("user_id = " + a.add(userID))
	if q.Type != "" {
		where.WriteString(" AND type = " + a.add(string(q.Type)))
	}
	if q.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		fmt.Fprintf(&where, ` AND (%[1]s(category) LIKE %[2]s ESCAPE '\' OR %[1]s(note) LIKE %[3]s ESCAPE '\')`,
			d.Lower, a.add(pattern), a.add(pattern))
	}

	return buildList(a, "transactions", columns, where.String(), transactionOrder(d, q), q.Pagination)
}

// BuildGoalList translates q into SQL over the goals table. The status
// filter is part of the predicate, so the count covers every page.
func BuildGoalList(d Dialect, columns string, userID int64, q query.GoalQuery) ListStatements {
	q = query.NormalizeGoalQuery(q)
	a := &argList{d: d}

	var where strings.Builder
	where.WriteString("user_id = " + a.add(userID))
	switch q.Status {
	case core.StatusCompleted:
		where.WriteString(" AND current_cents >= target_cents")
	case core.StatusOverdue:
		where.WriteString(" AND current_cents < target_cents AND deadline < " + a.add(d.DateArg(q.Today)))
	case core.StatusActive:
		where.WriteString(" AND current_cents < target_cents AND deadline >= " + a.add(d.DateArg(q.Today)))
	}

	return buildList(a, "goals", columns, where.String(), goalOrder(d, q), q.Pagination)
}

func buildList(a *argList, table, columns, where, order string, p query.Pagination) ListStatements {
	count := Statement{
		SQL:  fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where),
		Args: slices.Clone(a.vals),
	}
	sel := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT %s OFFSET %s",
		columns, table, where, order, a.add(p.Limit), a.add(p.Offset()))
	return ListStatements{
		Count:  count,
		Select: Statement{SQL: sel, Args: a.vals},
	}
}

func transactionOrder(d Dialect, q query.TransactionQuery) string {
	var col string
	switch q.SortBy {
	case query.SortAmount:
		col = "amount_cents"
	case query.SortCategory:
		col = "category" + d.TextCollate
	default:
		col = "date"
	}
	dir := direction(q.Order)
	return col + " " + dir + ", id " + dir
}

func goalOrder(d Dialect, q query.GoalQuery) string {
	var col string
	switch q.SortBy {
	case query.SortDeadline:
		col = "deadline"
	case query.SortTargetAmount:
		col = "target_cents"
	case query.SortTitle:
		col = "title" + d.TextCollate
	default:
		col = "created_at"
	}
	dir := direction(q.Order)
	return col + " " + dir + ", id " + dir
}

func direction(o query.Order) string {
	if o == query.Asc {
		return "ASC"
	}
	return "DESC"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
