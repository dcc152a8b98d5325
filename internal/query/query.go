// Package query turns list requests into normalised, store-independent
// query descriptions and assembles the resulting pages.
//
// Parsing never fails: missing or malformed parameters fall back to their
// defaults. Stores receive a fully normalised query and only have to
// translate it.
package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"moneymind/internal/core"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps Offset inside int for every allowed limit.
	MaxPage = math.MaxInt / MaxLimit
)

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

const (
	SortDate     TransactionSort = "date"
	SortAmount   TransactionSort = "amount"
	SortCategory TransactionSort = "category"
)

const (
	SortCreatedAt    GoalSort = "createdAt"
	SortDeadline     GoalSort = "deadline"
	SortTargetAmount GoalSort = "targetAmount"
	SortTitle        GoalSort = "title"
)

type (
	Order           string
	TransactionSort string
	GoalSort        string

	Pagination struct {
		Page  int
		Limit int
	}

	TransactionQuery struct {
		Pagination
		Type   core.TransactionType // empty means all types
		Search string
		SortBy TransactionSort
		Order  Order
	}

	GoalQuery struct {
		Pagination
		Status core.GoalStatus // empty means all statuses
		SortBy GoalSort
		Order  Order
		// Today is the reference date for status derivation.
		Today core.Date
	}
)

// Offset is the number of matching records skipped before the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// DefaultPagination returns page 1 with the default limit.
func DefaultPagination() Pagination {
	return Pagination{Page: DefaultPage, Limit: DefaultLimit}
}

// ParsePagination reads page and limit. Values that are missing, not
// integers, or below 1 fall back to defaults; page is capped at MaxPage and
// limit at MaxLimit.
func ParsePagination(v url.Values) Pagination {
	p := DefaultPagination()
	if n, ok := positiveInt(v.Get("page")); ok {
		p.Page = min(n, MaxPage)
	}
	if n, ok := positiveInt(v.Get("limit")); ok {
		p.Limit = min(n, MaxLimit)
	}
	return p
}

// ParseTransactionQuery reads page, limit, type, search, sortBy and order.
func ParseTransactionQuery(v url.Values) TransactionQuery {
	q := TransactionQuery{
		Pagination: ParsePagination(v),
		Search:     strings.TrimSpace(v.Get("search")),
	}
	if t, ok := core.ParseTransactionType(v.Get("type")); ok {
		q.Type = t
	}
	q.SortBy, q.Order = transactionSort(v.Get("sortBy"), v.Get("order"))
	return q
}

// ParseGoalQuery reads page, limit, status, sortBy and order. Status is
// evaluated against today.
func ParseGoalQuery(v url.Values, today core.Date) GoalQuery {
	q := GoalQuery{
		Pagination: ParsePagination(v),
		Today:      today,
	}
	if s, ok := core.ParseGoalStatus(v.Get("status")); ok {
		q.Status = s
	}
	q.SortBy, q.Order = goalSort(v.Get("sortBy"), v.Get("order"))
	return q
}

// NormalizeTransactionQuery fills defaults into a query built in code.
func NormalizeTransactionQuery(q TransactionQuery) TransactionQuery {
	q.Pagination = NormalizePagination(q.Pagination)
	q.SortBy, q.Order = transactionSort(string(q.SortBy), string(q.Order))
	if _, ok := core.ParseTransactionType(string(q.Type)); !ok {
		q.Type = ""
	}
	return q
}

// NormalizeGoalQuery fills defaults into a query built in code.
func NormalizeGoalQuery(q GoalQuery) GoalQuery {
	q.Pagination = NormalizePagination(q.Pagination)
	q.SortBy, q.Order = goalSort(string(q.SortBy), string(q.Order))
	if _, ok := core.ParseGoalStatus(string(q.Status)); !ok {
		q.Status = ""
	}
	if q.Today.IsZero() {
		q.Today = core.Today()
	}
	return q
}

// NormalizePagination applies the same defaults and cap as ParsePagination.
func NormalizePagination(p Pagination) Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	p.Page = min(p.Page, MaxPage)
	p.Limit = min(p.Limit, MaxLimit)
	return p
}

// transactionSort maps raw sortBy/order. An unrecognised field resets both
// field and order to date desc; a missing field keeps the requested order.
func transactionSort(field, order string) (TransactionSort, Order) {
	field = strings.TrimSpace(field)
	switch TransactionSort(field) {
	case SortDate, SortAmount, SortCategory:
		return TransactionSort(field), parseOrder(order)
	case "":
		return SortDate, parseOrder(order)
	}
	return SortDate, Desc
}

func goalSort(field, order string) (GoalSort, Order) {
	field = strings.TrimSpace(field)
	switch GoalSort(field) {
	case SortCreatedAt, SortDeadline, SortTargetAmount, SortTitle:
		return GoalSort(field), parseOrder(order)
	case "":
		return SortCreatedAt, parseOrder(order)
	}
	return SortCreatedAt, Desc
}

func parseOrder(s string) Order {
	if Order(strings.ToLower(strings.TrimSpace(s))) == Asc {
		return Asc
	}
	return Desc
}

func positiveInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
