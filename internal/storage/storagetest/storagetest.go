// Package storagetest is a behavioural suite every storage.Store
// implementation must pass.
package storagetest

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneymind/internal/core"
	"moneymind/internal/query"
	"moneymind/internal/storage"
)

// Opener returns a fresh, empty store. Cleanup is the opener's job.
type Opener func(t *testing.T) storage.Store

// Run executes the suite against stores produced by open.
func Run(t *testing.T, open Opener) {
	t.Run("Users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("TransactionCRUD", func(t *testing.T) { testTransactionCRUD(t, open(t)) })
	t.Run("TransactionOwnership", func(t *testing.T) { testTransactionOwnership(t, open(t)) })
	t.Run("TransactionListing", func(t *testing.T) { testTransactionListing(t, open(t)) })
	t.Run("TransactionsForYear", func(t *testing.T) { testTransactionsForYear(t, open(t)) })
	t.Run("Goals", func(t *testing.T) { testGoals(t, open(t)) })
	t.Run("GoalContributionLimit", func(t *testing.T) { testGoalContributionLimit(t, open(t)) })
	t.Run("GoalStatusFilter", func(t *testing.T) { testGoalStatusFilter(t, open(t)) })
	t.Run("Activity", func(t *testing.T) { testActivity(t, open(t)) })
}

var created = time.Date(2025, 3, 1, 10, 30, 0, 123456000, time.UTC)

func mustUser(t *testing.T, s storage.Store, email string) core.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), core.User{
		Name:         "Test " + email,
		Email:        email,
		PasswordHash: "$2a$04$hash",
		CreatedAt:    created,
	})
	require.NoError(t, err)
	require.Positive(t, u.ID)
	return u
}

func mustTransaction(t *testing.T, s storage.Store, tx core.Transaction) core.Transaction {
	t.Helper()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = created
	}
	out, err := s.CreateTransaction(context.Background(), tx)
	require.NoError(t, err)
	return out
}

func ids[T any](items []T, id func(T) int64) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

func txID(t core.Transaction) int64 { return t.ID }
func goalID(g core.Goal) int64      { return g.ID }

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "ada@example.com")

	_, err := s.CreateUser(ctx, core.User{Name: "Dup", Email: "ada@example.com", PasswordHash: "x", CreatedAt: created})
	assert.ErrorIs(t, err, core.ErrConflict)

	got, err := s.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "$2a$04$hash", got.PasswordHash)
	assert.True(t, created.Equal(got.CreatedAt), "created_at round trip: %v", got.CreatedAt)

	_, err = s.GetUser(ctx, u.ID+1000)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, core.ErrNotFound)

	u.Name, u.Phone, u.Bio = "Ada L.", "+44 1234", "Analyst"
	u.PasswordHash = "must-not-change"
	updated, err := s.UpdateUser(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", updated.Name)
	assert.Equal(t, "+44 1234", updated.Phone)
	assert.Equal(t, "$2a$04$hash", updated.PasswordHash)

	other := mustUser(t, s, "grace@example.com")
	other.Email = "ada@example.com"
	_, err = s.UpdateUser(ctx, other)
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = s.UpdateUser(ctx, core.User{ID: u.ID + 1000, Name: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testTransactionCRUD(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "crud@example.com")

	tx := mustTransaction(t, s, core.Transaction{
		UserID:   u.ID,
		Amount:   core.Money{Cents: 123456},
		Type:     core.Expense,
		Category: "Groceries",
		Note:     "weekly shop",
		Date:     core.NewDate(2024, 2, 29),
	})
	require.Positive(t, tx.ID)

	got, err := s.GetTransaction(ctx, u.ID, tx.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 123456, got.Amount.Cents)
	assert.Equal(t, core.Expense, got.Type)
	assert.Equal(t, "Groceries", got.Category)
	assert.Equal(t, "weekly shop", got.Note)
	assert.Equal(t, "2024-02-29", got.Date.String())
	assert.True(t, created.Equal(got.CreatedAt))

	got.Amount = core.Money{Cents: 10}
	got.Type = core.Income
	got.Note = ""
	got.Date = core.NewDate(2024, 3, 1)
	updated, err := s.UpdateTransaction(ctx, got)
	require.NoError(t, err)
	assert.EqualValues(t, 10, updated.Amount.Cents)
	assert.Equal(t, core.Income, updated.Type)
	assert.Equal(t, "2024-03-01", updated.Date.String())

	require.NoError(t, s.DeleteTransaction(ctx, u.ID, tx.ID))
	_, err = s.GetTransaction(ctx, u.ID, tx.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, u.ID, tx.ID), core.ErrNotFound)
}

func testTransactionOwnership(t *testing.T, s storage.Store) {
	ctx := context.Background()
	owner := mustUser(t, s, "owner@example.com")
	intruder := mustUser(t, s, "intruder@example.com")

	tx := mustTransaction(t, s, core.Transaction{
		UserID: owner.ID, Amount: core.Money{Cents: 500}, Type: core.Expense,
		Category: "Rent", Date: core.NewDate(2024, 1, 1),
	})

	_, err := s.GetTransaction(ctx, intruder.ID, tx.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	hijack := tx
	hijack.UserID = intruder.ID
	hijack.Amount = core.Money{Cents: 1}
	_, err = s.UpdateTransaction(ctx, hijack)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, s.DeleteTransaction(ctx, intruder.ID, tx.ID), core.ErrNotFound)

	still, err := s.GetTransaction(ctx, owner.ID, tx.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 500, still.Amount.Cents)

	page, err := s.ListTransactions(ctx, intruder.ID, query.TransactionQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Equal(t, 0, page.TotalPages)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func seedListing(t *testing.T, s storage.Store) (core.User, []core.Transaction) {
	u := mustUser(t, s, "list@example.com")
	other := mustUser(t, s, "other@example.com")

	amounts := []int64{500, 100, 300, 100, 900, 300, 700}
	cats := []string{"Rent", "Food", "Salary", "Food", "Bonus", "Travel", "Food"}
	types := []core.TransactionType{core.Expense, core.Expense, core.Income, core.Expense, core.Income, core.Expense, core.Expense}
	var out []core.Transaction
	for i := range amounts {
		out = append(out, mustTransaction(t, s, core.Transaction{
			UserID:   u.ID,
			Amount:   core.Money{Cents: amounts[i]},
			Type:     types[i],
			Category: cats[i],
			Note:     fmt.Sprintf("note %d", i+1),
			Date:     core.NewDate(2024, 1, 1+i%3),
		}))
	}
	mustTransaction(t, s, core.Transaction{
		UserID: other.ID, Amount: core.Money{Cents: 1}, Type: core.Expense,
		Category: "Food", Date: core.NewDate(2024, 1, 1),
	})
	return u, out
}

func testTransactionListing(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u, seeded := seedListing(t, s)
	all := query.Pagination{Page: 1, Limit: query.MaxLimit}

	// Same result as the in-memory reference for every sort.
	for _, sortBy := range []query.TransactionSort{query.SortDate, query.SortAmount, query.SortCategory} {
		for _, order := range []query.Order{query.Asc, query.Desc} {
			q := query.TransactionQuery{Pagination: all, SortBy: sortBy, Order: order}
			page, err := s.ListTransactions(ctx, u.ID, q)
			require.NoError(t, err)
			want, total := query.ApplyTransactions(seeded, u.ID, q)
			assert.Equal(t, ids(want, txID), ids(page.Items, txID), "sort=%s order=%s", sortBy, order)
			assert.Equal(t, total, page.Total)
		}
	}

	asc, err := s.ListTransactions(ctx, u.ID, query.TransactionQuery{Pagination: all, SortBy: query.SortAmount, Order: query.Asc})
	require.NoError(t, err)
	desc, err := s.ListTransactions(ctx, u.ID, query.TransactionQuery{Pagination: all, SortBy: query.SortAmount, Order: query.Desc})
	require.NoError(t, err)
	reversed := ids(desc.Items, txID)
	slices.Reverse(reversed)
	assert.Equal(t, ids(asc.Items, txID), reversed)

	// Pages partition the ordered set.
	var seen []int64
	for page := 1; page <= 4; page++ {
		p, err := s.ListTransactions(ctx, u.ID, query.TransactionQuery{Pagination: query.Pagination{Page: page, Limit: 2}})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(p.Items), 2)
		assert.EqualValues(t, 7, p.Total)
		assert.Equal(t, 4, p.TotalPages)
		seen = append(seen, ids(p.Items, txID)...)
	}
	full, err := s.ListTransactions(ctx, u.ID, query.TransactionQuery{Pagination: all})
	require.NoError(t, err)
	assert.Equal(t, ids(full.Items, txID), seen)

	income, err := s.ListTransactions(ctx, u.ID, query.TransactionQuery{Type: core.Income})
	require.NoError(t, err)
	assert.EqualValues(t, 2, income.Total)

	food, err := s.ListTransactions(ctx, u.ID, query.TransactionQuery{Search: "FOOD"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, food.Total)

	notes, err := s.ListTransactions(ctx, u.ID, query.TransactionQuery{Search: "note 5"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, notes.Total)

	wild, err := s.ListTransactions(ctx, u.ID, query.TransactionQuery{Search: "%"})
	require.NoError(t, err)
	assert.Zero(t, wild.Total, "LIKE wildcards must be matched literally")

	past, err := s.ListTransactions(ctx, u.ID, query.TransactionQuery{Pagination: query.Pagination{Page: 50, Limit: 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 7, past.Total)
	assert.Empty(t, past.Items)

	far, err := s.ListTransactions(ctx, u.ID, query.ParseTransactionQuery(url.Values{"page": {"922337203685477582"}, "limit": {"10"}}))
	require.NoError(t, err)
	assert.EqualValues(t, 7, far.Total)
	assert.Empty(t, far.Items, "a far page must not wrap around to the first one")

	farGoals, err := s.ListGoals(ctx, u.ID, query.GoalQuery{Pagination: query.Pagination{Page: math.MaxInt, Limit: query.MaxLimit}})
	require.NoError(t, err)
	assert.Empty(t, farGoals.Items)
}

func testTransactionsForYear(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "year@example.com")
	for _, d := range []core.Date{core.NewDate(2023, 12, 31), core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31), core.NewDate(2025, 1, 1)} {
		mustTransaction(t, s, core.Transaction{UserID: u.ID, Amount: core.Money{Cents: 1}, Type: core.Expense, Category: "c", Date: d})
	}

	got, err := s.TransactionsForYear(ctx, u.ID, 2024)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-01", got[0].Date.String())
	assert.Equal(t, "2024-12-31", got[1].Date.String())

	all, err := s.TransactionsForYear(ctx, u.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func testGoals(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "goals@example.com")
	other := mustUser(t, s, "goals-other@example.com")

	g, err := s.CreateGoal(ctx, core.Goal{
		UserID:       u.ID,
		Title:        "Emergency fund",
		TargetAmount: core.Money{Cents: 100000},
		Deadline:     core.NewDate(2026, 12, 31),
		CreatedAt:    created,
	})
	require.NoError(t, err)
	require.Positive(t, g.ID)
	assert.Zero(t, g.CurrentAmount.Cents)

	g, err = s.ContributeGoal(ctx, u.ID, g.ID, core.Money{Cents: 2550})
	require.NoError(t, err)
	g, err = s.ContributeGoal(ctx, u.ID, g.ID, core.Money{Cents: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2551, g.CurrentAmount.Cents)

	_, err = s.ContributeGoal(ctx, other.ID, g.ID, core.Money{Cents: 1})
	assert.ErrorIs(t, err, core.ErrNotFound)

	g.Title = "Rainy day"
	g.Deadline = core.NewDate(2027, 1, 1)
	updated, err := s.UpdateGoal(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, "Rainy day", updated.Title)
	assert.Equal(t, "2027-01-01", updated.Deadline.String())
	assert.EqualValues(t, 2551, updated.CurrentAmount.Cents)

	hijack := g
	hijack.UserID = other.ID
	_, err = s.UpdateGoal(ctx, hijack)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteGoal(ctx, other.ID, g.ID), core.ErrNotFound)

	got, err := s.GetGoal(ctx, u.ID, g.ID)
	require.NoError(t, err)
	assert.True(t, created.Equal(got.CreatedAt))

	require.NoError(t, s.DeleteGoal(ctx, u.ID, g.ID))
	_, err = s.GetGoal(ctx, u.ID, g.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testGoalContributionLimit(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "limit@example.com")

	g, err := s.CreateGoal(ctx, core.Goal{
		UserID:        u.ID,
		Title:         "Everything",
		TargetAmount:  core.Money{Cents: core.MaxCents},
		CurrentAmount: core.Money{Cents: core.MaxCents - 10},
		Deadline:      core.NewDate(2030, 1, 1),
		CreatedAt:     created,
	})
	require.NoError(t, err)

	_, err = s.ContributeGoal(ctx, u.ID, g.ID, core.Money{Cents: 11})
	assert.ErrorIs(t, err, core.ErrAmountTooLarge)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = s.ContributeGoal(ctx, u.ID, g.ID, core.Money{Cents: 999999999999999})
	assert.ErrorIs(t, err, core.ErrAmountTooLarge)

	got, err := s.GetGoal(ctx, u.ID, g.ID)
	require.NoError(t, err, "a rejected contribution must leave the goal readable")
	assert.Equal(t, core.MaxCents-10, got.CurrentAmount.Cents)

	got, err = s.ContributeGoal(ctx, u.ID, g.ID, core.Money{Cents: 10})
	require.NoError(t, err)
	assert.Equal(t, core.MaxCents, got.CurrentAmount.Cents)

	_, err = s.ContributeGoal(ctx, u.ID, g.ID+1000, core.Money{Cents: 1})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testGoalStatusFilter(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "status@example.com")
	today := core.NewDate(2025, 6, 15)

	var goals []core.Goal
	for i := 1; i <= 9; i++ {
		g := core.Goal{
			UserID:       u.ID,
			Title:        fmt.Sprintf("goal %d", i),
			TargetAmount: core.Money{Cents: int64(1000 * i)},
			Deadline:     core.NewDate(2026, 1, 1),
			CreatedAt:    created.Add(time.Duration(i) * time.Hour),
		}
		switch i % 3 {
		case 0:
			g.CurrentAmount = g.TargetAmount
			g.Deadline = core.NewDate(2024, 1, 1) // completed wins over overdue
		case 1:
			g.Deadline = core.NewDate(2025, 6, 14)
		}
		if i == 2 {
			g.Deadline = today // due today is still active
		}
		out, err := s.CreateGoal(ctx, g)
		require.NoError(t, err)
		goals = append(goals, out)
	}

	for _, status := range []core.GoalStatus{core.StatusCompleted, core.StatusOverdue, core.StatusActive} {
		q := query.GoalQuery{Pagination: query.Pagination{Page: 1, Limit: 2}, Status: status, Today: today}
		page, err := s.ListGoals(ctx, u.ID, q)
		require.NoError(t, err)
		assert.EqualValues(t, 3, page.Total, "status %s total must span pages", status)
		assert.Equal(t, 2, page.TotalPages)
		assert.Len(t, page.Items, 2)
		for _, g := range page.Items {
			assert.Equal(t, status, g.Status(today))
		}
	}

	for _, sortBy := range []query.GoalSort{query.SortCreatedAt, query.SortDeadline, query.SortTargetAmount, query.SortTitle} {
		for _, order := range []query.Order{query.Asc, query.Desc} {
			q := query.GoalQuery{Pagination: query.Pagination{Page: 1, Limit: 100}, SortBy: sortBy, Order: order, Today: today}
			page, err := s.ListGoals(ctx, u.ID, q)
			require.NoError(t, err)
			want, _ := query.ApplyGoals(goals, u.ID, q)
			assert.Equal(t, ids(want, goalID), ids(page.Items, goalID), "sort=%s order=%s", sortBy, order)
		}
	}
}

func testActivity(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "activity@example.com")
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		fresh, err := s.RecordActivity(ctx, core.Activity{
			EventID:    fmt.Sprintf("evt-%d", i),
			UserID:     u.ID,
			Kind:       "transaction.created",
			EntityID:   int64(i + 1),
			OccurredAt: base.Add(time.Duration(i) * 24 * time.Hour),
		})
		require.NoError(t, err)
		assert.True(t, fresh)
	}

	fresh, err := s.RecordActivity(ctx, core.Activity{EventID: "evt-0", UserID: u.ID, Kind: "transaction.created", EntityID: 1, OccurredAt: base})
	require.NoError(t, err)
	assert.False(t, fresh, "replayed event must be ignored")

	page, err := s.ListActivity(ctx, u.ID, query.Pagination{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "evt-4", page.Items[0].EventID)
	assert.Equal(t, "evt-3", page.Items[1].EventID)

	n, err := s.PruneActivity(ctx, base.Add(2*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	page, err = s.ListActivity(ctx, u.ID, query.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)

	page, err = s.ListActivity(ctx, u.ID, query.Pagination{Page: math.MaxInt, Limit: query.MaxLimit})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Empty(t, page.Items)
}
