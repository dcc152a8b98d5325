package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"moneymind/internal/auth"
	"moneymind/internal/query"
	"moneymind/internal/services"
	"moneymind/internal/storage/memory"
)

func newSeeder() (*Seeder, *services.TransactionService, *services.GoalService) {
	store := memory.New()
	users := services.NewUserService(store, auth.NewHasher(bcrypt.MinCost), auth.NewTokens("seed-test-secret-123456", time.Hour, time.Hour), nil)
	txs := services.NewTransactionService(store, nil)
	goals := services.NewGoalService(store, nil)
	return New(users, txs, goals), txs, goals
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	s, txs, goals := newSeeder()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	res, err := s.Run(ctx, Options{Email: "demo@example.com", Password: "demo-pass", Transactions: 25, Goals: 4, Seed: 42, Now: now})
	require.NoError(t, err)
	assert.Equal(t, "demo@example.com", res.User.Email)
	assert.NotEmpty(t, res.User.Name)
	assert.Equal(t, 25, res.Transactions)
	assert.Equal(t, 4, res.Goals)

	tp, err := txs.List(ctx, res.User.ID, query.TransactionQuery{Pagination: query.Pagination{Page: 1, Limit: 100}})
	require.NoError(t, err)
	assert.Equal(t, int64(25), tp.Total)
	for _, tx := range tp.Items {
		assert.False(t, tx.Date.Time.After(now), "dates are not in the future")
		assert.False(t, tx.Date.Time.Before(now.AddDate(-1, 0, -1)), "dates are within the last year")
		assert.Positive(t, tx.Amount.Cents)
	}

	gp, err := goals.List(ctx, res.User.ID, query.GoalQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), gp.Total)
}

func TestRun_ExistingUser(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newSeeder()

	first, err := s.Run(ctx, Options{Email: "demo@example.com", Password: "demo-pass", Transactions: 1})
	require.NoError(t, err)

	second, err := s.Run(ctx, Options{Email: "demo@example.com", Password: "demo-pass", Transactions: 2})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	_, err = s.Run(ctx, Options{Email: "demo@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRun_GeneratesCredentials(t *testing.T) {
	s, _, _ := newSeeder()
	res, err := s.Run(context.Background(), Options{Seed: 7})
	require.NoError(t, err)
	assert.NotEmpty(t, res.User.Email)
	assert.Len(t, res.Password, 12)
}
