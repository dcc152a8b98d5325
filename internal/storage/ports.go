// Package storage defines the record store ports and the SQL building
// shared by the relational backends.
//
// Every transaction, goal and activity operation is scoped by the owning
// user id. A record that exists but belongs to someone else is reported as
// core.ErrNotFound, exactly like a missing one.
package storage

import (
	"context"
	"time"

	"moneymind/internal/core"
	"moneymind/internal/query"
)

type (
	UserStore interface {
		// CreateUser returns core.ErrConflict when the email is taken.
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		// UpdateUser writes the profile fields (name, email, phone, bio,
		// photo). The password hash is left alone.
		UpdateUser(ctx context.Context, u core.User) (core.User, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
		// UpdateTransaction replaces the editable fields of the record with
		// t.ID owned by t.UserID.
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id int64) error
		ListTransactions(ctx context.Context, userID int64, q query.TransactionQuery) (query.Page[core.Transaction], error)
		// TransactionsForYear returns every transaction of the user dated in
		// year, or all of them when year is 0.
		TransactionsForYear(ctx context.Context, userID int64, year int) ([]core.Transaction, error)
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		GetGoal(ctx context.Context, userID, id int64) (core.Goal, error)
		UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		DeleteGoal(ctx context.Context, userID, id int64) error
		ListGoals(ctx context.Context, userID int64, q query.GoalQuery) (query.Page[core.Goal], error)
		// ContributeGoal adds amount to the goal's current amount in a single
		// store-level update. It returns core.ErrAmountTooLarge, leaving the
		// goal unchanged, when the sum would pass core.MaxCents.
		ContributeGoal(ctx context.Context, userID, id int64, amount core.Money) (core.Goal, error)
	}

	ActivityStore interface {
		// RecordActivity stores a and reports whether it was new. Replaying
		// an event id is a no-op.
		RecordActivity(ctx context.Context, a core.Activity) (bool, error)
		ListActivity(ctx context.Context, userID int64, p query.Pagination) (query.Page[core.Activity], error)
		// PruneActivity deletes entries that occurred before cutoff.
		PruneActivity(ctx context.Context, cutoff time.Time) (int64, error)
	}

	Store interface {
		UserStore
		TransactionStore
		GoalStore
		ActivityStore
		Ping(ctx context.Context) error
		Close() error
	}
)
