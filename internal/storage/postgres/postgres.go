// Package postgres implements the record store on PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"moneymind/internal/core"
	"moneymind/internal/query"
	"moneymind/internal/storage"
)

const uniqueViolation = "23505"

const (
	userColumns        = "id, name, email, password_hash, phone, bio, profile_photo, created_at"
	transactionColumns = "id, user_id, amount_cents, type, category, note, date, created_at"
	goalColumns        = "id, user_id, title, target_cents, current_cents, deadline, created_at"
	activityColumns    = "id, event_id, user_id, kind, entity_id, occurred_at"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

// New migrates the database at url and opens a pool on it.
func New(ctx context.Context, url string) (*Store, error) {
	if err := RunMigrations(url); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return core.StoreFailure("ping", s.pool.Ping(ctx))
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func fail(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return core.ErrConflict
	}
	return core.StoreFailure(op, err)
}

// Users

func scanUser(row pgx.Row) (core.User, error) {
	var u core.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Bio, &u.ProfilePhoto, &u.CreatedAt); err != nil {
		return core.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, phone, bio, profile_photo, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+userColumns,
		u.Name, u.Email, u.PasswordHash, u.Phone, u.Bio, u.ProfilePhoto, u.CreatedAt)
	created, err := scanUser(row)
	if err != nil {
		return core.User{}, fail("create user", err)
	}
	return created, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return core.User{}, fail("get user", err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return core.User{}, fail("get user by email", err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE users SET name = $1, email = $2, phone = $3, bio = $4, profile_photo = $5
		 WHERE id = $6 RETURNING `+userColumns,
		u.Name, u.Email, u.Phone, u.Bio, u.ProfilePhoto, u.ID)
	updated, err := scanUser(row)
	if err != nil {
		return core.User{}, fail("update user", err)
	}
	return updated, nil
}

// Transactions

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t    core.Transaction
		typ  string
		date time.Time
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Amount.Cents, &typ, &t.Category, &t.Note, &date, &t.CreatedAt); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	t.Date = core.DateOf(date)
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO transactions (user_id, amount_cents, type, category, note, date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+transactionColumns,
		t.UserID, t.Amount.Cents, string(t.Type), t.Category, t.Note, t.Date.Time, t.CreatedAt)
	created, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fail("create transaction", err)
	}
	return created, nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := scanTransaction(s.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return core.Transaction{}, fail("get transaction", err)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE transactions SET amount_cents = $1, type = $2, category = $3, note = $4, date = $5
		 WHERE id = $6 AND user_id = $7 RETURNING `+transactionColumns,
		t.Amount.Cents, string(t.Type), t.Category, t.Note, t.Date.Time, t.ID, t.UserID)
	updated, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fail("update transaction", err)
	}
	return updated, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id int64) error {
	return s.deleteOwned(ctx, "delete transaction", "transactions", userID, id)
}

func (s *Store) ListTransactions(ctx context.Context, userID int64, q query.TransactionQuery) (query.Page[core.Transaction], error) {
	q = query.NormalizeTransactionQuery(q)
	stmts := storage.BuildTransactionList(storage.Postgres, transactionColumns, userID, q)
	items, total, err := list(ctx, s.pool, stmts, scanTransaction)
	if err != nil {
		return query.Page[core.Transaction]{}, fail("list transactions", err)
	}
	return query.NewPage(items, total, q.Pagination), nil
}

func (s *Store) TransactionsForYear(ctx context.Context, userID int64, year int) ([]core.Transaction, error) {
	sqlText := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1`
	args := []any{userID}
	if year != 0 {
		sqlText += ` AND date >= $2 AND date < $3`
		args = append(args, core.NewDate(year, 1, 1).Time, core.NewDate(year+1, 1, 1).Time)
	}
	sqlText += ` ORDER BY date ASC, id ASC`

	out, err := collect(ctx, s.pool, sqlText, args, scanTransaction)
	if err != nil {
		return nil, fail("transactions for year", err)
	}
	return out, nil
}

// Goals

func scanGoal(row pgx.Row) (core.Goal, error) {
	var (
		g        core.Goal
		deadline time.Time
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &deadline, &g.CreatedAt); err != nil {
		return core.Goal{}, err
	}
	g.Deadline = core.DateOf(deadline)
	g.CreatedAt = g.CreatedAt.UTC()
	return g, nil
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO goals (user_id, title, target_cents, current_cents, deadline, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+goalColumns,
		g.UserID, g.Title, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Deadline.Time, g.CreatedAt)
	created, err := scanGoal(row)
	if err != nil {
		return core.Goal{}, fail("create goal", err)
	}
	return created, nil
}

func (s *Store) GetGoal(ctx context.Context, userID, id int64) (core.Goal, error) {
	g, err := scanGoal(s.pool.QueryRow(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return core.Goal{}, fail("get goal", err)
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE goals SET title = $1, target_cents = $2, current_cents = $3, deadline = $4
		 WHERE id = $5 AND user_id = $6 RETURNING `+goalColumns,
		g.Title, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Deadline.Time, g.ID, g.UserID)
	updated, err := scanGoal(row)
	if err != nil {
		return core.Goal{}, fail("update goal", err)
	}
	return updated, nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id int64) error {
	return s.deleteOwned(ctx, "delete goal", "goals", userID, id)
}

func (s *Store) ListGoals(ctx context.Context, userID int64, q query.GoalQuery) (query.Page[core.Goal], error) {
	q = query.NormalizeGoalQuery(q)
	stmts := storage.BuildGoalList(storage.Postgres, goalColumns, userID, q)
	items, total, err := list(ctx, s.pool, stmts, scanGoal)
	if err != nil {
		return query.Page[core.Goal]{}, fail("list goals", err)
	}
	return query.NewPage(items, total, q.Pagination), nil
}

func (s *Store) ContributeGoal(ctx context.Context, userID, id int64, amount core.Money) (core.Goal, error) {
	if !(core.Money{}).CanAdd(amount) {
		return core.Goal{}, core.ErrAmountTooLarge
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE goals SET current_cents = current_cents + $1
		 WHERE id = $2 AND user_id = $3 AND current_cents <= $4 RETURNING `+goalColumns,
		amount.Cents, id, userID, core.MaxCents-amount.Cents)
	g, err := scanGoal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := s.GetGoal(ctx, userID, id); err != nil {
			return core.Goal{}, err
		}
		return core.Goal{}, core.ErrAmountTooLarge
	}
	if err != nil {
		return core.Goal{}, fail("contribute goal", err)
	}
	return g, nil
}

// Activity

func scanActivity(row pgx.Row) (core.Activity, error) {
	var a core.Activity
	if err := row.Scan(&a.ID, &a.EventID, &a.UserID, &a.Kind, &a.EntityID, &a.OccurredAt); err != nil {
		return core.Activity{}, err
	}
	a.OccurredAt = a.OccurredAt.UTC()
	return a, nil
}

func (s *Store) RecordActivity(ctx context.Context, a core.Activity) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO activity (event_id, user_id, kind, entity_id, occurred_at)
		 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (event_id) DO NOTHING`,
		a.EventID, a.UserID, a.Kind, a.EntityID, a.OccurredAt)
	if err != nil {
		return false, fail("record activity", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListActivity(ctx context.Context, userID int64, p query.Pagination) (query.Page[core.Activity], error) {
	p = query.NormalizePagination(p)
	stmts := storage.ListStatements{
		Count: storage.Statement{SQL: `SELECT COUNT(*) FROM activity WHERE user_id = $1`, Args: []any{userID}},
		Select: storage.Statement{
			SQL:  `SELECT ` + activityColumns + ` FROM activity WHERE user_id = $1 ORDER BY occurred_at DESC, id DESC LIMIT $2 OFFSET $3`,
			Args: []any{userID, p.Limit, p.Offset()},
		},
	}
	items, total, err := list(ctx, s.pool, stmts, scanActivity)
	if err != nil {
		return query.Page[core.Activity]{}, fail("list activity", err)
	}
	return query.NewPage(items, total, p), nil
}

func (s *Store) PruneActivity(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM activity WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, fail("prune activity", err)
	}
	return tag.RowsAffected(), nil
}

// helpers

func (s *Store) deleteOwned(ctx context.Context, op, table string, userID, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fail(op, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func list[T any](ctx context.Context, pool *pgxpool.Pool, stmts storage.ListStatements, scan func(pgx.Row) (T, error)) ([]T, int64, error) {
	var total int64
	if err := pool.QueryRow(ctx, stmts.Count.SQL, stmts.Count.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, nil
	}
	items, err := collect(ctx, pool, stmts.Select.SQL, stmts.Select.Args, scan)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func collect[T any](ctx context.Context, pool *pgxpool.Pool, sqlText string, args []any, scan func(pgx.Row) (T, error)) ([]T, error) {
	rows, err := pool.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
