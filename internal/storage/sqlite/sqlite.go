// Package sqlite implements the record store on an embedded SQLite
// database through the pure Go modernc.org/sqlite driver.
//
// Amounts are INTEGER cents, calendar dates are TEXT in YYYY-MM-DD form so
// they compare lexically, and timestamps are INTEGER unix microseconds.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"moneymind/internal/core"
	"moneymind/internal/query"
	"moneymind/internal/storage"
)

const (
	userColumns        = "id, name, email, password_hash, phone, bio, profile_photo, created_at"
	transactionColumns = "id, user_id, amount_cents, type, category, note, date, created_at"
	goalColumns        = "id, user_id, title, target_cents, current_cents, deadline, created_at"
	activityColumns    = "id, event_id, user_id, kind, entity_id, occurred_at"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath and migrates it.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

func dsn(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *Store) Ping(ctx context.Context) error {
	return core.StoreFailure("ping", s.db.PingContext(ctx))
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// fail maps driver errors onto the domain taxonomy.
func fail(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE") {
		return core.ErrConflict
	}
	return core.StoreFailure(op, err)
}

func micros(t time.Time) int64 { return t.UTC().UnixMicro() }

func fromMicros(v int64) time.Time { return time.UnixMicro(v).UTC() }

func parseDate(s string) (core.Date, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("stored date %q: %w", s, err)
	}
	return core.DateOf(d), nil
}

// Users

func scanUser(row scanner) (core.User, error) {
	var (
		u       core.User
		created int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Bio, &u.ProfilePhoto, &created); err != nil {
		return core.User{}, err
	}
	u.CreatedAt = fromMicros(created)
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password_hash, phone, bio, profile_photo, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING `+userColumns,
		u.Name, u.Email, u.PasswordHash, u.Phone, u.Bio, u.ProfilePhoto, micros(u.CreatedAt))
	created, err := scanUser(row)
	if err != nil {
		return core.User{}, fail("create user", err)
	}
	return created, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return core.User{}, fail("get user", err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return core.User{}, fail("get user by email", err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE users SET name = ?, email = ?, phone = ?, bio = ?, profile_photo = ?
		 WHERE id = ? RETURNING `+userColumns,
		u.Name, u.Email, u.Phone, u.Bio, u.ProfilePhoto, u.ID)
	updated, err := scanUser(row)
	if err != nil {
		return core.User{}, fail("update user", err)
	}
	return updated, nil
}

// Transactions

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		typ     string
		date    string
		created int64
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Amount.Cents, &typ, &t.Category, &t.Note, &date, &created); err != nil {
		return core.Transaction{}, err
	}
	d, err := parseDate(date)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	t.Date = d
	t.CreatedAt = fromMicros(created)
	return t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO transactions (user_id, amount_cents, type, category, note, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING `+transactionColumns,
		t.UserID, t.Amount.Cents, string(t.Type), t.Category, t.Note, t.Date.String(), micros(t.CreatedAt))
	created, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fail("create transaction", err)
	}
	return created, nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.Transaction{}, fail("get transaction", err)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE transactions SET amount_cents = ?, type = ?, category = ?, note = ?, date = ?
		 WHERE id = ? AND user_id = ? RETURNING `+transactionColumns,
		t.Amount.Cents, string(t.Type), t.Category, t.Note, t.Date.String(), t.ID, t.UserID)
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
	stmts := storage.BuildTransactionList(storage.SQLite, transactionColumns, userID, q)
	items, total, err := list(ctx, s.db, stmts, scanTransaction)
	if err != nil {
		return query.Page[core.Transaction]{}, fail("list transactions", err)
	}
	return query.NewPage(items, total, q.Pagination), nil
}

func (s *Store) TransactionsForYear(ctx context.Context, userID int64, year int) ([]core.Transaction, error) {
	sqlText := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`
	args := []any{userID}
	if year != 0 {
		sqlText += ` AND date >= ? AND date < ?`
		args = append(args, core.NewDate(year, 1, 1).String(), core.NewDate(year+1, 1, 1).String())
	}
	sqlText += ` ORDER BY date ASC, id ASC`

	out, err := collect(ctx, s.db, sqlText, args, scanTransaction)
	if err != nil {
		return nil, fail("transactions for year", err)
	}
	return out, nil
}

// Goals

func scanGoal(row scanner) (core.Goal, error) {
	var (
		g        core.Goal
		deadline string
		created  int64
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &deadline, &created); err != nil {
		return core.Goal{}, err
	}
	d, err := parseDate(deadline)
	if err != nil {
		return core.Goal{}, err
	}
	g.Deadline = d
	g.CreatedAt = fromMicros(created)
	return g, nil
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO goals (user_id, title, target_cents, current_cents, deadline, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING `+goalColumns,
		g.UserID, g.Title, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Deadline.String(), micros(g.CreatedAt))
	created, err := scanGoal(row)
	if err != nil {
		return core.Goal{}, fail("create goal", err)
	}
	return created, nil
}

func (s *Store) GetGoal(ctx context.Context, userID, id int64) (core.Goal, error) {
	g, err := scanGoal(s.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.Goal{}, fail("get goal", err)
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE goals SET title = ?, target_cents = ?, current_cents = ?, deadline = ?
		 WHERE id = ? AND user_id = ? RETURNING `+goalColumns,
		g.Title, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Deadline.String(), g.ID, g.UserID)
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
	stmts := storage.BuildGoalList(storage.SQLite, goalColumns, userID, q)
	items, total, err := list(ctx, s.db, stmts, scanGoal)
	if err != nil {
		return query.Page[core.Goal]{}, fail("list goals", err)
	}
	return query.NewPage(items, total, q.Pagination), nil
}

func (s *Store) ContributeGoal(ctx context.Context, userID, id int64, amount core.Money) (core.Goal, error) {
	if !(core.Money{}).CanAdd(amount) {
		return core.Goal{}, core.ErrAmountTooLarge
	}
	row := s.db.QueryRowContext(ctx,
		`UPDATE goals SET current_cents = current_cents + ?
		 WHERE id = ? AND user_id = ? AND current_cents <= ? RETURNING `+goalColumns,
		amount.Cents, id, userID, core.MaxCents-amount.Cents)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
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

func scanActivity(row scanner) (core.Activity, error) {
	var (
		a        core.Activity
		occurred int64
	)
	if err := row.Scan(&a.ID, &a.EventID, &a.UserID, &a.Kind, &a.EntityID, &occurred); err != nil {
		return core.Activity{}, err
	}
	a.OccurredAt = fromMicros(occurred)
	return a, nil
}

func (s *Store) RecordActivity(ctx context.Context, a core.Activity) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO activity (event_id, user_id, kind, entity_id, occurred_at)
		 VALUES (?, ?, ?, ?, ?) ON CONFLICT (event_id) DO NOTHING`,
		a.EventID, a.UserID, a.Kind, a.EntityID, micros(a.OccurredAt))
	if err != nil {
		return false, fail("record activity", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fail("record activity", err)
	}
	return n == 1, nil
}

func (s *Store) ListActivity(ctx context.Context, userID int64, p query.Pagination) (query.Page[core.Activity], error) {
	p = query.NormalizePagination(p)
	stmts := storage.ListStatements{
		Count: storage.Statement{SQL: `SELECT COUNT(*) FROM activity WHERE user_id = ?`, Args: []any{userID}},
		Select: storage.Statement{
			SQL:  `SELECT ` + activityColumns + ` FROM activity WHERE user_id = ? ORDER BY occurred_at DESC, id DESC LIMIT ? OFFSET ?`,
			Args: []any{userID, p.Limit, p.Offset()},
		},
	}
	items, total, err := list(ctx, s.db, stmts, scanActivity)
	if err != nil {
		return query.Page[core.Activity]{}, fail("list activity", err)
	}
	return query.NewPage(items, total, p), nil
}

func (s *Store) PruneActivity(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activity WHERE occurred_at < ?`, micros(cutoff))
	if err != nil {
		return 0, fail("prune activity", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fail("prune activity", err)
	}
	return n, nil
}

// helpers

func (s *Store) deleteOwned(ctx context.Context, op, table string, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fail(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fail(op, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func list[T any](ctx context.Context, db *sql.DB, stmts storage.ListStatements, scan func(scanner) (T, error)) ([]T, int64, error) {
	var total int64
	if err := db.QueryRowContext(ctx, stmts.Count.SQL, stmts.Count.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, nil
	}
	items, err := collect(ctx, db, stmts.Select.SQL, stmts.Select.Args, scan)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func collect[T any](ctx context.Context, db *sql.DB, sqlText string, args []any, scan func(scanner) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, sqlText, args...)
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
