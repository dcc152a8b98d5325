// Package memory is an in-process record store for tests and demos. List
// requests go through the query package's reference implementation.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"moneymind/internal/core"
	"moneymind/internal/query"
	"moneymind/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	nextID int64

	users        []core.User
	transactions []core.Transaction
	goals        []core.Goal
	activity     []core.Activity
}

func New() *Store {
	return &Store{}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Users

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.users, func(x core.User) bool { return x.Email == u.Email }) {
		return core.User{}, core.ErrConflict
	}
	u.ID = s.id()
	s.users = append(s.users, u)
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.users, func(x core.User) bool { return x.ID == id })
	if i < 0 {
		return core.User{}, core.ErrNotFound
	}
	return s.users[i], nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.users, func(x core.User) bool { return x.Email == email })
	if i < 0 {
		return core.User{}, core.ErrNotFound
	}
	return s.users[i], nil
}

func (s *Store) UpdateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.users, func(x core.User) bool { return x.ID == u.ID })
	if i < 0 {
		return core.User{}, core.ErrNotFound
	}
	if slices.ContainsFunc(s.users, func(x core.User) bool { return x.Email == u.Email && x.ID != u.ID }) {
		return core.User{}, core.ErrConflict
	}
	cur := &s.users[i]
	cur.Name, cur.Email, cur.Phone, cur.Bio, cur.ProfilePhoto = u.Name, u.Email, u.Phone, u.Bio, u.ProfilePhoto
	return *cur, nil
}

// Transactions

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.transactions = append(s.transactions, t)
	return t, nil
}

func (s *Store) transactionIndex(userID, id int64) int {
	return slices.IndexFunc(s.transactions, func(x core.Transaction) bool {
		return x.ID == id && x.UserID == userID
	})
}

func (s *Store) GetTransaction(_ context.Context, userID, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(userID, id)
	if i < 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return s.transactions[i], nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(t.UserID, t.ID)
	if i < 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	cur := &s.transactions[i]
	cur.Amount, cur.Type, cur.Category, cur.Note, cur.Date = t.Amount, t.Type, t.Category, t.Note, t.Date
	return *cur, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(userID, id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.transactions = slices.Delete(s.transactions, i, i+1)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, userID int64, q query.TransactionQuery) (query.Page[core.Transaction], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q = query.NormalizeTransactionQuery(q)
	items, total := query.ApplyTransactions(s.transactions, userID, q)
	return query.NewPage(items, total, q.Pagination), nil
}

func (s *Store) TransactionsForYear(_ context.Context, userID int64, year int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.UserID == userID && (year == 0 || t.Date.Year() == year) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, query.CompareTransactions(query.TransactionQuery{SortBy: query.SortDate, Order: query.Asc}))
	return out, nil
}

// Goals

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.id()
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *Store) goalIndex(userID, id int64) int {
	return slices.IndexFunc(s.goals, func(x core.Goal) bool {
		return x.ID == id && x.UserID == userID
	})
}

func (s *Store) GetGoal(_ context.Context, userID, id int64) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(userID, id)
	if i < 0 {
		return core.Goal{}, core.ErrNotFound
	}
	return s.goals[i], nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(g.UserID, g.ID)
	if i < 0 {
		return core.Goal{}, core.ErrNotFound
	}
	cur := &s.goals[i]
	cur.Title, cur.TargetAmount, cur.CurrentAmount, cur.Deadline = g.Title, g.TargetAmount, g.CurrentAmount, g.Deadline
	return *cur, nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(userID, id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.goals = slices.Delete(s.goals, i, i+1)
	return nil
}

func (s *Store) ListGoals(_ context.Context, userID int64, q query.GoalQuery) (query.Page[core.Goal], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q = query.NormalizeGoalQuery(q)
	items, total := query.ApplyGoals(s.goals, userID, q)
	return query.NewPage(items, total, q.Pagination), nil
}

func (s *Store) ContributeGoal(_ context.Context, userID, id int64, amount core.Money) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(userID, id)
	if i < 0 {
		return core.Goal{}, core.ErrNotFound
	}
	if !s.goals[i].CurrentAmount.CanAdd(amount) {
		return core.Goal{}, core.ErrAmountTooLarge
	}
	s.goals[i].CurrentAmount = s.goals[i].CurrentAmount.Add(amount)
	return s.goals[i], nil
}

// Activity

func (s *Store) RecordActivity(_ context.Context, a core.Activity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.activity, func(x core.Activity) bool { return x.EventID == a.EventID }) {
		return false, nil
	}
	a.ID = s.id()
	s.activity = append(s.activity, a)
	return true, nil
}

func (s *Store) ListActivity(_ context.Context, userID int64, p query.Pagination) (query.Page[core.Activity], error) {
	p = query.NormalizePagination(p)
	s.mu.Lock()
	defer s.mu.Unlock()
	var mine []core.Activity
	for _, a := range s.activity {
		if a.UserID == userID {
			mine = append(mine, a)
		}
	}
	slices.SortFunc(mine, func(a, b core.Activity) int {
		if c := b.OccurredAt.Compare(a.OccurredAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	start := min(p.Offset(), len(mine))
	end := min(start+p.Limit, len(mine))
	return query.NewPage(slices.Clone(mine[start:end]), int64(len(mine)), p), nil
}

func (s *Store) PruneActivity(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.activity)
	s.activity = slices.DeleteFunc(s.activity, func(a core.Activity) bool {
		return a.OccurredAt.Before(cutoff)
	})
	return int64(before - len(s.activity)), nil
}
