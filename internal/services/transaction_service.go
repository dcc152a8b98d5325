package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"moneymind/internal/amqp"
	"moneymind/internal/core"
	"moneymind/internal/query"
	"moneymind/internal/storage"
)

// TransactionInput carries the editable fields of a transaction. Updates
// replace all of them.
type TransactionInput struct {
	Amount   core.Money
	Type     core.TransactionType
	Category string
	Note     string
	Date     core.Date
}

func (in TransactionInput) transaction(userID int64) core.Transaction {
	t := core.Transaction{
		UserID:   userID,
		Amount:   in.Amount,
		Type:     in.Type,
		Category: strings.TrimSpace(in.Category),
		Note:     strings.TrimSpace(in.Note),
		Date:     in.Date,
	}
	if typ, ok := core.ParseTransactionType(string(in.Type)); ok {
		t.Type = typ
	}
	return t
}

type TransactionService struct {
	store  storage.TransactionStore
	events events
	clock  clock
}

func NewTransactionService(store storage.TransactionStore, pub Publisher) *TransactionService {
	return &TransactionService{
		store:  store,
		events: events{pub: pub},
		clock:  time.Now,
	}
}

func (s *TransactionService) Create(ctx context.Context, userID int64, in TransactionInput) (core.Transaction, error) {
	t := in.transaction(userID)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.CreatedAt = s.clock.now()

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.events.publish(ctx, amqp.KindTransactionCreated, userID, created.ID)
	return created, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// Update replaces the transaction's fields. A transaction owned by someone
// else is reported as core.ErrNotFound.
func (s *TransactionService) Update(ctx context.Context, userID, id int64, in TransactionInput) (core.Transaction, error) {
	t := in.transaction(userID)
	t.ID = id
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.events.publish(ctx, amqp.KindTransactionUpdated, userID, id)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.events.publish(ctx, amqp.KindTransactionDeleted, userID, id)
	return nil
}

func (s *TransactionService) List(ctx context.Context, userID int64, q query.TransactionQuery) (query.Page[core.Transaction], error) {
	page, err := s.store.ListTransactions(ctx, userID, query.NormalizeTransactionQuery(q))
	if err != nil {
		return query.Page[core.Transaction]{}, fmt.Errorf("list transactions: %w", err)
	}
	return page, nil
}
