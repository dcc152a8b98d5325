package http

import (
	"net/http"

	"moneymind/internal/core"
	"moneymind/internal/log"
	"moneymind/internal/query"
	"moneymind/internal/services"
)

const transactionNotFound = "Transaction not found"

type transactionRequest struct {
	Amount   Amount `json:"amount"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Note     string `json:"note"`
	Date     string `json:"date"`
}

// parseTransaction decodes the body into a full replacement input.
func parseTransaction(w http.ResponseWriter, r *http.Request) (services.TransactionInput, error) {
	req := transactionRequest{Amount: named("amount")}
	if err := DecodeJSON(w, r, &req); err != nil {
		return services.TransactionInput{}, err
	}
	if !req.Amount.Set {
		return services.TransactionInput{}, core.Invalid("amount", "is required")
	}
	date, err := ParseDateField("date", req.Date)
	if err != nil {
		return services.TransactionInput{}, err
	}
	return services.TransactionInput{
		Amount:   req.Amount.Money,
		Type:     core.TransactionType(req.Type),
		Category: sanitizeInput(req.Category),
		Note:     sanitizeInput(req.Note),
		Date:     date,
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := query.ParseTransactionQuery(r.URL.Query())
	page, err := s.deps.Transactions.List(r.Context(), userID(r), q)
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}
	NewResponse().JSON(map[string]any{
		"transactions": query.Map(page, toTransactionView).Items,
		"pagination":   toPaginationView(page),
	}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	in, err := parseTransaction(w, r)
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}

	t, err := s.deps.Transactions.Create(r.Context(), userID(r), in)
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentTransaction).InfoContext(r.Context(), "Transaction created",
		log.FieldOperation, log.OpCreate,
		log.FieldTransactionID, t.ID,
		log.FieldType, t.Type,
		log.FieldAmountCents, t.Amount.Cents,
		log.FieldCategory, t.Category)
	NewResponse().Status(http.StatusCreated).JSON(toTransactionView(t)).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		ErrorFor(r, err, transactionNotFound).Write(w)
		return
	}
	t, err := s.deps.Transactions.Get(r.Context(), userID(r), id)
	if err != nil {
		ErrorFor(r, err, transactionNotFound).Write(w)
		return
	}
	NewResponse().JSON(toTransactionView(t)).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		ErrorFor(r, err, transactionNotFound).Write(w)
		return
	}
	in, err := parseTransaction(w, r)
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}

	t, err := s.deps.Transactions.Update(r.Context(), userID(r), id, in)
	if err != nil {
		ErrorFor(r, err, transactionNotFound).Write(w)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentTransaction).InfoContext(r.Context(), "Transaction updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldTransactionID, t.ID)
	NewResponse().JSON(toTransactionView(t)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		ErrorFor(r, err, transactionNotFound).Write(w)
		return
	}
	if err := s.deps.Transactions.Delete(r.Context(), userID(r), id); err != nil {
		ErrorFor(r, err, transactionNotFound).Write(w)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentTransaction).InfoContext(r.Context(), "Transaction deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldTransactionID, id)
	NewResponse().Message("Transaction deleted successfully").Write(w)
}
