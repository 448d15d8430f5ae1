package http

import (
	"net/http"
	"sort"
	"strings"

	"brastech/internal/core"
	"brastech/internal/log"
	"brastech/internal/services"
)

type transactionList struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
}

// handleListTransactions lists the view newest first, optionally
// narrowed by year, month, type, status and a free text q.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]core.Transaction, 0)
	for _, tx := range s.deps.Book.Transactions() {
		if filter.Match(tx) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.Before(out[i].Date)
	})
	NewJSONResponse().Data(transactionList{Transactions: out, Count: len(out)}).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tx, ok := s.deps.Book.Transaction(id)
	if !ok {
		NotFoundError("transaction " + id + " not found").Write(w)
		return
	}
	NewJSONResponse().Data(tx).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := decodeJSON(w, r, &tx); err != nil {
		s.writeError(w, r, err)
		return
	}
	tx.ID = ""
	tx = cleanTransaction(tx)

	created, err := s.deps.Book.Create(r.Context(), sessionFrom(r.Context()), tx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateDashboards()
	NewJSONResponse().Status(http.StatusCreated).Data(created).Write(w)
}

func (s *Server) handleCreateInstallments(w http.ResponseWriter, r *http.Request) {
	var plan services.InstallmentPlan
	if err := decodeJSON(w, r, &plan); err != nil {
		s.writeError(w, r, err)
		return
	}
	plan.Description = sanitizeInput(plan.Description)
	plan.Entity = sanitizeInput(plan.Entity)
	plan.Category = sanitizeInput(plan.Category)

	created, err := s.deps.Book.CreateInstallments(r.Context(), sessionFrom(r.Context()), plan)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateDashboards()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Installments created",
		log.FieldInstallments, len(created),
		log.FieldAmountCents, plan.Total.Cents)
	NewJSONResponse().Status(http.StatusCreated).Data(transactionList{Transactions: created, Count: len(created)}).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var tx core.Transaction
	if err := decodeJSON(w, r, &tx); err != nil {
		s.writeError(w, r, err)
		return
	}
	tx.ID = id
	tx = cleanTransaction(tx)

	updated, err := s.deps.Book.Update(r.Context(), sessionFrom(r.Context()), tx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateDashboards()
	NewJSONResponse().Data(updated).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Book.Delete(r.Context(), sessionFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateDashboards()
	NoContent(w)
}

type statusRequest struct {
	Status core.Status `json:"status"`
}

type paymentDateRequest struct {
	PaymentDate core.Day `json:"paymentDate"`
}

type dueDateRequest struct {
	Date core.Day `json:"date"`
}

// The three quick actions below change one field and let the status be
// derived again.

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	s.quickAction(w, r, &req, func(id string) (core.Transaction, error) {
		status := core.Status(strings.ToUpper(strings.TrimSpace(string(req.Status))))
		return s.deps.Book.SetStatus(r.Context(), sessionFrom(r.Context()), id, status)
	})
}

func (s *Server) handleSetPaymentDate(w http.ResponseWriter, r *http.Request) {
	var req paymentDateRequest
	s.quickAction(w, r, &req, func(id string) (core.Transaction, error) {
		return s.deps.Book.SetPaymentDate(r.Context(), sessionFrom(r.Context()), id, req.PaymentDate)
	})
}

func (s *Server) handleSetDueDate(w http.ResponseWriter, r *http.Request) {
	var req dueDateRequest
	s.quickAction(w, r, &req, func(id string) (core.Transaction, error) {
		if err := req.Date.Validate(); err != nil {
			return core.Transaction{}, err
		}
		return s.deps.Book.SetDueDate(r.Context(), sessionFrom(r.Context()), id, req.Date)
	})
}

func (s *Server) quickAction(w http.ResponseWriter, r *http.Request, req any, apply func(id string) (core.Transaction, error)) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := decodeJSON(w, r, req); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := apply(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateDashboards()
	NewJSONResponse().Data(updated).Write(w)
}

// cleanTransaction strips control characters from free text and
// uppercases the enumerations.
func cleanTransaction(tx core.Transaction) core.Transaction {
	tx.Description = sanitizeInput(tx.Description)
	tx.Entity = sanitizeInput(tx.Entity)
	tx.Category = sanitizeInput(tx.Category)
	tx.Type = core.TransactionType(strings.ToUpper(strings.TrimSpace(string(tx.Type))))
	tx.Status = core.Status(strings.ToUpper(strings.TrimSpace(string(tx.Status))))
	return tx
}
