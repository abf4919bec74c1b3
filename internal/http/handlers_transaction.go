package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hasnin090/iq-sub001/internal/core"
)

type createTransactionRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	ProjectID   int64  `json:"projectId"`
	ExpenseType string `json:"expenseType"`
}

type transactionResponse struct {
	Transaction transactionDTO `json:"transaction"`
	Balances    balancesDTO    `json:"balances"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeDomainError(w, r, core.ErrInvalidDate)
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	t := core.Transaction{
		Date:        date,
		Description: req.Description,
		Type:        core.TransactionType(req.Type),
		Amount:      amount,
		ProjectID:   req.ProjectID,
		ExpenseType: req.ExpenseType,
		CreatedBy:   actor(r),
	}

	t, balances, err := s.ledger.RecordTransaction(r.Context(), t)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, transactionResponse{
		Transaction: toTransactionDTO(t),
		Balances:    toBalancesDTO(balances),
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	t, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(t))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var projectID int64
	if v := r.URL.Query().Get("projectId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid projectId")
			return
		}
		projectID = id
	}

	txns, err := s.ledger.ListTransactions(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]transactionDTO, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionDTO(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	balances, err := s.ledger.DeleteTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalancesDTO(balances))
}
