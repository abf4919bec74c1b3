package http

import (
	"net/http"

	"github.com/hasnin090/iq-sub001/internal/core"
)

type expenseTypeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

func (s *Server) handleCreateExpenseType(w http.ResponseWriter, r *http.Request) {
	var req expenseTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// New types default to active.
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	et, err := s.ledger.CreateExpenseType(r.Context(), core.ExpenseType{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    active,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseTypeDTO(et))
}

func (s *Server) handleListExpenseTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.ledger.ListExpenseTypes(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]expenseTypeDTO, 0, len(types))
	for _, et := range types {
		out = append(out, toExpenseTypeDTO(et))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateExpenseType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid expense type id")
		return
	}
	var req expenseTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	et, err := s.ledger.UpdateExpenseType(r.Context(), core.ExpenseType{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    active,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseTypeDTO(et))
}
