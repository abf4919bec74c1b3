package http

import (
	"net/http"

	"github.com/hasnin090/iq-sub001/internal/core"
)

type depositRequest struct {
	Amount string `json:"amount"`
}

type depositResponse struct {
	AdminBalance string `json:"adminBalance"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	balance, err := s.ledger.Deposit(r.Context(), amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, depositResponse{AdminBalance: balance.String()})
}

type balanceSheetResponse struct {
	AdminBalance string       `json:"adminBalance"`
	Projects     []projectDTO `json:"projects"`
	Total        string       `json:"total"`
}

func (s *Server) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := s.ledger.BalanceSheet(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := balanceSheetResponse{
		AdminBalance: sheet.AdminBalance.String(),
		Projects:     make([]projectDTO, 0, len(sheet.Projects)),
		Total:        sheet.Total().String(),
	}
	for _, p := range sheet.Projects {
		resp.Projects = append(resp.Projects, toProjectDTO(p))
	}
	writeJSON(w, http.StatusOK, resp)
}
