package http

import (
	"net/http"
	"time"

	"github.com/hasnin090/iq-sub001/internal/core"
)

type createDeferredRequest struct {
	BeneficiaryName string `json:"beneficiaryName"`
	TotalAmount     string `json:"totalAmount"`
	ProjectID       *int64 `json:"projectId"`
	DueDate         string `json:"dueDate"`
}

type payInstallmentRequest struct {
	Amount string `json:"amount"`
}

type payInstallmentResponse struct {
	Plan        deferredDTO    `json:"plan"`
	Installment installmentDTO `json:"installment"`
}

func (s *Server) handleCreateDeferred(w http.ResponseWriter, r *http.Request) {
	var req createDeferredRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	total, err := core.ParseAmount(req.TotalAmount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	d := core.DeferredPayment{
		BeneficiaryName: req.BeneficiaryName,
		TotalAmount:     total,
		ProjectID:       req.ProjectID,
	}
	if req.DueDate != "" {
		due, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			writeDomainError(w, r, core.ErrInvalidDate)
			return
		}
		d.DueDate = &due
	}

	d, err = s.deferred.CreatePlan(r.Context(), d)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDeferredDTO(d))
}

func (s *Server) handleGetDeferred(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid plan id")
		return
	}
	d, err := s.deferred.GetPlan(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeferredDTO(d))
}

func (s *Server) handleListDeferred(w http.ResponseWriter, r *http.Request) {
	plans, err := s.deferred.ListPlans(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]deferredDTO, 0, len(plans))
	for _, d := range plans {
		out = append(out, toDeferredDTO(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePayInstallment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid plan id")
		return
	}
	var req payInstallmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	plan, installment, err := s.deferred.PayInstallment(r.Context(), id, amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, payInstallmentResponse{
		Plan:        toDeferredDTO(plan),
		Installment: toInstallmentDTO(installment),
	})
}

func (s *Server) handleListInstallments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid plan id")
		return
	}
	installments, err := s.deferred.ListInstallments(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]installmentDTO, 0, len(installments))
	for _, ins := range installments {
		out = append(out, toInstallmentDTO(ins))
	}
	writeJSON(w, http.StatusOK, out)
}
