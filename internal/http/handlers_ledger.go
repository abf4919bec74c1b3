package http

import (
	"net/http"

	"github.com/hasnin090/iq-sub001/internal/core"
)

// transferRequest accepts either explicit receivable (installment) ids
// or a beneficiary whose pending installments should all be posted.
type transferRequest struct {
	ReceivableIDs []int64 `json:"receivableIds"`
	Beneficiary   string  `json:"beneficiary"`
}

type transferResponse struct {
	Entries     []entryDTO `json:"entries"`
	Transferred int        `json:"transferred"`
}

func (s *Server) handleTransferReceivables(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.ReceivableIDs) == 0 && req.Beneficiary == "" {
		writeError(w, http.StatusBadRequest, "receivableIds or beneficiary required")
		return
	}

	var (
		posted []core.LedgerEntry
		err    error
	)
	if len(req.ReceivableIDs) > 0 {
		posted, err = s.ledger.TransferReceivables(r.Context(), req.ReceivableIDs)
	} else {
		posted, err = s.ledger.TransferBeneficiary(r.Context(), req.Beneficiary)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transferResponse{
		Entries:     toEntryDTOs(posted),
		Transferred: len(posted),
	})
}

type reclassifyResponse struct {
	Changed int `json:"changed"`
}

func (s *Server) handleReclassify(w http.ResponseWriter, r *http.Request) {
	changed, err := s.ledger.Reclassify(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reclassifyResponse{Changed: changed})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.ledger.Summary(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

type statementResponse struct {
	Beneficiary string             `json:"beneficiary"`
	Lines       []statementLineDTO `json:"lines"`
	Total       string             `json:"total"`
}

func (s *Server) handleBeneficiaryStatement(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "beneficiary name required")
		return
	}

	lines, err := s.ledger.BeneficiaryStatement(r.Context(), name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := statementResponse{Beneficiary: name, Lines: make([]statementLineDTO, 0, len(lines)), Total: "0.00"}
	for _, line := range lines {
		resp.Lines = append(resp.Lines, statementLineDTO{
			Entry:          toEntryDTO(line.Entry),
			RunningBalance: line.RunningBalance.String(),
		})
	}
	if len(lines) > 0 {
		resp.Total = lines[len(lines)-1].RunningBalance.String()
	}
	writeJSON(w, http.StatusOK, resp)
}
