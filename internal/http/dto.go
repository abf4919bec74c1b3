package http

import (
	"time"

	"github.com/hasnin090/iq-sub001/internal/core"
)

// Wire representations. Amounts travel as decimal strings; the int64
// minor units never leave the process.
type (
	projectDTO struct {
		ID            int64  `json:"id"`
		Name          string `json:"name"`
		Balance       string `json:"balance"`
		TotalIncome   string `json:"totalIncome"`
		TotalExpenses string `json:"totalExpenses"`
		NetProfit     string `json:"netProfit"`
		Status        string `json:"status"`
		CreatedAt     string `json:"createdAt"`
	}

	expenseTypeDTO struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		IsActive    bool   `json:"isActive"`
	}

	transactionDTO struct {
		ID          int64  `json:"id"`
		Date        string `json:"date"`
		Description string `json:"description"`
		Type        string `json:"type"`
		Amount      string `json:"amount"`
		ProjectID   int64  `json:"projectId"`
		ExpenseType string `json:"expenseType,omitempty"`
		CreatedBy   string `json:"createdBy,omitempty"`
		CreatedAt   string `json:"createdAt"`
	}

	balancesDTO struct {
		AdminBalance string     `json:"adminBalance"`
		Project      projectDTO `json:"project"`
	}

	entryDTO struct {
		ID            int64  `json:"id"`
		Date          string `json:"date"`
		SourceKind    string `json:"sourceKind"`
		SourceID      int64  `json:"sourceId"`
		ExpenseTypeID *int64 `json:"expenseTypeId,omitempty"`
		Amount        string `json:"amount"`
		Description   string `json:"description"`
		ProjectID     *int64 `json:"projectId,omitempty"`
		EntryType     string `json:"entryType"`
		Beneficiary   string `json:"beneficiary,omitempty"`
	}

	entryGroupDTO struct {
		Total   string     `json:"total"`
		Count   int        `json:"count"`
		Entries []entryDTO `json:"entries"`
	}

	summaryDTO struct {
		Classified     entryGroupDTO `json:"classified"`
		GeneralExpense entryGroupDTO `json:"general_expense"`
		GrandTotal     string        `json:"grandTotal"`
	}

	deferredDTO struct {
		ID              int64  `json:"id"`
		BeneficiaryName string `json:"beneficiaryName"`
		TotalAmount     string `json:"totalAmount"`
		PaidAmount      string `json:"paidAmount"`
		RemainingAmount string `json:"remainingAmount"`
		Status          string `json:"status"`
		ProjectID       *int64 `json:"projectId,omitempty"`
		DueDate         string `json:"dueDate,omitempty"`
		CreatedAt       string `json:"createdAt"`
	}

	installmentDTO struct {
		ID          int64  `json:"id"`
		DeferredID  int64  `json:"deferredId"`
		Beneficiary string `json:"beneficiary"`
		Amount      string `json:"amount"`
		PaidAt      string `json:"paidAt"`
		Transferred bool   `json:"transferred"`
	}

	statementLineDTO struct {
		Entry          entryDTO `json:"entry"`
		RunningBalance string   `json:"runningBalance"`
	}
)

func toProjectDTO(p core.Project) projectDTO {
	return projectDTO{
		ID:            p.ID,
		Name:          p.Name,
		Balance:       p.Balance.String(),
		TotalIncome:   p.TotalIncome.String(),
		TotalExpenses: p.TotalExpenses.String(),
		NetProfit:     p.NetProfit().String(),
		Status:        p.Status,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}

func toExpenseTypeDTO(et core.ExpenseType) expenseTypeDTO {
	return expenseTypeDTO{
		ID:          et.ID,
		Name:        et.Name,
		Description: et.Description,
		IsActive:    et.IsActive,
	}
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		Date:        t.Date.Format("2006-01-02"),
		Description: t.Description,
		Type:        string(t.Type),
		Amount:      t.Amount.String(),
		ProjectID:   t.ProjectID,
		ExpenseType: t.ExpenseType,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

func toBalancesDTO(b core.UpdatedBalances) balancesDTO {
	return balancesDTO{
		AdminBalance: b.AdminBalance.String(),
		Project:      toProjectDTO(b.Project),
	}
}

func toEntryDTO(e core.LedgerEntry) entryDTO {
	return entryDTO{
		ID:            e.ID,
		Date:          e.Date.Format("2006-01-02"),
		SourceKind:    string(e.SourceKind),
		SourceID:      e.SourceID,
		ExpenseTypeID: e.ExpenseTypeID,
		Amount:        e.Amount.String(),
		Description:   e.Description,
		ProjectID:     e.ProjectID,
		EntryType:     string(e.EntryType),
		Beneficiary:   e.Beneficiary,
	}
}

func toEntryDTOs(entries []core.LedgerEntry) []entryDTO {
	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryDTO(e))
	}
	return out
}

func toEntryGroupDTO(g core.EntryGroup) entryGroupDTO {
	return entryGroupDTO{
		Total:   g.Total.String(),
		Count:   g.Count,
		Entries: toEntryDTOs(g.Entries),
	}
}

func toSummaryDTO(s core.LedgerSummary) summaryDTO {
	return summaryDTO{
		Classified:     toEntryGroupDTO(s.Classified),
		GeneralExpense: toEntryGroupDTO(s.GeneralExpense),
		GrandTotal:     s.GrandTotal.String(),
	}
}

func toDeferredDTO(d core.DeferredPayment) deferredDTO {
	dto := deferredDTO{
		ID:              d.ID,
		BeneficiaryName: d.BeneficiaryName,
		TotalAmount:     d.TotalAmount.String(),
		PaidAmount:      d.PaidAmount.String(),
		RemainingAmount: d.RemainingAmount.String(),
		Status:          string(d.Status),
		ProjectID:       d.ProjectID,
		CreatedAt:       d.CreatedAt.Format(time.RFC3339),
	}
	if d.DueDate != nil {
		dto.DueDate = d.DueDate.Format("2006-01-02")
	}
	return dto
}

func toInstallmentDTO(i core.Installment) installmentDTO {
	return installmentDTO{
		ID:          i.ID,
		DeferredID:  i.DeferredID,
		Beneficiary: i.Beneficiary,
		Amount:      i.Amount.String(),
		PaidAt:      i.PaidAt.Format(time.RFC3339),
		Transferred: i.Transferred,
	}
}
