package services

import (
	"context"

	"github.com/hasnin090/iq-sub001/internal/core"
	"github.com/hasnin090/iq-sub001/internal/storage"
)

// DeferredService manages beneficiary installment plans. Plans live
// outside the ledger; money only reaches the ledger when installments
// are transferred through the LedgerService.
type DeferredService struct {
	store *storage.Store
}

func NewDeferredService(store *storage.Store) *DeferredService {
	return &DeferredService{store: store}
}

func (s *DeferredService) CreatePlan(ctx context.Context, d core.DeferredPayment) (core.DeferredPayment, error) {
	return s.store.CreateDeferred(ctx, d)
}

func (s *DeferredService) PayInstallment(ctx context.Context, deferredID int64, amount core.Money) (core.DeferredPayment, core.Installment, error) {
	return s.store.PayInstallment(ctx, deferredID, amount)
}

func (s *DeferredService) GetPlan(ctx context.Context, id int64) (core.DeferredPayment, error) {
	return s.store.GetDeferred(ctx, id)
}

func (s *DeferredService) ListPlans(ctx context.Context) ([]core.DeferredPayment, error) {
	return s.store.ListDeferred(ctx)
}

func (s *DeferredService) ListInstallments(ctx context.Context, deferredID int64) ([]core.Installment, error) {
	if _, err := s.store.GetDeferred(ctx, deferredID); err != nil {
		return nil, err
	}
	return s.store.ListInstallments(ctx, deferredID)
}
