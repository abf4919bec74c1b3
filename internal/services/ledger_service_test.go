package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hasnin090/iq-sub001/internal/core"
	"github.com/hasnin090/iq-sub001/internal/storage"
)

type fakePublisher struct {
	published []int64
	fail      bool
}

func (f *fakePublisher) PublishEntryPosted(_ context.Context, entryID int64) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.published = append(f.published, entryID)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func newTestServices(t *testing.T, pub EntryPublisher) (*LedgerService, *DeferredService) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewLedgerService(store, pub), NewDeferredService(store)
}

func fundProject(t *testing.T, svc *LedgerService, units int64) core.Project {
	t.Helper()
	ctx := context.Background()
	p, err := svc.CreateProject(ctx, core.Project{Name: "project"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := svc.Deposit(ctx, core.Money{Units: units}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, _, err := svc.RecordTransaction(ctx, core.Transaction{
		Date: time.Now(), Description: "funding", Type: core.Income,
		Amount: core.Money{Units: units}, ProjectID: p.ID,
	}); err != nil {
		t.Fatalf("fund project: %v", err)
	}
	return p
}

func TestRecordTransactionPublishesExpenseEntry(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestServices(t, pub)
	ctx := context.Background()
	p := fundProject(t, svc, 10_000)

	// Income movements post no ledger entry, so nothing is published yet.
	if len(pub.published) != 0 {
		t.Fatalf("published after income = %v, want none", pub.published)
	}

	if _, _, err := svc.RecordTransaction(ctx, core.Transaction{
		Date: time.Now(), Description: "spending", Type: core.Expense,
		Amount: core.Money{Units: 3_000}, ProjectID: p.ID,
	}); err != nil {
		t.Fatalf("record expense: %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published = %v, want one entry", pub.published)
	}
}

func TestRecordTransactionSurvivesPublisherFailure(t *testing.T) {
	svc, _ := newTestServices(t, &fakePublisher{fail: true})
	ctx := context.Background()
	p := fundProject(t, svc, 10_000)

	if _, _, err := svc.RecordTransaction(ctx, core.Transaction{
		Date: time.Now(), Description: "spending", Type: core.Expense,
		Amount: core.Money{Units: 3_000}, ProjectID: p.ID,
	}); err != nil {
		t.Fatalf("record expense with dead broker: %v", err)
	}

	summary, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.GrandTotal.Units != 3_000 {
		t.Errorf("grand total = %d, want 3000", summary.GrandTotal.Units)
	}
}

func TestRecordTransactionNilPublisher(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	p := fundProject(t, svc, 10_000)

	if _, _, err := svc.RecordTransaction(context.Background(), core.Transaction{
		Date: time.Now(), Description: "spending", Type: core.Expense,
		Amount: core.Money{Units: 1_000}, ProjectID: p.ID,
	}); err != nil {
		t.Fatalf("record expense without publisher: %v", err)
	}
}

func TestTransferBeneficiary(t *testing.T) {
	pub := &fakePublisher{}
	svc, deferred := newTestServices(t, pub)
	ctx := context.Background()

	plan, err := deferred.CreatePlan(ctx, core.DeferredPayment{
		BeneficiaryName: "مورد الحديد",
		TotalAmount:     core.Money{Units: 50_000},
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	for _, units := range []int64{20_000, 10_000} {
		if _, _, err := deferred.PayInstallment(ctx, plan.ID, core.Money{Units: units}); err != nil {
			t.Fatalf("pay: %v", err)
		}
	}

	entries, err := svc.TransferBeneficiary(ctx, "مورد الحديد")
	if err != nil {
		t.Fatalf("transfer beneficiary: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if len(pub.published) != 2 {
		t.Errorf("published = %v, want both entries", pub.published)
	}

	// Second run finds nothing pending.
	entries, err = svc.TransferBeneficiary(ctx, "مورد الحديد")
	if err != nil {
		t.Fatalf("second transfer: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("second transfer created %d entries, want 0", len(entries))
	}

	// Unknown beneficiary is simply empty.
	entries, err = svc.TransferBeneficiary(ctx, "لا أحد")
	if err != nil {
		t.Fatalf("unknown beneficiary: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("unknown beneficiary created %d entries", len(entries))
	}
}

func TestBeneficiaryStatementRunningBalance(t *testing.T) {
	svc, deferred := newTestServices(t, nil)
	ctx := context.Background()

	plan, err := deferred.CreatePlan(ctx, core.DeferredPayment{
		BeneficiaryName: "مقاول كهرباء",
		TotalAmount:     core.Money{Units: 60_000},
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	for _, units := range []int64{25_000, 15_000, 20_000} {
		if _, _, err := deferred.PayInstallment(ctx, plan.ID, core.Money{Units: units}); err != nil {
			t.Fatalf("pay: %v", err)
		}
	}
	if _, err := svc.TransferBeneficiary(ctx, "مقاول كهرباء"); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	lines, err := svc.BeneficiaryStatement(ctx, "مقاول كهرباء")
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	want := []int64{25_000, 40_000, 60_000}
	for i, line := range lines {
		if line.RunningBalance.Units != want[i] {
			t.Errorf("line %d running balance = %d, want %d", i, line.RunningBalance.Units, want[i])
		}
	}
}

func TestListInstallmentsUnknownPlan(t *testing.T) {
	_, deferred := newTestServices(t, nil)
	if _, err := deferred.ListInstallments(context.Background(), 99); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown plan = %v, want ErrNotFound", err)
	}
}
