package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hasnin090/iq-sub001/internal/amqp"
	"github.com/hasnin090/iq-sub001/internal/core"
	"github.com/hasnin090/iq-sub001/internal/mirror"
	"github.com/hasnin090/iq-sub001/internal/mirror/memory"
	"github.com/hasnin090/iq-sub001/internal/storage"
)

type failingMirror struct{}

func (failingMirror) AppendEntry(context.Context, core.LedgerEntry) (string, error) {
	return "", errors.New("mirror unavailable")
}

func newWorkerFixture(t *testing.T, m mirror.EntryMirror) (*MirrorWorker, *storage.Store, []core.LedgerEntry) {
	t.Helper()
	ctx := context.Background()

	store, err := storage.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	d, err := store.CreateDeferred(ctx, core.DeferredPayment{
		BeneficiaryName: "مورد",
		TotalAmount:     core.Money{Units: 10_000},
	})
	if err != nil {
		t.Fatalf("create deferred: %v", err)
	}
	_, ins, err := store.PayInstallment(ctx, d.ID, core.Money{Units: 10_000})
	if err != nil {
		t.Fatalf("pay installment: %v", err)
	}
	entries, err := store.TransferInstallments(ctx, []int64{ins.ID})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	return NewMirrorWorker(store, m, 10), store, entries
}

func TestHandleEntryPosted(t *testing.T) {
	m := memory.New()
	w, store, entries := newWorkerFixture(t, m)
	ctx := context.Background()

	msg := amqp.NewEntryPostedMessage(entries[0].ID)
	if err := w.HandleEntryPosted(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	mirrored := m.Entries()
	if len(mirrored) != 1 || mirrored[0].ID != entries[0].ID {
		t.Fatalf("mirrored = %+v, want the transferred entry", mirrored)
	}

	pending, err := store.PendingMirrorEntries(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after handle = %d, want 0", len(pending))
	}
}

func TestHandleEntryPostedUnknownEntry(t *testing.T) {
	w, _, _ := newWorkerFixture(t, memory.New())
	msg := amqp.NewEntryPostedMessage(999)
	if err := w.HandleEntryPosted(context.Background(), msg); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("handle unknown entry = %v, want ErrNotFound", err)
	}
}

func TestProcessPending(t *testing.T) {
	m := memory.New()
	w, store, entries := newWorkerFixture(t, m)
	ctx := context.Background()

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if got := m.Entries(); len(got) != 1 || got[0].ID != entries[0].ID {
		t.Fatalf("mirrored = %+v, want the pending entry", got)
	}

	// Nothing left: a second scan mirrors nothing new.
	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if len(m.Entries()) != 1 {
		t.Errorf("second scan duplicated the entry")
	}

	pending, err := store.PendingMirrorEntries(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
}

func TestMirrorFailureMarksError(t *testing.T) {
	w, store, entries := newWorkerFixture(t, failingMirror{})
	ctx := context.Background()

	msg := amqp.NewEntryPostedMessage(entries[0].ID)
	if err := w.HandleEntryPosted(ctx, msg); err == nil {
		t.Fatal("expected error from failing mirror")
	}

	// The entry leaves the pending queue and is parked as an error.
	pending, err := store.PendingMirrorEntries(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after failure = %d, want 0", len(pending))
	}
}

func TestStartupCheck(t *testing.T) {
	m := memory.New()
	w, _, entries := newWorkerFixture(t, m)

	if err := w.StartupCheck(context.Background()); err != nil {
		t.Fatalf("startup check: %v", err)
	}
	if got := m.Entries(); len(got) != 1 || got[0].ID != entries[0].ID {
		t.Fatalf("mirrored = %+v, want the backlog entry", got)
	}
}
