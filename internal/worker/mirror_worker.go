// Package worker mirrors posted ledger entries into the configured
// mirror. It is driven by AMQP entry-posted messages, with a periodic
// pending scan as a backup for lost messages.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hasnin090/iq-sub001/internal/amqp"
	"github.com/hasnin090/iq-sub001/internal/mirror"
	"github.com/hasnin090/iq-sub001/internal/storage"
)

type MirrorWorker struct {
	store     *storage.Store
	mirror    mirror.EntryMirror
	batchSize int
}

func NewMirrorWorker(store *storage.Store, m mirror.EntryMirror, batchSize int) *MirrorWorker {
	return &MirrorWorker{
		store:     store,
		mirror:    m,
		batchSize: batchSize,
	}
}

// HandleEntryPosted processes one entry-posted message. The entry is
// always re-read from the store so the mirror never sees stale data.
func (w *MirrorWorker) HandleEntryPosted(ctx context.Context, msg *amqp.EntryPostedMessage) error {
	slog.InfoContext(ctx, "Processing entry posted message",
		"entry_id", msg.EntryID,
		"message_id", msg.MessageID)

	entry, err := w.store.GetLedgerEntry(ctx, msg.EntryID)
	if err != nil {
		return fmt.Errorf("get ledger entry: %w", err)
	}

	return w.mirrorEntry(ctx, entry.ID)
}

// ProcessPending mirrors entries whose messages never arrived. Backup
// mechanism, called periodically.
func (w *MirrorWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.PendingMirrorEntries(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending entries: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending mirror entries", "count", len(pending))

	for _, entry := range pending {
		if err := w.mirrorEntry(ctx, entry.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror entry", "entry_id", entry.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupCheck drains the pending backlog once at worker startup, using
// a larger batch to recover from downtime.
func (w *MirrorWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.store.PendingMirrorEntries(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending entries for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending mirror entries found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending mirror entries on startup, processing...",
		"count", len(pending))

	mirrored := 0
	failed := 0
	for _, entry := range pending {
		if err := w.mirrorEntry(ctx, entry.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror entry during startup",
				"entry_id", entry.ID, "error", err)
			failed++
			continue
		}
		mirrored++
	}

	slog.InfoContext(ctx, "Startup mirror check completed",
		"total", len(pending),
		"mirrored", mirrored,
		"errors", failed)
	return nil
}

func (w *MirrorWorker) mirrorEntry(ctx context.Context, entryID int64) error {
	entry, err := w.store.GetLedgerEntry(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get ledger entry: %w", err)
	}

	ref, err := w.mirror.AppendEntry(ctx, entry)
	if err != nil {
		if markErr := w.store.MarkMirrorError(ctx, entryID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark mirror error", "entry_id", entryID, "error", markErr)
		}
		return fmt.Errorf("append to mirror: %w", err)
	}

	if err := w.store.MarkMirrored(ctx, entryID); err != nil {
		// The row is already in the mirror; only the status write failed.
		slog.ErrorContext(ctx, "Failed to mark entry mirrored", "entry_id", entryID, "error", err)
	}

	slog.InfoContext(ctx, "Entry mirrored",
		"entry_id", entryID,
		"mirror_ref", ref,
		"amount", entry.Amount.Units)
	return nil
}
