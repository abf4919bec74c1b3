// Package mirror defines the outbound port for the read-only ledger
// mirror. The mirror is a best-effort secondary view: the SQLite store
// stays authoritative and mirror failures never block the ledger.
package mirror

import (
	"context"

	"github.com/hasnin090/iq-sub001/internal/core"
)

type EntryMirror interface {
	// AppendEntry writes one posted entry as a row in the mirror and
	// returns a reference to where it landed.
	AppendEntry(ctx context.Context, e core.LedgerEntry) (rowRef string, err error)
}
