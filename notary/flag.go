package notary

import (
	"context"
	"log/slog"

	"github.com/veridoc/document-registry-backend/interfaces"
	"github.com/veridoc/document-registry-backend/metrics"
)

// FlagResult reports the outcome of a finalized flag write. Orphaned means
// the ledger entry was updated but no local mirror exists at that index.
type FlagResult struct {
	Index    uint64
	NewState bool
	Orphaned bool
}

// FlagService toggles the flag of a ledger entry and mirrors the change
// locally. The ledger itself enforces that only the entry's issuer or
// receiver may flag it; a violation surfaces as a reverted write.
type FlagService struct {
	ledger interfaces.LedgerClient
	docs   interfaces.DocumentStore
	audit  interfaces.AuditStore
	dir    interfaces.IdentityDirectory
	log    *slog.Logger
}

// NewFlagService constructs a flag service.
func NewFlagService(ledger interfaces.LedgerClient, docs interfaces.DocumentStore, audit interfaces.AuditStore, dir interfaces.IdentityDirectory, log *slog.Logger) *FlagService {
	return &FlagService{ledger: ledger, docs: docs, audit: audit, dir: dir, log: log}
}

// SetFlag writes the new flag state to the ledger, records the action, and
// updates the local mirror. On a ledger failure nothing is recorded or
// mutated locally.
func (s *FlagService) SetFlag(ctx context.Context, actor *interfaces.Identity, index uint64, newState bool) (*FlagResult, error) {
	key, err := s.dir.SigningKeyFor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.SubmitFlag(ctx, key, index, newState); err != nil {
		metrics.FlagOpsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	action := &interfaces.FlagAction{
		Index:    index,
		Actor:    actor.ID,
		NewState: newState,
	}
	if err := s.audit.RecordFlagAction(ctx, action); err != nil {
		// The ledger state already changed; the lost audit row is
		// surfaced rather than papered over.
		s.log.Error("flag action audit write failed",
			"index", index, "actor", actor.PublicID, "err", err)
		return nil, err
	}

	matched, err := s.docs.SetFlagged(ctx, index, newState)
	if err != nil {
		s.log.Error("local flag mirror update failed",
			"index", index, "new_state", newState, "err", err)
		return nil, err
	}

	result := &FlagResult{Index: index, NewState: newState, Orphaned: !matched}
	if result.Orphaned {
		metrics.FlagOpsTotal.WithLabelValues("orphaned").Inc()
		s.log.Warn("flag updated on ledger with no local mirror", "index", index)
	} else {
		metrics.FlagOpsTotal.WithLabelValues("ok").Inc()
	}
	return result, nil
}
