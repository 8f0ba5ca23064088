package notary

import (
	"context"
	"log/slog"

	"github.com/veridoc/document-registry-backend/interfaces"
	"github.com/veridoc/document-registry-backend/metrics"
)

// Query selects the ledger entry to verify. Exactly one key is required;
// when both are set the index wins.
type Query struct {
	Index *uint64
	TxRef *interfaces.ContentHash
}

// VerificationService answers authenticity queries against the ledger and
// writes one audit row per call, whatever the outcome.
type VerificationService struct {
	ledger interfaces.LedgerClient
	audit  interfaces.AuditStore
	dir    interfaces.IdentityDirectory
	log    *slog.Logger
}

// NewVerificationService constructs a verification service.
func NewVerificationService(ledger interfaces.LedgerClient, audit interfaces.AuditStore, dir interfaces.IdentityDirectory, log *slog.Logger) *VerificationService {
	return &VerificationService{ledger: ledger, audit: audit, dir: dir, log: log}
}

// Count reports the total number of entries registered on the ledger.
func (s *VerificationService) Count(ctx context.Context) (uint64, error) {
	return s.ledger.DocumentCount(ctx)
}

// Verify reads the ledger entry selected by q and records the attempt.
// A read failure is recorded with outcome "error" and then returned to the
// caller; it is never swallowed. A missing entry returns Exists=false with
// a nil error.
func (s *VerificationService) Verify(ctx context.Context, verifier *interfaces.Identity, q Query) (*interfaces.LedgerEntry, error) {
	if q.Index == nil && q.TxRef == nil {
		return nil, interfaces.ErrMissingQueryKey
	}

	attempt := &interfaces.VerificationAttempt{
		Verifier: verifier.ID,
		Index:    q.Index,
		TxRef:    q.TxRef,
	}
	if q.Index != nil {
		attempt.TxRef = nil
	}

	var (
		entry *interfaces.LedgerEntry
		err   error
	)
	if q.Index != nil {
		entry, err = s.ledger.VerifyByIndex(ctx, *q.Index)
	} else {
		entry, err = s.ledger.VerifyByTxRef(ctx, *q.TxRef)
	}

	if err != nil {
		attempt.Outcome = interfaces.OutcomeError
		attempt.Payload = map[string]any{"error": err.Error()}
		s.record(ctx, attempt)
		metrics.VerificationsTotal.WithLabelValues(string(interfaces.OutcomeError)).Inc()
		return nil, err
	}

	if !entry.Exists {
		attempt.Outcome = interfaces.OutcomeNotFound
		s.record(ctx, attempt)
		metrics.VerificationsTotal.WithLabelValues(string(interfaces.OutcomeNotFound)).Inc()
		return entry, nil
	}

	// Subject resolution is opportunistic: an unknown receiver address
	// leaves the field unset.
	if subject, serr := s.dir.ByAddress(ctx, entry.Receiver); serr == nil {
		attempt.Subject = &subject.ID
	}

	attempt.Outcome = interfaces.OutcomeSuccess
	attempt.Payload = entrySnapshot(entry)
	s.record(ctx, attempt)
	metrics.VerificationsTotal.WithLabelValues(string(interfaces.OutcomeSuccess)).Inc()
	return entry, nil
}

// record appends the audit row. An audit failure is logged but does not
// replace the verification result.
func (s *VerificationService) record(ctx context.Context, attempt *interfaces.VerificationAttempt) {
	if err := s.audit.RecordVerification(ctx, attempt); err != nil {
		s.log.Error("verification audit write failed",
			"verifier", attempt.Verifier, "outcome", string(attempt.Outcome), "err", err)
	}
}

func entrySnapshot(entry *interfaces.LedgerEntry) map[string]any {
	return map[string]any{
		"index":        entry.Index,
		"content_id":   entry.ContentID,
		"issuer":       entry.Issuer.String(),
		"receiver":     entry.Receiver.String(),
		"title":        entry.Title,
		"timestamp":    entry.Timestamp,
		"flagged":      entry.Flagged,
		"content_hash": entry.ContentHash.String(),
	}
}
