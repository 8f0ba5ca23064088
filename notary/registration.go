// Package notary implements the registration, verification and flag
// services that sit between the HTTP surface and the ledger. Local records
// are mirrors of finalized ledger writes, never a source of truth ahead of
// them.
package notary

import (
	"context"
	"log/slog"

	"github.com/veridoc/document-registry-backend/interfaces"
	"github.com/veridoc/document-registry-backend/metrics"
)

// RegistrationService anchors document content on the ledger and mirrors
// the finalized registration locally.
type RegistrationService struct {
	content interfaces.ContentStore
	ledger  interfaces.LedgerClient
	docs    interfaces.DocumentStore
	dir     interfaces.IdentityDirectory
	log     *slog.Logger
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(content interfaces.ContentStore, ledger interfaces.LedgerClient, docs interfaces.DocumentStore, dir interfaces.IdentityDirectory, log *slog.Logger) *RegistrationService {
	return &RegistrationService{content: content, ledger: ledger, docs: docs, dir: dir, log: log}
}

// Issue registers a document on behalf of an authority, with the receiver
// resolved by public identifier. The receiver becomes the record's
// custodian.
func (s *RegistrationService) Issue(ctx context.Context, issuer *interfaces.Identity, receiverPublicID, title string, data []byte) (*interfaces.DocumentRecord, error) {
	receiver, err := s.dir.ByPublicID(ctx, receiverPublicID)
	if err != nil {
		return nil, err
	}
	return s.register(ctx, issuer, receiver, title, data, interfaces.VariantAuthorityIssued)
}

// Upload registers a document the owner holds for themselves.
func (s *RegistrationService) Upload(ctx context.Context, owner *interfaces.Identity, title string, data []byte) (*interfaces.DocumentRecord, error) {
	return s.register(ctx, owner, owner, title, data, interfaces.VariantSelfUploaded)
}

// register runs the three-step pipeline: content store write, finalized
// ledger write, local insert. A failure at any step leaves nothing behind
// from the later steps.
func (s *RegistrationService) register(ctx context.Context, actor, custodian *interfaces.Identity, title string, data []byte, variant interfaces.DocumentVariant) (*interfaces.DocumentRecord, error) {
	contentID, err := s.content.Put(ctx, title, data)
	if err != nil {
		metrics.RegistrationErrorsTotal.WithLabelValues("content_store").Inc()
		return nil, err
	}

	key, err := s.dir.SigningKeyFor(ctx, actor.ID)
	if err != nil {
		metrics.RegistrationErrorsTotal.WithLabelValues("signing_key").Inc()
		return nil, err
	}

	reg, err := s.ledger.SubmitRegistration(ctx, key, custodian.Address, contentID, title)
	if err != nil {
		metrics.RegistrationErrorsTotal.WithLabelValues("ledger").Inc()
		return nil, err
	}

	rec := &interfaces.DocumentRecord{
		Variant:     variant,
		Custodian:   custodian.ID,
		Title:       title,
		ContentID:   contentID,
		TxRef:       reg.TxRef,
		LedgerIndex: reg.Index,
		ContentHash: reg.ContentHash,
	}
	if variant == interfaces.VariantAuthorityIssued {
		issuerID := actor.ID
		rec.Issuer = &issuerID
	}

	if err := s.docs.Create(ctx, rec); err != nil {
		// The ledger entry exists but the mirror insert failed. The
		// record can be recovered from the ledger by index.
		s.log.Error("mirror insert failed after finalized registration",
			"index", reg.Index, "tx_ref", reg.TxRef.String(), "err", err)
		metrics.RegistrationErrorsTotal.WithLabelValues("local_store").Inc()
		return nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues(string(variant)).Inc()
	s.log.Info("document registered",
		"variant", string(variant), "index", reg.Index,
		"content_id", contentID, "custodian", custodian.PublicID)
	return rec, nil
}

// Documents returns the documents an identity holds, or the set it has
// issued when issued is true.
func (s *RegistrationService) Documents(ctx context.Context, ident *interfaces.Identity, issued bool) ([]interfaces.DocumentRecord, error) {
	if issued {
		return s.docs.ListIssuedBy(ctx, ident.ID)
	}
	return s.docs.ListForCustodian(ctx, ident.ID)
}
