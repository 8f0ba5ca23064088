package interfaces

import (
	"context"

	"github.com/google/uuid"
)

// ContentStoreLocation is a URI describing a content store backend,
// e.g. ipfs://127.0.0.1:5001, s3://bucket/prefix?region=..., file:///var/docs.
type ContentStoreLocation string

// ContentStore stores opaque document bytes and returns a content
// identifier. The identifier format is backend-defined (an IPFS CID for the
// primary backend) and is treated as opaque by everything above it.
type ContentStore interface {
	// Put stores data under the given display name and returns its content
	// identifier. Failures are wrapped in *ContentStoreError.
	Put(ctx context.Context, name string, data []byte) (string, error)

	// Available reports whether the backend is currently reachable.
	Available(ctx context.Context) bool

	// Name returns a unique identifier for this backend.
	Name() string
}

// DocumentStore persists local document records, the mirrors of finalized
// ledger registrations.
type DocumentStore interface {
	// Create persists a new record in a single transaction and fills in its
	// ID and CreatedAt.
	Create(ctx context.Context, rec *DocumentRecord) error

	// ByLedgerIndex finds the record mirroring the given ledger index,
	// searching self-uploaded documents first, then authority-issued ones.
	// Returns ErrRecordNotFound when no mirror exists.
	ByLedgerIndex(ctx context.Context, index uint64) (*DocumentRecord, error)

	// SetFlagged updates the flagged field of the record at the given ledger
	// index. The returned bool reports whether a record matched.
	SetFlagged(ctx context.Context, index uint64, flagged bool) (bool, error)

	// ListForCustodian returns the documents the identity holds: its own
	// uploads and the authority-issued documents it received.
	ListForCustodian(ctx context.Context, custodian uuid.UUID) ([]DocumentRecord, error)

	// ListIssuedBy returns the documents an authority has issued.
	ListIssuedBy(ctx context.Context, issuer uuid.UUID) ([]DocumentRecord, error)
}

// AuditStore is the append-only history of verification and flag outcomes.
type AuditStore interface {
	// RecordVerification appends one verification attempt. It is called
	// exactly once per verification call, whatever the outcome.
	RecordVerification(ctx context.Context, attempt *VerificationAttempt) error

	// RecordFlagAction appends one flag action after its ledger write
	// finalized.
	RecordFlagAction(ctx context.Context, action *FlagAction) error
}

// IdentityDirectory resolves identities owned by the external user system.
type IdentityDirectory interface {
	// ByPublicID resolves an identity by its public identifier.
	ByPublicID(ctx context.Context, publicID string) (*Identity, error)

	// ByAddress resolves an identity by its ledger address.
	ByAddress(ctx context.Context, addr Address) (*Identity, error)

	// SigningKeyFor loads the signing credential held for an identity.
	SigningKeyFor(ctx context.Context, id uuid.UUID) (*SigningKey, error)
}
