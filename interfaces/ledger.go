package interfaces

import (
	"context"
	"crypto/ecdsa"
)

// SigningKey is an actor's ledger signing credential. The core treats it as
// an opaque input to the ledger client.
type SigningKey struct {
	Key     *ecdsa.PrivateKey
	Address Address
}

// LedgerClient is the narrow contract against the deployed document storage
// program. Writes block until finalization; reads are plain view calls.
type LedgerClient interface {
	// SubmitRegistration anchors a content identifier on the ledger. It
	// builds, signs and submits the registration transaction, waits for
	// finalization, and extracts the registration identifiers from the
	// receipt event. Returns *LedgerWriteError on definitive failure and
	// *LedgerTimeoutError when the wait policy is exceeded.
	SubmitRegistration(ctx context.Context, key *SigningKey, receiver Address, contentID, title string) (*Registration, error)

	// SubmitFlag sets or clears the flag on the entry at index. The ledger
	// itself reverts unless the actor is the entry's issuer or receiver.
	// Same blocking and failure semantics as SubmitRegistration.
	SubmitFlag(ctx context.Context, key *SigningKey, index uint64, newState bool) error

	// VerifyByIndex reads the entry at the given ledger index. A missing
	// entry is reported via Exists=false, never via an error; errors are
	// reserved for transport and decode failures.
	VerifyByIndex(ctx context.Context, index uint64) (*LedgerEntry, error)

	// VerifyByTxRef reads the entry committed under the given ledger-internal
	// content hash. Same result semantics as VerifyByIndex.
	VerifyByTxRef(ctx context.Context, ref ContentHash) (*LedgerEntry, error)

	// DocumentCount returns the number of registered entries.
	DocumentCount(ctx context.Context) (uint64, error)
}
