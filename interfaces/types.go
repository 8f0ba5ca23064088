// Package interfaces defines the shared types and component contracts of the
// document registry: the ledger client, the content store, the local stores
// and the identity directory. It carries no implementation details so that
// every component can be exercised against test doubles.
package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Address is a 20-byte ledger account address.
type Address [20]byte

// NewAddressFromBytes creates an address from a raw 20-byte slice.
func NewAddressFromBytes(b []byte) (Address, error) {
	if len(b) != 20 {
		return Address{}, errors.New("invalid address length: must be 20 bytes")
	}

	var addr Address
	copy(addr[:], b)
	return addr, nil
}

// NewAddressFromHex creates an address from a 40-char hex string, with or
// without a 0x prefix.
func NewAddressFromHex(s string) (Address, error) {
	clean := strings.TrimPrefix(s, "0x")
	if len(clean) != 40 {
		return Address{}, errors.New("invalid address length: hex string must be 40 characters")
	}

	b, err := hex.DecodeString(clean)
	if err != nil {
		return Address{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewAddressFromBytes(b)
}

// String returns the 0x-prefixed hex representation of the address.
func (addr Address) String() string {
	return "0x" + hex.EncodeToString(addr[:])
}

// Bytes returns the raw 20-byte address.
func (addr Address) Bytes() []byte {
	return addr[:]
}

// IsZero reports whether the address is the zero address.
func (addr Address) IsZero() bool {
	return addr == Address{}
}

// TxRef is a 32-byte ledger transaction hash identifying the write that
// registered a document.
type TxRef [32]byte

// String returns the 0x-prefixed hex representation of the transaction hash.
func (r TxRef) String() string {
	return "0x" + hex.EncodeToString(r[:])
}

// ContentHash is the ledger-internal 32-byte commitment assigned to a
// document on registration. It is distinct from both the content store CID
// and the transaction hash, and serves as the alternate verification key.
type ContentHash [32]byte

// NewContentHashFromHex parses a 64-char hex string, with or without a 0x
// prefix, into a ContentHash.
func NewContentHashFromHex(s string) (ContentHash, error) {
	clean := strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(clean)
	if err != nil {
		return ContentHash{}, fmt.Errorf("invalid hex format: %w", err)
	}
	if len(b) != 32 {
		return ContentHash{}, fmt.Errorf("invalid hash length: %d", len(b))
	}

	var h ContentHash
	copy(h[:], b)
	return h, nil
}

// String returns the 0x-prefixed hex representation of the hash.
func (h ContentHash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is all zeroes.
func (h ContentHash) IsZero() bool {
	return h == ContentHash{}
}

// Role distinguishes ordinary users from document-issuing authorities.
type Role string

const (
	RoleUser      Role = "user"
	RoleAuthority Role = "authority"
)

// Identity references a party known to the external user system. The
// registry core treats it as an opaque input: only the chain address and the
// role bits are consulted here.
type Identity struct {
	ID                uuid.UUID
	PublicID          string
	DisplayName       string
	Address           Address
	Role              Role
	VerifiedAuthority bool
}

// IsVerifiedAuthority reports whether the identity may issue and verify
// documents.
func (id *Identity) IsVerifiedAuthority() bool {
	return id.Role == RoleAuthority && id.VerifiedAuthority
}

// DocumentVariant describes a document record's provenance.
type DocumentVariant string

const (
	// VariantSelfUploaded marks a document the custodian uploaded themselves.
	VariantSelfUploaded DocumentVariant = "self_uploaded"

	// VariantAuthorityIssued marks a document issued by a verified authority
	// to a receiver.
	VariantAuthorityIssued DocumentVariant = "authority_issued"
)

// DocumentRecord is the local mirror of a successful ledger registration.
// All fields except Flagged are immutable after creation, and a record is
// only ever created after its ledger write has been finalized.
type DocumentRecord struct {
	ID          int64
	Variant     DocumentVariant
	Issuer      *uuid.UUID // nil for self-uploaded documents
	Custodian   uuid.UUID
	Title       string
	ContentID   string
	TxRef       TxRef
	LedgerIndex uint64
	ContentHash ContentHash
	Flagged     bool
	CreatedAt   time.Time
}

// LedgerEntry is the structured result of a ledger verification read.
// Exists=false means the queried key resolves to no registration; every
// other field is only meaningful when Exists is true.
type LedgerEntry struct {
	Exists      bool
	Index       uint64
	ContentID   string
	Issuer      Address
	Receiver    Address
	Title       string
	Timestamp   time.Time
	Flagged     bool
	ContentHash ContentHash
}

// Registration carries the identifiers extracted from a finalized
// registration transaction's receipt event.
type Registration struct {
	TxRef       TxRef
	Index       uint64
	ContentHash ContentHash
}

// VerificationOutcome is the tri-state result of a verification call.
type VerificationOutcome string

const (
	OutcomeSuccess  VerificationOutcome = "success"
	OutcomeNotFound VerificationOutcome = "not_found"
	OutcomeError    VerificationOutcome = "error"
)

// VerificationAttempt is one append-only audit row. Exactly one is written
// per verification call, regardless of outcome.
type VerificationAttempt struct {
	ID       uuid.UUID
	Verifier uuid.UUID
	Subject  *uuid.UUID // resolved custodian, nil when resolution missed

	// Exactly one of Index and TxRef identifies the queried entry.
	Index *uint64
	TxRef *ContentHash

	Outcome VerificationOutcome

	// Payload holds the full response snapshot on success and structured
	// error detail on failure. Its shape legitimately varies by outcome, so
	// it stays an opaque map.
	Payload map[string]any

	CreatedAt time.Time
}

// FlagAction is one append-only record of a ledger-side flag mutation.
// It is only written after the ledger write has been finalized.
type FlagAction struct {
	ID        uuid.UUID
	Index     uint64
	Actor     uuid.UUID
	NewState  bool
	CreatedAt time.Time
}
