package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veridoc/document-registry-backend/interfaces"
)

// MemoryDocumentStore is an in-memory interfaces.DocumentStore used in
// tests and single-process setups.
type MemoryDocumentStore struct {
	mu     sync.RWMutex
	byIdx  map[uint64]*interfaces.DocumentRecord
	nextID int64
}

// NewMemoryDocumentStore creates an empty in-memory document store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{byIdx: make(map[uint64]*interfaces.DocumentRecord)}
}

// Create persists a new record.
func (s *MemoryDocumentStore) Create(ctx context.Context, rec *interfaces.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec.ID = s.nextID
	rec.CreatedAt = time.Now().UTC()

	stored := *rec
	s.byIdx[rec.LedgerIndex] = &stored
	return nil
}

// ByLedgerIndex finds the record mirroring the given ledger index.
func (s *MemoryDocumentStore) ByLedgerIndex(ctx context.Context, index uint64) (*interfaces.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byIdx[index]
	if !ok {
		return nil, interfaces.ErrRecordNotFound
	}

	out := *rec
	return &out, nil
}

// SetFlagged updates the flagged field of the record at the given index.
func (s *MemoryDocumentStore) SetFlagged(ctx context.Context, index uint64, flagged bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byIdx[index]
	if !ok {
		return false, nil
	}
	rec.Flagged = flagged
	return true, nil
}

// ListForCustodian returns the identity's uploads and received documents.
func (s *MemoryDocumentStore) ListForCustodian(ctx context.Context, custodian uuid.UUID) ([]interfaces.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []interfaces.DocumentRecord
	for _, rec := range s.byIdx {
		if rec.Custodian == custodian {
			out = append(out, *rec)
		}
	}
	sortByIndex(out)
	return out, nil
}

// ListIssuedBy returns the documents an authority has issued.
func (s *MemoryDocumentStore) ListIssuedBy(ctx context.Context, issuer uuid.UUID) ([]interfaces.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []interfaces.DocumentRecord
	for _, rec := range s.byIdx {
		if rec.Issuer != nil && *rec.Issuer == issuer {
			out = append(out, *rec)
		}
	}
	sortByIndex(out)
	return out, nil
}

func sortByIndex(recs []interfaces.DocumentRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].LedgerIndex < recs[j].LedgerIndex })
}

// MemoryAuditStore is an in-memory interfaces.AuditStore used in tests.
type MemoryAuditStore struct {
	mu            sync.RWMutex
	verifications []interfaces.VerificationAttempt
	flagActions   []interfaces.FlagAction
}

// NewMemoryAuditStore creates an empty in-memory audit store.
func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

// RecordVerification appends one verification attempt.
func (s *MemoryAuditStore) RecordVerification(ctx context.Context, attempt *interfaces.VerificationAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	attempt.CreatedAt = time.Now().UTC()
	s.verifications = append(s.verifications, *attempt)
	return nil
}

// RecordFlagAction appends one flag action.
func (s *MemoryAuditStore) RecordFlagAction(ctx context.Context, action *interfaces.FlagAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if action.ID == uuid.Nil {
		action.ID = uuid.New()
	}
	action.CreatedAt = time.Now().UTC()
	s.flagActions = append(s.flagActions, *action)
	return nil
}

// Verifications returns a copy of the recorded verification attempts.
func (s *MemoryAuditStore) Verifications() []interfaces.VerificationAttempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]interfaces.VerificationAttempt(nil), s.verifications...)
}

// FlagActions returns a copy of the recorded flag actions.
func (s *MemoryAuditStore) FlagActions() []interfaces.FlagAction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]interfaces.FlagAction(nil), s.flagActions...)
}

// MemoryIdentityDirectory is an in-memory interfaces.IdentityDirectory used
// in tests.
type MemoryIdentityDirectory struct {
	mu         sync.RWMutex
	byPublicID map[string]*interfaces.Identity
	byAddress  map[interfaces.Address]*interfaces.Identity
	keys       map[uuid.UUID]*interfaces.SigningKey
}

// NewMemoryIdentityDirectory creates an empty in-memory directory.
func NewMemoryIdentityDirectory() *MemoryIdentityDirectory {
	return &MemoryIdentityDirectory{
		byPublicID: make(map[string]*interfaces.Identity),
		byAddress:  make(map[interfaces.Address]*interfaces.Identity),
		keys:       make(map[uuid.UUID]*interfaces.SigningKey),
	}
}

// Add registers an identity and its signing credential.
func (d *MemoryIdentityDirectory) Add(ident *interfaces.Identity, key *interfaces.SigningKey) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored := *ident
	d.byPublicID[ident.PublicID] = &stored
	d.byAddress[ident.Address] = &stored
	if key != nil {
		d.keys[ident.ID] = key
	}
}

// ByPublicID resolves an identity by its public identifier.
func (d *MemoryIdentityDirectory) ByPublicID(ctx context.Context, publicID string) (*interfaces.Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ident, ok := d.byPublicID[publicID]
	if !ok {
		return nil, interfaces.ErrIdentityNotFound
	}
	out := *ident
	return &out, nil
}

// ByAddress resolves an identity by its ledger address.
func (d *MemoryIdentityDirectory) ByAddress(ctx context.Context, addr interfaces.Address) (*interfaces.Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ident, ok := d.byAddress[addr]
	if !ok {
		return nil, interfaces.ErrIdentityNotFound
	}
	out := *ident
	return &out, nil
}

// SigningKeyFor loads the signing credential held for an identity.
func (d *MemoryIdentityDirectory) SigningKeyFor(ctx context.Context, id uuid.UUID) (*interfaces.SigningKey, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	key, ok := d.keys[id]
	if !ok {
		return nil, interfaces.ErrIdentityNotFound
	}
	return key, nil
}
