package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/veridoc/document-registry-backend/interfaces"
	"github.com/veridoc/document-registry-backend/ledger"
)

// IdentityRepo implements interfaces.IdentityDirectory against the
// identities table owned by the external user system. This repository only
// reads it.
type IdentityRepo struct{ db *DB }

// NewIdentityRepo constructs an identity directory.
func NewIdentityRepo(db *DB) *IdentityRepo { return &IdentityRepo{db: db} }

const selectIdentity = `
SELECT id, public_id, display_name, chain_address, role, verified_authority
FROM identities WHERE `

// ByPublicID resolves an identity by its public identifier.
func (r *IdentityRepo) ByPublicID(ctx context.Context, publicID string) (*interfaces.Identity, error) {
	return r.scanIdentity(r.db.Pool.QueryRow(ctx, selectIdentity+`public_id=$1`, publicID))
}

// ByAddress resolves an identity by its ledger address.
func (r *IdentityRepo) ByAddress(ctx context.Context, addr interfaces.Address) (*interfaces.Identity, error) {
	return r.scanIdentity(r.db.Pool.QueryRow(ctx, selectIdentity+`chain_address=$1`, addr.Bytes()))
}

// SigningKeyFor loads the signing credential held for an identity.
func (r *IdentityRepo) SigningKeyFor(ctx context.Context, id uuid.UUID) (*interfaces.SigningKey, error) {
	var keyHex string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT signing_key FROM identities WHERE id=$1`, id).Scan(&keyHex)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, interfaces.ErrIdentityNotFound
		}
		return nil, err
	}

	return ledger.SigningKeyFromHex(keyHex)
}

func (r *IdentityRepo) scanIdentity(row pgx.Row) (*interfaces.Identity, error) {
	var (
		ident interfaces.Identity
		addr  []byte
		role  string
	)
	err := row.Scan(&ident.ID, &ident.PublicID, &ident.DisplayName, &addr, &role, &ident.VerifiedAuthority)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, interfaces.ErrIdentityNotFound
		}
		return nil, err
	}

	ident.Role = interfaces.Role(role)
	parsed, err := interfaces.NewAddressFromBytes(addr)
	if err != nil {
		return nil, err
	}
	ident.Address = parsed
	return &ident, nil
}
