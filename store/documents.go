package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/veridoc/document-registry-backend/interfaces"
)

// DocumentRepo implements interfaces.DocumentStore using PostgreSQL.
// Self-uploaded and authority-issued records live in separate tables with
// the same ledger columns; the ledger's single index space keeps
// ledger_index unique across both.
type DocumentRepo struct{ db *DB }

// NewDocumentRepo constructs a document repository.
func NewDocumentRepo(db *DB) *DocumentRepo { return &DocumentRepo{db: db} }

const insertUserDocument = `
INSERT INTO user_documents (owner_id, title, content_id, ledger_tx_ref, ledger_index, ledger_content_hash, flagged)
VALUES ($1,$2,$3,$4,$5,$6,false)
RETURNING id, uploaded_at`

const insertAuthorityDocument = `
INSERT INTO authority_documents (issuer_id, receiver_id, title, content_id, ledger_tx_ref, ledger_index, ledger_content_hash, flagged)
VALUES ($1,$2,$3,$4,$5,$6,$7,false)
RETURNING id, issued_at`

// Create persists a new record and fills in its ID and CreatedAt. Records
// are only created after a finalized ledger write, so every ledger column
// is populated.
func (r *DocumentRepo) Create(ctx context.Context, rec *interfaces.DocumentRecord) error {
	var (
		row pgx.Row
		err error
	)

	switch rec.Variant {
	case interfaces.VariantSelfUploaded:
		row = r.db.Pool.QueryRow(ctx, insertUserDocument,
			rec.Custodian, rec.Title, rec.ContentID,
			rec.TxRef[:], int64(rec.LedgerIndex), rec.ContentHash[:])
	case interfaces.VariantAuthorityIssued:
		if rec.Issuer == nil {
			return errors.New("authority-issued record requires an issuer")
		}
		row = r.db.Pool.QueryRow(ctx, insertAuthorityDocument,
			*rec.Issuer, rec.Custodian, rec.Title, rec.ContentID,
			rec.TxRef[:], int64(rec.LedgerIndex), rec.ContentHash[:])
	default:
		return fmt.Errorf("unknown document variant %q", rec.Variant)
	}

	if err = row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return err
	}
	return nil
}

const selectUserDocumentByIndex = `
SELECT id, owner_id, title, content_id, ledger_tx_ref, ledger_index, ledger_content_hash, flagged, uploaded_at
FROM user_documents WHERE ledger_index=$1`

const selectAuthorityDocumentByIndex = `
SELECT id, issuer_id, receiver_id, title, content_id, ledger_tx_ref, ledger_index, ledger_content_hash, flagged, issued_at
FROM authority_documents WHERE ledger_index=$1`

// ByLedgerIndex finds the local mirror of the given ledger index, searching
// self-uploaded documents first, then authority-issued ones.
func (r *DocumentRepo) ByLedgerIndex(ctx context.Context, index uint64) (*interfaces.DocumentRecord, error) {
	rec, err := r.scanUserDocument(r.db.Pool.QueryRow(ctx, selectUserDocumentByIndex, int64(index)))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	rec, err = r.scanAuthorityDocument(r.db.Pool.QueryRow(ctx, selectAuthorityDocumentByIndex, int64(index)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, interfaces.ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

// SetFlagged updates the flagged field of the record mirroring the given
// ledger index. The bool reports whether any record matched.
func (r *DocumentRepo) SetFlagged(ctx context.Context, index uint64, flagged bool) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE user_documents SET flagged=$2 WHERE ledger_index=$1`, int64(index), flagged)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	tag, err = r.db.Pool.Exec(ctx,
		`UPDATE authority_documents SET flagged=$2 WHERE ledger_index=$1`, int64(index), flagged)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const selectUserDocumentsByOwner = `
SELECT id, owner_id, title, content_id, ledger_tx_ref, ledger_index, ledger_content_hash, flagged, uploaded_at
FROM user_documents WHERE owner_id=$1 ORDER BY ledger_index`

const selectAuthorityDocumentsByReceiver = `
SELECT id, issuer_id, receiver_id, title, content_id, ledger_tx_ref, ledger_index, ledger_content_hash, flagged, issued_at
FROM authority_documents WHERE receiver_id=$1 ORDER BY ledger_index`

const selectAuthorityDocumentsByIssuer = `
SELECT id, issuer_id, receiver_id, title, content_id, ledger_tx_ref, ledger_index, ledger_content_hash, flagged, issued_at
FROM authority_documents WHERE issuer_id=$1 ORDER BY ledger_index`

// ListForCustodian returns the identity's own uploads followed by the
// authority-issued documents it received.
func (r *DocumentRepo) ListForCustodian(ctx context.Context, custodian uuid.UUID) ([]interfaces.DocumentRecord, error) {
	var out []interfaces.DocumentRecord

	rows, err := r.db.Pool.Query(ctx, selectUserDocumentsByOwner, custodian)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		rec, err := r.scanUserDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.Pool.Query(ctx, selectAuthorityDocumentsByReceiver, custodian)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		rec, err := r.scanAuthorityDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// ListIssuedBy returns the documents an authority has issued.
func (r *DocumentRepo) ListIssuedBy(ctx context.Context, issuer uuid.UUID) ([]interfaces.DocumentRecord, error) {
	rows, err := r.db.Pool.Query(ctx, selectAuthorityDocumentsByIssuer, issuer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []interfaces.DocumentRecord
	for rows.Next() {
		rec, err := r.scanAuthorityDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *DocumentRepo) scanUserDocument(row pgx.Row) (*interfaces.DocumentRecord, error) {
	var (
		rec         interfaces.DocumentRecord
		txRef       []byte
		contentHash []byte
		index       int64
		createdAt   time.Time
	)
	if err := row.Scan(&rec.ID, &rec.Custodian, &rec.Title, &rec.ContentID,
		&txRef, &index, &contentHash, &rec.Flagged, &createdAt); err != nil {
		return nil, err
	}

	rec.Variant = interfaces.VariantSelfUploaded
	rec.LedgerIndex = uint64(index)
	rec.CreatedAt = createdAt
	copy(rec.TxRef[:], txRef)
	copy(rec.ContentHash[:], contentHash)
	return &rec, nil
}

func (r *DocumentRepo) scanAuthorityDocument(row pgx.Row) (*interfaces.DocumentRecord, error) {
	var (
		rec         interfaces.DocumentRecord
		issuer      uuid.UUID
		txRef       []byte
		contentHash []byte
		index       int64
		createdAt   time.Time
	)
	if err := row.Scan(&rec.ID, &issuer, &rec.Custodian, &rec.Title, &rec.ContentID,
		&txRef, &index, &contentHash, &rec.Flagged, &createdAt); err != nil {
		return nil, err
	}

	rec.Variant = interfaces.VariantAuthorityIssued
	rec.Issuer = &issuer
	rec.LedgerIndex = uint64(index)
	rec.CreatedAt = createdAt
	copy(rec.TxRef[:], txRef)
	copy(rec.ContentHash[:], contentHash)
	return &rec, nil
}
