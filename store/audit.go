package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/veridoc/document-registry-backend/interfaces"
)

// AuditRepo implements interfaces.AuditStore using PostgreSQL. Both tables
// are append-only: rows are never updated or deleted.
type AuditRepo struct{ db *DB }

// NewAuditRepo constructs an audit repository.
func NewAuditRepo(db *DB) *AuditRepo { return &AuditRepo{db: db} }

const insertVerificationAttempt = `
INSERT INTO verification_attempts (id, verifier_id, subject_id, document_index, tx_ref, outcome, payload)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING created_at`

// RecordVerification appends one verification attempt row.
func (r *AuditRepo) RecordVerification(ctx context.Context, attempt *interfaces.VerificationAttempt) error {
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}

	if attempt.Payload == nil {
		attempt.Payload = map[string]any{}
	}
	payload, err := json.Marshal(attempt.Payload)
	if err != nil {
		return err
	}

	var index *int64
	if attempt.Index != nil {
		v := int64(*attempt.Index)
		index = &v
	}

	var txRef []byte
	if attempt.TxRef != nil {
		txRef = attempt.TxRef[:]
	}

	var createdAt time.Time
	err = r.db.Pool.QueryRow(ctx, insertVerificationAttempt,
		attempt.ID, attempt.Verifier, attempt.Subject, index, txRef,
		string(attempt.Outcome), payload).Scan(&createdAt)
	if err != nil {
		return err
	}

	attempt.CreatedAt = createdAt
	return nil
}

const insertFlagAction = `
INSERT INTO flag_actions (id, document_index, actor_id, new_state)
VALUES ($1,$2,$3,$4)
RETURNING created_at`

// RecordFlagAction appends one flag action row.
func (r *AuditRepo) RecordFlagAction(ctx context.Context, action *interfaces.FlagAction) error {
	if action.ID == uuid.Nil {
		action.ID = uuid.New()
	}

	var createdAt time.Time
	err := r.db.Pool.QueryRow(ctx, insertFlagAction,
		action.ID, int64(action.Index), action.Actor, action.NewState).Scan(&createdAt)
	if err != nil {
		return err
	}

	action.CreatedAt = createdAt
	return nil
}
