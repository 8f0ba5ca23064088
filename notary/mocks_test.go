package notary

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/veridoc/document-registry-backend/interfaces"
)

type mockDocs struct{ mock.Mock }

func (m *mockDocs) Create(ctx context.Context, rec *interfaces.DocumentRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockDocs) ByLedgerIndex(ctx context.Context, index uint64) (*interfaces.DocumentRecord, error) {
	args := m.Called(ctx, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.DocumentRecord), args.Error(1)
}

func (m *mockDocs) SetFlagged(ctx context.Context, index uint64, flagged bool) (bool, error) {
	args := m.Called(ctx, index, flagged)
	return args.Bool(0), args.Error(1)
}

func (m *mockDocs) ListForCustodian(ctx context.Context, custodian uuid.UUID) ([]interfaces.DocumentRecord, error) {
	args := m.Called(ctx, custodian)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.DocumentRecord), args.Error(1)
}

func (m *mockDocs) ListIssuedBy(ctx context.Context, issuer uuid.UUID) ([]interfaces.DocumentRecord, error) {
	args := m.Called(ctx, issuer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.DocumentRecord), args.Error(1)
}

type mockAudit struct{ mock.Mock }

func (m *mockAudit) RecordVerification(ctx context.Context, attempt *interfaces.VerificationAttempt) error {
	return m.Called(ctx, attempt).Error(0)
}

func (m *mockAudit) RecordFlagAction(ctx context.Context, action *interfaces.FlagAction) error {
	return m.Called(ctx, action).Error(0)
}

type mockDir struct{ mock.Mock }

func (m *mockDir) ByPublicID(ctx context.Context, publicID string) (*interfaces.Identity, error) {
	args := m.Called(ctx, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Identity), args.Error(1)
}

func (m *mockDir) ByAddress(ctx context.Context, addr interfaces.Address) (*interfaces.Identity, error) {
	args := m.Called(ctx, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Identity), args.Error(1)
}

func (m *mockDir) SigningKeyFor(ctx context.Context, id uuid.UUID) (*interfaces.SigningKey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.SigningKey), args.Error(1)
}
