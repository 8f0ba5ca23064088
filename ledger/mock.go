package ledger

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/veridoc/document-registry-backend/interfaces"
)

// MockLedger mocks the interfaces.LedgerClient interface.
type MockLedger struct {
	mock.Mock
}

// SubmitRegistration mocks the SubmitRegistration method.
func (m *MockLedger) SubmitRegistration(ctx context.Context, key *interfaces.SigningKey, receiver interfaces.Address, contentID, title string) (*interfaces.Registration, error) {
	args := m.Called(ctx, key, receiver, contentID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Registration), args.Error(1)
}

// SubmitFlag mocks the SubmitFlag method.
func (m *MockLedger) SubmitFlag(ctx context.Context, key *interfaces.SigningKey, index uint64, newState bool) error {
	args := m.Called(ctx, key, index, newState)
	return args.Error(0)
}

// VerifyByIndex mocks the VerifyByIndex method.
func (m *MockLedger) VerifyByIndex(ctx context.Context, index uint64) (*interfaces.LedgerEntry, error) {
	args := m.Called(ctx, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.LedgerEntry), args.Error(1)
}

// VerifyByTxRef mocks the VerifyByTxRef method.
func (m *MockLedger) VerifyByTxRef(ctx context.Context, ref interfaces.ContentHash) (*interfaces.LedgerEntry, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.LedgerEntry), args.Error(1)
}

// DocumentCount mocks the DocumentCount method.
func (m *MockLedger) DocumentCount(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}
