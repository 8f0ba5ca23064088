package notary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/veridoc/document-registry-backend/interfaces"
	"github.com/veridoc/document-registry-backend/ledger"
)

func TestSetFlag(t *testing.T) {
	actor := testUser()
	key := testSigningKey(actor.Address)

	chain := new(ledger.MockLedger)
	docs := new(mockDocs)
	audit := new(mockAudit)
	dir := new(mockDir)

	dir.On("SigningKeyFor", mock.Anything, actor.ID).Return(key, nil)
	chain.On("SubmitFlag", mock.Anything, key, uint64(4), true).Return(nil)

	var recorded *interfaces.FlagAction
	audit.On("RecordFlagAction", mock.Anything, mock.AnythingOfType("*interfaces.FlagAction")).
		Run(func(args mock.Arguments) {
			recorded = args.Get(1).(*interfaces.FlagAction)
		}).Return(nil)
	docs.On("SetFlagged", mock.Anything, uint64(4), true).Return(true, nil)

	svc := NewFlagService(chain, docs, audit, dir, discardLogger())
	result, err := svc.SetFlag(context.Background(), actor, 4, true)
	require.NoError(t, err)
	assert.False(t, result.Orphaned)
	assert.Equal(t, uint64(4), result.Index)
	assert.True(t, result.NewState)

	require.NotNil(t, recorded)
	assert.Equal(t, actor.ID, recorded.Actor)
	assert.Equal(t, uint64(4), recorded.Index)
	assert.True(t, recorded.NewState)
}

func TestSetFlagOrphaned(t *testing.T) {
	actor := testUser()
	key := testSigningKey(actor.Address)

	chain := new(ledger.MockLedger)
	docs := new(mockDocs)
	audit := new(mockAudit)
	dir := new(mockDir)

	dir.On("SigningKeyFor", mock.Anything, actor.ID).Return(key, nil)
	chain.On("SubmitFlag", mock.Anything, key, uint64(0), true).Return(nil)
	audit.On("RecordFlagAction", mock.Anything, mock.AnythingOfType("*interfaces.FlagAction")).Return(nil)
	docs.On("SetFlagged", mock.Anything, uint64(0), true).Return(false, nil)

	svc := NewFlagService(chain, docs, audit, dir, discardLogger())
	result, err := svc.SetFlag(context.Background(), actor, 0, true)
	require.NoError(t, err)
	assert.True(t, result.Orphaned)
	audit.AssertNumberOfCalls(t, "RecordFlagAction", 1)
}

func TestSetFlagLedgerFailureRecordsNothing(t *testing.T) {
	actor := testUser()
	key := testSigningKey(actor.Address)

	chain := new(ledger.MockLedger)
	docs := new(mockDocs)
	audit := new(mockAudit)
	dir := new(mockDir)

	dir.On("SigningKeyFor", mock.Anything, actor.ID).Return(key, nil)
	chain.On("SubmitFlag", mock.Anything, key, uint64(4), false).
		Return(&interfaces.LedgerWriteError{Op: "setFlag", Err: errors.New("transaction reverted")})

	svc := NewFlagService(chain, docs, audit, dir, discardLogger())
	_, err := svc.SetFlag(context.Background(), actor, 4, false)

	var writeErr *interfaces.LedgerWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "setFlag", writeErr.Op)

	audit.AssertNotCalled(t, "RecordFlagAction", mock.Anything, mock.Anything)
	docs.AssertNotCalled(t, "SetFlagged", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetFlagUnflag(t *testing.T) {
	actor := testUser()
	key := testSigningKey(actor.Address)

	chain := new(ledger.MockLedger)
	docs := new(mockDocs)
	audit := new(mockAudit)
	dir := new(mockDir)

	dir.On("SigningKeyFor", mock.Anything, actor.ID).Return(key, nil)
	chain.On("SubmitFlag", mock.Anything, key, uint64(4), false).Return(nil)
	audit.On("RecordFlagAction", mock.Anything, mock.AnythingOfType("*interfaces.FlagAction")).Return(nil)
	docs.On("SetFlagged", mock.Anything, uint64(4), false).Return(true, nil)

	svc := NewFlagService(chain, docs, audit, dir, discardLogger())
	result, err := svc.SetFlag(context.Background(), actor, 4, false)
	require.NoError(t, err)
	assert.False(t, result.NewState)
	assert.False(t, result.Orphaned)
}

func TestSetFlagAuditFailureSurfaces(t *testing.T) {
	actor := testUser()
	key := testSigningKey(actor.Address)

	chain := new(ledger.MockLedger)
	docs := new(mockDocs)
	audit := new(mockAudit)
	dir := new(mockDir)

	dir.On("SigningKeyFor", mock.Anything, actor.ID).Return(key, nil)
	chain.On("SubmitFlag", mock.Anything, key, uint64(4), true).Return(nil)
	audit.On("RecordFlagAction", mock.Anything, mock.Anything).Return(errors.New("db down"))

	svc := NewFlagService(chain, docs, audit, dir, discardLogger())
	_, err := svc.SetFlag(context.Background(), actor, 4, true)
	require.Error(t, err)

	docs.AssertNotCalled(t, "SetFlagged", mock.Anything, mock.Anything, mock.Anything)
}
