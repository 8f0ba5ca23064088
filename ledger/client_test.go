package ledger

import (
	"context"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridoc/document-registry-backend/interfaces"
)

const testKeyHex = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

var testContractAddr = common.HexToAddress("0xa6f1e0ca00873bd219487F20E3F0edA24E82590D")

func testConfig() Config {
	return Config{
		ChainID:       big.NewInt(1337),
		GasLimit:      3_000_000,
		GasPriceGwei:  50,
		TxWaitTimeout: 5 * time.Second,
	}
}

// stubBackend implements bind.ContractBackend and bind.DeployBackend for
// tests. It hands out sequential pending nonces, records submitted
// transactions, and serves a canned receipt and call results.
type stubBackend struct {
	mu        sync.Mutex
	baseNonce uint64
	sent      []*types.Transaction

	receipt    *types.Receipt
	receiptErr error
	callResult []byte
	callErr    error
}

func (b *stubBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x01}, nil
}

func (b *stubBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return b.callResult, b.callErr
}

func (b *stubBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{}, nil
}

func (b *stubBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return []byte{0x01}, nil
}

func (b *stubBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.baseNonce + uint64(len(b.sent)), nil
}

func (b *stubBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *stubBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *stubBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (b *stubBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, tx)
	return nil
}

func (b *stubBackend) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (b *stubBackend) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, ethereum.NotFound
}

func (b *stubBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.receiptErr != nil {
		return nil, b.receiptErr
	}
	return b.receipt, nil
}

// storedEventLog packs a DocumentStored log the way the deployed program
// emits it.
func storedEventLog(t *testing.T, index uint64, contentID string, issuer, receiver common.Address, title string, contentHash [32]byte) *types.Log {
	t.Helper()

	parsed := mustParseABI()
	event := parsed.Events[documentStoredEventName]

	data, err := event.Inputs.NonIndexed().Pack(
		new(big.Int).SetUint64(index),
		contentID,
		title,
		big.NewInt(1700000000),
		contentHash,
	)
	require.NoError(t, err)

	return &types.Log{
		Address: testContractAddr,
		Topics: []common.Hash{
			event.ID,
			common.BytesToHash(common.LeftPadBytes(issuer.Bytes(), 32)),
			common.BytesToHash(common.LeftPadBytes(receiver.Bytes(), 32)),
		},
		Data: data,
	}
}

func newTestClient(t *testing.T, backend *stubBackend) *Client {
	t.Helper()
	client, err := NewClient(backend, backend, testContractAddr, testConfig(), slog.Default())
	require.NoError(t, err)
	return client
}

func TestSubmitRegistration(t *testing.T) {
	key, err := SigningKeyFromHex(testKeyHex)
	require.NoError(t, err)

	receiver := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	contentHash := [32]byte{0xde, 0xad, 0xbe, 0xef}

	backend := &stubBackend{baseNonce: 7}
	backend.receipt = &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		Logs: []*types.Log{
			storedEventLog(t, 3, "QmTestCID", common.Address(key.Address), receiver, "Diploma", contentHash),
		},
	}

	client := newTestClient(t, backend)

	reg, err := client.SubmitRegistration(context.Background(), key, interfaces.Address(receiver), "QmTestCID", "Diploma")
	require.NoError(t, err)

	assert.Equal(t, uint64(3), reg.Index)
	assert.Equal(t, interfaces.ContentHash(contentHash), reg.ContentHash)

	require.Len(t, backend.sent, 1)
	assert.Equal(t, uint64(7), backend.sent[0].Nonce())
	assert.Equal(t, interfaces.TxRef(backend.sent[0].Hash()), reg.TxRef)
}

func TestSubmitRegistrationReverted(t *testing.T) {
	key, err := SigningKeyFromHex(testKeyHex)
	require.NoError(t, err)

	backend := &stubBackend{}
	backend.receipt = &types.Receipt{Status: types.ReceiptStatusFailed}

	client := newTestClient(t, backend)

	_, err = client.SubmitRegistration(context.Background(), key, interfaces.Address{}, "QmTestCID", "Diploma")
	require.Error(t, err)

	var writeErr *interfaces.LedgerWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "storeDocument", writeErr.Op)
}

func TestSubmitRegistrationMissingEvent(t *testing.T) {
	key, err := SigningKeyFromHex(testKeyHex)
	require.NoError(t, err)

	backend := &stubBackend{}
	backend.receipt = &types.Receipt{Status: types.ReceiptStatusSuccessful}

	client := newTestClient(t, backend)

	_, err = client.SubmitRegistration(context.Background(), key, interfaces.Address{}, "QmTestCID", "Diploma")
	require.Error(t, err)

	var writeErr *interfaces.LedgerWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Contains(t, err.Error(), "DocumentStored")
}

func TestSubmitRegistrationTimeout(t *testing.T) {
	key, err := SigningKeyFromHex(testKeyHex)
	require.NoError(t, err)

	backend := &stubBackend{receiptErr: ethereum.NotFound}

	cfg := testConfig()
	cfg.TxWaitTimeout = 50 * time.Millisecond
	client, err := NewClient(backend, backend, testContractAddr, cfg, slog.Default())
	require.NoError(t, err)

	_, err = client.SubmitRegistration(context.Background(), key, interfaces.Address{}, "QmTestCID", "Diploma")
	require.Error(t, err)

	var timeoutErr *interfaces.LedgerTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.NotEqual(t, interfaces.TxRef{}, timeoutErr.TxRef, "timeout must carry the tx ref so callers can re-check")
}

func TestSubmitFlagSerializesNonces(t *testing.T) {
	key, err := SigningKeyFromHex(testKeyHex)
	require.NoError(t, err)

	backend := &stubBackend{baseNonce: 10}
	backend.receipt = &types.Receipt{Status: types.ReceiptStatusSuccessful}

	client := newTestClient(t, backend)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, client.SubmitFlag(context.Background(), key, 0, true))
		}()
	}
	wg.Wait()

	require.Len(t, backend.sent, 4)
	seen := make(map[uint64]bool)
	for _, tx := range backend.sent {
		seen[tx.Nonce()] = true
	}
	assert.Equal(t, map[uint64]bool{10: true, 11: true, 12: true, 13: true}, seen,
		"concurrent writes from one actor must consume distinct sequential nonces")
}

func TestVerifyByIndex(t *testing.T) {
	parsed := mustParseABI()
	issuer := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	receiver := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	contentHash := [32]byte{0x01, 0x02}

	out, err := parsed.Methods["verifyByIndex"].Outputs.Pack(
		true, "QmCID", issuer, receiver, "Diploma", big.NewInt(1700000000), false, contentHash,
	)
	require.NoError(t, err)

	backend := &stubBackend{callResult: out}
	client := newTestClient(t, backend)

	entry, err := client.VerifyByIndex(context.Background(), 5)
	require.NoError(t, err)

	assert.True(t, entry.Exists)
	assert.Equal(t, uint64(5), entry.Index)
	assert.Equal(t, "QmCID", entry.ContentID)
	assert.Equal(t, interfaces.Address(issuer), entry.Issuer)
	assert.Equal(t, interfaces.Address(receiver), entry.Receiver)
	assert.Equal(t, "Diploma", entry.Title)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), entry.Timestamp)
	assert.False(t, entry.Flagged)
	assert.Equal(t, interfaces.ContentHash(contentHash), entry.ContentHash)
}

func TestVerifyByIndexNotFound(t *testing.T) {
	parsed := mustParseABI()

	out, err := parsed.Methods["verifyByIndex"].Outputs.Pack(
		false, "", common.Address{}, common.Address{}, "", big.NewInt(0), false, [32]byte{},
	)
	require.NoError(t, err)

	backend := &stubBackend{callResult: out}
	client := newTestClient(t, backend)

	entry, err := client.VerifyByIndex(context.Background(), 999)
	require.NoError(t, err, "a missing entry is not an error")
	assert.False(t, entry.Exists)
}

func TestVerifyByTxRef(t *testing.T) {
	parsed := mustParseABI()
	issuer := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	receiver := common.HexToAddress("0x00000000000000000000000000000000000000cc")

	out, err := parsed.Methods["verifyByTxHash"].Outputs.Pack(
		true, big.NewInt(5), "QmCID", issuer, receiver, "Diploma", big.NewInt(1700000000), true,
	)
	require.NoError(t, err)

	backend := &stubBackend{callResult: out}
	client := newTestClient(t, backend)

	ref := interfaces.ContentHash{0x01, 0x02}
	entry, err := client.VerifyByTxRef(context.Background(), ref)
	require.NoError(t, err)

	assert.True(t, entry.Exists)
	assert.Equal(t, uint64(5), entry.Index)
	assert.True(t, entry.Flagged)
	assert.Equal(t, ref, entry.ContentHash)
}

func TestVerifyByIndexTransportError(t *testing.T) {
	backend := &stubBackend{callErr: ethereum.NotFound}
	client := newTestClient(t, backend)

	_, err := client.VerifyByIndex(context.Background(), 1)
	require.Error(t, err, "transport failures must surface as errors, not as not-found")
}

func TestDocumentCount(t *testing.T) {
	parsed := mustParseABI()
	out, err := parsed.Methods["getDocumentCount"].Outputs.Pack(big.NewInt(12))
	require.NoError(t, err)

	backend := &stubBackend{callResult: out}
	client := newTestClient(t, backend)

	count, err := client.DocumentCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(12), count)
}
