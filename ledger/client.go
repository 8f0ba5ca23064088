// Package ledger provides the client for the deployed DocumentStorage
// program: registration and flag writes that block until finalization, and
// verification reads by index or by transaction reference.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"

	"github.com/veridoc/document-registry-backend/interfaces"
	"github.com/veridoc/document-registry-backend/metrics"
)

// ErrNoSigningKey is returned when a write is attempted without a credential.
var ErrNoSigningKey = errors.New("no signing key provided for ledger write")

// Config carries the chain parameters for the deployed program.
type Config struct {
	// ChainID of the target chain.
	ChainID *big.Int

	// GasLimit for writes. The deployment targets a fixed limit rather than
	// estimation.
	GasLimit uint64

	// GasPriceGwei is the legacy gas price in gwei.
	GasPriceGwei int64

	// TxWaitTimeout bounds the finalization wait for a submitted write.
	TxWaitTimeout time.Duration
}

// Client implements interfaces.LedgerClient against a DocumentStorage
// contract. Writes from the same actor are serialized across the
// nonce-fetch and submit span so that concurrent requests cannot race for
// the same nonce.
type Client struct {
	contract *bind.BoundContract
	abi      abi.ABI
	backend  bind.DeployBackend
	caller   bind.ContractBackend
	address  common.Address
	cfg      Config
	log      *slog.Logger

	mu         sync.Mutex
	actorLocks map[common.Address]*sync.Mutex
}

// NewClient creates a client for the DocumentStorage contract at the given
// address. caller serves reads and transaction submission, backend serves
// receipt lookups during the finalization wait.
func NewClient(caller bind.ContractBackend, backend bind.DeployBackend, address common.Address, cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.ChainID == nil {
		return nil, errors.New("ledger: chain id is required")
	}

	parsed := mustParseABI()
	return &Client{
		contract:   bind.NewBoundContract(address, parsed, caller, caller, caller),
		abi:        parsed,
		backend:    backend,
		caller:     caller,
		address:    address,
		cfg:        cfg,
		log:        log,
		actorLocks: make(map[common.Address]*sync.Mutex),
	}, nil
}

// actorLock returns the mutex serializing writes for one actor address.
func (c *Client) actorLock(addr common.Address) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.actorLocks[addr]
	if !ok {
		lock = &sync.Mutex{}
		c.actorLocks[addr] = lock
	}
	return lock
}

// transactOpts builds the signed transaction options for one write.
func (c *Client) transactOpts(ctx context.Context, key *interfaces.SigningKey) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(key.Key, c.cfg.ChainID)
	if err != nil {
		return nil, err
	}

	auth.Context = ctx
	auth.GasLimit = c.cfg.GasLimit
	auth.GasPrice = new(big.Int).Mul(big.NewInt(c.cfg.GasPriceGwei), big.NewInt(params.GWei))
	return auth, nil
}

// submit runs one serialized write: nonce fetch and transaction submission
// happen under the actor's lock, the finalization wait does not.
func (c *Client) submit(ctx context.Context, key *interfaces.SigningKey, method string, args ...interface{}) (*types.Receipt, interfaces.TxRef, error) {
	if key == nil || key.Key == nil {
		return nil, interfaces.TxRef{}, ErrNoSigningKey
	}

	auth, err := c.transactOpts(ctx, key)
	if err != nil {
		return nil, interfaces.TxRef{}, &interfaces.LedgerWriteError{Op: method, Err: err}
	}

	from := common.Address(key.Address)

	tx, err := func() (*types.Transaction, error) {
		lock := c.actorLock(from)
		lock.Lock()
		defer lock.Unlock()

		nonce, err := c.caller.PendingNonceAt(ctx, from)
		if err != nil {
			return nil, fmt.Errorf("nonce lookup: %w", err)
		}
		auth.Nonce = new(big.Int).SetUint64(nonce)

		return c.contract.Transact(auth, method, args...)
	}()
	if err != nil {
		return nil, interfaces.TxRef{}, &interfaces.LedgerWriteError{Op: method, Err: err}
	}

	txRef := interfaces.TxRef(tx.Hash())
	c.log.Debug("Ledger write submitted",
		slog.String("method", method),
		slog.String("tx", txRef.String()),
		slog.String("from", from.Hex()))

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.TxWaitTimeout)
	defer cancel()

	waitStart := time.Now()
	receipt, err := bind.WaitMined(waitCtx, c.backend, tx)
	metrics.LedgerWaitSeconds.WithLabelValues(method).Observe(time.Since(waitStart).Seconds())
	if err != nil {
		// The transaction was accepted by the node; failing to observe the
		// receipt leaves the outcome unknown.
		return nil, txRef, &interfaces.LedgerTimeoutError{Op: method, TxRef: txRef, Err: err}
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, txRef, &interfaces.LedgerWriteError{Op: method, Err: fmt.Errorf("transaction %s reverted", txRef)}
	}

	return receipt, txRef, nil
}

// SubmitRegistration anchors contentID on the ledger and returns the
// identifiers from the DocumentStored receipt event.
func (c *Client) SubmitRegistration(ctx context.Context, key *interfaces.SigningKey, receiver interfaces.Address, contentID, title string) (*interfaces.Registration, error) {
	receipt, txRef, err := c.submit(ctx, key, "storeDocument", contentID, common.Address(receiver), title)
	if err != nil {
		return nil, err
	}

	event, err := c.documentStoredFromReceipt(receipt)
	if err != nil {
		return nil, &interfaces.LedgerWriteError{Op: "storeDocument", Err: err}
	}

	reg := &interfaces.Registration{
		TxRef:       txRef,
		Index:       event.Id.Uint64(),
		ContentHash: interfaces.ContentHash(event.TxHash),
	}

	c.log.Info("Document registered on ledger",
		slog.Uint64("index", reg.Index),
		slog.String("tx", reg.TxRef.String()),
		slog.String("contentHash", reg.ContentHash.String()))

	return reg, nil
}

// SubmitFlag sets or clears the flag on the entry at index. Authorization is
// enforced by the ledger program itself: the write reverts unless the actor
// is the entry's issuer or receiver.
func (c *Client) SubmitFlag(ctx context.Context, key *interfaces.SigningKey, index uint64, newState bool) error {
	_, txRef, err := c.submit(ctx, key, "setFlag", new(big.Int).SetUint64(index), common.Address(key.Address), newState)
	if err != nil {
		return err
	}

	c.log.Info("Document flag updated on ledger",
		slog.Uint64("index", index),
		slog.Bool("flagged", newState),
		slog.String("tx", txRef.String()))

	return nil
}

// documentStoredFromReceipt extracts the DocumentStored event from a
// finalized registration receipt.
func (c *Client) documentStoredFromReceipt(receipt *types.Receipt) (*documentStoredEvent, error) {
	eventID := c.abi.Events[documentStoredEventName].ID

	for _, vLog := range receipt.Logs {
		if vLog.Address != c.address || len(vLog.Topics) == 0 || vLog.Topics[0] != eventID {
			continue
		}

		var event documentStoredEvent
		if err := c.contract.UnpackLog(&event, documentStoredEventName, *vLog); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", documentStoredEventName, err)
		}
		return &event, nil
	}

	return nil, fmt.Errorf("%s event not found in receipt", documentStoredEventName)
}

// VerifyByIndex reads the entry at the given ledger index. Exists=false
// reports a missing entry; an error means the read itself failed.
func (c *Client) VerifyByIndex(ctx context.Context, index uint64) (*interfaces.LedgerEntry, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}

	if err := c.contract.Call(opts, &out, "verifyByIndex", new(big.Int).SetUint64(index)); err != nil {
		return nil, fmt.Errorf("verifyByIndex call: %w", err)
	}
	if len(out) != 8 {
		return nil, fmt.Errorf("verifyByIndex: unexpected result arity %d", len(out))
	}

	exists := out[0].(bool)
	if !exists {
		return &interfaces.LedgerEntry{}, nil
	}

	return &interfaces.LedgerEntry{
		Exists:      true,
		Index:       index,
		ContentID:   out[1].(string),
		Issuer:      interfaces.Address(out[2].(common.Address)),
		Receiver:    interfaces.Address(out[3].(common.Address)),
		Title:       out[4].(string),
		Timestamp:   time.Unix(int64(out[5].(*big.Int).Uint64()), 0).UTC(),
		Flagged:     out[6].(bool),
		ContentHash: interfaces.ContentHash(out[7].([32]byte)),
	}, nil
}

// VerifyByTxRef reads the entry committed under the given ledger-internal
// content hash. Same result semantics as VerifyByIndex.
func (c *Client) VerifyByTxRef(ctx context.Context, ref interfaces.ContentHash) (*interfaces.LedgerEntry, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}

	if err := c.contract.Call(opts, &out, "verifyByTxHash", [32]byte(ref)); err != nil {
		return nil, fmt.Errorf("verifyByTxHash call: %w", err)
	}
	if len(out) != 8 {
		return nil, fmt.Errorf("verifyByTxHash: unexpected result arity %d", len(out))
	}

	exists := out[0].(bool)
	if !exists {
		return &interfaces.LedgerEntry{}, nil
	}

	return &interfaces.LedgerEntry{
		Exists:      true,
		Index:       out[1].(*big.Int).Uint64(),
		ContentID:   out[2].(string),
		Issuer:      interfaces.Address(out[3].(common.Address)),
		Receiver:    interfaces.Address(out[4].(common.Address)),
		Title:       out[5].(string),
		Timestamp:   time.Unix(int64(out[6].(*big.Int).Uint64()), 0).UTC(),
		Flagged:     out[7].(bool),
		ContentHash: ref,
	}, nil
}

// DocumentCount returns the number of registered entries.
func (c *Client) DocumentCount(ctx context.Context) (uint64, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}

	if err := c.contract.Call(opts, &out, "getDocumentCount"); err != nil {
		return 0, fmt.Errorf("getDocumentCount call: %w", err)
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("getDocumentCount: unexpected result arity %d", len(out))
	}

	return out[0].(*big.Int).Uint64(), nil
}
