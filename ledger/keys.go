package ledger

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/veridoc/document-registry-backend/interfaces"
)

// SigningKeyFromHex parses a hex-encoded secp256k1 private key into a
// signing credential, deriving the actor's ledger address from it.
func SigningKeyFromHex(hexKey string) (*interfaces.SigningKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}

	return &interfaces.SigningKey{
		Key:     key,
		Address: interfaces.Address(crypto.PubkeyToAddress(key.PublicKey)),
	}, nil
}
