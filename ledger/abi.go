package ledger

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// documentStorageABI is the ABI of the deployed DocumentStorage program. The
// wire format is fixed by the deployment; this client only encodes calls
// against it.
const documentStorageABI = `[
  {
    "type": "function",
    "name": "storeDocument",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "ipfsHash", "type": "string"},
      {"name": "receiver", "type": "address"},
      {"name": "title", "type": "string"}
    ],
    "outputs": []
  },
  {
    "type": "function",
    "name": "setFlag",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "index", "type": "uint256"},
      {"name": "actor", "type": "address"},
      {"name": "flag", "type": "bool"}
    ],
    "outputs": []
  },
  {
    "type": "function",
    "name": "verifyByIndex",
    "stateMutability": "view",
    "inputs": [{"name": "index", "type": "uint256"}],
    "outputs": [
      {"name": "exists", "type": "bool"},
      {"name": "ipfsHash", "type": "string"},
      {"name": "issuer", "type": "address"},
      {"name": "receiver", "type": "address"},
      {"name": "title", "type": "string"},
      {"name": "timestamp", "type": "uint256"},
      {"name": "flagged", "type": "bool"},
      {"name": "txHash", "type": "bytes32"}
    ]
  },
  {
    "type": "function",
    "name": "verifyByTxHash",
    "stateMutability": "view",
    "inputs": [{"name": "txHash", "type": "bytes32"}],
    "outputs": [
      {"name": "exists", "type": "bool"},
      {"name": "index", "type": "uint256"},
      {"name": "ipfsHash", "type": "string"},
      {"name": "issuer", "type": "address"},
      {"name": "receiver", "type": "address"},
      {"name": "title", "type": "string"},
      {"name": "timestamp", "type": "uint256"},
      {"name": "flagged", "type": "bool"}
    ]
  },
  {
    "type": "function",
    "name": "getDocumentCount",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "type": "event",
    "name": "DocumentStored",
    "anonymous": false,
    "inputs": [
      {"name": "id", "type": "uint256", "indexed": false},
      {"name": "ipfsHash", "type": "string", "indexed": false},
      {"name": "issuer", "type": "address", "indexed": true},
      {"name": "receiver", "type": "address", "indexed": true},
      {"name": "title", "type": "string", "indexed": false},
      {"name": "timestamp", "type": "uint256", "indexed": false},
      {"name": "txHash", "type": "bytes32", "indexed": false}
    ]
  }
]`

// documentStoredEventName is the receipt event a successful registration
// must carry.
const documentStoredEventName = "DocumentStored"

// documentStoredEvent mirrors the DocumentStored event arguments for
// UnpackLog.
type documentStoredEvent struct {
	Id        *big.Int
	IpfsHash  string
	Issuer    common.Address
	Receiver  common.Address
	Title     string
	Timestamp *big.Int
	TxHash    [32]byte
}

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(documentStorageABI))
	if err != nil {
		panic("ledger: invalid embedded ABI: " + err.Error())
	}
	return parsed
}
