// Package contentstore provides the content store backends documents are
// uploaded to before their hash is anchored on the ledger. IPFS is the
// primary backend; S3 and the local file system are available for
// deployments without an IPFS node.
package contentstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/veridoc/document-registry-backend/interfaces"
)

// IPFSStore stores document blobs on an IPFS node and returns the CID
// assigned by the node as the content identifier.
type IPFSStore struct {
	shell *shell.Shell
	host  string
	port  string
	log   *slog.Logger
}

// NewIPFSStore creates a content store backed by the IPFS node at host:port.
func NewIPFSStore(host, port string, log *slog.Logger) *IPFSStore {
	apiURL := fmt.Sprintf("%s:%s", host, port)

	return &IPFSStore{
		shell: shell.NewShell(apiURL),
		host:  host,
		port:  port,
		log:   log,
	}
}

// Put adds data to IPFS and returns its CID.
// Returns a *ContentStoreError wrapping ErrBackendUnavailable if the node is
// not accessible.
func (s *IPFSStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	start := time.Now()

	if !s.shell.IsUp() {
		s.log.Warn("IPFS node unavailable",
			slog.String("host", s.host),
			slog.String("port", s.port))
		return "", &interfaces.ContentStoreError{Backend: s.Name(), Err: interfaces.ErrBackendUnavailable}
	}

	cid, err := s.shell.Add(bytes.NewReader(data))
	if err != nil {
		s.log.Error("Failed to add data to IPFS",
			slog.String("name", name),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return "", &interfaces.ContentStoreError{Backend: s.Name(), Err: err}
	}

	s.log.Debug("Stored content in IPFS",
		slog.String("cid", cid),
		slog.String("name", name),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return cid, nil
}

// Available checks if the IPFS node is accessible.
func (s *IPFSStore) Available(ctx context.Context) bool {
	return s.shell.IsUp()
}

// Name returns a unique identifier for this backend.
func (s *IPFSStore) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", s.host, s.port)
}
