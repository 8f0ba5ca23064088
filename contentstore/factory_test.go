package contentstore

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridoc/document-registry-backend/interfaces"
)

func TestFactorySchemes(t *testing.T) {
	factory := NewFactory(slog.Default())

	tests := []struct {
		name     string
		uri      string
		wantName string
		wantErr  bool
	}{
		{name: "ipfs", uri: "ipfs://127.0.0.1:5001", wantName: "ipfs-127.0.0.1-5001"},
		{name: "ipfs default port", uri: "ipfs://127.0.0.1", wantName: "ipfs-127.0.0.1-5001"},
		{name: "s3", uri: "s3://docs-bucket/uploads?region=eu-west-1", wantName: "s3-docs-bucket-uploads"},
		{name: "file", uri: "file://" + t.TempDir(), wantName: ""},
		{name: "unsupported scheme", uri: "ftp://host/path", wantErr: true},
		{name: "missing ipfs host", uri: "ipfs://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := factory.StoreFor(interfaces.ContentStoreLocation(tt.uri))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
				return
			}

			require.NoError(t, err)
			if tt.wantName != "" {
				assert.Equal(t, tt.wantName, store.Name())
			}
		})
	}
}

func TestFileStorePut(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, slog.Default())
	require.NoError(t, err)

	data := []byte("hello")
	cid, err := store.Put(context.Background(), "greeting.txt", data)
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256(data)), cid,
		"file store ids are the content digest")
	assert.True(t, store.Available(context.Background()))
}

func TestIPFSStoreUnavailable(t *testing.T) {
	// Port 1 is never an IPFS API.
	store := NewIPFSStore("127.0.0.1", "1", slog.Default())

	_, err := store.Put(context.Background(), "doc", []byte("data"))
	require.Error(t, err)

	var csErr *interfaces.ContentStoreError
	require.ErrorAs(t, err, &csErr)
	assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
}
