package contentstore

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/veridoc/document-registry-backend/interfaces"
)

// Factory creates content store backends from location URIs.
type Factory struct {
	log *slog.Logger
}

// NewFactory creates a new factory instance.
func NewFactory(log *slog.Logger) *Factory {
	return &Factory{log: log}
}

// StoreFor creates a content store from a location URI.
// The URI format is [scheme]://host[:port][/path][?params]
//
// Supported schemes:
//   - ipfs://host:port - IPFS node HTTP API
//   - s3://bucket/prefix?region=...&endpoint=...&access_key=...&secret_key=...
//   - file:///base/dir - Local filesystem storage
//
// Returns ErrInvalidLocationURI if the URI is malformed or the scheme is
// unsupported.
func (f *Factory) StoreFor(locationURI interfaces.ContentStoreLocation) (interfaces.ContentStore, error) {
	u, err := url.Parse(string(locationURI))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "ipfs":
		return f.createIPFSStore(u)
	case "s3":
		return f.createS3Store(u)
	case "file":
		return f.createFileStore(u)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// createIPFSStore creates an IPFS content store.
// URI format: ipfs://127.0.0.1:5001
func (f *Factory) createIPFSStore(u *url.URL) (interfaces.ContentStore, error) {
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: missing IPFS host", interfaces.ErrInvalidLocationURI)
	}

	port := u.Port()
	if port == "" {
		port = "5001"
	}

	return NewIPFSStore(host, port, f.log), nil
}

// createS3Store creates an S3 content store.
// URI format: s3://bucket/prefix?region=us-east-1&access_key=..&secret_key=..
func (f *Factory) createS3Store(u *url.URL) (interfaces.ContentStore, error) {
	bucket := u.Host
	if bucket == "" {
		return nil, fmt.Errorf("%w: missing S3 bucket", interfaces.ErrInvalidLocationURI)
	}

	params := u.Query()
	region := params.Get("region")
	if region == "" {
		region = "us-east-1"
	}

	return NewS3Store(
		bucket,
		strings.TrimPrefix(u.Path, "/"),
		region,
		params.Get("endpoint"),
		params.Get("access_key"),
		params.Get("secret_key"),
		f.log,
	)
}

// createFileStore creates a filesystem content store.
// URI format: file:///var/lib/documents
func (f *Factory) createFileStore(u *url.URL) (interfaces.ContentStore, error) {
	dir := u.Path
	if u.Host != "" {
		dir = u.Host + dir
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: missing file store directory", interfaces.ErrInvalidLocationURI)
	}

	return NewFileStore(dir, f.log)
}
