package contentstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/veridoc/document-registry-backend/interfaces"
)

// S3Store stores document blobs in an S3 bucket. The content identifier is
// the hex SHA-256 of the data, which doubles as the object key.
type S3Store struct {
	client     *s3.S3
	bucketName string
	prefix     string
	log        *slog.Logger
}

// NewS3Store creates a content store writing to the given bucket and prefix.
// An empty endpoint targets AWS; set it for S3-compatible object stores.
func NewS3Store(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Store, error) {
	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	} else {
		log.Warn("No S3 credentials provided - uploads will fail unless the bucket is public writable")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{
		client:     s3.New(sess),
		bucketName: bucketName,
		prefix:     strings.TrimSuffix(prefix, "/"),
		log:        log,
	}, nil
}

// Put uploads data to S3 under its SHA-256 digest and returns the digest as
// the content identifier.
func (s *S3Store) Put(ctx context.Context, name string, data []byte) (string, error) {
	digest := fmt.Sprintf("%x", sha256.Sum256(data))
	key := path.Join(s.prefix, digest)

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		s.log.Error("Failed to put object to S3",
			slog.String("bucket", s.bucketName),
			slog.String("key", key),
			"err", err)
		return "", &interfaces.ContentStoreError{Backend: s.Name(), Err: err}
	}

	s.log.Debug("Stored content in S3",
		slog.String("bucket", s.bucketName),
		slog.String("key", key),
		slog.String("name", name),
		slog.Int("size", len(data)))

	return digest, nil
}

// Available checks whether the bucket is reachable.
func (s *S3Store) Available(ctx context.Context) bool {
	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	return err == nil
}

// Name returns a unique identifier for this backend.
func (s *S3Store) Name() string {
	return fmt.Sprintf("s3-%s-%s", s.bucketName, s.prefix)
}
