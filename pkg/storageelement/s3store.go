package storageelement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config configures the object-store backend used when the element's
// storage type is S3. Only the data bytes live in the bucket: the WAL,
// attr.json sidecars, and the local cache stay on the local filesystem,
// so reconciliation works identically for both storage types; WAL recovery
// on S3 uses the attr.json sidecar as its commit witness.
type S3Config struct {
	Bucket          string
	KeyPrefix       string
	Region          string
	Endpoint        string // non-empty for S3-compatible stores (MinIO, localstack)
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool

	// MaxRetries bounds retry attempts for transient errors; backoff is
	// exponential from InitialBackoff up to MaxBackoff.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (c *S3Config) applyDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 2 * time.Second
	}
}

// ObjectStore is the element's handle on its bucket. Keys mirror the
// hierarchical YYYY/MM/DD/HH layout local elements use under base_path,
// so an element can be rebuilt from a bucket listing the same way a
// local one can be rebuilt from its attr tree.
type ObjectStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string

	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewObjectStore builds the S3 client and verifies the bucket is
// reachable. The bucket must already exist.
func NewObjectStore(ctx context.Context, cfg S3Config) (*ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	cfg.applyDefaults()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	store := &ObjectStore{
		client:         client,
		bucket:         cfg.Bucket,
		keyPrefix:      strings.Trim(cfg.KeyPrefix, "/"),
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
	}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("bucket %q is not accessible: %w", cfg.Bucket, err)
	}
	return store, nil
}

func (s *ObjectStore) objectKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + "/" + key
}

// PutFile uploads the staged local file at path to key. Each retry
// attempt re-seeks the file so a partially consumed body is never
// resent mid-stream.
func (s *ObjectStore) PutFile(ctx context.Context, key, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open staged upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat staged upload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff(attempt - 1)):
			}
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("rewind staged upload: %w", err)
			}
		}

		_, lastErr = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(s.objectKey(key)),
			Body:          f,
			ContentLength: aws.Int64(info.Size()),
			ContentType:   aws.String(contentType),
		})
		if lastErr == nil {
			return nil
		}
		if !isRetryableObjectError(lastErr) {
			break
		}
	}
	return fmt.Errorf("put object %q: %w", key, lastErr)
}

// Get streams an object, optionally limited to a single inclusive byte
// range. The caller owns the returned reader.
func (s *ObjectStore) Get(ctx context.Context, key string, rng *byteRange) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	}
	if rng != nil {
		input.Range = aws.String(fmt.Sprintf("bytes=%d-%d", rng.start, rng.end))
	}

	var out *s3.GetObjectOutput
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.backoff(attempt - 1)):
			}
		}

		out, lastErr = s.client.GetObject(ctx, input)
		if lastErr == nil {
			return out.Body, nil
		}
		if isObjectNotFound(lastErr) {
			return nil, ErrFileNotFound
		}
		if !isRetryableObjectError(lastErr) {
			break
		}
	}
	return nil, fmt.Errorf("get object %q: %w", key, lastErr)
}

// Delete removes an object. Deleting a key that doesn't exist is not an
// error, matching os.Remove's treatment in the local rollback paths.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff(attempt - 1)):
			}
		}

		_, lastErr = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.objectKey(key)),
		})
		if lastErr == nil || isObjectNotFound(lastErr) {
			return nil
		}
		if !isRetryableObjectError(lastErr) {
			break
		}
	}
	return fmt.Errorf("delete object %q: %w", key, lastErr)
}

func (s *ObjectStore) backoff(attempt int) time.Duration {
	d := s.initialBackoff
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= s.maxBackoff {
			return s.maxBackoff
		}
	}
	return d
}

// isRetryableObjectError reports whether the error is transient enough
// to retry: network timeouts, throttling, and S3-side 5xx codes.
func isRetryableObjectError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "Throttling", "ThrottlingException", "RequestThrottled", "SlowDown":
			return true
		case "InternalError", "ServiceUnavailable":
			return true
		case "NoSuchKey", "NotFound", "AccessDenied", "Forbidden", "InvalidRange", "InvalidRequest":
			return false
		}
	}

	errStr := err.Error()
	return strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "i/o timeout")
}

// isObjectNotFound reports whether the error indicates the object
// doesn't exist.
func isObjectNotFound(err error) bool {
	if err == nil {
		return false
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}

// dataObjectKey maps a local anchor path under base_path to the
// element's object key for that file: the hierarchical relative path
// with forward slashes.
func (e *Element) dataObjectKey(dataPath string) string {
	rel, err := filepath.Rel(e.cfg.BasePath, dataPath)
	if err != nil {
		return filepath.ToSlash(dataPath)
	}
	return filepath.ToSlash(rel)
}

// Objects returns the element's object store, nil for local elements.
func (e *Element) Objects() *ObjectStore { return e.objects }
