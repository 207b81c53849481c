package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/wtreehq/merkletree/pkg/apperr"
)

var bucketNamePattern = regexp.MustCompile(`^[0-9a-z][0-9a-z-]{1,61}[0-9a-z]$`)

var bucketNameBadPrefixes = []string{"xn--", "sthree-", "sthree-configurator", "amzn-s3-demo-"}
var bucketNameBadSuffixes = []string{"-s3alias", "--ol-s3", ".mrap", "--x-s3"}

var keyPattern = regexp.MustCompile(`^[0-9A-Za-z!\-_.'()]+$`)

// ValidateBucketName applies the length, shape, and reserved
// prefix/suffix rules an S3 bucket name must satisfy.
func ValidateBucketName(name string) error {
	if len(name) < 3 || len(name) > 63 {
		return fmt.Errorf("bucket name %q must be 3-63 characters long", name)
	}
	if !bucketNamePattern.MatchString(name) {
		return fmt.Errorf("bucket name %q has an invalid shape", name)
	}
	for _, p := range bucketNameBadPrefixes {
		if strings.HasPrefix(name, p) {
			return fmt.Errorf("bucket name %q may not start with %q", name, p)
		}
	}
	for _, s := range bucketNameBadSuffixes {
		if strings.HasSuffix(name, s) {
			return fmt.Errorf("bucket name %q may not end with %q", name, s)
		}
	}
	return nil
}

// ValidateKey applies the length and character-class rules an S3
// object key must satisfy.
func ValidateKey(key string) error {
	if len(key) < 1 || len(key) > 1024 {
		return fmt.Errorf("key %q must be 1-1024 characters long", key)
	}
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("key %q contains characters outside the permitted set", key)
	}
	return nil
}

// deleteAbsencePollInterval and deleteAbsenceTimeout bound the
// post-delete wait-until-absent loop, matching the deletion contract.
const (
	deleteAbsencePollInterval = 500 * time.Millisecond
	deleteAbsenceTimeout      = 30 * time.Second
)

// Store is the object-store adapter for whitelist CSV blobs.
type Store struct {
	client *s3.Client
	bucket string
}

// New constructs a Store bound to bucket using the default AWS SDK
// credential and region resolution chain.
func New(ctx context.Context, bucket string) (*Store, error) {
	if err := ValidateBucketName(bucket); err != nil {
		return nil, apperr.Wrap(apperr.Validation, "invalid bucket name", err)
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading default AWS configuration: %w", err)
	}

	return &Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// Get returns the bytes stored at key, or a ResourceNotFound apperr if
// no object exists under that key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, apperr.Wrap(apperr.Validation, "invalid object key", err)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, apperr.FromAWS(fmt.Sprintf("getObject(%s)", key), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading object %q: %w", key, err)
	}
	return data, nil
}

// Put stores data at key with the given content type. When
// allowOverwrite is false, the write is gated by an IfNoneMatch
// precondition: if an object already exists under key, the call fails
// with apperr.Validation unless the existing content is byte-identical
// to data, in which case the write is treated as an idempotent
// success and no error is returned.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string, allowOverwrite bool) error {
	if err := ValidateKey(key); err != nil {
		return apperr.Wrap(apperr.Validation, "invalid object key", err)
	}

	put := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	if !allowOverwrite {
		put.IfNoneMatch = aws.String("*")
	}

	_, err := s.client.PutObject(ctx, put)
	if err == nil {
		return nil
	}

	if !allowOverwrite {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			existing, getErr := s.Get(ctx, key)
			if getErr != nil {
				return apperr.Wrap(apperr.InternalError, fmt.Sprintf("fetching existing content for %q after precondition failure", key), getErr)
			}
			if bytes.Equal(existing, data) {
				return nil
			}
			return apperr.New(apperr.Validation, fmt.Sprintf("object %q already exists with different content", key))
		}
	}

	return apperr.FromAWS(fmt.Sprintf("putObject(%s)", key), err)
}

// Ping verifies the configured bucket is reachable and accessible,
// without reading or writing any whitelist data. Used by health checks
// at startup and on the readiness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return apperr.FromAWS("headBucket", err)
	}
	return nil
}

// Delete removes the object at key and waits, up to
// deleteAbsenceTimeout, for subsequent reads to observe its absence.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return apperr.Wrap(apperr.Validation, "invalid object key", err)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperr.FromAWS(fmt.Sprintf("deleteObject(%s)", key), err)
	}

	deadline := time.Now().Add(deleteAbsenceTimeout)
	for time.Now().Before(deadline) {
		_, getErr := s.Get(ctx, key)
		if apperr.Is(getErr, apperr.ResourceNotFound) {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(deleteAbsencePollInterval):
		}
	}
	return apperr.New(apperr.InternalError, fmt.Sprintf("object %q still visible %s after delete", key, deleteAbsenceTimeout))
}
