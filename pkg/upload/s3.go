package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

const (
	metaFilenameKey = "original-filename"
	metaUploadedKey = "upload-time"
)

// S3Store stores uploads in AWS S3.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := upload.NewS3Store(s3.NewFromConfig(cfg), "my-bucket", "uploads/", 50<<20)
//
//	r.Post("/upload", upload.Handler(store))
type S3Store struct {
	client    S3API
	bucket    string
	prefix    string
	maxSize   int64
	expiry    time.Duration
	urlExpiry time.Duration
}

// NewS3Store creates a new S3 upload store.
//
// Parameters:
//   - client: usually an *s3.Client; presigned URLs are only produced for one
//   - bucket: S3 bucket name
//   - prefix: Key prefix for uploads (e.g., "uploads/temp/")
//   - maxSize: Maximum file size in bytes (0 = no limit)
func NewS3Store(client S3API, bucket, prefix string, maxSize int64) *S3Store {
	return &S3Store{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		maxSize:   maxSize,
		urlExpiry: 24 * time.Hour,
	}
}

// WithURLExpiry sets how long presigned URLs are valid.
func (s *S3Store) WithURLExpiry(d time.Duration) *S3Store {
	s.urlExpiry = d
	return s
}

// WithExpiry makes Claim fail with ErrExpired for objects older than d.
func (s *S3Store) WithExpiry(d time.Duration) *S3Store {
	s.expiry = d
	return s
}

func (s *S3Store) key(tempID string) string {
	return s.prefix + tempID
}

// Save uploads a file to S3 and returns a temp ID.
func (s *S3Store) Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	if s.maxSize > 0 && size > s.maxSize {
		return "", ErrTooLarge
	}

	// The body is buffered so the SDK can seek it for checksums.
	var buf bytes.Buffer
	reader := r
	if s.maxSize > 0 {
		reader = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(&buf, reader)
	if err != nil {
		return "", err
	}
	if s.maxSize > 0 && n > s.maxSize {
		return "", ErrTooLarge
	}

	tempID := newTempID()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(tempID)),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(n),
		ContentType:   aws.String(contentType),
		Metadata: map[string]string{
			metaFilenameKey: filename,
			metaUploadedKey: time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}

	return tempID, nil
}

// Claim retrieves a temp object from S3. The object is deleted when the
// returned File is closed.
func (s *S3Store) Claim(ctx context.Context, tempID string) (*File, error) {
	if !validTempID(tempID) {
		return nil, ErrNotFound
	}
	key := s.key(tempID)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, notFoundOr(err)
	}

	if s.expiry > 0 && head.LastModified != nil && time.Since(*head.LastModified) > s.expiry {
		s.delete(context.WithoutCancel(ctx), key)
		return nil, ErrExpired
	}

	got, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, notFoundOr(err)
	}

	filename := tempID
	if fn, ok := head.Metadata[metaFilenameKey]; ok {
		filename = fn
	}
	contentType := "application/octet-stream"
	if head.ContentType != nil {
		contentType = *head.ContentType
	}
	size := aws.ToInt64(head.ContentLength)

	return &File{
		ID:          tempID,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		URL:         s.presign(ctx, key),
		Reader: &deleteOnClose{
			ReadCloser: got.Body,
			remove:     func() error { return s.delete(context.WithoutCancel(ctx), key) },
		},
	}, nil
}

// presign returns a GET URL for key, or "" when the client cannot sign.
func (s *S3Store) presign(ctx context.Context, key string) string {
	client, ok := s.client.(*s3.Client)
	if !ok {
		return ""
	}
	res, err := s3.NewPresignClient(client).PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(s.urlExpiry),
	)
	if err != nil {
		return ""
	}
	return res.URL
}

func (s *S3Store) delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// Cleanup removes temp objects under the prefix older than maxAge. Keys
// that do not look like an upload are skipped.
func (s *S3Store) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var toDelete []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, obj := range page.Contents {
			if obj.Key == nil || !isUploadKey(s.prefix, *obj.Key) {
				continue
			}
			if obj.LastModified != nil && obj.LastModified.Before(cutoff) {
				toDelete = append(toDelete, *obj.Key)
			}
		}
	}

	var errs []error
	for _, key := range toDelete {
		if err := s.delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func notFoundOr(err error) error {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return ErrNotFound
	}
	return err
}

// deleteOnClose wraps a remote object body and removes the object once the
// body is closed.
type deleteOnClose struct {
	io.ReadCloser
	remove func() error
}

func (r *deleteOnClose) Close() error {
	return errors.Join(r.ReadCloser.Close(), r.remove())
}
