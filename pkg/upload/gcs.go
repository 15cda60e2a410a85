package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSSigner holds the service account credentials used to sign download
// URLs for claimed objects.
type GCSSigner struct {
	GoogleAccessID string
	// PrivateKey is PEM encoded. Literal "\n" sequences, as found in
	// environment variables, are turned back into newlines.
	PrivateKey string
	TTL        time.Duration
}

// GCSStore stores uploads in a Google Cloud Storage bucket.
type GCSStore struct {
	client  *storage.Client
	bucket  string
	prefix  string
	maxSize int64
	expiry  time.Duration
	signer  *GCSSigner
}

// NewGCSStore creates a new GCS upload store.
func NewGCSStore(client *storage.Client, bucket, prefix string, maxSize int64) *GCSStore {
	return &GCSStore{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		maxSize: maxSize,
	}
}

// WithSigner makes Claim populate File.URL with a V4 signed URL.
func (s *GCSStore) WithSigner(signer *GCSSigner) *GCSStore {
	s.signer = signer
	return s
}

// WithExpiry makes Claim fail with ErrExpired for objects older than d.
func (s *GCSStore) WithExpiry(d time.Duration) *GCSStore {
	s.expiry = d
	return s
}

func (s *GCSStore) object(tempID string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.prefix + tempID)
}

// Save streams the file to GCS and returns a temp ID.
func (s *GCSStore) Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	if s.maxSize > 0 && size > s.maxSize {
		return "", ErrTooLarge
	}

	tempID := newTempID()

	// Canceling the writer's context aborts the upload without committing.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.object(tempID).NewWriter(wctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{metaFilenameKey: filename}

	reader := r
	if s.maxSize > 0 {
		reader = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(w, reader)
	if err != nil {
		cancel()
		w.Close()
		return "", err
	}
	if s.maxSize > 0 && n > s.maxSize {
		cancel()
		w.Close()
		return "", ErrTooLarge
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs upload failed: %w", err)
	}

	return tempID, nil
}

// Claim opens a temp object. The object is deleted when the returned File
// is closed.
func (s *GCSStore) Claim(ctx context.Context, tempID string) (*File, error) {
	if !validTempID(tempID) {
		return nil, ErrNotFound
	}
	obj := s.object(tempID)

	attrs, err := obj.Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if s.expiry > 0 && time.Since(attrs.Created) > s.expiry {
		obj.Delete(context.WithoutCancel(ctx))
		return nil, ErrExpired
	}

	rc, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	filename := tempID
	if fn, ok := attrs.Metadata[metaFilenameKey]; ok {
		filename = fn
	}

	return &File{
		ID:          tempID,
		Filename:    filename,
		ContentType: attrs.ContentType,
		Size:        attrs.Size,
		URL:         s.signedURL(attrs.Name),
		Reader: &deleteOnClose{
			ReadCloser: rc,
			remove:     func() error { return obj.Delete(context.WithoutCancel(ctx)) },
		},
	}, nil
}

func (s *GCSStore) signedURL(name string) string {
	if s.signer == nil {
		return ""
	}
	ttl := s.signer.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	url, err := storage.SignedURL(s.bucket, name, &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(ttl),
		GoogleAccessID: s.signer.GoogleAccessID,
		PrivateKey:     []byte(strings.ReplaceAll(s.signer.PrivateKey, `\n`, "\n")),
	})
	if err != nil {
		return ""
	}
	return url
}

// Cleanup removes temp objects under the prefix created before maxAge ago.
// Names that do not look like an upload are skipped.
func (s *GCSStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)
	bucket := s.client.Bucket(s.bucket)

	it := bucket.Objects(ctx, &storage.Query{Prefix: s.prefix})
	var errs []error
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return err
		}
		if !isUploadKey(s.prefix, attrs.Name) || !attrs.Created.Before(cutoff) {
			continue
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			errs = append(errs, fmt.Errorf("delete %s: %w", attrs.Name, err))
		}
	}
	return errors.Join(errs...)
}
