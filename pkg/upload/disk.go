package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	metaSuffix = ".meta"
	partSuffix = ".part"
)

// DiskStore keeps uploads in a local directory. Each upload is a data file
// named by its temp ID plus a JSON sidecar, so a restarted process can
// still claim files saved before the restart.
type DiskStore struct {
	dir     string
	maxSize int64
	expiry  time.Duration

	mu    sync.Mutex
	files map[string]*diskMeta
}

type diskMeta struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewDiskStore creates the directory if needed. A maxSize of 0 disables the
// size limit.
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{
		dir:     dir,
		maxSize: maxSize,
		files:   make(map[string]*diskMeta),
	}, nil
}

// WithExpiry makes Claim fail with ErrExpired for files older than d.
func (s *DiskStore) WithExpiry(d time.Duration) *DiskStore {
	s.expiry = d
	return s
}

// Dir returns the directory files are stored in.
func (s *DiskStore) Dir() string { return s.dir }

// Save streams r into a partial file and renames it into place once the
// size limit has been checked against the bytes actually read.
func (s *DiskStore) Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	if s.maxSize > 0 && size > s.maxSize {
		return "", ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tempID := newTempID()
	written, err := s.writePart(tempID, r)
	if err != nil {
		return "", err
	}

	meta := &diskMeta{
		Filename:    filepath.Base(filename),
		ContentType: contentType,
		Size:        written,
		CreatedAt:   time.Now(),
	}
	if err := s.saveMeta(tempID, meta); err != nil {
		s.remove(tempID)
		return "", err
	}

	s.mu.Lock()
	s.files[tempID] = meta
	s.mu.Unlock()
	return tempID, nil
}

func (s *DiskStore) writePart(tempID string, r io.Reader) (int64, error) {
	part := s.dataPath(tempID) + partSuffix
	f, err := os.Create(part)
	if err != nil {
		return 0, err
	}

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	written, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxSize > 0 && written > s.maxSize {
		err = ErrTooLarge
	}
	if err == nil {
		err = os.Rename(part, s.dataPath(tempID))
	}
	if err != nil {
		os.Remove(part)
		return 0, err
	}
	return written, nil
}

// Claim opens a stored upload. The data and its metadata are deleted when
// the returned File is closed.
func (s *DiskStore) Claim(ctx context.Context, tempID string) (*File, error) {
	if !validTempID(tempID) {
		return nil, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meta, err := s.take(tempID)
	if err != nil {
		return nil, ErrNotFound
	}
	if s.expiry > 0 && time.Since(meta.CreatedAt) > s.expiry {
		s.remove(tempID)
		return nil, ErrExpired
	}

	path := s.dataPath(tempID)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &File{
		ID:          tempID,
		Filename:    meta.Filename,
		ContentType: meta.ContentType,
		Size:        meta.Size,
		Path:        path,
		Reader: &deleteOnCloseReader{File: f, remove: func() {
			s.remove(tempID)
		}},
	}, nil
}

// take removes tempID from the in-memory index, falling back to the
// sidecar when the entry was saved by another process.
func (s *DiskStore) take(tempID string) (*diskMeta, error) {
	s.mu.Lock()
	meta, ok := s.files[tempID]
	delete(s.files, tempID)
	s.mu.Unlock()
	if ok {
		return meta, nil
	}
	return s.loadMeta(tempID)
}

// Cleanup removes uploads older than maxAge, judged by modification time so
// orphans without metadata go too. Only files named like an upload are
// considered; anything else sharing the directory is left alone.
func (s *DiskStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	for tempID, meta := range s.files {
		if meta.CreatedAt.Before(cutoff) {
			delete(s.files, tempID)
		}
	}
	s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	var errs []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !isUploadKey("", entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *DiskStore) dataPath(tempID string) string {
	return filepath.Join(s.dir, tempID)
}

func (s *DiskStore) metaPath(tempID string) string {
	return filepath.Join(s.dir, tempID+metaSuffix)
}

func (s *DiskStore) remove(tempID string) {
	os.Remove(s.dataPath(tempID))
	os.Remove(s.metaPath(tempID))
}

func (s *DiskStore) saveMeta(tempID string, meta *diskMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(s.metaPath(tempID), data, 0o644)
}

func (s *DiskStore) loadMeta(tempID string) (*diskMeta, error) {
	data, err := os.ReadFile(s.metaPath(tempID))
	if err != nil {
		return nil, err
	}
	var meta diskMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// deleteOnCloseReader deletes the upload once its reader is closed.
type deleteOnCloseReader struct {
	*os.File
	remove func()
}

func (r *deleteOnCloseReader) Close() error {
	err := r.File.Close()
	r.remove()
	return err
}
