package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/dropzone/pkg/accept"
	"github.com/vango-dev/dropzone/pkg/dropzone"
)

// ErrNotFound is returned when a temp file doesn't exist.
var ErrNotFound = errors.New("upload: file not found")

// ErrExpired is returned when a temp file has expired.
var ErrExpired = errors.New("upload: file expired")

// ErrTooLarge is returned when a file exceeds the size limit.
var ErrTooLarge = errors.New("upload: file too large")

// Store is the interface for upload storage backends.
type Store interface {
	// Save stores the uploaded file and returns a temp ID.
	// The file is stored temporarily until Claim is called.
	Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (tempID string, err error)

	// Claim retrieves and removes a temp file, returning a file handle.
	// After claiming, the temp file is deleted (or marked for deletion).
	Claim(ctx context.Context, tempID string) (*File, error)

	// Cleanup removes temp files older than maxAge.
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

// File represents an uploaded file.
type File struct {
	// ID is the unique identifier for this upload.
	ID string

	// Filename is the original filename from the client.
	Filename string

	// ContentType is the detected MIME type of the file.
	ContentType string

	// Size is the file size in bytes.
	Size int64

	// Path is the local filesystem path (for DiskStore).
	Path string

	// URL is the remote URL (for S3/GCS storage).
	URL string

	// Reader provides access to the file contents.
	Reader io.ReadCloser
}

// Close closes the file reader if open.
func (f *File) Close() error {
	if f.Reader != nil {
		return f.Reader.Close()
	}
	return nil
}

// Info converts the file to the selection entry shown by a dropzone field.
func (f *File) Info() dropzone.FileInfo {
	return dropzone.FileInfo{
		Name:   f.Filename,
		Size:   f.Size,
		Type:   f.ContentType,
		TempID: f.ID,
		URL:    f.URL,
	}
}

// Config holds configuration for the upload handler.
type Config struct {
	// MaxFileSize is the maximum allowed file size in bytes.
	// Default: 50MB.
	MaxFileSize int64

	// MaxFiles caps the files per request when Multiple is set.
	MaxFiles int

	// Multiple allows more than one file per request.
	Multiple bool

	// Accept restricts the accepted types. The absent Spec uses the
	// default preset.
	Accept accept.Spec

	// AcceptFunc, when set, picks the Spec for each request instead of
	// Accept. An error answers 400 before the body is read.
	AcceptFunc func(r *http.Request) (accept.Spec, error)

	// TempExpiry is how long temp files live before cleanup.
	// Default: 1 hour.
	TempExpiry time.Duration

	// Logger is used for request logging.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Metrics receives upload counters. Optional.
	Metrics *Metrics

	// Tracer starts a span per request.
	// If nil, the global otel tracer provider is used.
	Tracer trace.Tracer
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize: dropzone.DefaultMaxSize,
		TempExpiry:  time.Hour,
	}
}

// Policy returns the filter the handler applies. File names are ignored
// for type matching because they come from the client.
func (c *Config) Policy() dropzone.Policy {
	return c.policyFor(c.Accept)
}

func (c *Config) policyFor(spec accept.Spec) dropzone.Policy {
	p := dropzone.PolicyFor(spec, c.Multiple, c.MaxFiles, c.maxFileSize())
	p.TypeOnly = true
	return p
}

func (c *Config) maxFileSize() int64 {
	if c.MaxFileSize <= 0 {
		return dropzone.DefaultMaxSize
	}
	return c.MaxFileSize
}

// maxBodySize bounds the whole request: one file's worth per allowed file
// plus room for multipart framing.
func (c *Config) maxBodySize() int64 {
	files := int64(1)
	switch {
	case c.Multiple && c.MaxFiles > 0:
		files = int64(c.MaxFiles)
	case c.Multiple:
		files = 10
	}
	return c.maxFileSize()*files + 1<<20
}

// StoredFile is one accepted file in the handler response.
type StoredFile struct {
	TempID      string `json:"temp_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Response is the JSON body returned by the handler.
type Response struct {
	// TempID is the first stored file's ID, kept for single-file clients.
	TempID   string               `json:"temp_id,omitempty"`
	Files    []StoredFile         `json:"files"`
	Rejected []dropzone.Rejection `json:"rejected,omitempty"`
}

// Handler returns an http.Handler for file uploads with DefaultConfig.
func Handler(store Store) http.Handler {
	return HandlerWithConfig(store, DefaultConfig())
}

// candidate is a multipart file with its detected type.
type candidate struct {
	header *multipart.FileHeader
	info   dropzone.FileInfo
}

// HandlerWithConfig returns an upload handler with custom configuration.
//
// The handler expects a multipart form with one or more "file" fields.
func HandlerWithConfig(store Store, config *Config) http.Handler {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.Tracer("github.com/vango-dev/dropzone/pkg/upload")
	}
	basePolicy := config.Policy()
	maxBody := config.maxBodySize()
	m := config.Metrics

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ctx, span := tracer.Start(r.Context(), "upload.receive")
		defer span.End()

		fail := func(status int, msg string, err error) {
			span.SetAttributes(attribute.Int("http.status_code", status))
			if err != nil {
				span.RecordError(err)
			}
			span.SetStatus(codes.Error, msg)
			http.Error(w, msg, status)
		}

		policy := basePolicy
		if config.AcceptFunc != nil {
			spec, err := config.AcceptFunc(r)
			if err != nil {
				fail(http.StatusBadRequest, "Invalid accept", err)
				return
			}
			policy = config.policyFor(spec)
		}

		// Limit request body size BEFORE parsing
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
				m.observeResult(resultRejected)
				fail(http.StatusRequestEntityTooLarge, "File too large", err)
				return
			}
			fail(http.StatusBadRequest, "Failed to parse form", err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		headers := r.MultipartForm.File["file"]
		if len(headers) == 0 {
			fail(http.StatusBadRequest, "No file provided", nil)
			return
		}
		span.SetAttributes(attribute.Int("upload.files", len(headers)))

		var (
			passed   []candidate
			rejected []dropzone.Rejection
		)
		for _, h := range headers {
			detected, err := detect(h)
			if err != nil {
				fail(http.StatusBadRequest, "Failed to read file", err)
				return
			}
			info := dropzone.FileInfo{Name: h.Filename, Size: h.Size, Type: detected}
			if errs := policy.Check(info); len(errs) > 0 {
				rejected = append(rejected, dropzone.Rejection{File: info, Errors: errs})
				continue
			}
			passed = append(passed, candidate{header: h, info: info})
		}
		if policy.TooMany(len(passed)) {
			for _, c := range passed {
				rejected = append(rejected, dropzone.Rejection{
					File:   c.info,
					Errors: []dropzone.RejectError{{Code: dropzone.CodeTooManyFiles, Message: "Too many files"}},
				})
			}
			passed = nil
		}
		m.observeRejections(rejected)

		if len(passed) == 0 {
			m.observeResult(resultRejected)
			status := rejectedStatus(rejected)
			logger.Warn("upload rejected", "files", len(headers), "status", status)
			span.SetStatus(codes.Error, "all files rejected")
			writeJSON(w, status, Response{Files: []StoredFile{}, Rejected: rejected})
			return
		}

		resp := Response{Files: make([]StoredFile, 0, len(passed)), Rejected: rejected}
		for _, c := range passed {
			stored, err := save(ctx, store, c)
			if err != nil {
				m.observeResult(resultError)
				if errors.Is(err, ErrTooLarge) {
					fail(http.StatusRequestEntityTooLarge, "File too large", err)
					return
				}
				logger.Error("upload store failed", "filename", c.info.Name, "error", err)
				fail(http.StatusInternalServerError, "Upload failed", err)
				return
			}
			m.observeStored(stored.Size)
			logger.Info("upload stored",
				"temp_id", stored.TempID,
				"filename", stored.Filename,
				"content_type", stored.ContentType,
				"size", stored.Size,
			)
			resp.Files = append(resp.Files, stored)
		}
		resp.TempID = resp.Files[0].TempID
		m.observeResult(resultAccepted)
		span.SetStatus(codes.Ok, "")

		writeJSON(w, http.StatusOK, resp)
	})
}

// detect sniffs the type of the part's content. The part's own
// Content-Type header is ignored.
func detect(h *multipart.FileHeader) (string, error) {
	f, err := h.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

func save(ctx context.Context, store Store, c candidate) (StoredFile, error) {
	f, err := c.header.Open()
	if err != nil {
		return StoredFile{}, err
	}
	defer f.Close()

	id, err := store.Save(ctx, c.info.Name, c.info.Type, c.info.Size, f)
	if err != nil {
		return StoredFile{}, err
	}
	return StoredFile{
		TempID:      id,
		Filename:    c.info.Name,
		ContentType: c.info.Type,
		Size:        c.info.Size,
	}, nil
}

// rejectedStatus picks the status for a request where nothing was stored:
// 413 when every file was too large, 415 when every file had the wrong type,
// 422 otherwise.
func rejectedStatus(rejected []dropzone.Rejection) int {
	switch {
	case allHave(rejected, dropzone.CodeTooLarge):
		return http.StatusRequestEntityTooLarge
	case allHave(rejected, dropzone.CodeInvalidType):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusUnprocessableEntity
	}
}

func allHave(rejected []dropzone.Rejection, code dropzone.RejectCode) bool {
	for _, r := range rejected {
		if !r.Has(code) {
			return false
		}
	}
	return len(rejected) > 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Claim retrieves a temp file by ID.
//
// Example:
//
//	file, err := upload.Claim(ctx, store, tempID)
//	if err != nil {
//	    return err
//	}
//	defer file.Close()
//	// Use file.Path or file.Reader
func Claim(ctx context.Context, store Store, tempID string) (*File, error) {
	return store.Claim(ctx, tempID)
}

// newTempID returns a random temp ID.
func newTempID() string {
	return uuid.NewString()
}

// validTempID reports whether id could have been produced by newTempID.
// Anything else is rejected before it reaches a path or object key.
func validTempID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// isUploadKey reports whether key, a file name or object key, is one this
// package wrote under prefix. Cleanup never touches anything else.
func isUploadKey(prefix, key string) bool {
	rest, ok := strings.CutPrefix(key, prefix)
	if !ok {
		return false
	}
	for _, suffix := range []string{metaSuffix, partSuffix} {
		if id, ok := strings.CutSuffix(rest, suffix); ok {
			return validTempID(id)
		}
	}
	return validTempID(rest)
}
