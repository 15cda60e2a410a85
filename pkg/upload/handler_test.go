package upload_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/dropzone/pkg/accept"
	"github.com/vango-dev/dropzone/pkg/dropzone"
	"github.com/vango-dev/dropzone/pkg/upload"
)

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}, []byte("not a real png, but signature is enough")...)

type recordingStore struct {
	tempID string
	saves  int
	saveFn func(filename, contentType string, size int64, r io.Reader) (string, error)
}

func (s *recordingStore) Save(_ context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	s.saves++
	if s.saveFn != nil {
		return s.saveFn(filename, contentType, size, r)
	}
	if s.tempID == "" {
		return "temp123", nil
	}
	return s.tempID, nil
}

func (s *recordingStore) Claim(context.Context, string) (*upload.File, error) {
	return nil, errors.New("not implemented")
}
func (s *recordingStore) Cleanup(context.Context, time.Duration) error {
	return errors.New("not implemented")
}

type part struct {
	filename    string
	contentType string
	content     []byte
}

func newMultipartRequest(t *testing.T, parts ...part) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+p.filename+`"`)
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}

		w, err := writer.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := w.Write(p.content); err != nil {
			t.Fatalf("part.Write: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newMultipartUploadRequest(t *testing.T, filename string, contentTypeHeader string, content []byte) *http.Request {
	t.Helper()
	return newMultipartRequest(t, part{filename: filename, contentType: contentTypeHeader, content: content})
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) upload.Response {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want %q", ct, "application/json")
	}
	var resp upload.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal response: %v; body=%q", err, rec.Body.String())
	}
	return resp
}

func textConfig() *upload.Config {
	return &upload.Config{
		MaxFileSize: 1024 * 1024,
		Accept:      accept.FromMapping(accept.Mapping{"text/*": nil}),
	}
}

func TestHandler_RejectsNonPOST(t *testing.T) {
	h := upload.Handler(&recordingStore{})
	req := httptest.NewRequest(http.MethodGet, "/upload", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandler_FailsWhenNotMultipart(t *testing.T) {
	h := upload.Handler(&recordingStore{})
	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandler_FailsWhenNoFileProvided(t *testing.T) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("not_file", "x"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	h := upload.Handler(&recordingStore{})
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandler_RejectsSpoofedContentType(t *testing.T) {
	store := &recordingStore{
		saveFn: func(string, string, int64, io.Reader) (string, error) {
			t.Fatal("Save should not be called when MIME type is rejected")
			return "", nil
		},
	}

	h := upload.HandlerWithConfig(store, &upload.Config{
		MaxFileSize: 1024 * 1024,
		Accept:      accept.FromKey("image/png"),
	})

	// Spoof Content-Type header and name, but upload bytes are JPEG.
	content := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}
	req := newMultipartUploadRequest(t, "test.png", "image/png; charset=binary", content)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnsupportedMediaType)
	}
	resp := decodeResponse(t, rec)
	if len(resp.Files) != 0 || len(resp.Rejected) != 1 {
		t.Fatalf("resp = %+v, want one rejection", resp)
	}
	if !resp.Rejected[0].Has(dropzone.CodeInvalidType) {
		t.Fatalf("rejection = %+v, want %s", resp.Rejected[0], dropzone.CodeInvalidType)
	}
	if resp.Rejected[0].File.Type != "image/jpeg" {
		t.Fatalf("rejected type = %q, want detected image/jpeg", resp.Rejected[0].File.Type)
	}
}

func TestHandler_AcceptsDetectedType(t *testing.T) {
	var got struct {
		filename    string
		contentType string
		size        int64
		data        []byte
	}

	store := &recordingStore{
		saveFn: func(filename, contentType string, size int64, r io.Reader) (string, error) {
			got.filename = filename
			got.contentType = contentType
			got.size = size
			data, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			got.data = data
			return "abc123", nil
		},
	}

	h := upload.HandlerWithConfig(store, &upload.Config{
		MaxFileSize: 1024 * 1024,
		Accept:      accept.FromKey("image/png"),
	})

	// Client header lies in the other direction; content decides.
	req := newMultipartUploadRequest(t, "test.png", "application/octet-stream", pngBytes)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%q", rec.Code, http.StatusOK, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	if resp.TempID != "abc123" {
		t.Fatalf("temp_id = %q, want %q", resp.TempID, "abc123")
	}
	if len(resp.Files) != 1 || resp.Files[0].ContentType != "image/png" {
		t.Fatalf("files = %+v", resp.Files)
	}

	if got.filename != "test.png" {
		t.Fatalf("Save filename = %q, want %q", got.filename, "test.png")
	}
	if got.contentType != "image/png" {
		t.Fatalf("Save contentType = %q, want %q", got.contentType, "image/png")
	}
	if got.size != int64(len(pngBytes)) {
		t.Fatalf("Save size = %d, want %d", got.size, len(pngBytes))
	}
	if !bytes.Equal(got.data, pngBytes) {
		t.Fatalf("Save reader data mismatch")
	}
}

func TestHandler_DefaultAcceptIsAllImages(t *testing.T) {
	store := &recordingStore{}
	h := upload.Handler(store)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, newMultipartUploadRequest(t, "notes.txt", "text/plain", []byte("hello")))
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("text status = %d, want %d", rec.Code, http.StatusUnsupportedMediaType)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, newMultipartUploadRequest(t, "pic.png", "image/png", pngBytes))
	if rec.Code != http.StatusOK {
		t.Fatalf("png status = %d, want %d; body=%q", rec.Code, http.StatusOK, rec.Body.String())
	}
	if store.saves != 1 {
		t.Fatalf("saves = %d, want 1", store.saves)
	}
}

func TestHandler_IgnoresClientExtension(t *testing.T) {
	store := &recordingStore{
		saveFn: func(string, string, int64, io.Reader) (string, error) {
			t.Fatal("Save should not be called for a PDF that is really text")
			return "", nil
		},
	}

	h := upload.HandlerWithConfig(store, &upload.Config{
		MaxFileSize: 1024 * 1024,
		Accept:      accept.FromKey("application/pdf"),
	})

	req := newMultipartUploadRequest(t, "report.pdf", "application/pdf", []byte("plain words"))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnsupportedMediaType)
	}
}

func TestHandler_SingleFileModeRejectsSecondFile(t *testing.T) {
	store := &recordingStore{}
	h := upload.HandlerWithConfig(store, &upload.Config{MaxFileSize: 1024 * 1024})

	req := newMultipartRequest(t,
		part{filename: "a.png", content: pngBytes},
		part{filename: "b.png", content: pngBytes},
	)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d; body=%q", rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if len(resp.Rejected) != 2 {
		t.Fatalf("rejected = %d, want 2", len(resp.Rejected))
	}
	for _, r := range resp.Rejected {
		if !r.Has(dropzone.CodeTooManyFiles) {
			t.Fatalf("rejection %+v missing %s", r, dropzone.CodeTooManyFiles)
		}
	}
	if store.saves != 0 {
		t.Fatalf("saves = %d, want 0", store.saves)
	}
}

func TestHandler_MultipleStoresEachFile(t *testing.T) {
	n := 0
	store := &recordingStore{
		saveFn: func(filename, _ string, _ int64, _ io.Reader) (string, error) {
			n++
			return filename + "-id", nil
		},
	}
	h := upload.HandlerWithConfig(store, &upload.Config{
		MaxFileSize: 1024 * 1024,
		Multiple:    true,
		MaxFiles:    3,
	})

	req := newMultipartRequest(t,
		part{filename: "a.png", content: pngBytes},
		part{filename: "notes.txt", content: []byte("hello")},
		part{filename: "b.png", content: pngBytes},
	)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%q", rec.Code, http.StatusOK, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if len(resp.Files) != 2 || n != 2 {
		t.Fatalf("files = %+v (saves=%d), want 2", resp.Files, n)
	}
	if resp.TempID != "a.png-id" {
		t.Fatalf("temp_id = %q, want first stored file", resp.TempID)
	}
	if len(resp.Rejected) != 1 || resp.Rejected[0].File.Name != "notes.txt" {
		t.Fatalf("rejected = %+v, want notes.txt", resp.Rejected)
	}
}

func TestHandler_MaxFilesRejectsWholeBatch(t *testing.T) {
	store := &recordingStore{}
	h := upload.HandlerWithConfig(store, &upload.Config{
		MaxFileSize: 1024 * 1024,
		Multiple:    true,
		MaxFiles:    2,
	})

	req := newMultipartRequest(t,
		part{filename: "a.png", content: pngBytes},
		part{filename: "b.png", content: pngBytes},
		part{filename: "c.png", content: pngBytes},
	)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if store.saves != 0 {
		t.Fatalf("saves = %d, want 0", store.saves)
	}
}

func TestHandler_RejectsFileOverPolicySize(t *testing.T) {
	cfg := textConfig()
	cfg.MaxFileSize = 16
	h := upload.HandlerWithConfig(&recordingStore{}, cfg)

	req := newMultipartUploadRequest(t, "test.txt", "text/plain", bytes.Repeat([]byte("a"), 256))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d; body=%q", rec.Code, http.StatusRequestEntityTooLarge, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if len(resp.Rejected) != 1 || !resp.Rejected[0].Has(dropzone.CodeTooLarge) {
		t.Fatalf("rejected = %+v, want %s", resp.Rejected, dropzone.CodeTooLarge)
	}
}

func TestHandler_RejectsTooLargeBodyAtHTTPLevel(t *testing.T) {
	cfg := textConfig()
	cfg.MaxFileSize = 16 // body limit is one file plus 1MB of framing
	h := upload.HandlerWithConfig(&recordingStore{}, cfg)

	req := newMultipartUploadRequest(t, "test.txt", "text/plain", bytes.Repeat([]byte("a"), 2<<20))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestHandler_MapsStoreErrTooLargeTo413(t *testing.T) {
	store := &recordingStore{
		saveFn: func(string, string, int64, io.Reader) (string, error) {
			return "", upload.ErrTooLarge
		},
	}
	h := upload.HandlerWithConfig(store, textConfig())

	req := newMultipartUploadRequest(t, "test.txt", "text/plain", []byte("x"))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestHandler_MapsStoreErrorTo500(t *testing.T) {
	store := &recordingStore{
		saveFn: func(string, string, int64, io.Reader) (string, error) {
			return "", errors.New("boom")
		},
	}
	h := upload.HandlerWithConfig(store, textConfig())

	req := newMultipartUploadRequest(t, "test.txt", "text/plain", []byte("x"))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestHandler_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := &upload.Config{MaxFileSize: 1024 * 1024, Metrics: upload.NewMetrics(reg)}
	h := upload.HandlerWithConfig(&recordingStore{}, cfg)

	h.ServeHTTP(httptest.NewRecorder(), newMultipartUploadRequest(t, "a.png", "", pngBytes))
	h.ServeHTTP(httptest.NewRecorder(), newMultipartUploadRequest(t, "a.txt", "", []byte("hello")))

	expected := `
# HELP dropzone_uploads_total Total number of upload requests by result
# TYPE dropzone_uploads_total counter
dropzone_uploads_total{result="accepted"} 1
dropzone_uploads_total{result="rejected"} 1
# HELP dropzone_rejections_total Total number of rejected files by reason
# TYPE dropzone_rejections_total counter
dropzone_rejections_total{code="file-invalid-type"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"dropzone_uploads_total", "dropzone_rejections_total"); err != nil {
		t.Fatalf("metrics mismatch: %v", err)
	}
	if n, err := testutil.GatherAndCount(reg, "dropzone_upload_bytes"); err != nil || n != 1 {
		t.Fatalf("upload_bytes count = %d, err = %v", n, err)
	}
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func TestHandler_AcceptFuncPicksPolicyPerRequest(t *testing.T) {
	cfg := &upload.Config{
		MaxFileSize: 1 << 20,
		AcceptFunc: func(r *http.Request) (accept.Spec, error) {
			if q := r.URL.Query().Get("accept"); q != "" {
				return accept.Parse(q)
			}
			return accept.None(), nil
		},
	}
	h := upload.HandlerWithConfig(&recordingStore{}, cfg)

	tests := []struct {
		name   string
		query  string
		body   []byte
		status int
	}{
		{"pdf allowed by query", "?accept=application/pdf", pdfBytes, http.StatusOK},
		{"pdf against default images", "", pdfBytes, http.StatusUnsupportedMediaType},
		{"png against pdf query", "?accept=application/pdf", pngBytes, http.StatusUnsupportedMediaType},
		{"bad accept", "?accept=%7Bnot-json", pdfBytes, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newMultipartUploadRequest(t, "doc.pdf", "", tt.body)
			req.URL.RawQuery = strings.TrimPrefix(tt.query, "?")
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d; body=%s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}
