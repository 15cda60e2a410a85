package config

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/dropzone/internal/errors"
	"github.com/vango-dev/dropzone/pkg/accept"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("error %v is not *errors.Error", err)
	}
	return e.Code
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Storage.Driver != DriverDisk || cfg.Storage.Dir != DefaultUploadDir {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if !cfg.Upload.Accept.IsNone() {
		t.Errorf("Upload.Accept = %v, want none", cfg.Upload.Accept)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Missing file
	if _, err := Load(filepath.Join(tmpDir, ConfigFileName)); err == nil {
		t.Error("Expected error for missing config")
	} else if code := errorCode(t, err); code != errors.CodeConfigRead {
		t.Errorf("code = %s, want %s", code, errors.CodeConfigRead)
	}

	path := writeConfig(t, tmpDir, `
server:
  host: 0.0.0.0
  port: 9090
upload:
  accept: application/pdf
  max_files: 3
  multiple: true
  temp_expiry: 30m
storage:
  driver: s3
  bucket: uploads
  region: eu-west-1
log:
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Address() != "0.0.0.0:9090" {
		t.Errorf("Address() = %q", cfg.Address())
	}
	if key, ok := cfg.Upload.Accept.Key(); !ok || key != "application/pdf" {
		t.Errorf("Upload.Accept = %v", cfg.Upload.Accept)
	}
	if cfg.Upload.MaxFiles != 3 || !cfg.Upload.Multiple {
		t.Errorf("Upload = %+v", cfg.Upload)
	}
	if cfg.Upload.TempExpiry != 30*time.Minute {
		t.Errorf("TempExpiry = %v, want 30m", cfg.Upload.TempExpiry)
	}
	// Unset values keep their defaults.
	if cfg.Upload.MaxFileSize != 50<<20 {
		t.Errorf("MaxFileSize = %d, want default", cfg.Upload.MaxFileSize)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Path() != path || cfg.Dir() != tmpDir {
		t.Errorf("Path() = %q, Dir() = %q", cfg.Path(), cfg.Dir())
	}
}

func TestLoad_AcceptMapping(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
upload:
  accept:
    application/pdf: [.pdf]
    image/*: []
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := accept.ResolvePresetKey(cfg.Upload.Accept); got != accept.KeyImagesAndPDF {
		t.Errorf("resolved = %q, want %q", got, accept.KeyImagesAndPDF)
	}
}

func TestLoad_JSONDocument(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"server": {"port": 7000}, "upload": {"accept": {"image/png": [".png"]}}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if got := accept.ResolvePresetKey(cfg.Upload.Accept); got != accept.KeyPNG {
		t.Errorf("resolved = %q, want %q", got, accept.KeyPNG)
	}
}

func TestLoad_ParseErrorHasLocation(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "server:\n  port: [\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Code != errors.CodeConfigParse {
		t.Fatalf("err = %v, want %s", err, errors.CodeConfigParse)
	}
	if e.Location == nil || e.Location.File != path {
		t.Errorf("Location = %+v, want in %s", e.Location, path)
	}
}

func TestLoad_AcceptSequenceRejected(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "upload:\n  accept:\n    - image/png\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for list accept")
	}
	if code := errorCode(t, err); code != errors.CodeConfigAccept {
		t.Errorf("code = %s, want %s", code, errors.CodeConfigAccept)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
		detail string
	}{
		{
			name:   "bad port",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			code:   errors.CodeConfigInvalid,
			detail: "server.port must be at most 65535",
		},
		{
			name:   "unknown driver",
			mutate: func(c *Config) { c.Storage.Driver = "ftp" },
			code:   errors.CodeConfigInvalid,
			detail: "storage.driver must be one of [disk s3 gcs], got ftp",
		},
		{
			name:   "cloud driver without bucket",
			mutate: func(c *Config) { c.Storage.Driver = DriverGCS },
			code:   errors.CodeConfigInvalid,
			detail: "storage.bucket is required",
		},
		{
			name: "cloud driver without prefix",
			mutate: func(c *Config) {
				c.Storage.Driver = DriverS3
				c.Storage.Bucket = "uploads"
				c.Storage.Prefix = ""
			},
			code:   errors.CodeConfigInvalid,
			detail: "storage.prefix is required",
		},
		{
			name:   "disk driver without dir",
			mutate: func(c *Config) { c.Storage.Dir = "" },
			code:   errors.CodeConfigInvalid,
			detail: "storage.dir is required",
		},
		{
			name:   "negative max files",
			mutate: func(c *Config) { c.Upload.MaxFiles = -1 },
			code:   errors.CodeConfigInvalid,
			detail: "upload.max_files must be at least 0",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Log.Level = "loud" },
			code:   errors.CodeConfigInvalid,
			detail: "log.level must be one of",
		},
		{
			name:   "metrics path",
			mutate: func(c *Config) { c.Metrics.Path = "metrics" },
			code:   errors.CodeConfigInvalid,
			detail: "metrics.path failed startswith",
		},
		{
			name:   "empty mime key",
			mutate: func(c *Config) { c.Upload.Accept = accept.FromMapping(accept.Mapping{"": {".png"}}) },
			code:   errors.CodeConfigAccept,
			detail: "empty MIME type key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("err = %v, want *errors.Error", err)
			}
			if e.Code != tt.code {
				t.Errorf("code = %s, want %s", e.Code, tt.code)
			}
			if !strings.Contains(e.Detail, tt.detail) {
				t.Errorf("Detail = %q, want it to contain %q", e.Detail, tt.detail)
			}
		})
	}
}

func TestValidate_CloudDriverWithBucket(t *testing.T) {
	cfg := New()
	cfg.Storage.Driver = DriverS3
	cfg.Storage.Bucket = "b"
	cfg.Storage.Endpoint = "http://localhost:9000"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "9999")
	t.Setenv(EnvHost, "127.0.0.1")
	t.Setenv(EnvStorage, "DISK")

	path := writeConfig(t, t.TempDir(), "server:\n  port: 1234\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address() != "127.0.0.1:9999" {
		t.Errorf("Address() = %q, want env values", cfg.Address())
	}
	if cfg.Storage.Driver != DriverDisk {
		t.Errorf("Driver = %q", cfg.Storage.Driver)
	}
}

func TestEnvOverrides_BadPort(t *testing.T) {
	t.Setenv(EnvPort, "eighty")

	_, err := LoadFromDir(t.TempDir())
	if err == nil {
		t.Fatal("expected error for non-numeric port")
	}
	if code := errorCode(t, err); code != errors.CodeConfigInvalid {
		t.Errorf("code = %s, want %s", code, errors.CodeConfigInvalid)
	}
}

func TestLoadFromDir_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "server:\n  port: 4321\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(nested)
	if err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if cfg.Server.Port != 4321 {
		t.Errorf("Port = %d, want value from parent config", cfg.Server.Port)
	}

	dir, err := FindConfigDir(nested)
	if err != nil || dir != root {
		t.Errorf("FindConfigDir = %q, %v; want %q", dir, err, root)
	}
}

func TestLoadFromDir_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Port = %d, want default", cfg.Server.Port)
	}
}

func TestUploadDir(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(writeConfig(t, dir, "storage:\n  dir: files\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.UploadDir(); got != filepath.Join(dir, "files") {
		t.Errorf("UploadDir() = %q", got)
	}

	abs := New()
	abs.Storage.Dir = "/var/uploads"
	if got := abs.UploadDir(); got != "/var/uploads" {
		t.Errorf("UploadDir() = %q", got)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("expected JSON record, got %s", out)
	}

	buf.Reset()
	LogConfig{Level: "debug", Format: "text"}.NewLogger(&buf).Debug("dbg")
	if !strings.Contains(buf.String(), "msg=dbg") {
		t.Errorf("expected text record, got %s", buf.String())
	}
}
