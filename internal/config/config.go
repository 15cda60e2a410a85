package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/dropzone/internal/errors"
	"github.com/vango-dev/dropzone/pkg/accept"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "dropzone.yaml"

	// DefaultPort is the default server port.
	DefaultPort = 8080

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultUploadDir is where the disk driver keeps temp files.
	DefaultUploadDir = "tmp/uploads"

	// DefaultPrefix is the object key prefix for the s3 and gcs drivers.
	DefaultPrefix = "dropzone/uploads/"
)

// Environment variables that override file values.
const (
	EnvPort    = "DROPZONE_PORT"
	EnvHost    = "DROPZONE_HOST"
	EnvStorage = "DROPZONE_STORAGE"
)

// Storage drivers.
const (
	DriverDisk = "disk"
	DriverS3   = "s3"
	DriverGCS  = "gcs"
)

// Config represents the complete dropzone.yaml configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Upload  UploadConfig  `yaml:"upload" json:"upload"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Log     LogConfig     `yaml:"log" json:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `yaml:"host" json:"host" validate:"required"`

	// Port is the port to listen on.
	Port int `yaml:"port" json:"port" validate:"min=1,max=65535"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" validate:"min=0"`
}

// UploadConfig contains the drop zone and upload intake settings.
type UploadConfig struct {
	// Accept is a preset key or a MIME type to extensions mapping. Absent
	// means all images.
	Accept accept.Spec `yaml:"accept" json:"accept"`

	// MaxFileSize is the per-file limit in bytes.
	MaxFileSize int64 `yaml:"max_file_size" json:"max_file_size" validate:"min=0"`

	// MaxFiles caps a multiple selection. Zero means no cap.
	MaxFiles int `yaml:"max_files" json:"max_files" validate:"min=0"`

	// Multiple allows selecting more than one file.
	Multiple bool `yaml:"multiple" json:"multiple"`

	// TempExpiry is how long unclaimed uploads are kept.
	TempExpiry time.Duration `yaml:"temp_expiry" json:"temp_expiry" validate:"min=0"`

	// CleanupInterval is how often expired uploads are removed.
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval" validate:"min=0"`
}

// StorageConfig selects and configures the upload store.
type StorageConfig struct {
	// Driver is one of disk, s3 or gcs.
	Driver string `yaml:"driver" json:"driver" validate:"oneof=disk s3 gcs"`

	// Dir is the temp directory for the disk driver.
	Dir string `yaml:"dir" json:"dir" validate:"required_if=Driver disk"`

	// Bucket is the bucket for the s3 and gcs drivers.
	Bucket string `yaml:"bucket" json:"bucket" validate:"required_unless=Driver disk"`

	// Prefix is prepended to object keys. Cleanup lists only under it, so
	// the cloud drivers require one.
	Prefix string `yaml:"prefix" json:"prefix" validate:"required_unless=Driver disk"`

	// Region is the AWS region for the s3 driver.
	Region string `yaml:"region" json:"region"`

	// Endpoint overrides the S3 endpoint, for MinIO and similar.
	Endpoint string `yaml:"endpoint" json:"endpoint" validate:"omitempty,url"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path" validate:"omitempty,startswith=/"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"oneof=text json"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ShutdownTimeout: 10 * time.Second,
		},
		Upload: UploadConfig{
			MaxFileSize:     50 << 20,
			TempExpiry:      time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Storage: StorageConfig{
			Driver: DriverDisk,
			Dir:    DefaultUploadDir,
			Prefix: DefaultPrefix,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified file path, applies
// environment overrides and validates the result. The file may be YAML or
// JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigRead).
				WithDetail("No " + filepath.Base(path) + " found at " + path).
				Wrap(err)
		}
		return nil, errors.New(errors.CodeConfigRead).Wrap(err)
	}

	cfg, err := Parse(data)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			e.WithLocationFromYAML(path, e.Wrapped)
		}
		return nil, err
	}
	cfg.configPath = path

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a configuration document over the defaults. It does not
// apply environment overrides or validate.
func Parse(data []byte) (*Config, error) {
	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if strings.HasPrefix(err.Error(), "accept:") {
			return nil, errors.New(errors.CodeConfigAccept).
				WithExample("upload:\n  accept: image/png").
				Wrap(err)
		}
		return nil, errors.New(errors.CodeConfigParse).
			WithSuggestion("Check that " + ConfigFileName + " is valid YAML").
			Wrap(err)
	}
	return cfg, nil
}

// LoadFromDir walks up from dir looking for dropzone.yaml and loads the
// first one found. Without a file the defaults are used, still subject to
// environment overrides.
func LoadFromDir(dir string) (*Config, error) {
	root, err := FindConfigDir(dir)
	if err != nil {
		cfg := New()
		if err := cfg.finish(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(filepath.Join(root, ConfigFileName))
}

// FindConfigDir walks up directories from startDir and returns the first
// one containing dropzone.yaml.
func FindConfigDir(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigRead).
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

func (c *Config) finish() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	return c.Validate()
}

// applyEnv overrides file values with DROPZONE_* environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New(errors.CodeConfigInvalid).
				WithDetail(EnvPort + " must be a number, got " + strconv.Quote(v)).
				Wrap(err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv(EnvHost); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv(EnvStorage); v != "" {
		c.Storage.Driver = strings.ToLower(v)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their YAML names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !stderrors.As(err, &verrs) {
			return errors.New(errors.CodeConfigInvalid).Wrap(err)
		}
		problems := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
		e := errors.New(errors.CodeConfigInvalid).
			WithDetail(strings.Join(problems, "; ")).
			Wrap(err)
		if verrs[0].Field() == "driver" {
			e.WithSuggestion("Use one of: disk, s3, gcs.")
		}
		return e
	}

	if m, ok := c.Upload.Accept.Mapping(); ok {
		for mime := range m {
			if strings.TrimSpace(mime) == "" {
				return errors.New(errors.CodeConfigAccept).
					WithDetail("upload.accept has an empty MIME type key").
					WithExample("upload:\n  accept:\n    image/png: [.png]")
			}
		}
	}
	return nil
}

// describe renders one validation failure as "section.field: problem".
func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if", "required_unless":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// Address returns the listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// URL returns the base URL of the server.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// UploadDir returns the disk driver directory, resolved against the config
// file's directory when relative.
func (c *Config) UploadDir() string {
	if filepath.IsAbs(c.Storage.Dir) || c.Dir() == "" {
		return c.Storage.Dir
	}
	return filepath.Join(c.Dir(), c.Storage.Dir)
}

// SlogLevel returns the configured log level.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a text or JSON slog logger writing to w.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
