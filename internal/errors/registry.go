package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// Error codes.
const (
	CodeConfigRead       = "E100"
	CodeConfigParse      = "E101"
	CodeConfigInvalid    = "E102"
	CodeConfigAccept     = "E103"
	CodeStorageDriver    = "E200"
	CodeStorageInit      = "E201"
	CodeStorageBucket    = "E202"
	CodeServerListen     = "E300"
	CodeServerShutdown   = "E301"
	CodeCLIInvalidAccept = "E400"
	CodeCLIArgs          = "E401"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E100-E199)
	// ============================================

	CodeConfigRead: {
		Category:   CategoryConfig,
		Message:    "Cannot read configuration file",
		Detail:     "The configuration file exists but could not be opened or read.",
		Suggestion: "Check the file permissions, or pass --config with a readable path.",
	},
	CodeConfigParse: {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Detail:     "dropzone.yaml must be a YAML (or JSON) document with server, upload, storage, metrics and log sections.",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "One or more configuration values are out of range or missing.",
	},
	CodeConfigAccept: {
		Category:   CategoryConfig,
		Message:    "Invalid accept configuration",
		Detail:     "upload.accept must be a preset key string or a mapping of MIME types to extension lists.",
		Suggestion: "Run `dropzone presets` to list the known preset keys.",
	},

	// ============================================
	// Storage Errors (E200-E299)
	// ============================================

	CodeStorageDriver: {
		Category:   CategoryStorage,
		Message:    "Unknown storage driver",
		Detail:     "storage.driver selects where uploads are kept.",
		Suggestion: "Use one of: disk, s3, gcs.",
	},
	CodeStorageInit: {
		Category: CategoryStorage,
		Message:  "Storage backend could not be initialized",
		Detail:   "The upload store failed to start. For cloud drivers this usually means credentials were not found.",
	},
	CodeStorageBucket: {
		Category:   CategoryStorage,
		Message:    "Storage bucket not configured",
		Detail:     "The s3 and gcs drivers need storage.bucket.",
		Suggestion: "Set storage.bucket in dropzone.yaml.",
	},

	// ============================================
	// Server Errors (E300-E399)
	// ============================================

	CodeServerListen: {
		Category:   CategoryServer,
		Message:    "Server failed to listen",
		Detail:     "The HTTP server could not bind its address.",
		Suggestion: "Check that the port is free, or set DROPZONE_PORT.",
	},
	CodeServerShutdown: {
		Category: CategoryServer,
		Message:  "Server did not shut down cleanly",
		Detail:   "In-flight requests did not finish before the shutdown deadline.",
	},

	// ============================================
	// CLI Errors (E400-E499)
	// ============================================

	CodeCLIInvalidAccept: {
		Category:   CategoryCLI,
		Message:    "Invalid accept argument",
		Detail:     "The argument must be a preset key such as image/png, or a JSON object such as {\"image/png\":[\".png\"]}.",
		Suggestion: "Quote JSON arguments so the shell passes them unchanged.",
	},
	CodeCLIArgs: {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
