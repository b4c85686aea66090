package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://vango.dev/docs/hooks/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Codec / Storage Errors (E101-E119)
	// ============================================

	"E101": {
		Category: CategoryCodec,
		Message:  "Stored value could not be decoded",
		Detail:   "The value stored under this key is not a valid encoding of the requested type. The default value is not substituted.",
		DocURL:   docBase + "E101",
	},
	"E102": {
		Category: CategoryCodec,
		Message:  "Value could not be encoded",
		Detail:   "The value cannot be serialized by the configured codec (channels, functions and cyclic values are not supported by JSON).",
		DocURL:   docBase + "E102",
	},
	"E103": {
		Category: CategoryStorage,
		Message:  "Storage read failed",
		Detail:   "The storage medium returned an error while reading the key.",
		DocURL:   docBase + "E103",
	},
	"E104": {
		Category: CategoryStorage,
		Message:  "Storage write failed",
		Detail:   "The storage medium returned an error while writing or removing the key. The in-memory value has been updated.",
		DocURL:   docBase + "E104",
	},
	"E105": {
		Category: CategoryLifecycle,
		Message:  "Value used after its owner was disposed",
		Detail:   "The component owning this value has been torn down; no further writes reach the storage medium.",
		DocURL:   docBase + "E105",
	},

	// ============================================
	// Fetch Errors (E201-E219)
	// ============================================

	"E201": {
		Category: CategoryFetch,
		Message:  "Request failed",
		Detail:   "The request could not be issued or its response could not be decoded.",
		DocURL:   docBase + "E201",
	},

	// ============================================
	// Config / CLI Errors (E301-E319)
	// ============================================

	"E301": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The hooks.json file is malformed or contains invalid values.",
		DocURL:   docBase + "E301",
	},
	"E302": {
		Category: CategoryConfig,
		Message:  "Unknown storage backend",
		Detail:   "Supported backends are memory, file, pebble and s3.",
		DocURL:   docBase + "E302",
	},
	"E310": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
		Detail:   "The command was called with missing or malformed arguments.",
		DocURL:   docBase + "E310",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
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
