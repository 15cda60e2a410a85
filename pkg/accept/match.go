package accept

import (
	"strings"

	"github.com/samber/lo"
)

// Attr renders m as an HTML accept attribute: each MIME key in sorted order
// followed by its extensions.
func (m Mapping) Attr() string {
	parts := make([]string, 0, len(m))
	for _, mime := range m.Types() {
		parts = append(parts, mime)
		parts = append(parts, m[mime]...)
	}
	return strings.Join(parts, ",")
}

// Allows reports whether a file with the given name and MIME type passes m.
//
// A file passes when its type equals one of the MIME keys, when a key of the
// form "major/*" matches its major type, or when its name ends with one of
// the listed extensions. Comparison is case-insensitive. An empty mapping,
// "*" and "*/*" allow everything.
func (m Mapping) Allows(name, mimeType string) bool {
	if len(m) == 0 {
		return true
	}
	name = strings.ToLower(name)
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	major, _, _ := strings.Cut(mimeType, "/")

	for pattern, exts := range m {
		if typeMatches(strings.ToLower(strings.TrimSpace(pattern)), mimeType, major) {
			return true
		}
		if lo.ContainsBy(exts, func(ext string) bool {
			ext = strings.ToLower(strings.TrimSpace(ext))
			return ext != "" && strings.HasSuffix(name, ext)
		}) {
			return true
		}
	}
	return false
}

func typeMatches(pattern, mimeType, major string) bool {
	switch {
	case pattern == "*" || pattern == "*/*":
		return true
	case strings.HasSuffix(pattern, "/*"):
		return major != "" && strings.TrimSuffix(pattern, "/*") == major
	default:
		return pattern == mimeType
	}
}
