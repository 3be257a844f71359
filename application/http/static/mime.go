package static

import (
	"path/filepath"
	"strings"
)

const defaultContentType = "application/octet-stream"

var defaultMIMETypes = map[string]string{
	"html": "text/html",
	"htm":  "text/html",
	"css":  "text/css",
	"js":   "text/javascript",
	"mjs":  "text/javascript",
	"json": "application/json",
	"txt":  "text/plain",
	"xml":  "application/xml",
	"pdf":  "application/pdf",
	"wasm": "application/wasm",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"svg":  "image/svg+xml",
	"ico":  "image/x-icon",
	"webp": "image/webp",
}

// DefaultMIMETypes returns a copy of the builtin extension table.
// Keys are extensions without the leading dot, in lowercase.
func DefaultMIMETypes() map[string]string {
	m := make(map[string]string, len(defaultMIMETypes))
	for ext, typ := range defaultMIMETypes {
		m[ext] = typ
	}
	return m
}

func contentType(types map[string]string, name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if typ, ok := types[ext]; ok && ext != "" {
		return typ
	}
	return defaultContentType
}
