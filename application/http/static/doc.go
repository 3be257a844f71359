// Package static answers GET and HEAD requests with files under a content root.
//
// Request paths are resolved relative to the root. Paths that could escape it
// are rejected, and symbolic links are followed only while they stay inside the root.
// A directory is answered with its index document.
package static
