// Package uri parses the two URI shapes a server sees in a request target:
// origin-form ("/path?query") and absolute-form ("http://host:port/path").
// Components are returned percent-decoded.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc3986
//
// - https://datatracker.ietf.org/doc/html/rfc9112#section-3.2
package uri
