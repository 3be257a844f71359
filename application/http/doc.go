// Package http implements the HTTP/1.1 message syntax:
// request and status lines, field lines and message framing.
// Semantics of the messages live in package semantic.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
