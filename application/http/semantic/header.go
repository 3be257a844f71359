package semantic

import (
	"net/textproto"
	"slices"
	"static-httpd/application/http"
	"strings"
)

// Headers is an ordered list of fields.
// A name appears once, holding the values of every line it was given on.
// Names are canonicalized, so lookups ignore case.
type Headers struct{ fields []headerField }

type headerField struct {
	name   string
	values []string
}

// NewHeaders creates headers from name-value pairs, in the given order.
func NewHeaders(pairs ...[2]string) Headers {
	var h Headers
	for _, p := range pairs {
		h.Add(p[0], p[1])
	}
	return h
}

// HeadersFrom groups raw field lines by name. Fields keep the order their name was first seen in.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.3
func HeadersFrom(fields []http.Field) Headers {
	var h Headers
	for _, f := range fields {
		h.Add(string(f.Name), string(f.Value))
	}
	return h
}

func (h *Headers) Len() int { return len(h.fields) }

// Get returns the values of name combined into one, separated by comma.
func (h *Headers) Get(name string) (string, bool) {
	idx := h.index(name)
	if idx < 0 {
		return "", false
	}
	return strings.Join(h.fields[idx].values, ", "), true
}

// Values returns a copy of the values of name, one per line it was given on.
func (h *Headers) Values(name string) []string {
	idx := h.index(name)
	if idx < 0 {
		return nil
	}
	return slices.Clone(h.fields[idx].values)
}

// Set replaces the values of name. A new name goes last.
func (h *Headers) Set(name, value string) {
	if idx := h.index(name); idx >= 0 {
		h.fields[idx].values = []string{value}
		return
	}
	h.fields = append(h.fields, headerField{name: canonical(name), values: []string{value}})
}

// Add appends value to name. A new name goes last.
func (h *Headers) Add(name, value string) {
	if idx := h.index(name); idx >= 0 {
		h.fields[idx].values = append(h.fields[idx].values, value)
		return
	}
	h.fields = append(h.fields, headerField{name: canonical(name), values: []string{value}})
}

func (h *Headers) Del(name string) {
	if idx := h.index(name); idx >= 0 {
		h.fields = slices.Delete(h.fields, idx, idx+1)
	}
}

// MoveToFront puts the given names first, in the order given.
// Missing names are skipped, and the rest keep their order.
func (h *Headers) MoveToFront(names ...string) {
	front := make([]headerField, 0, len(h.fields))
	for _, name := range names {
		if idx := h.index(name); idx >= 0 {
			front = append(front, h.fields[idx])
			h.fields = slices.Delete(h.fields, idx, idx+1)
		}
	}
	h.fields = append(front, h.fields...)
}

// Fields returns one field line per name.
func (h *Headers) Fields() []http.Field {
	fields := make([]http.Field, 0, len(h.fields))
	for _, f := range h.fields {
		fields = append(fields, http.Field{
			Name:  []byte(f.name),
			Value: []byte(strings.Join(f.values, ", ")),
		})
	}
	return fields
}

func (h *Headers) index(name string) int {
	name = canonical(name)
	return slices.IndexFunc(h.fields, func(f headerField) bool { return f.name == name })
}

// canonical converts name like "content-type" into "Content-Type".
func canonical(name string) string {
	return textproto.CanonicalMIMEHeaderKey(name)
}
