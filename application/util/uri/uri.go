package uri

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// URI is a parsed request target. Path and Query are percent-decoded.
type URI struct {
	Scheme    string
	Authority *Authority
	Path      string
	Query     *string
}

type Authority struct {
	Host string
	Port *uint16
}

// IsAbsoluteURI reports whether u carries a scheme.
func (u *URI) IsAbsoluteURI() bool { return u.Scheme != "" }

var (
	ErrFragment = errors.New("fragment is not allowed")
	ErrUserInfo = errors.New("user information is not allowed")
	ErrInvalid  = errors.New("invalid URI")
)

// Parse parses raw as a URI reference. Fragments and user information are rejected
// since they never appear in a request target.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-4.2.4
func Parse(raw string) (URI, error) {
	if strings.IndexFunc(raw, func(r rune) bool { return r < ' ' || r == 0x7f }) >= 0 {
		return URI{}, errors.Wrap(ErrInvalid, "control character")
	}
	if strings.IndexByte(raw, '#') >= 0 {
		return URI{}, ErrFragment
	}

	var (
		u   URI
		err error
	)

	rest := raw
	// A colon before the first '/' or '?' ends the scheme.
	if end := strings.IndexAny(rest, "/?"); strings.IndexByte(prefix(rest, end), ':') >= 0 {
		var scheme string
		scheme, rest, _ = strings.Cut(rest, ":")
		if !validScheme(scheme) {
			return URI{}, errors.Wrapf(ErrInvalid, "scheme %q", scheme)
		}
		u.Scheme = strings.ToLower(scheme)
	}

	if after, ok := strings.CutPrefix(rest, "//"); ok {
		end := strings.IndexAny(after, "/?")
		if end < 0 {
			end = len(after)
		}
		a, err := ParseAuthority(after[:end])
		if err != nil {
			return URI{}, err
		}
		u.Authority = &a
		rest = after[end:]
	}

	path, query, hasQuery := strings.Cut(rest, "?")
	if err := checkPath(path, u.Authority != nil); err != nil {
		return URI{}, err
	}
	if u.Path, err = Unescape(path); err != nil {
		return URI{}, err
	}

	if hasQuery {
		if !conforms(query, queryChar) {
			return URI{}, errors.Wrap(ErrInvalid, "query")
		}
		q, err := Unescape(query)
		if err != nil {
			return URI{}, err
		}
		u.Query = &q
	}

	return u, nil
}

func prefix(s string, end int) string {
	if end < 0 {
		return s
	}
	return s[:end]
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.3
func checkPath(path string, hasAuthority bool) error {
	switch {
	case hasAuthority && path != "" && path[0] != '/':
		return errors.Wrap(ErrInvalid, "path after authority must start with '/'")
	case !conforms(path, pathChar):
		return errors.Wrap(ErrInvalid, "path")
	}
	return nil
}

// ParseAuthority parses "host[:port]", the value of a Host field.
// Host is lowercased and decoded.
func ParseAuthority(raw string) (Authority, error) {
	if strings.IndexByte(raw, '@') >= 0 {
		return Authority{}, ErrUserInfo
	}

	host, port := raw, ""
	if strings.HasPrefix(raw, "[") {
		end := strings.IndexByte(raw, ']')
		if end < 0 {
			return Authority{}, errors.Wrap(ErrInvalid, "unterminated IP literal")
		}
		if _, err := netip.ParseAddr(raw[1:end]); err != nil {
			return Authority{}, errors.Wrap(ErrInvalid, err.Error())
		}
		host, port = raw[:end+1], raw[end+1:]
		if port != "" && port[0] != ':' {
			return Authority{}, errors.Wrap(ErrInvalid, "garbage after IP literal")
		}
	} else {
		if i := strings.LastIndexByte(raw, ':'); i >= 0 {
			host, port = raw[:i], raw[i:]
		}
		if !conforms(host, regName) {
			return Authority{}, errors.Wrapf(ErrInvalid, "host %q", host)
		}
	}
	if len(host) > 255 {
		return Authority{}, errors.Wrap(ErrInvalid, "host too long")
	}

	var (
		a   Authority
		err error
	)
	if a.Host, err = Unescape(host); err != nil {
		return Authority{}, err
	}
	a.Host = strings.ToLower(a.Host)

	// An empty port after the colon means no port.
	// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.3
	if digits := strings.TrimPrefix(port, ":"); digits != "" {
		n, err := strconv.ParseUint(digits, 10, 16)
		if err != nil {
			return Authority{}, errors.Wrapf(ErrInvalid, "port %q", digits)
		}
		p := uint16(n)
		a.Port = &p
	}

	return a, nil
}
