package semantic

import (
	"slices"
	"static-httpd/application/http"
	"static-httpd/application/util/uri"
	"strings"

	"github.com/pkg/errors"
)

type Request struct {
	Message

	Method Method
	// URI is the target, with Path and Query percent-decoded.
	URI uri.URI

	// Host is the host of the target in absolute-form, else of the Host field.
	// It never contains a port, and may be empty.
	Host string
}

type ParseRequestOptions struct {
	// SupportedVersions lists the versions accepted on the request line.
	// Empty means [DefaultSupportedVersions].
	SupportedVersions []http.Version

	// MaxURILen limits the request target. Zero means no limit.
	MaxURILen uint
}

// DefaultSupportedVersions are the versions whose messages share HTTP/1.1 syntax.
func DefaultSupportedVersions() []http.Version {
	return []http.Version{{1, 0}, {1, 1}}
}

var (
	ErrUnsupportedVersion = errors.New("http version is not supported")
	ErrURITooLong         = errors.New("uri too long")
	ErrUnsupportedTarget  = errors.New("request target form is not supported")
	ErrInvalidTarget      = errors.New("request target is invalid")
	ErrInvalidHost        = errors.New("invalid Host")
)

// RequestFrom interprets raw.
// Only origin-form and absolute-form targets are accepted, as they are the ones naming a resource.
func RequestFrom(raw *http.Request, opts ParseRequestOptions) (*Request, error) {
	versions := opts.SupportedVersions
	if len(versions) == 0 {
		versions = DefaultSupportedVersions()
	}
	if !slices.Contains(versions, raw.Version) {
		return nil, errors.Wrap(ErrUnsupportedVersion, raw.Version.String())
	}

	r := &Request{
		Message: Message{
			Version: raw.Version,
			Headers: HeadersFrom(raw.Headers),
			Body:    raw.Body,
		},
		Method: Method(raw.Method),
	}

	var err error
	if r.ContentLength, err = contentLength(r.Headers); err != nil {
		return nil, err
	}

	if r.URI, err = parseTarget(raw.Target, opts.MaxURILen); err != nil {
		return nil, err
	}

	// A host in the target wins over the Host field.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2.2-8
	if r.URI.Authority != nil {
		r.Host = r.URI.Authority.Host
		r.Headers.Set("Host", r.Host)
	} else if r.Host, err = hostField(r.Headers); err != nil {
		return nil, err
	}

	return r, nil
}

// parseTarget parses origin-form and absolute-form.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2
func parseTarget(raw string, maxLen uint) (uri.URI, error) {
	if maxLen > 0 && uint(len(raw)) > maxLen {
		return uri.URI{}, errors.Wrapf(ErrURITooLong, "%d bytes", len(raw))
	}

	if raw == "*" {
		return uri.URI{}, errors.Wrap(ErrUnsupportedTarget, "asterisk-form")
	}

	u, err := uri.Parse(raw)
	if err != nil {
		// authority-form is the only other form, and it is not a URI reference.
		return uri.URI{}, errors.Wrap(ErrInvalidTarget, err.Error())
	}

	if u.IsAbsoluteURI() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return uri.URI{}, errors.Wrapf(ErrInvalidTarget, "scheme %q", u.Scheme)
		}
		if u.Authority == nil || u.Authority.Host == "" {
			return uri.URI{}, errors.Wrap(ErrInvalidTarget, "absolute-form without host")
		}
	} else if u.Authority != nil || !strings.HasPrefix(u.Path, "/") {
		return uri.URI{}, errors.Wrap(ErrInvalidTarget, "origin-form should start with /")
	}

	return normalize(u), nil
}

// normalize applies the http-specific normalization. The rest is done by [uri.Parse].
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-4.2.3
func normalize(u uri.URI) uri.URI {
	if u.Authority != nil && u.Authority.Port != nil {
		if port, ok := defaultPort(u.Scheme); ok && port == *u.Authority.Port {
			u.Authority.Port = nil
		}
	}

	if u.Path == "" {
		u.Path = "/"
	}

	return u
}

// hostField returns the host of the Host field, without port.
func hostField(h Headers) (string, error) {
	values := h.Values("Host")
	switch len(values) {
	case 0:
		return "", nil
	case 1:
	default:
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2-6
		return "", errors.Wrap(ErrInvalidHost, "more than one Host")
	}

	authority, err := uri.ParseAuthority(values[0])
	if err != nil {
		return "", errors.Wrap(ErrInvalidHost, err.Error())
	}

	return authority.Host, nil
}
