package uri

import (
	"strings"

	"github.com/pkg/errors"
)

var ErrBadEscape = errors.New("invalid percent-encoding")

func hexValue(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// Unescape decodes every %XX triplet in s.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.1
func Unescape(s string) (string, error) {
	n := strings.Count(s, "%")
	if n == 0 {
		return s, nil
	}

	out := make([]byte, 0, len(s)-2*n)
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			out = append(out, s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", errors.Wrapf(ErrBadEscape, "truncated at offset %d", i)
		}
		hi, ok1 := hexValue(s[i+1])
		lo, ok2 := hexValue(s[i+2])
		if !ok1 || !ok2 {
			return "", errors.Wrapf(ErrBadEscape, "%q", s[i:i+3])
		}
		out = append(out, hi<<4|lo)
		i += 2
	}

	return string(out), nil
}
