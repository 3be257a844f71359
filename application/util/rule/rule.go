// Package rule holds the character classes shared by the HTTP codec and the URI parser.
package rule

const (
	CR   byte = '\r'
	LF   byte = '\n'
	SP   byte = ' '
	HTAB byte = '\t'
)

// OWS is optional whitespace around a field value.
var OWS = []byte{SP, HTAB}

func IsAlpha(r rune) bool { return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') }

func IsDigit(r rune) bool { return '0' <= r && r <= '9' }

func IsHex(r rune) bool {
	return IsDigit(r) || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

// IsTchar reports whether r may appear in a token.
// See https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.2
func IsTchar(r rune) bool {
	if IsAlpha(r) || IsDigit(r) {
		return true
	}
	switch r {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

// IsValidToken reports whether s is a non-empty sequence of tchars.
func IsValidToken(s string) bool {
	for _, r := range s {
		if !IsTchar(r) {
			return false
		}
	}
	return s != ""
}
