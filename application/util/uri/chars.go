package uri

import (
	"static-httpd/application/util/rule"
)

// class is a set of bytes allowed literally in a URI component.
type class func(c byte) bool

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.3
func unreserved(c byte) bool {
	switch c {
	case '-', '.', '_', '~':
		return true
	}
	return rule.IsAlpha(rune(c)) || rule.IsDigit(rune(c))
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.2
func subDelim(c byte) bool {
	switch c {
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=':
		return true
	}
	return false
}

func regName(c byte) bool { return unreserved(c) || subDelim(c) }

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.3
func pchar(c byte) bool { return regName(c) || c == ':' || c == '@' }

func pathChar(c byte) bool { return pchar(c) || c == '/' }

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.4
func queryChar(c byte) bool { return pchar(c) || c == '/' || c == '?' }

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.1
func schemeChar(c byte) bool {
	return rule.IsAlpha(rune(c)) || rule.IsDigit(rune(c)) || c == '+' || c == '-' || c == '.'
}

// conforms reports whether every byte of s is in allowed or part of a %XX triplet.
func conforms(s string, allowed class) bool {
	for i := 0; i < len(s); i++ {
		switch {
		case allowed(s[i]):
		case s[i] == '%' && i+2 < len(s) && rule.IsHex(rune(s[i+1])) && rule.IsHex(rune(s[i+2])):
			i += 2
		default:
			return false
		}
	}
	return true
}

func validScheme(s string) bool {
	if s == "" || !rule.IsAlpha(rune(s[0])) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !schemeChar(s[i]) {
			return false
		}
	}
	return true
}
