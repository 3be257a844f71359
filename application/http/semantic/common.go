package semantic

import (
	"time"
)

type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodConnect Method = "CONNECT"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

func defaultPort(scheme string) (uint16, bool) {
	switch scheme {
	case "http":
		return 80, true
	case "https":
		return 443, true
	}
	return 0, false
}

// imfFixDate is the only date format a sender may generate.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.7-6
const imfFixDate = "Mon, 02 Jan 2006 15:04:05 GMT"

// FormatDate formats t as IMF-fixdate, in GMT whatever the location of t is.
func FormatDate(t time.Time) string {
	return t.UTC().Format(imfFixDate)
}
