// Package status lists the response statuses the server sends.
package status

import "strconv"

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15
type Status struct {
	Code         uint
	ReasonPhrase string
}

func (s Status) String() string {
	return strconv.FormatUint(uint64(s.Code), 10) + " " + s.ReasonPhrase
}

var (
	OK = Status{200, "OK"}

	BadRequest       = Status{400, "Bad Request"}
	Forbidden        = Status{403, "Forbidden"}
	NotFound         = Status{404, "Not Found"}
	MethodNotAllowed = Status{405, "Method Not Allowed"}
	RequestTimeout   = Status{408, "Request Timeout"}
	URITooLong       = Status{414, "URI Too Long"}

	InternalServerError = Status{500, "Internal Server Error"}
)
