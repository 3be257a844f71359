package semantic

import (
	"static-httpd/application/http"
	"static-httpd/application/http/semantic/status"
	"time"
)

type Response struct {
	Message

	Status status.Status
	// Date is written into the Date field unless zero.
	Date time.Time
}

// NewResponse creates an HTTP/1.1 response with no fields.
func NewResponse(st status.Status) *Response {
	return &Response{
		Message: Message{Version: http.Version{1, 1}},
		Status:  st,
	}
}

// headerOrder is written first, so the same response is always encoded identically.
var headerOrder = []string{"Content-Type", "Content-Length", "Date", "Connection"}

// EnsureHeadersSet writes ContentLength and Date into headers, and orders them.
func (r *Response) EnsureHeadersSet() {
	r.Message.EnsureHeadersSet()

	if !r.Date.IsZero() {
		r.Headers.Set("Date", FormatDate(r.Date))
	}

	r.Headers.MoveToFront(headerOrder...)
}

func (r *Response) RawResponse() http.Response {
	return http.Response{
		StatusLine: http.StatusLine{
			Version:      r.Version,
			StatusCode:   r.Status.Code,
			ReasonPhrase: r.Status.ReasonPhrase,
		},
		Headers: r.Headers.Fields(),
		Body:    r.Body,
	}
}
