package server

import (
	"bytes"
	"context"
	"log/slog"
	"static-httpd/application/http/semantic"
	"static-httpd/application/http/semantic/status"
	"static-httpd/transport"

	"github.com/pkg/errors"
)

// HandleFunc answers a request. It must return a non-nil response.
// The response body, if it implements [io.Closer], is closed after it is written.
type HandleFunc func(c *HandleContext, request *semantic.Request) *semantic.Response

type HandleContext struct {
	ctx context.Context

	remoteAddr transport.Addr

	logger *slog.Logger
}

// NewHandleContext creates a context for calling a [HandleFunc] outside of a [Server].
func NewHandleContext(ctx context.Context, remoteAddr transport.Addr, logger *slog.Logger) *HandleContext {
	return &HandleContext{ctx: ctx, remoteAddr: remoteAddr, logger: logger}
}

func (c *HandleContext) doHandle(handle HandleFunc, request *semantic.Request) (res *semantic.Response, err error) {
	defer func() {
		if e := recover(); e != nil {
			res, err = nil, errors.Errorf("handler panicked: %v", e)
		}
	}()

	response := handle(c, request)
	if response == nil {
		return nil, errors.New("nil response is forbidden")
	}

	return response, nil
}

func (c *HandleContext) Context() context.Context   { return c.ctx }
func (c *HandleContext) RemoteAddr() transport.Addr { return c.remoteAddr }
func (c *HandleContext) Logger() *slog.Logger       { return c.logger }

// Error creates an error response for err.
// A [status.Error] decides the status, any other error is answered with [status.InternalServerError].
func (c *HandleContext) Error(err error) *semantic.Response {
	if err == nil {
		err = errors.New("Error() called with nil error")
	}

	var statusErr status.Error
	if errors.As(err, &statusErr) {
		return statusErrToResponse(statusErr)
	}

	if errors.Is(err, transport.ErrDeadLineExceeded) {
		return statusErrToResponse(status.NewError(err, status.RequestTimeout))
	}

	c.logger.Error("unexpected error while handling request", "error", err)

	return statusErrToResponse(status.NewError(err, status.InternalServerError))
}

// statusErrToResponse creates a response with a small HTML page describing the status.
// The cause is never exposed to the client.
func statusErrToResponse(se status.Error) *semantic.Response {
	page := StatusPage(se.Status)
	l := uint(len(page))

	res := semantic.NewResponse(se.Status)
	res.Headers.Set("Content-Type", "text/html")
	res.ContentLength = &l
	res.Body = bytes.NewReader(page)

	return res
}

// StatusPage renders the fixed HTML page for st.
func StatusPage(st status.Status) []byte {
	title := st.String()
	return []byte("<!DOCTYPE html>\n" +
		"<html><head><title>" + title + "</title></head>" +
		"<body><h1>" + title + "</h1></body></html>\n")
}
