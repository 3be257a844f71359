package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"static-httpd/application/http"
	"static-httpd/application/http/semantic"
	"static-httpd/application/http/semantic/status"
	iolib "static-httpd/lib/io"
	"static-httpd/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

var errMissingBody = errors.New("response has a length but no body")

type state uint8

const (
	stateAwaitingRequestLine state = iota
	stateParsingHeaders
	stateResolvingResource
	stateWritingResponse
	stateError
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateAwaitingRequestLine:
		return "awaiting-request-line"
	case stateParsingHeaders:
		return "parsing-headers"
	case stateResolvingResource:
		return "resolving-resource"
	case stateWritingResponse:
		return "writing-response"
	case stateError:
		return "error"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

type conn struct {
	con transport.Conn

	r *iolib.UntilReader
	// w tells whether any byte of response was written.
	w *iolib.CountingWriter

	handle HandleFunc
	clock  clock.Clock

	logger *slog.Logger

	opts Options

	state state
}

func (c *conn) setState(s state) {
	c.logger.Debug("connection state changed", "from", c.state, "to", s)
	c.state = s
}

func (c *conn) start(ctx context.Context) {
	defer func() {
		c.setState(stateClosed)
		if err := c.con.Close(); err != nil {
			c.logger.Debug("error when closing connection", "error", err)
		}
	}()

	err := c.serve(ctx)
	switch {
	case err == nil:
		// no-op.
	case errors.Is(err, context.Canceled):
		c.logger.Debug("connection closed by server shutdown")
	case errors.Is(err, transport.ErrConnClosed):
		c.logger.Info("connection closed by peer", "state", c.state, "error", err)
	case c.w.Committed():
		c.logger.Error("response aborted after headers were sent", "error", err)
	default:
		c.logger.Error("failed to serve connection", "state", c.state, "error", err)
	}
}

func (c *conn) serve(ctx context.Context) error {
	enc := http.NewResponseEncoder(c.w, c.opts.Serve.Encode)

	var response *semantic.Response

	request, err := c.readRequest(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, transport.ErrConnClosed) {
			return err
		}

		c.setState(stateError)
		c.logger.Info("failed to read request", "error", err)

		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-9
		response = statusErrToResponse(toStatusError(err))
	} else {
		c.setState(stateResolvingResource)

		hctx := &HandleContext{
			ctx:        ctx,
			remoteAddr: c.con.RemoteAddr(),
			logger:     c.logger,
		}
		response, err = hctx.doHandle(c.handle, request)
		if err != nil {
			c.setState(stateError)
			c.logger.Error("handler failed", "error", err)
			response = statusErrToResponse(status.NewError(err, status.InternalServerError))
		}

		c.logger.Info("request served",
			"method", request.Method,
			"path", request.URI.Path,
			"status", response.Status.Code,
		)
	}

	c.setState(stateWritingResponse)
	if err := c.writeResponse(request, response, enc); err != nil {
		return errors.Wrap(err, "writing response")
	}

	return nil
}

// readRequest reads the request head.
// The request body is never read, as only one request is served per connection.
func (c *conn) readRequest(ctx context.Context) (*semantic.Request, error) {
	timeout := c.opts.Serve.Timeout.ReadTimeout

	if timeout > 0 {
		c.con.SetReadDeadLine(c.clock.Now().Add(timeout))
	}

	// Server shutdown aborts a request that is not fully received.
	stop := context.AfterFunc(ctx, func() { c.con.Close() })

	var raw http.Request
	err := c.decodeRequest(&raw)

	if !stop() {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	request, err := semantic.RequestFrom(&raw, c.opts.Serve.Parse)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create a semantic request")
	}
	request.Body = bytes.NewReader(nil)

	return request, nil
}

func (c *conn) decodeRequest(raw *http.Request) error {
	dec := http.NewRequestDecoder(c.r, c.opts.Serve.Decode)

	c.setState(stateAwaitingRequestLine)
	if err := dec.DecodeRequestLine(&raw.RequestLine); err != nil {
		return errors.Wrap(err, "parsing request line")
	}

	c.setState(stateParsingHeaders)
	if err := dec.DecodeHeaders(&raw.Headers); err != nil {
		return errors.Wrap(err, "parsing headers")
	}

	return nil
}

// writeResponse writes response with exact Content-Length.
// request is nil if it could not be read.
func (c *conn) writeResponse(request *semantic.Request, response *semantic.Response, e *http.ResponseEncoder) error {
	if closer, ok := response.Body.(io.Closer); ok {
		defer closer.Close()
	}

	timeout := c.opts.Serve.Timeout.WriteTimeout

	if timeout > 0 {
		c.con.SetWriteDeadLine(c.clock.Now().Add(timeout))
	}

	if response.ContentLength == nil {
		// The length must be known before anything is sent.
		if err := bufferBody(response); err != nil {
			c.logger.Error("failed to read response body", "error", err)
			response = statusErrToResponse(status.NewError(err, status.InternalServerError))
		}
	}

	isHead := request != nil && request.Method == semantic.MethodHead

	// A HEAD response may announce a length it never sends, any other may not.
	if response.Body == nil && *response.ContentLength > 0 && !isHead {
		err := errors.Wrapf(errMissingBody, "Content-Length %d", *response.ContentLength)
		c.logger.Error("invalid response from handler", "error", err)
		response = statusErrToResponse(status.NewError(err, status.InternalServerError))
	}

	// Body must be exactly as long as announced.
	// If it ends early, writing fails and the connection is closed.
	if response.Body != nil {
		response.Body = iolib.ExactReader(response.Body, *response.ContentLength)
	}

	if isHead {
		// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-9.3.2
		response.Body = nil
	}

	// Responses are always HTTP/1.1, whatever the request's minor version is.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-6.2-6
	response.Version = http.Version{1, 1}
	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-6.6.1-6
	response.Date = c.clock.Now()
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-9.6
	response.Headers.Set("Connection", "close")

	response.EnsureHeadersSet()

	if err := e.Encode(response.RawResponse()); err != nil {
		return err
	}

	return nil
}

func bufferBody(response *semantic.Response) error {
	if response.Body == nil {
		response.ContentLength = new(uint)
		return nil
	}

	b, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	l := uint(len(b))
	response.ContentLength = &l
	response.Body = bytes.NewReader(b)

	return nil
}

// toStatusError converts error into [status.Error].
// It assumes that error is returned when reading request,
// so if it isn't any specific error, it will return error with [status.BadRequest].
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-9
func toStatusError(err error) status.Error {
	if errors.Is(err, transport.ErrDeadLineExceeded) {
		return status.NewError(err, status.RequestTimeout)
	}

	if errors.Is(err, semantic.ErrURITooLong) {
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3-4
		return status.NewError(err, status.URITooLong)
	}

	return status.NewError(err, status.BadRequest)
}
