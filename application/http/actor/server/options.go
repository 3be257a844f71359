package server

import (
	"static-httpd/application/http"
	"static-httpd/application/http/semantic"
	"time"
)

type Options struct {
	Serve ServeOptions

	// MaxConns bounds the number of connections served at once.
	// Accepting is never blocked by it: surplus connections wait for a free slot.
	// Zero means no limit.
	MaxConns uint
}

type ServeOptions struct {
	Encode http.EncodeOptions
	Decode http.DecodeOptions

	Parse semantic.ParseRequestOptions

	Timeout TimeoutOptions
}

type TimeoutOptions struct {
	// ReadTimeout bounds the time to receive the whole request head.
	ReadTimeout time.Duration
	// WriteTimeout bounds the time to write the whole response.
	WriteTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Serve: ServeOptions{
			Encode: http.DefaultEncodeOptions,
			Decode: http.DefaultDecodeOptions,
			Timeout: TimeoutOptions{
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 30 * time.Second,
			},
		},
	}
}
