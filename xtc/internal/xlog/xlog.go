// Package xlog provides the structured logger xtc and cmd/xtcfilter share.
// It wraps zerolog instead of exposing it directly so call sites don't need
// to know the concrete logging library.
package xlog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Enabled gates decode-time trace logging behind a runtime switch rather
// than a build tag. It defaults to off: tracing once per frame header and
// once per compressed payload is too noisy for normal use.
var Enabled = false

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// Logger returns the shared logger instance.
func Logger() *zerolog.Logger { return &logger }

// SetOutput redirects future log output, mainly so tests and cmd/xtcfilter
// can capture or silence it.
func SetOutput(w io.Writer) {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
}

// Trace logs a decode-time event when Enabled is set. event names the
// operation ("read_header", "decode_compressed_frame", ...); fields are attached as
// structured key/value pairs rather than interpolated into the message.
func Trace(event string, fields map[string]any) {
	if !Enabled {
		return
	}
	e := logger.Trace().Str("event", event)
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg("xtc decode trace")
}
