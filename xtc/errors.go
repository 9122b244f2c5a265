package xtc

import (
	"io"

	"github.com/pkg/errors"
)

// Sentinel errors returned by the decoder. Callers should match against these
// with errors.Is, since every I/O boundary wraps them with github.com/pkg/errors
// for additional context before returning.
var (
	// ErrInvalidMagic is returned when a frame header's magic number does not
	// equal MagicNumber.
	ErrInvalidMagic = errors.New("xtc: invalid magic number")

	// ErrInvalidNumericField is returned when a header's natoms field does
	// not equal its repeated natoms field.
	ErrInvalidNumericField = errors.New("xtc: invalid numeric field")

	// ErrCorruptCompressedStream is returned when the compressed position
	// stream violates an invariant the decoder relies on: an out-of-range
	// smallidx, a zero MAGICINTS entry after adaptation, or a length mismatch
	// between the declared and actual opaque payload.
	ErrCorruptCompressedStream = errors.New("xtc: corrupt compressed stream")

	// ErrInvalidSelection is returned at construction time when a selection
	// would be nonsensical to evaluate, e.g. a FrameRange with a zero step.
	ErrInvalidSelection = errors.New("xtc: invalid selection")
)

// isCleanEOF reports whether err is the unadorned io.EOF returned by a read
// that found nothing at all, which bulk-read helpers treat as "end of
// trajectory" rather than as a hard failure. A frame cut short partway
// through (io.ErrUnexpectedEOF, or any wrapped EOF) is not clean.
func isCleanEOF(err error) bool {
	return err == io.EOF
}
