package xtc

import (
	"io"

	"github.com/pkg/errors"
)

// BlockSize is the chunk size used by the buffered FetchBuffer's on-demand
// reads from the underlying reader.
const BlockSize = 0x20000

// MinBufferedSize is the payload size threshold below which the buffered
// FetchBuffer just reads everything up front instead of reading in blocks.
// See DESIGN.md for the reasoning behind this specific multiple of BlockSize.
const MinBufferedSize = 2 * BlockSize

// FetchBuffer provides sequential byte access over a single frame's
// compressed position payload, on the wire a u32 length prefix followed by
// that many bytes plus XDR padding.
//
// Constructing a FetchBuffer consumes the length prefix. Finish must be
// called exactly once decoding is done (whether it ran to completion or
// stopped early because of a selector) so the underlying reader ends up
// positioned at the first byte after the payload, ready for the next
// frame's header.
type FetchBuffer interface {
	// Pop returns the next byte in the payload and advances the cursor.
	// Popping past the end of the payload is a bug in the caller and panics.
	Pop() byte
	// Tell returns the number of bytes popped so far.
	Tell() int
	// Finish leaves the underlying reader positioned one byte past the
	// payload, including its XDR padding.
	Finish() error
}

// unbufferedFetch reads the entire payload up front into scratch; Pop is a
// plain slice index. This is the faster strategy when the whole payload will
// be consumed, since it does one large read instead of many small ones.
type unbufferedFetch struct {
	data []byte
	head int
}

// NewUnbuffered constructs a FetchBuffer that eagerly reads the whole
// payload into *scratch.
func NewUnbuffered(scratch *[]byte, r io.Reader) (FetchBuffer, error) {
	if err := ReadOpaque(r, scratch); err != nil {
		return nil, errors.Wrap(err, "xtc: unbuffered fetch")
	}
	return &unbufferedFetch{data: *scratch}, nil
}

func (b *unbufferedFetch) Pop() byte {
	v := b.data[b.head]
	b.head++
	return v
}

func (b *unbufferedFetch) Tell() int { return b.head }

func (b *unbufferedFetch) Finish() error { return nil }

// bufferedFetch reads the payload lazily, in BlockSize chunks, from a
// seekable reader. This wins big when an AtomSelection truncates decoding
// well before the payload ends: most blocks are simply never read.
type bufferedFetch struct {
	scratch []byte // full n+Padding4(n) bytes, filled up to `front`
	front   int    // next unfilled position in scratch
	head    int    // next position Pop will return
	reader  io.ReadSeeker
}

// NewBuffered constructs a FetchBuffer that reads from rs in BlockSize
// chunks as Pop demands them, or eagerly if the payload is small enough that
// there is no benefit to deferring the read (see MinBufferedSize).
func NewBuffered(scratch *[]byte, rs io.ReadSeeker) (FetchBuffer, error) {
	n, err := ReadU32(rs)
	if err != nil {
		return nil, errors.Wrap(err, "xtc: buffered fetch length prefix")
	}
	count := int(n)
	total := count + Padding4(count)
	if cap(*scratch) < total {
		*scratch = make([]byte, total)
	} else {
		*scratch = (*scratch)[:total]
	}

	b := &bufferedFetch{scratch: *scratch, reader: rs}
	if total <= MinBufferedSize {
		if err := b.readToInclude(total - 1); err != nil {
			return nil, errors.Wrap(err, "xtc: buffered fetch eager read")
		}
	}
	return b, nil
}

// readToInclude reads from the underlying reader, in BlockSize chunks, until
// scratch[index] has been filled.
func (b *bufferedFetch) readToInclude(index int) error {
	if index >= len(b.scratch) {
		return io.ErrUnexpectedEOF
	}
	for b.front <= index {
		until := min(len(b.scratch), b.front+BlockSize)
		n, err := b.reader.Read(b.scratch[b.front:until])
		b.front += n
		if n == 0 && err != nil {
			return err
		}
	}
	return nil
}

func (b *bufferedFetch) Pop() byte {
	if b.head >= b.front {
		if err := b.readToInclude(b.head); err != nil {
			panic(errors.Wrap(err, "xtc: buffered fetch pop"))
		}
	}
	v := b.scratch[b.head]
	b.head++
	return v
}

func (b *bufferedFetch) Tell() int { return b.head }

func (b *bufferedFetch) Finish() error {
	left := len(b.scratch) - b.front
	if left == 0 {
		return nil
	}
	_, err := b.reader.Seek(int64(left), io.SeekCurrent)
	return err
}
