package xtc

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// MagicNumber is the fixed value that must open every xtc frame header.
const MagicNumber int32 = 1995

// Padding4 returns the number of zero bytes that follow an XDR opaque blob of
// n bytes so that the blob occupies a multiple of 4 bytes on the wire.
func Padding4(n int) int {
	return (4 - (n % 4)) % 4
}

// ReadI32 reads a single big-endian, XDR-encoded signed 32-bit integer.
//
// A read that finds nothing at all returns io.EOF; a read that finds some
// but not all of the four bytes returns io.ErrUnexpectedEOF. Both are
// propagated unwrapped so callers enumerating frames can tell "end of
// trajectory" apart from "truncated frame" with errors.Is.
func ReadI32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

// ReadU32 reads a single big-endian, XDR-encoded unsigned 32-bit integer.
func ReadU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// ReadF32 reads a single big-endian, IEEE-754, XDR-encoded 32-bit float.
func ReadF32(r io.Reader) (float32, error) {
	bits, err := ReadU32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// ReadF32s fills dst with len(dst) consecutive big-endian floats.
func ReadF32s(r io.Reader, dst []float32) error {
	for i := range dst {
		v, err := ReadF32(r)
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

// ReadBoxVec reads the nine wire floats of a frame's simulation box and
// returns them as a column-major 3x3 matrix.
//
// The wire order is row-major: the first three floats are the first row, and
// so on. BoxVec is stored column-major, so this transposes while reading.
// See DESIGN.md for the open question this resolves.
func ReadBoxVec(r io.Reader) (BoxVec, error) {
	var raw [9]float32
	if err := ReadF32s(r, raw[:]); err != nil {
		return BoxVec{}, err
	}
	return BoxVec{
		{raw[0], raw[1], raw[2]},
		{raw[3], raw[4], raw[5]},
		{raw[6], raw[7], raw[8]},
	}, nil
}

// ReadOpaque reads an XDR "opaque" blob: a u32 byte count n, followed by n
// bytes of payload, followed by Padding4(n) bytes of zero padding. dst is
// resized to n+Padding4(n) bytes and filled with the payload plus padding.
func ReadOpaque(r io.Reader, dst *[]byte) error {
	n, err := ReadU32(r)
	if err != nil {
		return err
	}
	count := int(n)
	total := count + Padding4(count)
	if cap(*dst) < total {
		*dst = make([]byte, total)
	} else {
		*dst = (*dst)[:total]
	}
	if _, err := io.ReadFull(r, *dst); err != nil {
		return errors.Wrap(err, "xtc: reading opaque payload")
	}
	return nil
}
