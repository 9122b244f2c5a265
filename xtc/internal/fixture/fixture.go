// Package fixture synthesizes byte-exact xtc frames for tests. Real
// trajectory files are large binary artifacts that don't belong in a
// source tree, so tests build the handful of byte layouts they need to
// exercise here instead, using the same bit-packing rules the decoder
// expects rather than literal byte slices.
package fixture

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/thebagchi/xtc-go/xtc/internal/bitbuffer"
)

// Header encodes a 56-byte frame header.
func Header(magic int32, natoms, step uint32, time float32, boxvec [3][3]float32, natomsRepeated uint32) []byte {
	var buf bytes.Buffer
	writeI32(&buf, magic)
	writeU32(&buf, natoms)
	writeU32(&buf, step)
	writeF32(&buf, time)
	for _, col := range boxvec {
		for _, v := range col {
			writeF32(&buf, v)
		}
	}
	writeU32(&buf, natomsRepeated)
	return buf.Bytes()
}

// SmolFrame encodes a full frame using the uncompressed, directly-readable
// position layout used for 9 atoms or fewer.
func SmolFrame(step uint32, time float32, boxvec [3][3]float32, positions [][3]float32) []byte {
	natoms := uint32(len(positions))
	var buf bytes.Buffer
	buf.Write(Header(1995, natoms, step, time, boxvec, natoms))
	for _, p := range positions {
		writeF32(&buf, p[0])
		writeF32(&buf, p[1])
		writeF32(&buf, p[2])
	}
	return buf.Bytes()
}

func writeI32(buf *bytes.Buffer, v int32) { writeU32(buf, uint32(v)) }
func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
func writeF32(buf *bytes.Buffer, v float32) {
	writeU32(buf, math.Float32bits(v))
}

// CompressedPayload is a builder for the bit-packed portion of a compressed
// frame: one or more "groups", each a header triplet optionally followed by
// a run-length-encoded series of small delta triplets.
type CompressedPayload struct {
	c        *bitbuffer.Codec
	minint   [3]int32
	sizeint  [3]uint32
	bitsize  uint32
	smallidx uint32
}

// NewCompressedPayload starts a payload builder. sizeint and bitsize should
// match what calcSizeInt would derive from minint/maxint in the xtc
// package, i.e. bitsize must be nonzero and <= 32 for this builder (the
// fixtures it backs never need the large-size path).
func NewCompressedPayload(minint [3]int32, sizeint [3]uint32, bitsize, smallidx uint32) *CompressedPayload {
	return &CompressedPayload{c: bitbuffer.NewWriter(), minint: minint, sizeint: sizeint, bitsize: bitsize, smallidx: smallidx}
}

// WriteAtom writes one header coordinate with no following run. coord is
// the final, post-minint value the decoder should produce.
func (p *CompressedPayload) WriteAtom(coord [3]int32) {
	p.writePackedTriplet(p.bitsize, subInt(coord, p.minint), p.sizeint)
	p.c.Write(1, 0) // no run
}

// WriteRun writes one header coordinate followed by a run of deltas. deltas
// must hold at least one triplet; each triplet is
// the encoded (coord - runningPrev + smallnum) value the decoder will add
// back, per the run-length sub-triplet rule. isSmaller selects which way
// the adaptive smallidx should move after this group: -1, 0, or 1.
func (p *CompressedPayload) WriteRun(header [3]int32, deltas [][3]int32, isSmaller int) {
	p.writePackedTriplet(p.bitsize, subInt(header, p.minint), p.sizeint)
	p.c.Write(1, 1)

	// The wire "run" count is in coordinate components, three per delta
	// triplet, not in triplets: the decoder's k loop steps by 3 and decodes
	// one triplet per step, stopping once k reaches this count.
	run := uint32(len(deltas)) * 3
	mod := uint32(isSmaller + 1)
	p.c.Write(5, uint64(run+mod))

	magic := magicInts[p.smallidx]
	sizesmall := [3]uint32{uint32(magic), uint32(magic), uint32(magic)}
	for _, d := range deltas {
		p.writePackedTriplet(p.smallidx, d, sizesmall)
	}
}

// Bytes returns the bit-packed payload built so far, padded to a byte
// boundary.
func (p *CompressedPayload) Bytes() []byte {
	p.c.Align()
	return p.c.Bytes()
}

// writePackedTriplet writes a (x, y, z) triplet into one nbits-wide
// mixed-radix integer, using the same byte-reassembly order the decoder's
// unpackTriplet32 expects: the first bits written land in the
// least-significant byte of the packed value.
func (p *CompressedPayload) writePackedTriplet(nbits uint32, coord [3]int32, sizes [3]uint32) {
	sz, sy := uint64(sizes[2]), uint64(sizes[1])
	v := uint64(coord[0])*sz*sy + uint64(coord[1])*sz + uint64(coord[2])

	remaining := nbits
	nbytes := uint32(0)
	for remaining >= 8 {
		p.c.Write(8, (v>>(8*nbytes))&0xff)
		nbytes++
		remaining -= 8
	}
	if remaining > 0 {
		p.c.Write(uint8(remaining), (v>>(8*nbytes))&((1<<remaining)-1))
	}
}

func subInt(a, b [3]int32) [3]int32 {
	return [3]int32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// magicInts mirrors xtc.MagicInts; duplicated here so fixture stays free of
// a dependency on the xtc package's internals (it only needs the table of
// cube sizes, not the decoder itself).
var magicInts = [73]int32{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 8,
	10, 12, 16, 20, 25, 32, 40, 50, 64, 80,
	101, 128, 161, 203, 256, 322, 406, 512, 645, 812,
	1024, 1290, 1625, 2048, 2580, 3250, 4096, 5060, 6501, 8192,
	10321, 13003, 16384, 20642, 26007, 32768, 41285, 52015, 65536, 82570,
	104031, 131072, 165140, 208063, 262144, 330280, 416127, 524287, 660561, 832255,
	1048576, 1321122, 1664510, 2097152, 2642245, 3329021, 4194304, 5284491, 6658042, 8388607,
	10568983, 13316085, 16777216,
}

// CompressedFrame encodes a full frame using the compressed path: a header,
// a precision, and the minint/maxint/smallidx preamble, followed by the
// XDR opaque-framed payload bytes.
func CompressedFrame(step uint32, time float32, boxvec [3][3]float32, natoms uint32, precision float32, payload *CompressedPayload) []byte {
	var buf bytes.Buffer
	buf.Write(Header(1995, natoms, step, time, boxvec, natoms))
	writeF32(&buf, precision)
	for _, v := range payload.minint {
		writeI32(&buf, v)
	}
	maxint := [3]int32{
		payload.minint[0] + int32(payload.sizeint[0]) - 1,
		payload.minint[1] + int32(payload.sizeint[1]) - 1,
		payload.minint[2] + int32(payload.sizeint[2]) - 1,
	}
	for _, v := range maxint {
		writeI32(&buf, v)
	}
	writeU32(&buf, payload.smallidx)

	opaque := payload.Bytes()
	writeU32(&buf, uint32(len(opaque)))
	buf.Write(opaque)
	for i := 0; i < (4-len(opaque)%4)%4; i++ {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}
