package xtc

import (
	"io"

	"github.com/pkg/errors"

	"github.com/thebagchi/xtc-go/xtc/internal/xlog"
)

// MagicInts is the table of monotonically increasing cube sizes the
// compressed-position decoder uses to track the local magnitude of
// run-length deltas. Entries 0..FirstIdx-1 are always zero.
var MagicInts = [73]int32{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 8,
	10, 12, 16, 20, 25, 32, 40, 50, 64, 80,
	101, 128, 161, 203, 256, 322, 406, 512, 645, 812,
	1024, 1290, 1625, 2048, 2580, 3250, 4096, 5060, 6501, 8192,
	10321, 13003, 16384, 20642, 26007, 32768, 41285, 52015, 65536, 82570,
	104031, 131072, 165140, 208063, 262144, 330280, 416127, 524287, 660561, 832255,
	1048576, 1321122, 1664510, 2097152, 2642245, 3329021, 4194304, 5284491, 6658042, 8388607,
	10568983, 13316085, 16777216,
}

// FirstIdx is the first nonzero index into MagicInts.
const FirstIdx = 9

// largeSizeThreshold is the per-axis span above which the three axes are
// read independently instead of packed into one mixed-radix integer.
const largeSizeThreshold = 0xFFFFFF

// calcSizeInt derives the per-axis integer spans from a frame's minint and
// maxint bounds, and decides between the packed and large decode paths.
// bitsize == 0 signals the large path; otherwise it is the packed triplet's
// total bit width and bitsizeint is left zeroed.
func calcSizeInt(minint, maxint [3]int32) (sizeint, bitsizeint [3]uint32, bitsize uint32) {
	for i := range sizeint {
		sizeint[i] = uint32(maxint[i]-minint[i]) + 1
	}
	if sizeint[0]|sizeint[1]|sizeint[2] > largeSizeThreshold {
		for i := range bitsizeint {
			bitsizeint[i] = sizeofint(sizeint[i])
		}
		return sizeint, bitsizeint, 0
	}
	return sizeint, bitsizeint, sizeofints(sizeint)
}

// readPositions reads the compressed positions of a frame (more than 9
// atoms) whose header has already been consumed, honoring atom selection
// truncation. The uncompressed path is handled by ReadSmolPositions instead.
//
// newFetchBuffer constructs the FetchBuffer strategy (buffered or
// unbuffered) the caller has chosen, over the compressed opaque payload that
// follows the precision/minint/maxint/smallidx preamble.
// readPositions returns the number of compressed payload bytes the decode
// actually consumed, which is less than the payload's full length whenever
// sel truncates decoding early. Callers that only want the positions can
// ignore it.
func readPositions(
	r io.Reader,
	natoms int,
	scratch *[]byte,
	frame *Frame,
	sel AtomSelection,
	newFetchBuffer func(scratch *[]byte) (FetchBuffer, error),
) (int, error) {
	natomsSelected := countSelectedAtoms(sel, natoms)
	if natomsSelected < natoms {
		natoms = natomsSelected
	}
	frame.Positions = resizeFloat32(frame.Positions, natoms*3)

	precision, err := ReadF32(r)
	if err != nil {
		return 0, errors.Wrap(err, "xtc: reading precision")
	}
	frame.Precision = precision

	return decodeCompressedFrame(r, frame.Positions, precision, scratch, sel, newFetchBuffer)
}

// countSelectedAtoms returns how many of the first natoms atoms sel would
// actually keep, used to size Frame.Positions before decoding starts.
func countSelectedAtoms(sel AtomSelection, natoms int) int {
	switch s := sel.(type) {
	case AllAtoms:
		return natoms
	case AtomMask:
		n := 0
		for i := 0; i < natoms && i < len(s); i++ {
			if s[i] {
				n++
			}
		}
		return n
	case UntilAtom:
		return int(s)
	default:
		n := 0
		for i := 0; i < natoms; i++ {
			if sel.IsIncluded(i) == Take {
				n++
			}
		}
		return n
	}
}

func resizeFloat32(buf []float32, n int) []float32 {
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float32, n)
}

// decodeCompressedFrame reads the minint/maxint/smallidx preamble directly
// off r, constructs the byte-fetch buffer over the compressed opaque
// payload that follows, and runs the compressed-position decode loop.
func decodeCompressedFrame(
	r io.Reader,
	positions []float32,
	precision float32,
	scratch *[]byte,
	sel AtomSelection,
	newFetchBuffer func(scratch *[]byte) (FetchBuffer, error),
) (int, error) {
	var minint, maxint [3]int32
	for i := range minint {
		v, err := ReadI32(r)
		if err != nil {
			return 0, errors.Wrap(err, "xtc: reading minint")
		}
		minint[i] = v
	}
	for i := range maxint {
		v, err := ReadI32(r)
		if err != nil {
			return 0, errors.Wrap(err, "xtc: reading maxint")
		}
		maxint[i] = v
	}
	smallidxRaw, err := ReadU32(r)
	if err != nil {
		return 0, errors.Wrap(err, "xtc: reading smallidx")
	}
	if int(smallidxRaw) >= len(MagicInts) {
		return 0, errors.Wrapf(ErrCorruptCompressedStream, "smallidx %d out of range", smallidxRaw)
	}
	smallidx := int(smallidxRaw)

	sizeint, bitsizeint, bitsize := calcSizeInt(minint, maxint)
	xlog.Trace("decode_compressed_frame", map[string]any{"smallidx": smallidx, "bitsize": bitsize})

	fb, err := newFetchBuffer(scratch)
	if err != nil {
		return 0, errors.Wrap(err, "xtc: opening compressed payload")
	}

	decodeErr := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Wrapf(ErrCorruptCompressedStream, "panic during decode: %v", r)
			}
		}()
		ds := newDecodeState(fb)
		return decodeCompressedPositions(ds, positions, precision, sel, minint, sizeint, bitsizeint, bitsize, smallidx)
	}()
	bytesRead := fb.Tell()

	if err := fb.Finish(); err != nil && decodeErr == nil {
		decodeErr = errors.Wrap(err, "xtc: finishing compressed payload")
	}
	return bytesRead, decodeErr
}

// decodeCompressedPositions runs the core run-length/water-swap decode loop
// described in the compressed-position decoder component. positions must
// already be sized to 3 * min(header natoms, atoms the selection keeps);
// the loop decodes encoded atoms until that many positions have been
// written, terminating early the moment sel reports Done. sel is consulted
// with each atom's index among all decoded atoms, skipped ones included.
func decodeCompressedPositions(
	ds *decodeState,
	positions []float32,
	precision float32,
	sel AtomSelection,
	minint [3]int32,
	sizeint [3]uint32,
	bitsizeint [3]uint32,
	bitsize uint32,
	smallidx int,
) error {
	natoms := len(positions) / 3
	if natoms == 0 {
		return nil
	}
	invprecision := float32(1) / precision

	tmpidx := smallidx - 1
	if tmpidx < FirstIdx {
		tmpidx = FirstIdx
	}
	smaller := MagicInts[tmpidx] / 2
	smallnum := MagicInts[smallidx] / 2
	sizesmall := [3]uint32{uint32(MagicInts[smallidx]), uint32(MagicInts[smallidx]), uint32(MagicInts[smallidx])}

	writeIdx := 0
	atomIdx := 0
	var prevcoord [3]int32

	// emit applies the atom selector to one decoded coordinate. It reports
	// whether the caller should stop decoding immediately, for a terminal
	// Done verdict.
	emit := func(coord [3]int32) (done bool) {
		verdict := sel.IsIncluded(atomIdx)
		atomIdx++
		switch verdict {
		case Done:
			return true
		case Take:
			positions[writeIdx*3+0] = float32(coord[0]) * invprecision
			positions[writeIdx*3+1] = float32(coord[1]) * invprecision
			positions[writeIdx*3+2] = float32(coord[2]) * invprecision
			writeIdx++
		case Skip:
			// fall through, consumed but not written
		}
		return false
	}

	for writeIdx < natoms {
		var coord [3]int32
		if bitsize == 0 {
			coord[0] = int32(ds.ReadBits(int(bitsizeint[0])))
			coord[1] = int32(ds.ReadBits(int(bitsizeint[1])))
			coord[2] = int32(ds.ReadBits(int(bitsizeint[2])))
		} else {
			coord = ds.readTriplet(int(bitsize), sizeint)
		}
		coord[0] += minint[0]
		coord[1] += minint[1]
		coord[2] += minint[2]
		prevcoord = coord

		flag := ds.ReadBits(1) != 0
		isSmaller := 0
		var run int32
		if flag {
			r := int32(ds.ReadBits(5))
			mod := r % 3
			run = r - mod
			isSmaller = int(mod) - 1
		}

		if run > 0 {
			coord = [3]int32{}
			for k := int32(0); k < run; k += 3 {
				small := ds.readTriplet(smallidx, sizesmall)
				coord[0] = small[0] + prevcoord[0] - smallnum
				coord[1] = small[1] + prevcoord[1] - smallnum
				coord[2] = small[2] + prevcoord[2] - smallnum

				if k == 0 {
					// Waters are stored OHH but must be reported HOH: swap
					// the first decoded sub-triplet with the header coord.
					coord, prevcoord = prevcoord, coord
					if emit(prevcoord) {
						return nil
					}
				} else {
					prevcoord = coord
				}
				if emit(coord) {
					return nil
				}
			}
		} else {
			if emit(coord) {
				return nil
			}
		}

		switch {
		case isSmaller < 0:
			smallidx--
			smallnum = smaller
			if smallidx > FirstIdx {
				smaller = MagicInts[smallidx-1] / 2
			} else {
				smaller = 0
			}
		case isSmaller > 0:
			smallidx++
			smaller = smallnum
			smallnum = MagicInts[smallidx] / 2
		}
		if MagicInts[smallidx] == 0 {
			return errors.Wrap(ErrCorruptCompressedStream, "invalid smallidx after adaptation")
		}
		sizesmall = [3]uint32{uint32(MagicInts[smallidx]), uint32(MagicInts[smallidx]), uint32(MagicInts[smallidx])}
	}

	return nil
}
