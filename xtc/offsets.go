package xtc

import (
	"io"

	"github.com/pkg/errors"
)

// frameBound is implemented by FrameSelections that know in advance how
// many leading frames they could possibly need, letting DetermineOffsets
// stop walking headers early instead of scanning the whole trajectory.
type frameBound interface {
	bound() *int
}

func (r FrameRange) bound() *int {
	if r.End == nil {
		return nil
	}
	n := int(*r.End)
	return &n
}

func (l FrameList) bound() *int {
	if len(l) == 0 {
		n := 0
		return &n
	}
	n := l[len(l)-1] + 1
	return &n
}

// selectionBound extracts the frameBound hint from sel, if it has one.
func selectionBound(sel FrameSelection) *int {
	if b, ok := sel.(frameBound); ok {
		return b.bound()
	}
	return nil
}

// DetermineOffsetsExclusive walks frame headers from the reader's current
// position, recording the byte offset one past the end of each frame (i.e.
// the start of the next frame, or one-past-EOF for the last). The reader is
// returned to its starting position once done.
//
// If until is non-nil, at most *until offsets are collected.
func (rd *Reader) DetermineOffsetsExclusive(until *int) ([]uint64, error) {
	rs, err := rd.seeker()
	if err != nil {
		return nil, err
	}
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(err, "xtc: reading start position")
	}

	var offsets []uint64
	for until == nil || len(offsets) < *until {
		magic, err := ReadI32(rs)
		if err != nil {
			if isCleanEOF(err) {
				break
			}
			return nil, err
		}
		if magic != MagicNumber {
			return nil, errors.Wrapf(ErrInvalidMagic, "found %d", magic)
		}

		// Skip the rest of the header (natoms, step, time, boxvec, repeated
		// natoms: 52 bytes) plus the compressed preamble that always
		// precedes the opaque length prefix (precision, minint, maxint,
		// smallidx: 32 bytes), landing right on the skip count itself.
		if _, err := rs.Seek(84, io.SeekCurrent); err != nil {
			return nil, errors.Wrap(err, "xtc: skipping header and preamble")
		}
		skipRaw, err := ReadI32(rs)
		if err != nil {
			return nil, errors.Wrap(err, "xtc: reading frame size")
		}
		skip := int64(skipRaw)
		padding := int64(Padding4(int(skipRaw)))
		offset, err := rs.Seek(skip+padding, io.SeekCurrent)
		if err != nil {
			return nil, errors.Wrap(err, "xtc: skipping compressed payload")
		}
		offsets = append(offsets, uint64(offset))
	}

	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "xtc: restoring start position")
	}
	return offsets, nil
}

// DetermineOffsets returns the start offset of each frame from the reader's
// current position: [0] followed by all but the last exclusive offset.
func (rd *Reader) DetermineOffsets(until *int) ([]uint64, error) {
	exclusive, err := rd.DetermineOffsetsExclusive(until)
	if err != nil {
		return nil, err
	}
	offsets := make([]uint64, 0, len(exclusive)+1)
	offsets = append(offsets, 0)
	if len(exclusive) > 0 {
		offsets = append(offsets, exclusive[:len(exclusive)-1]...)
	}
	return offsets, nil
}

// DetermineFrameSizes returns the on-disk size in bytes of each whole frame
// (header, preamble and padded payload) from the reader's current position,
// derived from the exclusive offset table.
// It has no effect on decode correctness; it exists for trajectory auditing
// and reporting.
func (rd *Reader) DetermineFrameSizes(until *int) ([]uint64, error) {
	starts, err := rd.DetermineOffsetsExclusive(until)
	if err != nil {
		return nil, err
	}
	if len(starts) == 0 {
		return nil, nil
	}
	sizes := make([]uint64, 0, len(starts))
	prev := uint64(0)
	for _, end := range starts {
		sizes = append(sizes, end-prev)
		prev = end
	}
	return sizes, nil
}

// ReadFrames appends frames selected by frameSelection, with each frame's
// atoms filtered by atomSelection, to frames. It returns how many frames
// were read, since the selection alone does not determine that count.
//
// When buffered is true, each frame's compressed payload is read lazily in
// blocks rather than eagerly in full; this is favorable when atomSelection
// is expected to truncate decoding well before a frame's payload ends.
func (rd *Reader) ReadFrames(frames *[]Frame, frameSelection FrameSelection, atomSelection AtomSelection, buffered bool) (int, error) {
	offsets, err := rd.DetermineOffsets(selectionBound(frameSelection))
	if err != nil {
		return 0, err
	}

	n := 0
	for idx, offset := range offsets {
		switch frameSelection.IsIncluded(idx) {
		case Done:
			return n, nil
		case Skip:
			continue
		case Take:
		}
		var frame Frame
		if err := rd.ReadFrameAtOffset(&frame, offset, atomSelection, buffered); err != nil {
			return n, err
		}
		*frames = append(*frames, frame)
		n++
	}
	return n, nil
}
