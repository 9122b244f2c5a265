package xtc

import (
	"io"

	"github.com/pkg/errors"

	"github.com/thebagchi/xtc-go/xtc/internal/xlog"
)

// Reader reads xtc frames sequentially from an underlying io.Reader. Offset-
// based access (ReadFrameAtOffset, ReadFrames, Home) additionally requires
// the underlying reader to implement io.ReadSeeker.
//
// A Reader is not safe for concurrent use from multiple goroutines; each
// goroutine decoding its own stream should use its own Reader.
type Reader struct {
	r       io.Reader
	Step    uint64
	scratch []byte
}

// NewReader wraps r for sequential frame-at-a-time reading.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// seeker returns the underlying reader as an io.ReadSeeker, for the subset
// of operations that require seeking.
func (rd *Reader) seeker() (io.ReadSeeker, error) {
	rs, ok := rd.r.(io.ReadSeeker)
	if !ok {
		return nil, errors.New("xtc: reader does not support seeking")
	}
	return rs, nil
}

// ReadHeader reads the header of the frame the underlying reader is
// currently positioned at, without advancing Step or reading any positions.
func (rd *Reader) ReadHeader() (Header, error) {
	var h Header
	err := h.Read(rd.r)
	return h, err
}

// ReadSmolPositions reads natoms uncompressed positions directly, the path
// taken when a frame's header declares 9 atoms or fewer. natoms must be 9
// or less; the compressed path is mandatory above that.
func (rd *Reader) ReadSmolPositions(natoms int, frame *Frame, sel AtomSelection) error {
	if natoms > 9 {
		panic("xtc: ReadSmolPositions called with more than 9 atoms")
	}

	var buf [9 * 3]float32
	raw := buf[:natoms*3]
	if err := ReadF32s(rd.r, raw); err != nil {
		return errors.Wrap(err, "xtc: reading uncompressed positions")
	}

	frame.Positions = frame.Positions[:0]
	for idx := 0; idx*3 < len(raw); idx++ {
		switch sel.IsIncluded(idx) {
		case Done:
			return nil
		case Take:
			frame.Positions = append(frame.Positions, raw[idx*3], raw[idx*3+1], raw[idx*3+2])
		case Skip:
		}
	}
	// frame.precision is left as whatever it was: these positions were never
	// compressed, so there is no meaningful value to set it to.
	return nil
}

// ReadFrame reads the next frame, keeping every atom, and advances Step.
func (rd *Reader) ReadFrame(frame *Frame) error {
	return rd.ReadFrameWithSelection(frame, AllAtoms{})
}

// ReadFrameWithSelection reads the next frame honoring sel, and advances
// Step. It uses the Reader's own scratch buffer across calls.
func (rd *Reader) ReadFrameWithSelection(frame *Frame, sel AtomSelection) error {
	return rd.ReadFrameWithScratch(frame, &rd.scratch, sel)
}

// ReadFrameWithScratch reads the next frame honoring sel, and advances Step,
// using scratch as the buffer backing the compressed payload instead of an
// internally owned one. The contents of scratch should not be depended upon
// between calls; it exists purely so a caller decoding many trajectories
// concurrently can give each its own buffer.
func (rd *Reader) ReadFrameWithScratch(frame *Frame, scratch *[]byte, sel AtomSelection) error {
	_, err := rd.readFrameImpl(frame, scratch, sel, func(s *[]byte) (FetchBuffer, error) {
		return NewUnbuffered(s, rd.r)
	})
	return err
}

// ReadFrameReportingBytes behaves like ReadFrameWithSelection, but also
// reports how many wire bytes the positions occupied: natoms*3*4 on the
// uncompressed path, or however many compressed bytes decoding actually
// consumed on the compressed path (less than the full payload when sel
// truncates). cmd/xtcfilter uses this to copy a byte-exact truncated prefix
// of the compressed payload into a filtered trajectory. When buffered is
// true, the compressed payload is read lazily in blocks rather than eagerly
// in full, which wins when sel is expected to truncate decoding well before
// the payload ends; this requires the underlying reader to support seeking.
func (rd *Reader) ReadFrameReportingBytes(frame *Frame, sel AtomSelection, buffered bool) (int, error) {
	if !buffered {
		return rd.readFrameImpl(frame, &rd.scratch, sel, func(s *[]byte) (FetchBuffer, error) {
			return NewUnbuffered(s, rd.r)
		})
	}
	rs, err := rd.seeker()
	if err != nil {
		return 0, err
	}
	return rd.readFrameImpl(frame, &rd.scratch, sel, func(s *[]byte) (FetchBuffer, error) {
		return NewBuffered(s, rs)
	})
}

// readFrameImpl returns the number of wire bytes the positions occupied:
// natoms*3*4 for the uncompressed path, or the number of compressed bytes
// actually consumed (which is less than the full payload whenever sel
// truncates decoding) for the compressed path. This is exposed publicly via
// ReadFrameReportingBytes for callers like cmd/xtcfilter that need to
// produce a byte-exact truncated copy of the input.
func (rd *Reader) readFrameImpl(
	frame *Frame,
	scratch *[]byte,
	sel AtomSelection,
	newFetchBuffer func(scratch *[]byte) (FetchBuffer, error),
) (int, error) {
	header, err := rd.ReadHeader()
	if err != nil {
		return 0, err
	}
	natoms := int(header.NAtoms)
	xlog.Trace("read_header", map[string]any{"step": rd.Step, "natoms": natoms})

	var nbytes int
	if natoms <= 9 {
		if err := rd.ReadSmolPositions(natoms, frame, sel); err != nil {
			return 0, err
		}
		nbytes = natoms * 3 * 4
	} else {
		*scratch = (*scratch)[:0]
		nbytes, err = readPositions(rd.r, natoms, scratch, frame, sel, newFetchBuffer)
		if err != nil {
			return 0, err
		}
	}

	rd.Step++
	frame.Step = header.Step
	frame.Time = header.Time
	frame.BoxVec = header.BoxVec
	return nbytes, nil
}

// ReadAllFrames reads every remaining frame into a freshly allocated slice.
// It is usually more efficient to call ReadFrame repeatedly and reuse a
// single Frame if only one frame is needed at a time.
func (rd *Reader) ReadAllFrames() ([]Frame, error) {
	var frames []Frame
	for {
		var frame Frame
		if err := rd.ReadFrame(&frame); err != nil {
			if isCleanEOF(err) {
				break
			}
			return frames, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// Home seeks back to the start of the trajectory and resets Step to 0.
func (rd *Reader) Home() error {
	rs, err := rd.seeker()
	if err != nil {
		return err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "xtc: seeking home")
	}
	rd.Step = 0
	return nil
}

// ReadFrameAtOffset seeks to offset, then reads a frame honoring sel. When
// buffered is true, the compressed payload is read lazily in blocks, which
// wins when sel is expected to truncate decoding well before the payload
// ends; this requires the underlying reader to support seeking.
func (rd *Reader) ReadFrameAtOffset(frame *Frame, offset uint64, sel AtomSelection, buffered bool) error {
	rs, err := rd.seeker()
	if err != nil {
		return err
	}
	if _, err := rs.Seek(int64(offset), io.SeekStart); err != nil {
		return errors.Wrap(err, "xtc: seeking to frame offset")
	}

	if !buffered {
		return rd.ReadFrameWithScratch(frame, &rd.scratch, sel)
	}
	_, err = rd.readFrameImpl(frame, &rd.scratch, sel, func(s *[]byte) (FetchBuffer, error) {
		return NewBuffered(s, rs)
	})
	return err
}
