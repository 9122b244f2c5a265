package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/thebagchi/xtc-go/xtc"
)

// parseFrameSelection parses "start:stop:step", where each component may be
// omitted (e.g. ":100", "3:14", ":100:2"). An empty string selects every
// frame.
func parseFrameSelection(s string) (xtc.FrameSelection, error) {
	if s == "" {
		return xtc.AllFrames{}, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return nil, fmt.Errorf("too many ':'-separated components in %q", s)
	}

	var start uint64
	var end *uint64
	step := uint64(1)

	if len(parts) > 0 && parts[0] != "" {
		v, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing start: %w", err)
		}
		start = v
	}
	if len(parts) > 1 && parts[1] != "" {
		v, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing stop: %w", err)
		}
		end = &v
	}
	if len(parts) > 2 && parts[2] != "" {
		v, err := strconv.ParseUint(parts[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing step: %w", err)
		}
		step = v
	}

	return xtc.NewFrameRange(start, end, step)
}

// parseAtomSelection parses a single "keep atoms below this index" value. An
// empty string selects every atom.
func parseAtomSelection(s string) (xtc.AtomSelection, error) {
	if s == "" {
		return xtc.AllAtoms{}, nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("parsing atom selection: %w", err)
	}
	return xtc.UntilAtom(v), nil
}

type filterOptions struct {
	input, output  string
	frameSelection xtc.FrameSelection
	atomSelection  xtc.AtomSelection
	buffered       bool
	reverse        bool
	times, steps   bool
}

// filterTrajectory writes the frames and atoms opt selects from opt.input
// into opt.output. Compressed payloads are never re-compressed: the
// decoder's reported "bytes actually consumed" (xtc.Reader.ReadFrameReportingBytes)
// lets each payload be truncated at exactly the byte boundary the atom
// selection implies, copied straight from the input.
func filterTrajectory(opt filterOptions) error {
	in, err := os.Open(opt.input)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(opt.output)
	if err != nil {
		return err
	}
	defer out.Close()
	writer := bufio.NewWriter(out)
	defer writer.Flush()

	reader := xtc.NewReader(in)
	offsets, err := reader.DetermineOffsets(nil)
	if err != nil {
		return fmt.Errorf("determining frame offsets: %w", err)
	}

	indices := make([]int, len(offsets))
	for i := range indices {
		indices[i] = i
	}
	if opt.reverse {
		for i, j := 0, len(indices)-1; i < j; i, j = i+1, j-1 {
			indices[i], indices[j] = indices[j], indices[i]
		}
	}

	stdout := bufio.NewWriter(os.Stdout)
	defer stdout.Flush()

indexLoop:
	for _, idx := range indices {
		switch opt.frameSelection.IsIncluded(idx) {
		case xtc.Take:
		case xtc.Skip:
			continue
		case xtc.Done:
			if opt.reverse {
				// A reversed walk visits indices from high to low, so Done
				// only means this index lies past the selection's end; lower
				// indices may still be selected. A forward walk stops here.
				continue
			}
			break indexLoop
		}

		if err := filterOneFrame(reader, in, offsets[idx], opt, writer, stdout); err != nil {
			return fmt.Errorf("frame %d: %w", idx, err)
		}
	}
	return writer.Flush()
}

func filterOneFrame(reader *xtc.Reader, in *os.File, offset uint64, opt filterOptions, writer *bufio.Writer, stdout *bufio.Writer) error {
	var peek xtc.Header
	if _, err := in.Seek(int64(offset), io.SeekStart); err != nil {
		return err
	}
	if err := peek.Read(in); err != nil {
		return err
	}

	if opt.times || opt.steps {
		if opt.times {
			fmt.Fprintf(stdout, "%.3f\t", peek.Time)
		}
		if opt.steps {
			fmt.Fprintf(stdout, "%d", peek.Step)
		}
		fmt.Fprintln(stdout)
		return nil
	}

	var frame xtc.Frame
	if _, err := in.Seek(int64(offset), io.SeekStart); err != nil {
		return err
	}
	nbytes, err := reader.ReadFrameReportingBytes(&frame, opt.atomSelection, opt.buffered)
	if err != nil {
		return err
	}
	natoms := frame.NAtoms()

	header := encodeHeader(peek.Step, peek.Time, peek.BoxVec, uint32(natoms))
	if _, err := writer.Write(header); err != nil {
		return err
	}

	if peek.NAtoms <= 9 {
		for _, p := range frame.Positions {
			if err := writeBE32(writer, math.Float32bits(p)); err != nil {
				return err
			}
		}
		return nil
	}

	// Compressed path: copy the precision/minint/maxint/smallidx preamble
	// (32 bytes) and then a truncated prefix of the compressed blob,
	// verbatim, rather than re-encoding anything.
	if _, err := in.Seek(int64(offset)+xtc.HeaderSize, io.SeekStart); err != nil {
		return err
	}
	preamble := make([]byte, 32)
	if _, err := io.ReadFull(in, preamble); err != nil {
		return err
	}
	if _, err := writer.Write(preamble); err != nil {
		return err
	}

	var oldLenBuf [4]byte
	if _, err := io.ReadFull(in, oldLenBuf[:]); err != nil {
		return err
	}
	oldLen := int(binary.BigEndian.Uint32(oldLenBuf[:]))
	if nbytes > oldLen {
		return fmt.Errorf("truncated byte count %d exceeds original payload size %d", nbytes, oldLen)
	}

	if err := writeBE32(writer, uint32(nbytes)); err != nil {
		return err
	}
	payload := make([]byte, nbytes)
	if _, err := io.ReadFull(in, payload); err != nil {
		return err
	}
	if _, err := writer.Write(payload); err != nil {
		return err
	}
	padding := make([]byte, xtc.Padding4(nbytes))
	_, err = writer.Write(padding)
	return err
}

func encodeHeader(step uint32, t float32, boxvec xtc.BoxVec, natoms uint32) []byte {
	buf := make([]byte, 0, xtc.HeaderSize)
	var tmp [4]byte

	putU32 := func(v uint32) {
		binary.BigEndian.PutUint32(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}
	putF32 := func(v float32) { putU32(math.Float32bits(v)) }

	putU32(uint32(xtc.MagicNumber))
	putU32(natoms)
	putU32(step)
	putF32(t)
	for _, col := range boxvec {
		for _, v := range col {
			putF32(v)
		}
	}
	putU32(natoms)
	return buf
}

func writeBE32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}
