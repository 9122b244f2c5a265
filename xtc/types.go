// Package xtc decodes GROMACS-style xtc trajectories: an XDR-framed
// molecular-dynamics format whose per-frame payload is a bit-packed,
// delta-encoded, run-length-exploiting position stream.
//
// The entry point is Reader, which reads one Frame at a time from any
// io.Reader, or from an io.ReadSeeker (such as an *os.File) when offset-based
// access (ReadFrameAtOffset, ReadFrames, Home) is needed.
package xtc

// BoxVec is a frame's simulation box, stored as three column vectors
// (BoxVec[j] is column j), in nanometers.
type BoxVec [3][3]float32

// HeaderSize is the fixed serialized size, in bytes, of a frame header.
const HeaderSize = 4 + 4 + 4 + 4 + 36 + 4

// Header is the fixed-size preamble that opens every xtc frame.
type Header struct {
	Magic          int32
	NAtoms         uint32
	Step           uint32
	Time           float32 // picoseconds
	BoxVec         BoxVec
	NAtomsRepeated uint32
}

// Frame is a single simulation snapshot. Callers create an empty Frame and
// reuse it across reads; each call to Reader.ReadFrame (or a variant)
// resizes and rewrites Positions in place.
type Frame struct {
	Step      uint32
	Time      float32 // picoseconds
	BoxVec    BoxVec
	Precision float32
	// Positions holds natoms*3 float32 values in nanometers, laid out as
	// [x0, y0, z0, x1, y1, z1, ...]. len(Positions) % 3 == 0 always holds.
	Positions []float32
}

// NAtoms returns the number of atoms represented in Positions.
func (f *Frame) NAtoms() int {
	if len(f.Positions)%3 != 0 {
		panic("xtc: the number of values in Frame.Positions must be a multiple of 3")
	}
	return len(f.Positions) / 3
}

// Coord is a single three-dimensional position, in nanometers.
type Coord [3]float32

// Coords returns a freshly allocated slice of the coordinate triples stored
// in Positions. It is a convenience for callers who prefer indexing by atom
// over indexing into the flat Positions slice.
func (f *Frame) Coords() []Coord {
	n := f.NAtoms()
	coords := make([]Coord, n)
	for i := range coords {
		coords[i] = Coord{f.Positions[3*i], f.Positions[3*i+1], f.Positions[3*i+2]}
	}
	return coords
}
