package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thebagchi/xtc-go/xtc"
	"github.com/thebagchi/xtc-go/xtc/internal/fixture"
)

func TestParseFrameSelectionEmpty(t *testing.T) {
	sel, err := parseFrameSelection("")
	require.NoError(t, err)
	require.Equal(t, xtc.AllFrames{}, sel)
}

func TestParseFrameSelectionFull(t *testing.T) {
	sel, err := parseFrameSelection("2:10:3")
	require.NoError(t, err)
	rng, ok := sel.(xtc.FrameRange)
	require.True(t, ok)
	require.Equal(t, uint64(2), rng.Start)
	require.NotNil(t, rng.End)
	require.Equal(t, uint64(10), *rng.End)
	require.Equal(t, uint64(3), rng.Step)
}

func TestParseFrameSelectionPartial(t *testing.T) {
	sel, err := parseFrameSelection(":100")
	require.NoError(t, err)
	rng, ok := sel.(xtc.FrameRange)
	require.True(t, ok)
	require.Equal(t, uint64(0), rng.Start)
	require.Equal(t, uint64(100), *rng.End)
	require.Equal(t, uint64(1), rng.Step)
}

func TestParseFrameSelectionTooManyParts(t *testing.T) {
	_, err := parseFrameSelection("1:2:3:4")
	require.Error(t, err)
}

func TestParseAtomSelection(t *testing.T) {
	sel, err := parseAtomSelection("")
	require.NoError(t, err)
	require.Equal(t, xtc.AllAtoms{}, sel)

	sel, err = parseAtomSelection("50")
	require.NoError(t, err)
	require.Equal(t, xtc.UntilAtom(50), sel)

	_, err = parseAtomSelection("not-a-number")
	require.Error(t, err)
}

var filterTestBoxVec = [3][3]float32{
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
}

// twelveAtomPayload writes a run-length group (header [3,5,7], one run delta
// decoding to [4,6,8]) followed by ten independent single atoms, for 12
// atoms total, comfortably above the 9-atom uncompressed cutoff.
func twelveAtomPayload() *fixture.CompressedPayload {
	payload := fixture.NewCompressedPayload([3]int32{0, 0, 0}, [3]uint32{8, 8, 8}, 10, 9)
	payload.WriteRun([3]int32{3, 5, 7}, [][3]int32{{5, 5, 5}}, 0)
	for i := int32(0); i < 10; i++ {
		payload.WriteAtom([3]int32{i, i, i})
	}
	return payload
}

func twelveAtomExpectedPositions() []float32 {
	out := []float32{4, 6, 8, 3, 5, 7}
	for i := float32(0); i < 10; i++ {
		out = append(out, i, i, i)
	}
	return out
}

// TestFilterTrajectoryRoundTripsCompressedFrames copies every frame and atom
// of a multi-frame compressed trajectory and checks the output decodes back
// to the same positions as the input: this is the path that a wrong preamble
// size silently corrupts, since it shifts every read after the preamble by
// the same number of bytes.
func TestFilterTrajectoryRoundTripsCompressedFrames(t *testing.T) {
	var input []byte
	for step := uint32(0); step < 3; step++ {
		input = append(input, fixture.CompressedFrame(step, float32(step), filterTestBoxVec, 12, 1.0, twelveAtomPayload())...)
	}

	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.xtc")
	outPath := filepath.Join(dir, "out.xtc")
	require.NoError(t, os.WriteFile(inPath, input, 0o644))

	for _, buffered := range []bool{false, true} {
		require.NoError(t, filterTrajectory(filterOptions{
			input:          inPath,
			output:         outPath,
			frameSelection: xtc.AllFrames{},
			atomSelection:  xtc.AllAtoms{},
			buffered:       buffered,
		}))

		out, err := os.Open(outPath)
		require.NoError(t, err)
		frames, err := xtc.NewReader(out).ReadAllFrames()
		require.NoError(t, err)
		require.NoError(t, out.Close())

		require.Len(t, frames, 3)
		for i, frame := range frames {
			require.Equal(t, uint32(i), frame.Step)
			require.Equal(t, twelveAtomExpectedPositions(), frame.Positions)
		}
	}
}

// TestFilterTrajectoryTruncatesAtomSelection checks that a truncating atom
// selection both shrinks the emitted payload and still decodes to the
// expected prefix of positions. The selection keeps 10 of 12 atoms, staying
// above the 9-atom uncompressed cutoff so the output is still read back via
// the compressed path.
func TestFilterTrajectoryTruncatesAtomSelection(t *testing.T) {
	input := fixture.CompressedFrame(0, 0, filterTestBoxVec, 12, 1.0, twelveAtomPayload())

	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.xtc")
	outPath := filepath.Join(dir, "out.xtc")
	require.NoError(t, os.WriteFile(inPath, input, 0o644))

	require.NoError(t, filterTrajectory(filterOptions{
		input:          inPath,
		output:         outPath,
		frameSelection: xtc.AllFrames{},
		atomSelection:  xtc.UntilAtom(10),
		buffered:       false,
	}))

	outInfo, err := os.Stat(outPath)
	require.NoError(t, err)
	require.Less(t, outInfo.Size(), int64(len(input)))

	out, err := os.Open(outPath)
	require.NoError(t, err)
	defer out.Close()
	var frame xtc.Frame
	require.NoError(t, xtc.NewReader(out).ReadFrame(&frame))
	require.Equal(t, twelveAtomExpectedPositions()[:30], frame.Positions)
}
