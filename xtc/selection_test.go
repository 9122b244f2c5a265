package xtc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thebagchi/xtc-go/xtc"
)

func TestAllAtomsAlwaysTakes(t *testing.T) {
	var sel xtc.AllAtoms
	for _, idx := range []int{0, 1, 1000} {
		require.Equal(t, xtc.Take, sel.IsIncluded(idx))
	}
}

func TestAtomMask(t *testing.T) {
	mask := xtc.AtomMask{true, false, true}
	require.Equal(t, xtc.Take, mask.IsIncluded(0))
	require.Equal(t, xtc.Skip, mask.IsIncluded(1))
	require.Equal(t, xtc.Take, mask.IsIncluded(2))
	require.Equal(t, xtc.Done, mask.IsIncluded(3))
	require.Equal(t, xtc.Done, mask.IsIncluded(100))
}

func TestUntilAtom(t *testing.T) {
	sel := xtc.UntilAtom(3)
	require.Equal(t, xtc.Take, sel.IsIncluded(0))
	require.Equal(t, xtc.Take, sel.IsIncluded(2))
	require.Equal(t, xtc.Done, sel.IsIncluded(3))
	require.Equal(t, xtc.Done, sel.IsIncluded(4))
}

func TestAtomSelectionFromIndexList(t *testing.T) {
	sel := xtc.AtomSelectionFromIndexList([]uint32{5, 1, 3})
	require.Equal(t, xtc.Skip, sel.IsIncluded(0))
	require.Equal(t, xtc.Take, sel.IsIncluded(1))
	require.Equal(t, xtc.Skip, sel.IsIncluded(2))
	require.Equal(t, xtc.Take, sel.IsIncluded(3))
	require.Equal(t, xtc.Take, sel.IsIncluded(5))
	require.Equal(t, xtc.Done, sel.IsIncluded(6))
}

func TestNewFrameRangeRejectsZeroStep(t *testing.T) {
	_, err := xtc.NewFrameRange(0, nil, 0)
	require.ErrorIs(t, err, xtc.ErrInvalidSelection)
}

func TestFrameRangeUnbounded(t *testing.T) {
	r, err := xtc.NewFrameRange(2, nil, 2)
	require.NoError(t, err)
	require.Equal(t, xtc.Skip, r.IsIncluded(0))
	require.Equal(t, xtc.Skip, r.IsIncluded(1))
	require.Equal(t, xtc.Take, r.IsIncluded(2))
	require.Equal(t, xtc.Skip, r.IsIncluded(3))
	require.Equal(t, xtc.Take, r.IsIncluded(4))
}

func TestFrameRangeBoundedStopsAtEnd(t *testing.T) {
	end := uint64(6)
	r, err := xtc.NewFrameRange(1, &end, 1)
	require.NoError(t, err)
	for i := 1; i < 6; i++ {
		require.Equal(t, xtc.Take, r.IsIncluded(i), "index %d", i)
	}
	require.Equal(t, xtc.Skip, r.IsIncluded(0))
	require.Equal(t, xtc.Done, r.IsIncluded(6))
	require.Equal(t, xtc.Done, r.IsIncluded(7))
}

func TestFrameListDedupsAndSorts(t *testing.T) {
	list := xtc.NewFrameList([]int{5, 1, 1, 3})
	require.Equal(t, xtc.FrameList{1, 3, 5}, list)
	require.Equal(t, xtc.Take, list.IsIncluded(1))
	require.Equal(t, xtc.Skip, list.IsIncluded(2))
	require.Equal(t, xtc.Take, list.IsIncluded(5))
	require.Equal(t, xtc.Done, list.IsIncluded(6))
}

func TestFrameListEmpty(t *testing.T) {
	list := xtc.NewFrameList(nil)
	require.Equal(t, xtc.Done, list.IsIncluded(0))
}
