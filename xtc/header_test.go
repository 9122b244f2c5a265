package xtc_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thebagchi/xtc-go/xtc"
	"github.com/thebagchi/xtc-go/xtc/internal/fixture"
)

func TestHeaderReadRoundTrip(t *testing.T) {
	data := fixture.Header(1995, 3, 42, 1.25, testBoxVec, 3)

	var h xtc.Header
	require.NoError(t, h.Read(bytes.NewReader(data)))
	require.Equal(t, uint32(3), h.NAtoms)
	require.Equal(t, uint32(42), h.Step)
	require.Equal(t, float32(1.25), h.Time)
	require.Equal(t, xtc.BoxVec(testBoxVec), h.BoxVec)
}

func TestHeaderReadRejectsBadMagic(t *testing.T) {
	data := fixture.Header(1234, 3, 42, 1.25, testBoxVec, 3)

	var h xtc.Header
	err := h.Read(bytes.NewReader(data))
	require.ErrorIs(t, err, xtc.ErrInvalidMagic)
}

func TestHeaderReadRejectsMismatchedNAtoms(t *testing.T) {
	data := fixture.Header(1995, 3, 42, 1.25, testBoxVec, 4)

	var h xtc.Header
	err := h.Read(bytes.NewReader(data))
	require.ErrorIs(t, err, xtc.ErrInvalidNumericField)
}
