package bitbuffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.Write(1, 1))
	require.NoError(t, w.Write(5, 19))
	require.NoError(t, w.Write(32, 0xdeadbeef))
	require.NoError(t, w.WriteBytes([]byte{0xaa, 0xbb}))
	require.NoError(t, w.Align())
	require.NoError(t, w.Write(3, 5))

	r := NewReader(w.Bytes())
	v, err := r.Read(1)
	require.NoError(t, err)
	require.EqualValues(t, 1, v)

	v, err = r.Read(5)
	require.NoError(t, err)
	require.EqualValues(t, 19, v)

	v, err = r.Read(32)
	require.NoError(t, err)
	require.EqualValues(t, 0xdeadbeef, v)

	raw, err := r.ReadBytes(2)
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa, 0xbb}, raw)

	require.NoError(t, r.Advance())
	v, err = r.Read(3)
	require.NoError(t, err)
	require.EqualValues(t, 5, v)
}

func TestAlignIsNoopWhenAlreadyAligned(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteBytes([]byte{0x01}))
	before := w.NumWritten()
	require.NoError(t, w.Align())
	require.Equal(t, before, w.NumWritten())
}

func TestMidByteWrite(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.Write(3, 0b101))
	require.NoError(t, w.Write(5, 0b10110))
	require.Equal(t, []byte{0b10110110}, w.Bytes())
}
