package canon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterStringLengthPrefixed(t *testing.T) {
	w := &Writer{}
	w.String("f", "hi")
	require.NoError(t, w.Err())
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x02, 'h', 'i'}, w.Bytes())
}

func TestWriterOptionalAbsent(t *testing.T) {
	w := &Writer{}
	w.OptionalString("f", false, "ignored")
	require.NoError(t, w.Err())
	require.Equal(t, []byte{0x00}, w.Bytes())
}

func TestWriterOptionalPresent(t *testing.T) {
	w := &Writer{}
	w.OptionalString("f", true, "x")
	require.NoError(t, w.Err())
	require.Equal(t, []byte{0x01, 0x00, 0x00, 0x00, 0x01, 'x'}, w.Bytes())
}

func TestWriterU64BigEndian(t *testing.T) {
	w := &Writer{}
	w.U64(1)
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, w.Bytes())
}

func TestWriterRejectsInvalidUTF8(t *testing.T) {
	w := &Writer{}
	w.String("f", string([]byte{0xff, 0xfe}))
	require.Error(t, w.Err())
}

func TestWriterFirstErrorSticks(t *testing.T) {
	w := &Writer{}
	w.String("a", string([]byte{0xff}))
	w.String("b", "fine")
	var target ErrInvalidUTF8
	require.ErrorAs(t, w.Err(), &target)
	require.Equal(t, "a", target.Field)
}
