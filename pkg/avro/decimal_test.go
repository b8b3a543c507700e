package avro

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeUnscaled(t *testing.T) {
	for _, tc := range []struct {
		in   []byte
		want int64
	}{
		{nil, 0},
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x80}, -128},
		{[]byte{0xff}, -1},
		{[]byte{0x00, 0xff}, 255},
		{[]byte{0xff, 0x01}, -255},
		{[]byte{0x30, 0x39}, 12345},
	} {
		require.Equal(t, tc.want, DecodeUnscaled(tc.in).Int64(), "%x", tc.in)
	}
}

func TestEncodeUnscaled(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 127, 128, -128, -129, 12345, -987654321} {
		b, err := EncodeUnscaled(big.NewInt(v), 0)
		require.NoError(t, err)
		require.Equal(t, v, DecodeUnscaled(b).Int64())

		fixed, err := EncodeUnscaled(big.NewInt(v), 8)
		require.NoError(t, err)
		require.Len(t, fixed, 8)
		require.Equal(t, v, DecodeUnscaled(fixed).Int64())
	}

	_, err := EncodeUnscaled(big.NewInt(128), 1)
	require.Error(t, err)
}
