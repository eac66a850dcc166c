package leb128_test

import (
	"bytes"
	"testing"

	"github.com/skanehira/chibiwasm/internal/leb128"
	"github.com/stretchr/testify/require"
)

func TestDecodeUint32(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want uint32
	}{
		{"zero", []byte{0x00}, 0},
		{"single byte", []byte{0x7f}, 127},
		{"three bytes", []byte{0xe5, 0x8e, 0x26}, 624485},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, _, err := leb128.DecodeUint32(bytes.NewReader(c.in))
			require.NoError(t, err)
			require.Equal(t, c.want, v)
		})
	}
}

func TestDecodeInt32(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want int32
	}{
		{"zero", []byte{0x00}, 0},
		{"negative one", []byte{0x7f}, -1},
		{"negative 128", []byte{0x80, 0x7f}, -128},
		{"positive 624485", []byte{0xe5, 0x8e, 0x26}, 624485},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, _, err := leb128.DecodeInt32(bytes.NewReader(c.in))
			require.NoError(t, err)
			require.Equal(t, c.want, v)
		})
	}
}

func TestDecodeUint32RejectsOverflow(t *testing.T) {
	// six bytes, one more than a 32-bit value may use, with bits set beyond 32
	in := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x01}
	_, _, err := leb128.DecodeUint32(bytes.NewReader(in))
	require.Error(t, err)
}

func TestDecodeInt64SmallNegative(t *testing.T) {
	v, n, err := leb128.DecodeInt64(bytes.NewReader([]byte{0x7e}))
	require.NoError(t, err)
	require.Equal(t, int64(-2), v)
	require.Equal(t, uint64(1), n)
}
