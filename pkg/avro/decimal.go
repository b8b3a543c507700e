package avro

import (
	"fmt"
	"math/big"
)

// DecodeUnscaled interprets b as a big-endian two's-complement integer, the
// storage format of the decimal logical type.
func DecodeUnscaled(b []byte) *big.Int {
	x := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		x.Sub(x, new(big.Int).Lsh(big.NewInt(1), uint(len(b))*8))
	}
	return x
}

// EncodeUnscaled returns x as a big-endian two's-complement integer. When size
// is positive the result is sign-extended to exactly size bytes; otherwise it
// is just long enough to hold the magnitude and a sign bit.
func EncodeUnscaled(x *big.Int, size int) ([]byte, error) {
	n := (x.BitLen() + 8) / 8 // one spare bit for the sign
	if size > 0 {
		if n > size {
			return nil, fmt.Errorf("decimal %s does not fit in %d bytes", x, size)
		}
		n = size
	}

	v := new(big.Int).Set(x)
	if v.Sign() < 0 {
		v.Add(v, new(big.Int).Lsh(big.NewInt(1), uint(n)*8))
	}
	out := make([]byte, n)
	v.FillBytes(out)
	return out, nil
}
