package rmarshal

import "encoding/binary"

// decodeFixnum reads a Marshal 4.8 variable-width integer (spec.md §4.2),
// adapted from samcday-rmarsh/decoder.go:long() (and its twin in the
// abandoned old/parser.go). Both the positive and negative multi-byte
// branches are implemented per SPEC_FULL.md §4.2's resolution of the
// source's Open Question.
func decodeFixnum(r *byteReader) (int64, error) {
	b, err := r.nextByte("fixnum")
	if err != nil {
		return 0, err
	}

	c := int(int8(b))
	if c == 0 {
		return 0, nil
	}

	if c > 0 {
		if 4 < c && c < 128 {
			return int64(c - 5), nil
		}

		raw, err := r.nextBytes(int64(c), "fixnum")
		if err != nil {
			return 0, err
		}
		if c > 4 {
			return 0, OverLongIntError{Width: c, Offset: r.offset()}
		}
		var buf [8]byte
		copy(buf[:], raw)
		return int64(binary.LittleEndian.Uint64(buf[:])), nil
	}

	if -129 < c && c < -4 {
		return int64(c + 5), nil
	}

	width := -c
	if width > 4 {
		return 0, OverLongIntError{Width: width, Offset: r.offset()}
	}
	raw, err := r.nextBytes(int64(width), "fixnum")
	if err != nil {
		return 0, err
	}
	x := int64(-1)
	for i, v := range raw {
		x &^= int64(0xff) << uint(8*i)
		x |= int64(v) << uint(8*i)
	}
	return x, nil
}

// fixnumEncodeMin/Max bound what can be encoded with the 4-byte width;
// values outside this range are the caller's (Bignum) concern.
const (
	fixnumEncodeMin = -0x40000000
	fixnumEncodeMax = 0x3fffffff
)

// encodeFixnum appends the Marshal 4.8 encoding of n to dst and returns
// the extended slice. Chooses the shortest representation that
// round-trips, per spec.md §4.2. Adapted from
// samcday-rmarsh/encoder.go:encodeNum/encodeNumPos/encodeNumNeg, flattened
// from operating on reflect.Value/interface{} to a plain int64 since Value
// already stores a concrete int64.
func encodeFixnum(dst []byte, n int64) []byte {
	if n == 0 {
		return append(dst, 0)
	}
	if n > 0 {
		return encodeFixnumPos(dst, uint64(n))
	}
	return encodeFixnumNeg(dst, n)
}

func encodeFixnumPos(dst []byte, n uint64) []byte {
	switch {
	case n < 123:
		return append(dst, byte(n)+5)
	case n <= 0xFF:
		return append(dst, 1, byte(n))
	case n <= 0xFFFF:
		return append(dst, 2, byte(n), byte(n>>8))
	case n <= 0xFFFFFF:
		return append(dst, 3, byte(n), byte(n>>8), byte(n>>16))
	default:
		return append(dst, 4, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
	}
}

func encodeFixnumNeg(dst []byte, n int64) []byte {
	switch {
	case n > -124:
		return append(dst, byte(n-5))
	case n >= -0x100:
		return append(dst, byte(int8(-1)), byte(n))
	case n >= -0x10000:
		return append(dst, byte(int8(-2)), byte(n), byte(n>>8))
	case n >= -0x1000000:
		return append(dst, byte(int8(-3)), byte(n), byte(n>>8), byte(n>>16))
	default:
		return append(dst, byte(int8(-4)), byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
	}
}
