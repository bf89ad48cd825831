package rmarshal

import "math/big"

// Bignum on the wire is a sign byte followed by a count of 16-bit little
// endian "shorts" and twice that many digit bytes (spec.md §4.1, SPEC_FULL.md
// §4.1). math/big.Int is the natural host representation; no example repo
// hand-rolls a bignum type, so this is stdlib by necessity rather than a
// dropped dependency.

// newBigIntFromBytes interprets raw as a big-endian magnitude. Callers
// decoding the wire's little-endian digit bytes must reverseBytes first.
func newBigIntFromBytes(raw []byte) *big.Int {
	return new(big.Int).SetBytes(raw)
}

// reverseBytes reverses raw in place. decode.go uses it to turn the wire's
// little-endian digit bytes into the big-endian order math/big expects,
// before the sign is applied by the caller.
func reverseBytes(raw []byte) {
	for i, j := 0, len(raw)-1; i < j; i, j = i+1, j-1 {
		raw[i], raw[j] = raw[j], raw[i]
	}
}

// bignumDigitBytes returns the little-endian digit-byte encoding of the
// magnitude of b, padded to an even length (one 16-bit "short" per two
// bytes), per spec.md §4.1.
func bignumDigitBytes(b *big.Int) []byte {
	mag := new(big.Int).Abs(b)
	be := mag.Bytes()
	if len(be)%2 != 0 {
		be = append([]byte{0}, be...)
	}
	raw := make([]byte, len(be))
	for i, v := range be {
		raw[len(be)-1-i] = v
	}
	return raw
}
