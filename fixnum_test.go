package rmarshal

import (
	"bytes"
	"testing"
)

func TestDecodeFixnumSmallPositive(t *testing.T) {
	r := newByteReader(bytes.NewReader([]byte{10}))
	n, err := decodeFixnum(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5, got %d", n)
	}
}

func TestDecodeFixnumZero(t *testing.T) {
	r := newByteReader(bytes.NewReader([]byte{0}))
	n, err := decodeFixnum(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestDecodeFixnumSmallNegative(t *testing.T) {
	r := newByteReader(bytes.NewReader([]byte{0xfb})) // -5 => int8(-5)+5 = 0
	n, err := decodeFixnum(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestDecodeFixnumMultiByteNegative(t *testing.T) {
	// 0xfe (-2) width=2, then 0x00 0xff -> -256
	r := newByteReader(bytes.NewReader([]byte{0xfe, 0x00, 0xff}))
	n, err := decodeFixnum(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != -256 {
		t.Fatalf("expected -256, got %d", n)
	}
}

func TestFixnumRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 122, 123, -123, -124, 255, 256, 65535, 65536,
		16777215, 16777216, 0x3fffffff, -0x40000000}
	for _, n := range cases {
		var buf []byte
		buf = encodeFixnum(buf, n)
		r := newByteReader(bytes.NewReader(buf))
		got, err := decodeFixnum(r)
		if err != nil {
			t.Fatalf("decode(%d): %v", n, err)
		}
		if got != n {
			t.Fatalf("round trip mismatch: wanted %d, got %d (encoded %v)", n, got, buf)
		}
	}
}
