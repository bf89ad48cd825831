package rmarshal

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v *Value) *Value {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, EncodeValue(v, &buf, EncodeOptions{}))
	got, err := DecodeValue(bytes.NewReader(buf.Bytes()), DecodeOptions{})
	require.NoError(t, err)
	return got
}

func TestEncodeDecodeRoundTripScalars(t *testing.T) {
	for _, v := range []*Value{Null(), Bool(true), Bool(false), NewInt(0), NewInt(42), NewInt(-42), NewInt(1 << 20)} {
		got := roundTrip(t, v)
		require.Equal(t, v.Kind(), got.Kind())
	}
}

func TestEncodeDecodeRoundTripString(t *testing.T) {
	v := NewString("hello world")
	got := roundTrip(t, v)
	require.Equal(t, KindString, got.Kind())
	require.True(t, got.Utf8())
	b, err := got.Bytes()
	require.NoError(t, err)
	require.Equal(t, "hello world", string(b))
}

func TestEncodeDecodeRoundTripArrayWithSharedSymbol(t *testing.T) {
	sym := NewSymbol("shared")
	arr := NewArray([]*Value{sym, sym, NewInt(1)})
	got := roundTrip(t, arr)

	items, err := got.Items()
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Same(t, items[0], items[1])
}

func TestEncodeDecodeRoundTripSharedObject(t *testing.T) {
	str := NewString("shared string")
	arr := NewArray([]*Value{str, str})
	got := roundTrip(t, arr)

	items, err := got.Items()
	require.NoError(t, err)
	require.Same(t, items[0], items[1])
}

func TestEncodeDecodeRoundTripHashOrder(t *testing.T) {
	h := NewHash([]Pair{
		{Key: NewSymbol("a"), Val: NewInt(1)},
		{Key: NewSymbol("b"), Val: NewInt(2)},
		{Key: NewSymbol("c"), Val: NewInt(3)},
	})
	got := roundTrip(t, h)

	pairs, err := got.Pairs()
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	for i, want := range []string{"a", "b", "c"} {
		b, err := pairs[i].Key.Bytes()
		require.NoError(t, err)
		require.Equal(t, want, string(b))
	}
}

func TestEncodeDecodeRoundTripGenericObject(t *testing.T) {
	obj := NewGenericObject("Point", []Pair{
		{Key: NewSymbol("@x"), Val: NewInt(1)},
		{Key: NewSymbol("@y"), Val: NewInt(2)},
	})
	got := roundTrip(t, obj)

	cn, err := got.ClassName()
	require.NoError(t, err)
	require.Equal(t, "Point", cn)
	pairs, err := got.Pairs()
	require.NoError(t, err)
	require.Len(t, pairs, 2)
}

func TestEncodeDecodeRoundTripBignum(t *testing.T) {
	for _, n := range []int64{258, -258, 1 << 40, -(1 << 40), 0x0102} {
		v := NewBigInt(big.NewInt(n))
		got := roundTrip(t, v)
		require.Equal(t, KindBigInt, got.Kind())
		gotBig, err := got.BigInt()
		require.NoError(t, err)
		require.Equal(t, big.NewInt(n).String(), gotBig.String())
	}
}

func TestEncodeSelfReferentialArray(t *testing.T) {
	arr := NewArray(nil)
	arr.items = []*Value{arr}

	var buf bytes.Buffer
	require.NoError(t, EncodeValue(arr, &buf, EncodeOptions{}))

	got, err := DecodeValue(bytes.NewReader(buf.Bytes()), DecodeOptions{})
	require.NoError(t, err)
	items, err := got.Items()
	require.NoError(t, err)
	require.Same(t, got, items[0])
}
