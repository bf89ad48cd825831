package rmarshal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func marshalBytes(tail ...[]byte) []byte {
	out := append([]byte{}, marshalMagic[0], marshalMagic[1])
	for _, t := range tail {
		out = append(out, t...)
	}
	return out
}

func TestDecodeNil(t *testing.T) {
	v, err := DecodeValue(bytes.NewReader(marshalBytes([]byte{tagNil})), DecodeOptions{})
	require.NoError(t, err)
	require.Equal(t, KindNull, v.Kind())
}

func TestDecodeBool(t *testing.T) {
	v, err := DecodeValue(bytes.NewReader(marshalBytes([]byte{tagTrue})), DecodeOptions{})
	require.NoError(t, err)
	b, err := v.Bool()
	require.NoError(t, err)
	require.True(t, b)
}

func TestDecodeSmallFixnum(t *testing.T) {
	v, err := DecodeValue(bytes.NewReader(marshalBytes([]byte{tagFixnum, 10})), DecodeOptions{})
	require.NoError(t, err)
	n, err := v.Int()
	require.NoError(t, err)
	require.EqualValues(t, 5, n)
}

func TestDecodeBadSignature(t *testing.T) {
	_, err := DecodeValue(bytes.NewReader([]byte{0x04, 0x09}), DecodeOptions{})
	require.Error(t, err)
	require.IsType(t, BadSignatureError{}, err)
}

func TestDecodeSymbolThenSymlink(t *testing.T) {
	// [:sym, :sym] — second :sym resolves as a symlink.
	buf := marshalBytes(
		[]byte{tagArray, 5 + 2},
		[]byte{tagSymbol, 5 + 3}, []byte("sym"),
		[]byte{tagSymlink, 5 + 0},
	)
	v, err := DecodeValue(bytes.NewReader(buf), DecodeOptions{})
	require.NoError(t, err)
	items, err := v.Items()
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Same(t, items[0], items[1])
	b, err := items[0].Bytes()
	require.NoError(t, err)
	require.Equal(t, "sym", string(b))
}

func TestDecodeStringWithUtf8Flag(t *testing.T) {
	// I" + "hi" + ivar count 1 + :E + true
	buf := marshalBytes(
		[]byte{tagIvar, tagString, 5 + 2}, []byte("hi"),
		[]byte{5 + 1},
		[]byte{tagSymbol, 5 + 1}, []byte("E"),
		[]byte{tagTrue},
	)
	v, err := DecodeValue(bytes.NewReader(buf), DecodeOptions{})
	require.NoError(t, err)
	require.Equal(t, KindString, v.Kind())
	require.True(t, v.Utf8())
	b, err := v.Bytes()
	require.NoError(t, err)
	require.Equal(t, "hi", string(b))
}

func TestDecodeGenericObjectWithIvars(t *testing.T) {
	// o :Point, 2 ivars: @x=1, @y=2
	buf := marshalBytes(
		[]byte{tagObject, tagSymbol, 5 + 5}, []byte("Point"),
		[]byte{5 + 2},
		[]byte{tagSymbol, 5 + 2}, []byte("@x"), []byte{tagFixnum, 5 + 1},
		[]byte{tagSymbol, 5 + 2}, []byte("@y"), []byte{tagFixnum, 5 + 2},
	)
	v, err := DecodeValue(bytes.NewReader(buf), DecodeOptions{})
	require.NoError(t, err)
	require.Equal(t, KindGenericObject, v.Kind())
	cn, err := v.ClassName()
	require.NoError(t, err)
	require.Equal(t, "Point", cn)
	pairs, err := v.Pairs()
	require.NoError(t, err)
	require.Len(t, pairs, 2)
}

func TestDecodeSelfReferentialArray(t *testing.T) {
	// a = []; a << a  =>  [ array-link-to-self ]
	buf := marshalBytes(
		[]byte{tagArray, 5 + 1},
		[]byte{tagObjectLink, 5 + 0},
	)
	v, err := DecodeValue(bytes.NewReader(buf), DecodeOptions{})
	require.NoError(t, err)
	items, err := v.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Same(t, v, items[0])
}

func TestDecodeBadObjectLink(t *testing.T) {
	buf := marshalBytes([]byte{tagObjectLink, 5 + 3})
	_, err := DecodeValue(bytes.NewReader(buf), DecodeOptions{})
	require.Error(t, err)
	require.IsType(t, BadRefError{}, err)
}

func TestDecodeRecursionLimit(t *testing.T) {
	// deeply nested single-element arrays
	depth := 10
	buf := marshalBytes()
	var body []byte
	for i := 0; i < depth; i++ {
		body = append(body, tagArray, 5+1)
	}
	body = append(body, tagNil)
	buf = append(buf, body...)

	opts := DecodeOptions{MaxDepth: depth - 1}
	_, err := DecodeValue(bytes.NewReader(buf), opts)
	require.Error(t, err)
	require.IsType(t, RecursionLimitError{}, err)
}

func TestDecodeStrictTagsRejectsSupplementary(t *testing.T) {
	buf := marshalBytes([]byte{tagFloat, 5 + 3}, []byte("1.5"))
	_, err := DecodeValue(bytes.NewReader(buf), DecodeOptions{StrictTags: true})
	require.Error(t, err)
	require.IsType(t, UnsupportedTagError{}, err)
}
