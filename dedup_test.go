package rmarshal

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringDedupReturnsSameValueForSameBytes(t *testing.T) {
	d := newStringDedup()
	minted := 0
	mint := func() *Value {
		minted++
		return NewString("x")
	}

	a := d.lookupOrInsert([]byte("hello"), mint)
	b := d.lookupOrInsert([]byte("hello"), mint)
	require.Same(t, a, b)
	require.Equal(t, 1, minted)
}

func TestStringDedupDistinctForDifferentBytes(t *testing.T) {
	d := newStringDedup()
	a := d.lookupOrInsert([]byte("hello"), func() *Value { return NewString("hello") })
	b := d.lookupOrInsert([]byte("world"), func() *Value { return NewString("world") })
	require.NotSame(t, a, b)
}

// TestStringDedupSurvivesLeafSplit inserts enough distinct strings to
// force a leaf past stringDedupMaxLeafEntries and split into an interior
// node, then confirms every one of them (plus a repeat of the first) is
// still found by its own exact bytes.
func TestStringDedupSurvivesLeafSplit(t *testing.T) {
	d := newStringDedup()
	n := stringDedupMaxLeafEntries*4 + 3
	vals := make([]*Value, n)
	for i := 0; i < n; i++ {
		s := fmt.Sprintf("key-%d", i)
		vals[i] = d.lookupOrInsert([]byte(s), func() *Value { return NewString(s) })
	}
	for i := 0; i < n; i++ {
		s := fmt.Sprintf("key-%d", i)
		got := d.lookupOrInsert([]byte(s), func() *Value {
			t.Fatalf("mint called again for %q, dedup lost the entry after a split", s)
			return nil
		})
		require.Same(t, vals[i], got)
	}
}
