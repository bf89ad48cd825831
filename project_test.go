package rmarshal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testPoint struct {
	X int64
	Y int64
}

func pointFactory(className string, arg interface{}) (interface{}, error) {
	switch className {
	case "Point":
		return &testPoint{}, nil
	default:
		return nil, nil
	}
}

func TestProjectGenericObjectViaReflect(t *testing.T) {
	obj := NewGenericObject("Point", []Pair{
		{Key: NewSymbol("@x"), Val: NewInt(3)},
		{Key: NewSymbol("@y"), Val: NewInt(4)},
	})

	proj, err := Project(obj, pointFactory)
	require.NoError(t, err)
	p, ok := proj.(*testPoint)
	require.True(t, ok)
	require.EqualValues(t, 3, p.X)
	require.EqualValues(t, 4, p.Y)
}

func TestProjectUnknownClassFallsBackToMap(t *testing.T) {
	obj := NewGenericObject("Mystery", []Pair{
		{Key: NewSymbol("@size"), Val: NewInt(9)},
	})

	proj, err := Project(obj, pointFactory)
	require.NoError(t, err)
	m, ok := proj.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "Mystery", m["class"])
	require.EqualValues(t, 9, m["size"])
}

func TestProjectIsIdempotent(t *testing.T) {
	obj := NewGenericObject("Point", []Pair{
		{Key: NewSymbol("@x"), Val: NewInt(1)},
		{Key: NewSymbol("@y"), Val: NewInt(2)},
	})

	first, err := Project(obj, pointFactory)
	require.NoError(t, err)
	second, err := Project(obj, pointFactory)
	require.NoError(t, err)
	require.Same(t, first, second)
}

type dumpable struct {
	n int64
}

func (d *dumpable) ClassName() string { return "Dumpable" }
func (d *dumpable) Dump() ([]byte, error) {
	return []byte{byte(d.n)}, nil
}

func TestLiftDumper(t *testing.T) {
	v, err := Lift(&dumpable{n: 7}, nil)
	require.NoError(t, err)
	require.Equal(t, KindUserDefined, v.Kind())
	cn, err := v.ClassName()
	require.NoError(t, err)
	require.Equal(t, "Dumpable", cn)
}

func TestProjectHashPreservesOrderAndRoundTrips(t *testing.T) {
	h := NewHash([]Pair{
		{Key: NewSymbol("c"), Val: NewInt(3)},
		{Key: NewSymbol("a"), Val: NewInt(1)},
		{Key: NewSymbol("b"), Val: NewInt(2)},
	})

	proj, err := Project(h, pointFactory)
	require.NoError(t, err)
	entries, ok := proj.([]HashEntry)
	require.True(t, ok)
	require.Equal(t, []HashEntry{
		{Key: "c", Val: int64(3)},
		{Key: "a", Val: int64(1)},
		{Key: "b", Val: int64(2)},
	}, entries)

	lifted, err := Lift(entries, pointFactory)
	require.NoError(t, err)
	pairs, err := lifted.Pairs()
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	k0, err := pairs[0].Key.Bytes()
	require.NoError(t, err)
	require.Equal(t, "c", string(k0))
}

func TestLiftDedupesIdenticalStrings(t *testing.T) {
	v, err := Lift([]interface{}{"shared", "shared", "different"}, nil)
	require.NoError(t, err)
	items, err := v.Items()
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Same(t, items[0], items[1])
	require.NotSame(t, items[0], items[2])
}

func TestLiftScalarsAndCollections(t *testing.T) {
	v, err := Lift([]interface{}{"a", int64(1), true, nil}, nil)
	require.NoError(t, err)
	items, err := v.Items()
	require.NoError(t, err)
	require.Len(t, items, 4)
	require.Equal(t, KindString, items[0].Kind())
	require.Equal(t, KindInt, items[1].Kind())
	require.Equal(t, KindBool, items[2].Kind())
	require.Equal(t, KindNull, items[3].Kind())
}
