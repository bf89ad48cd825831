package rmarshal

// arenaInitSize is the initial/growth-step capacity for the symbol and
// object tables, adapted from samcday-rmarsh/old/parser.go's
// rngTblInitSz/rngTbl growable-table pattern (there sized for byte
// ranges; here for *Value pointers, since decode.go materializes a full
// graph rather than replaying byte ranges out of a retained buffer).
const arenaInitSize = 8

// arena owns every decoded (or to-be-encoded) value's registration slot,
// per spec.md §4.3. During decode it is strictly append-only. Only the
// Decoder uses it; the Encoder keeps its own symbolIDs/objectIDs maps in
// encode.go.
type arena struct {
	symbols []*Value
	objects []*Value
}

func newArena() *arena {
	return &arena{
		symbols: make([]*Value, 0, arenaInitSize),
		objects: make([]*Value, 0, arenaInitSize),
	}
}

// registerSymbol appends v to the symbol table and assigns its id.
func (a *arena) registerSymbol(v *Value) int32 {
	id := int32(len(a.symbols))
	v.id = id
	a.symbols = append(a.symbols, v)
	return id
}

// registerObject appends v to the object table and assigns its id.
func (a *arena) registerObject(v *Value) int32 {
	id := int32(len(a.objects))
	v.id = id
	a.objects = append(a.objects, v)
	return id
}

// getSymbol resolves a symbol back-reference (tag `;`).
func (a *arena) getSymbol(i int64, offset int64) (*Value, error) {
	if i < 0 || i >= int64(len(a.symbols)) {
		return nil, BadRefError{Kind: "symbol", Index: i, Have: len(a.symbols), Offset: offset}
	}
	return a.symbols[i], nil
}

// getObject resolves an object back-reference (tag `@`).
func (a *arena) getObject(i int64, offset int64) (*Value, error) {
	if i < 0 || i >= int64(len(a.objects)) {
		return nil, BadRefError{Kind: "object", Index: i, Have: len(a.objects), Offset: offset}
	}
	return a.objects[i], nil
}

// reset clears the arena for reuse (spec.md §5 "every allocation... is
// owned by the context and freed exactly once when the context is
// destroyed" — reusing a Decoder across streams must not leak the
// previous stream's reference tables into the next one). Decoder.Decode
// calls it before reading each document.
func (a *arena) reset() {
	a.symbols = a.symbols[:0]
	a.objects = a.objects[:0]
}
