package rmarshal

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Decoder drives a single decode of one Marshal 4.8 document (spec.md
// §4.5). Not safe for concurrent use; each Decoder owns one arena and one
// byte source, matching spec.md §5's "single-threaded per decoding
// context" rule.
type Decoder struct {
	r     *byteReader
	arena *arena
	depth int
	opts  DecodeOptions
	trc   *tracer
}

// NewDecoder constructs a Decoder reading from r.
func NewDecoder(r io.Reader, opts DecodeOptions) *Decoder {
	return &Decoder{
		r:     newByteReader(r),
		arena: newArena(),
		opts:  opts,
		trc:   newTracer(opts.Trace, opts.QuietTrace),
	}
}

// Decode reads the signature then one value, per spec.md §4.5.
func (d *Decoder) Decode() (*Value, error) {
	d.arena.reset()
	var sig [2]byte
	b0, err := d.r.nextByte("magic")
	if err != nil {
		return nil, err
	}
	b1, err := d.r.nextByte("magic")
	if err != nil {
		return nil, err
	}
	sig[0], sig[1] = b0, b1
	if sig != marshalMagic {
		return nil, BadSignatureError{Got: sig}
	}

	return d.decodeValue()
}

func (d *Decoder) decodeValue() (*Value, error) {
	d.depth++
	d.trc.push()
	defer func() { d.depth--; d.trc.pop() }()

	tag, err := d.r.nextByte("type tag")
	if err != nil {
		return nil, err
	}

	d.trc.logf("tag %q (offset %d)", rune(tag), d.r.offset()-1)

	if d.depth > d.opts.maxDepth() {
		return nil, RecursionLimitError{Depth: d.depth, Tag: tag}
	}

	if d.opts.StrictTags && !requiredTags[tag] {
		return nil, UnsupportedTagError{Tag: tag, Offset: d.r.offset() - 1}
	}

	switch tag {
	case tagTrue:
		return Bool(true), nil
	case tagFalse:
		return Bool(false), nil
	case tagNil:
		return Null(), nil
	case tagFixnum:
		n, err := decodeFixnum(d.r)
		if err != nil {
			return nil, err
		}
		return NewInt(n), nil
	case tagSymbol:
		return d.decodeSymbol()
	case tagSymlink:
		return d.decodeSymlink()
	case tagObjectLink:
		return d.decodeObjectLink()
	case tagString:
		return d.decodeString()
	case tagArray:
		return d.decodeArray()
	case tagHash:
		return d.decodeHash()
	case tagObject:
		return d.decodeObject()
	case tagUsrDef:
		return d.decodeUserDefined()
	case tagUsrMarshal:
		return d.decodeUserMarshal()
	case tagIvar:
		return d.decodeIvar()
	case tagFloat:
		return d.decodeFloat()
	case tagBignum:
		return d.decodeBignum()
	case tagClass:
		return d.decodeClassRef()
	case tagModule:
		return d.decodeModuleRef()
	case tagRegexp:
		return d.decodeRegexp()
	default:
		return nil, UnsupportedTagError{Tag: tag, Offset: d.r.offset() - 1}
	}
}

// rawBytes reads a fixnum-length-prefixed byte sequence, per spec.md §4.2.
func (d *Decoder) rawBytes(op string) ([]byte, error) {
	n, err := decodeFixnum(d.r)
	if err != nil {
		return nil, errors.Wrapf(err, "reading length of %s", op)
	}
	return d.r.nextBytes(n, op)
}

// decodeSymbol implements tag `:` (spec.md §4.5): a fresh symbol
// definition, registered in the symbol table in definition order.
func (d *Decoder) decodeSymbol() (*Value, error) {
	b, err := d.rawBytes("symbol")
	if err != nil {
		return nil, err
	}
	sym := newSymbol(b)
	d.arena.registerSymbol(sym)
	return sym, nil
}

// decodeSymlink implements tag `;`: a reference to a previously defined
// symbol.
func (d *Decoder) decodeSymlink() (*Value, error) {
	off := d.r.offset()
	i, err := decodeFixnum(d.r)
	if err != nil {
		return nil, err
	}
	return d.arena.getSymbol(i, off)
}

// decodeObjectLink implements tag `@`: a reference to a previously
// defined object.
func (d *Decoder) decodeObjectLink() (*Value, error) {
	off := d.r.offset()
	i, err := decodeFixnum(d.r)
	if err != nil {
		return nil, err
	}
	return d.arena.getObject(i, off)
}

// decodeString implements tag `"`: registers the new String in the
// object table before returning it.
func (d *Decoder) decodeString() (*Value, error) {
	b, err := d.rawBytes("string")
	if err != nil {
		return nil, err
	}
	s := newString(b, false)
	d.arena.registerObject(s)
	return s, nil
}

// decodeArray implements tag `[`. Per spec.md §4.5, the array is
// registered before its elements are decoded, so a self-referential
// array (element N points back to the array itself via tag `@`) resolves
// correctly.
func (d *Decoder) decodeArray() (*Value, error) {
	n, err := decodeFixnum(d.r)
	if err != nil {
		return nil, err
	}
	arr := &Value{kind: KindArray, id: -1, items: make([]*Value, 0, n)}
	d.arena.registerObject(arr)

	for i := int64(0); i < n; i++ {
		el, err := d.decodeValue()
		if err != nil {
			return nil, errors.Wrapf(err, "array element %d", i)
		}
		arr.items = append(arr.items, el)
	}
	return arr, nil
}

// decodeHash implements tag `{`. Insertion order is preserved; duplicate
// keys retain the last value but keep their first-occurrence position
// (spec.md §3 "Hash").
func (d *Decoder) decodeHash() (*Value, error) {
	n, err := decodeFixnum(d.r)
	if err != nil {
		return nil, err
	}
	h := &Value{kind: KindHash, id: -1, pairs: make([]Pair, 0, n)}
	d.arena.registerObject(h)

	for i := int64(0); i < n; i++ {
		k, err := d.decodeValue()
		if err != nil {
			return nil, errors.Wrapf(err, "hash key %d", i)
		}
		v, err := d.decodeValue()
		if err != nil {
			return nil, errors.Wrapf(err, "hash value %d", i)
		}
		h.pairs = appendHashPair(h.pairs, k, v)
	}
	return h, nil
}

// appendHashPair implements the "duplicate keys retain the last value but
// order follows first occurrence" rule (spec.md §3 invariant for Hash).
// Key equality is defined structurally for the kinds that can appear as
// hash keys in a decoded document (symbols/strings/ints/bools/nil); any
// other kind is compared by identity, matching Ruby's default
// object-identity hash semantics for compound keys.
func appendHashPair(pairs []Pair, k, v *Value) []Pair {
	for i, p := range pairs {
		if sameHashKey(p.Key, k) {
			pairs[i].Val = v
			return pairs
		}
	}
	return append(pairs, Pair{Key: k, Val: v})
}

func sameHashKey(a, b *Value) bool {
	if a == b {
		return true
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindSymbol, KindString:
		return string(a.bytes) == string(b.bytes)
	case KindInt:
		return a.intVal == b.intVal
	case KindBool:
		return a.boolVal == b.boolVal
	case KindNull:
		return true
	default:
		return false
	}
}

// decodeClassNameSymbol reads the next value, which must be a symbol
// (possibly a symlink), and returns its string form. Per spec.md §3
// invariant 3, the class-name counts as a symbol and shares the symbol
// table with other symbols.
func (d *Decoder) decodeClassNameSymbol() (string, error) {
	v, err := d.decodeValue()
	if err != nil {
		return "", err
	}
	if v.kind != KindSymbol {
		return "", errors.Errorf("rmarshal: expected Symbol for class name, got %s", v.kind)
	}
	return string(v.bytes), nil
}

// decodeObject implements tag `o`: a GenericObject.
func (d *Decoder) decodeObject() (*Value, error) {
	className, err := d.decodeClassNameSymbol()
	if err != nil {
		return nil, errors.Wrap(err, "object class name")
	}
	obj := &Value{kind: KindGenericObject, id: -1, className: className}
	d.arena.registerObject(obj)

	n, err := decodeFixnum(d.r)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < n; i++ {
		key, err := d.decodeValue()
		if err != nil {
			return nil, errors.Wrapf(err, "object ivar key %d", i)
		}
		val, err := d.decodeValue()
		if err != nil {
			return nil, errors.Wrapf(err, "object ivar value %d", i)
		}
		if err := obj.setIvar(key, val); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// decodeUserDefined implements tag `u`.
func (d *Decoder) decodeUserDefined() (*Value, error) {
	className, err := d.decodeClassNameSymbol()
	if err != nil {
		return nil, errors.Wrap(err, "user-defined class name")
	}
	ud := &Value{kind: KindUserDefined, id: -1, className: className}
	d.arena.registerObject(ud)

	raw, err := d.rawBytes("user-defined payload")
	if err != nil {
		return nil, err
	}
	ud.bytes = raw
	return ud, nil
}

// decodeUserMarshal implements tag `U`.
func (d *Decoder) decodeUserMarshal() (*Value, error) {
	className, err := d.decodeClassNameSymbol()
	if err != nil {
		return nil, errors.Wrap(err, "user-marshal class name")
	}
	um := &Value{kind: KindUserMarshal, id: -1, className: className}
	d.arena.registerObject(um)

	data, err := d.decodeValue()
	if err != nil {
		return nil, errors.Wrap(err, "user-marshal payload")
	}
	um.items = []*Value{data}
	return um, nil
}

// decodeIvar implements tag `I`: per spec.md §4.5, the object-table slot
// is allocated for the inner value (by whichever decode* handled it), not
// for the wrapper — decodeIvar itself never calls registerObject.
func (d *Decoder) decodeIvar() (*Value, error) {
	inner, err := d.decodeValue()
	if err != nil {
		return nil, errors.Wrap(err, "ivar-wrapped value")
	}
	n, err := decodeFixnum(d.r)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < n; i++ {
		key, err := d.decodeValue()
		if err != nil {
			return nil, errors.Wrapf(err, "ivar key %d", i)
		}
		val, err := d.decodeValue()
		if err != nil {
			return nil, errors.Wrapf(err, "ivar value %d", i)
		}
		if err := inner.setIvar(key, val); err != nil {
			return nil, err
		}
	}
	return inner, nil
}

// decodeFloat implements the supplementary `f` tag (SPEC_FULL.md §4.1).
func (d *Decoder) decodeFloat() (*Value, error) {
	raw, err := d.rawBytes("float")
	if err != nil {
		return nil, err
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return nil, errors.Wrap(err, "parsing float literal")
	}
	v := NewFloat(f)
	d.arena.registerObject(v)
	return v, nil
}

// decodeBignum implements the supplementary `l` tag.
func (d *Decoder) decodeBignum() (*Value, error) {
	sign, err := d.r.nextByte("bignum sign")
	if err != nil {
		return nil, err
	}
	words, err := decodeFixnum(d.r)
	if err != nil {
		return nil, err
	}
	raw, err := d.r.nextBytes(words*2, "bignum digits")
	if err != nil {
		return nil, err
	}
	reverseBytes(raw)

	bi := newBigIntFromBytes(raw)
	if sign == '-' {
		bi.Neg(bi)
	}
	v := NewBigInt(bi)
	d.arena.registerObject(v)
	return v, nil
}

// decodeClassRef / decodeModuleRef implement the supplementary `c`/`m`
// tags.
func (d *Decoder) decodeClassRef() (*Value, error) {
	raw, err := d.rawBytes("class name")
	if err != nil {
		return nil, err
	}
	v := NewClassRef(string(raw))
	d.arena.registerObject(v)
	return v, nil
}

func (d *Decoder) decodeModuleRef() (*Value, error) {
	raw, err := d.rawBytes("module name")
	if err != nil {
		return nil, err
	}
	v := NewModuleRef(string(raw))
	d.arena.registerObject(v)
	return v, nil
}

// decodeRegexp implements the supplementary `/` tag.
func (d *Decoder) decodeRegexp() (*Value, error) {
	raw, err := d.rawBytes("regexp source")
	if err != nil {
		return nil, err
	}
	flags, err := d.r.nextByte("regexp flags")
	if err != nil {
		return nil, err
	}
	v := NewRegexp(string(raw), flags)
	d.arena.registerObject(v)
	return v, nil
}
