package rmarshal

import (
	"fmt"
	"math/big"
)

// Kind discriminates the tagged cases of Value (spec.md §3).
type Kind uint8

const (
	KindBool Kind = iota
	KindNull
	KindInt
	KindSymbol
	KindString
	KindArray
	KindHash
	KindGenericObject
	KindUserDefined
	KindUserMarshal

	// Supplementary kinds, SPEC_FULL.md §4.1.
	KindFloat
	KindBigInt
	KindClassRef
	KindModuleRef
	KindRegexp
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "Bool"
	case KindNull:
		return "Null"
	case KindInt:
		return "Int"
	case KindSymbol:
		return "Symbol"
	case KindString:
		return "String"
	case KindArray:
		return "Array"
	case KindHash:
		return "Hash"
	case KindGenericObject:
		return "GenericObject"
	case KindUserDefined:
		return "UserDefined"
	case KindUserMarshal:
		return "UserMarshal"
	case KindFloat:
		return "Float"
	case KindBigInt:
		return "BigInt"
	case KindClassRef:
		return "Class"
	case KindModuleRef:
		return "Module"
	case KindRegexp:
		return "Regexp"
	default:
		return "Unknown"
	}
}

// registrationKind identifies which arena (if any) a Value's kind belongs
// to (spec.md §3 "Registration kinds").
type registrationKind uint8

const (
	regEphemeral registrationKind = iota
	regSymbol
	regObject
)

func (k Kind) registration() registrationKind {
	switch k {
	case KindBool, KindNull, KindInt:
		return regEphemeral
	case KindSymbol:
		return regSymbol
	default:
		return regObject
	}
}

// Pair is an ordered key/value entry, used for Hash pairs and instance
// variable lists (spec.md §3).
type Pair struct {
	Key *Value
	Val *Value
}

// Value is the tagged discriminated value spec.md §3 describes. During
// decode every non-ephemeral, non-symbol kind is registered in the object
// table and symbols in the symbol table (id >= 0); Bool/Null/Int are never
// back-referenceable and carry id == -1, as do values built with the
// New* constructors.
type Value struct {
	kind Kind
	id   int32 // arena slot, or -1 if unregistered (ephemeral)

	boolVal bool
	intVal  int64
	floatV  float64
	bigV    *big.Int

	bytes []byte // Symbol/String/UserDefined/Regexp payload
	utf8  bool   // String: the `E` ivar flag
	enc   string // String: explicit encoding name, if any (not UTF-8/US-ASCII)

	regexFlags byte

	items []*Value // Array elements, or single-element UserMarshal payload
	pairs []Pair   // Hash pairs, or GenericObject/UserDefined/UserMarshal ivars

	className string // GenericObject/UserDefined/UserMarshal/Class/Module name

	proj    interface{} // cached host projection
	hasProj bool
}

// Singletons, shared across all decoding/encoding contexts (spec.md §3).
var (
	valueTrue  = &Value{kind: KindBool, id: -1, boolVal: true}
	valueFalse = &Value{kind: KindBool, id: -1, boolVal: false}
	valueNull  = &Value{kind: KindNull, id: -1}
)

// Bool returns the shared True/False singleton.
func Bool(b bool) *Value {
	if b {
		return valueTrue
	}
	return valueFalse
}

// Null returns the shared Null singleton.
func Null() *Value { return valueNull }

// NewInt wraps an integer. Ephemeral: never arena-registered.
func NewInt(n int64) *Value { return &Value{kind: KindInt, id: -1, intVal: n} }

// NewFloat wraps a float (SPEC_FULL.md §4.1).
func NewFloat(f float64) *Value { return &Value{kind: KindFloat, id: -1, floatV: f} }

// NewBigInt wraps an arbitrary-precision integer (SPEC_FULL.md §4.1).
func NewBigInt(b *big.Int) *Value { return &Value{kind: KindBigInt, id: -1, bigV: b} }

// newSymbol constructs an unregistered Symbol value; callers must register
// it in the arena's symbol table to assign an id.
func newSymbol(b []byte) *Value {
	return &Value{kind: KindSymbol, id: -1, bytes: b}
}

// NewSymbol is the public constructor used when lifting host strings into
// symbols (e.g. attribute names) outside of a decode.
func NewSymbol(s string) *Value { return newSymbol([]byte(s)) }

// newString constructs an unregistered String value.
func newString(b []byte, utf8 bool) *Value {
	return &Value{kind: KindString, id: -1, bytes: b, utf8: utf8}
}

// NewString is the public constructor for lifting a host string.
func NewString(s string) *Value { return newString([]byte(s), true) }

// NewArray constructs an unregistered Array value from the given elements.
func NewArray(items []*Value) *Value {
	return &Value{kind: KindArray, id: -1, items: items}
}

// NewHash constructs an unregistered Hash value from the given pairs, in
// insertion order (spec.md §3 invariant 5).
func NewHash(pairs []Pair) *Value {
	return &Value{kind: KindHash, id: -1, pairs: pairs}
}

// NewGenericObject constructs an unregistered GenericObject.
func NewGenericObject(className string, ivars []Pair) *Value {
	return &Value{kind: KindGenericObject, id: -1, className: className, pairs: ivars}
}

// NewUserDefined constructs an unregistered UserDefined value.
func NewUserDefined(className string, raw []byte, ivars []Pair) *Value {
	return &Value{kind: KindUserDefined, id: -1, className: className, bytes: raw, pairs: ivars}
}

// NewUserMarshal constructs an unregistered UserMarshal value.
func NewUserMarshal(className string, data *Value, ivars []Pair) *Value {
	return &Value{kind: KindUserMarshal, id: -1, className: className, items: []*Value{data}, pairs: ivars}
}

// NewClassRef / NewModuleRef construct the supplementary class/module
// reference kinds (SPEC_FULL.md §4.1).
func NewClassRef(name string) *Value {
	return &Value{kind: KindClassRef, id: -1, className: name}
}
func NewModuleRef(name string) *Value {
	return &Value{kind: KindModuleRef, id: -1, className: name}
}

// NewRegexp constructs the supplementary Regexp kind.
func NewRegexp(expr string, flags byte) *Value {
	return &Value{kind: KindRegexp, id: -1, bytes: []byte(expr), regexFlags: flags}
}

// Kind returns the value's discriminant.
func (v *Value) Kind() Kind { return v.kind }

// ID returns the arena slot assigned to this value, or -1 if it was never
// registered (ephemeral kinds, or a value not produced by a decode; the
// encoder does not assign ids).
func (v *Value) ID() int32 { return v.id }

// Bool returns the boolean payload. Panics-free: callers must check Kind.
func (v *Value) Bool() (bool, error) {
	if v.kind != KindBool {
		return false, InvalidValueError{Op: "Value.Bool", Expected: "Bool", Got: v.kind}
	}
	return v.boolVal, nil
}

// Int returns the integer payload.
func (v *Value) Int() (int64, error) {
	if v.kind != KindInt {
		return 0, InvalidValueError{Op: "Value.Int", Expected: "Int", Got: v.kind}
	}
	return v.intVal, nil
}

// Float returns the float payload.
func (v *Value) Float() (float64, error) {
	if v.kind != KindFloat {
		return 0, InvalidValueError{Op: "Value.Float", Expected: "Float", Got: v.kind}
	}
	return v.floatV, nil
}

// BigInt returns the arbitrary-precision integer payload.
func (v *Value) BigInt() (*big.Int, error) {
	if v.kind != KindBigInt {
		return nil, InvalidValueError{Op: "Value.BigInt", Expected: "BigInt", Got: v.kind}
	}
	return v.bigV, nil
}

// Bytes returns the raw byte payload for Symbol/String/UserDefined/Regexp.
func (v *Value) Bytes() ([]byte, error) {
	switch v.kind {
	case KindSymbol, KindString, KindUserDefined, KindRegexp:
		return v.bytes, nil
	default:
		return nil, InvalidValueError{Op: "Value.Bytes", Expected: "Symbol|String|UserDefined|Regexp", Got: v.kind}
	}
}

// Utf8 reports whether a String's `E` instance variable was set true
// (spec.md §3 "String"). Meaningless for non-String kinds.
func (v *Value) Utf8() bool { return v.utf8 }

// Items returns the element slice for Array, or the single-element data
// slice for UserMarshal.
func (v *Value) Items() ([]*Value, error) {
	switch v.kind {
	case KindArray, KindUserMarshal:
		return v.items, nil
	default:
		return nil, InvalidValueError{Op: "Value.Items", Expected: "Array|UserMarshal", Got: v.kind}
	}
}

// UserMarshalData returns the wrapped data value of a UserMarshal.
func (v *Value) UserMarshalData() (*Value, error) {
	if v.kind != KindUserMarshal {
		return nil, InvalidValueError{Op: "Value.UserMarshalData", Expected: "UserMarshal", Got: v.kind}
	}
	return v.items[0], nil
}

// Pairs returns the key/value pairs for Hash, or the ivar list for
// GenericObject/UserDefined/UserMarshal.
func (v *Value) Pairs() ([]Pair, error) {
	switch v.kind {
	case KindHash, KindGenericObject, KindUserDefined, KindUserMarshal:
		return v.pairs, nil
	default:
		return nil, InvalidValueError{Op: "Value.Pairs", Expected: "Hash|Object kinds", Got: v.kind}
	}
}

// ClassName returns the class/module name for GenericObject, UserDefined,
// UserMarshal, Class, or Module values.
func (v *Value) ClassName() (string, error) {
	switch v.kind {
	case KindGenericObject, KindUserDefined, KindUserMarshal, KindClassRef, KindModuleRef:
		return v.className, nil
	default:
		return "", InvalidValueError{Op: "Value.ClassName", Expected: "class-bearing kinds", Got: v.kind}
	}
}

// RegexpFlags returns the flag byte of a Regexp value.
func (v *Value) RegexpFlags() (byte, error) {
	if v.kind != KindRegexp {
		return 0, InvalidValueError{Op: "Value.RegexpFlags", Expected: "Regexp", Got: v.kind}
	}
	return v.regexFlags, nil
}

// setIvar applies an instance variable to a value that can carry them,
// tolerating the same key being set twice (later wins), per spec.md §5.
// String accepts the special `E` (and `encoding`) keys; every other kind
// accumulates the pair into its ivar list, stripping is deferred to
// projection time (spec.md §9 "stripping must be defensive").
func (v *Value) setIvar(key *Value, val *Value) error {
	if key.kind != KindSymbol {
		return InvalidValueError{Op: "Value.setIvar", Expected: "Symbol key", Got: key.kind}
	}
	name := string(key.bytes)

	if v.kind == KindString && (name == "E" || name == "encoding") {
		return v.setStringIvar(name, val)
	}

	for i, p := range v.pairs {
		if p.Key.kind == KindSymbol && string(p.Key.bytes) == name {
			v.pairs[i].Val = val
			return nil
		}
	}
	v.pairs = append(v.pairs, Pair{Key: key, Val: val})
	return nil
}

func (v *Value) setStringIvar(name string, val *Value) error {
	switch name {
	case "E":
		b, err := val.Bool()
		if err != nil {
			return EncodingUnsupportedError{Name: fmt.Sprintf("E=%v", val.kind)}
		}
		v.utf8 = b
		return nil
	case "encoding":
		s, err := val.Bytes()
		if err != nil {
			return EncodingUnsupportedError{Name: fmt.Sprintf("encoding=%v", val.kind)}
		}
		v.enc = string(s)
		return nil
	}
	return nil
}

// describe appends a bounded textual form of v to a repr buffer
// (spec.md §4.4 "describe", §4.11). Recursion is bounded by the repr
// buffer's own size cap, not by an explicit depth counter.
func (v *Value) describe(r *reprBuf) {
	if r.overflow {
		return
	}
	switch v.kind {
	case KindBool:
		r.writeString(fmt.Sprintf("%v", v.boolVal))
	case KindNull:
		r.writeString("nil")
	case KindInt:
		r.writeString(fmt.Sprintf("%d", v.intVal))
	case KindFloat:
		r.writeString(fmt.Sprintf("%v", v.floatV))
	case KindBigInt:
		r.writeString(v.bigV.String())
	case KindSymbol:
		r.writeString(":")
		r.writeString(string(v.bytes))
	case KindString:
		r.writeString(fmt.Sprintf("%q", string(v.bytes)))
	case KindArray:
		r.writeString("[")
		for i, it := range v.items {
			if i > 0 {
				r.writeString(", ")
			}
			it.describe(r)
		}
		r.writeString("]")
	case KindHash:
		r.writeString("{")
		for i, p := range v.pairs {
			if i > 0 {
				r.writeString(", ")
			}
			p.Key.describe(r)
			r.writeString("=>")
			p.Val.describe(r)
		}
		r.writeString("}")
	case KindGenericObject:
		r.writeString("#<")
		r.writeString(v.className)
		r.writeString(">")
	case KindUserDefined:
		r.writeString("#<")
		r.writeString(v.className)
		r.writeString(" (user-defined)>")
	case KindUserMarshal:
		r.writeString("#<")
		r.writeString(v.className)
		r.writeString(" (user-marshal)>")
	case KindClassRef:
		r.writeString("class ")
		r.writeString(v.className)
	case KindModuleRef:
		r.writeString("module ")
		r.writeString(v.className)
	case KindRegexp:
		r.writeString("/")
		r.writeString(string(v.bytes))
		r.writeString("/")
	}
}
