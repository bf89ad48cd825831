package rmarshal

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// Factory instantiates a host value for a decoded Ruby class name
// (spec.md §6.3). arg carries the UserDefined payload bytes, the
// UserMarshal inner value (already itself projected), or nil for a plain
// GenericObject. Returning (nil, nil) for a GenericObject makes Project
// fall back to a generic map representation rather than erroring; for a
// UserDefined or UserMarshal value it makes Project fail with
// UnknownClassError.
type Factory func(className string, arg interface{}) (interface{}, error)

// Loader lets a host type populate itself from a UserDefined payload
// (Ruby's `_load`), per spec.md §4.7.
type Loader interface {
	Load(raw []byte) error
}

// MarshalLoader lets a host type populate itself from a UserMarshal's
// already-projected inner value (Ruby's `marshal_load`).
type MarshalLoader interface {
	MarshalLoad(data interface{}) error
}

// AttrSetter lets a host type take over instance-variable assignment
// during GenericObject projection, bypassing the reflect-based fallback.
type AttrSetter interface {
	SetAttr(name string, val interface{}) error
}

// Project walks a decoded Value graph and produces host values via
// factory, caching the result on each Value so repeated projection of a
// shared (back-referenced) Value is idempotent and returns the identical
// host value (spec.md §4.7, §3 invariant 6).
func Project(v *Value, factory Factory) (interface{}, error) {
	if v.hasProj {
		return v.proj, nil
	}

	proj, err := projectUncached(v, factory)
	if err != nil {
		return nil, err
	}
	v.proj = proj
	v.hasProj = true
	return proj, nil
}

func projectUncached(v *Value, factory Factory) (interface{}, error) {
	switch v.kind {
	case KindBool:
		return v.boolVal, nil
	case KindNull:
		return nil, nil
	case KindInt:
		return v.intVal, nil
	case KindFloat:
		return v.floatV, nil
	case KindBigInt:
		return v.bigV, nil
	case KindSymbol:
		return string(v.bytes), nil
	case KindString:
		return string(v.bytes), nil
	case KindArray:
		return projectArray(v, factory)
	case KindHash:
		return projectHash(v, factory)
	case KindGenericObject:
		return projectGenericObject(v, factory)
	case KindUserDefined:
		return projectUserDefined(v, factory)
	case KindUserMarshal:
		return projectUserMarshal(v, factory)
	case KindClassRef, KindModuleRef:
		return v.className, nil
	case KindRegexp:
		return string(v.bytes), nil
	default:
		return nil, errors.Errorf("rmarshal: cannot project value of kind %s", v.kind)
	}
}

func projectArray(v *Value, factory Factory) (interface{}, error) {
	out := make([]interface{}, len(v.items))
	for i, el := range v.items {
		p, err := Project(el, factory)
		if err != nil {
			return nil, errors.Wrapf(err, "array element %d", i)
		}
		out[i] = p
	}
	return out, nil
}

// HashEntry is one projected Hash pair. projectHash returns a slice of
// these rather than a Go map: spec.md §4.7 requires Hash projection to
// preserve insertion order, which a map cannot do, and a Ruby hash key
// may project into a non-hashable Go value (a slice or another HashEntry
// slice), which would panic as a map key.
type HashEntry struct {
	Key interface{}
	Val interface{}
}

func projectHash(v *Value, factory Factory) (interface{}, error) {
	out := make([]HashEntry, len(v.pairs))
	for i, p := range v.pairs {
		k, err := Project(p.Key, factory)
		if err != nil {
			return nil, errors.Wrap(err, "hash key")
		}
		val, err := Project(p.Val, factory)
		if err != nil {
			return nil, errors.Wrapf(err, "hash value for key %v", k)
		}
		out[i] = HashEntry{Key: k, Val: val}
	}
	return out, nil
}

// projectGenericObject instantiates the host object via factory, then
// applies every ivar either through AttrSetter or, failing that, through
// the reflect-based struct-field fallback adapted from
// samcday-rmarsh/decoder.go's findStructField/indirect.
func projectGenericObject(v *Value, factory Factory) (interface{}, error) {
	host, err := factory(v.className, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "instantiating %s", v.className)
	}
	if host == nil {
		return projectGenericObjectFallback(v, factory)
	}

	setter, hasSetter := host.(AttrSetter)
	for _, p := range v.pairs {
		name := ivarGoName(string(p.Key.bytes))
		val, err := Project(p.Val, factory)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", v.className, name)
		}
		if hasSetter {
			if err := setter.SetAttr(name, val); err != nil {
				return nil, errors.Wrapf(err, "%s.SetAttr(%q)", v.className, name)
			}
			continue
		}
		if err := setReflectAttr(host, name, val); err != nil {
			return nil, errors.Wrapf(err, "%s.%s", v.className, name)
		}
	}
	return host, nil
}

// projectGenericObjectFallback is used when the factory declines
// (returns nil, nil): the object becomes a plain map keyed by ivar name,
// plus its class name under the "class" key, matching spec.md's generic
// fallback projection for unrecognised classes.
func projectGenericObjectFallback(v *Value, factory Factory) (interface{}, error) {
	out := make(map[string]interface{}, len(v.pairs)+1)
	out["class"] = v.className
	for _, p := range v.pairs {
		name := ivarGoName(string(p.Key.bytes))
		val, err := Project(p.Val, factory)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", v.className, name)
		}
		out[name] = val
	}
	return out, nil
}

func projectUserDefined(v *Value, factory Factory) (interface{}, error) {
	host, err := factory(v.className, v.bytes)
	if err != nil {
		return nil, errors.Wrapf(err, "instantiating %s", v.className)
	}
	if host == nil {
		return nil, UnknownClassError{ClassName: v.className}
	}
	if loader, ok := host.(Loader); ok {
		if err := loader.Load(v.bytes); err != nil {
			return nil, ProjectionFailedError{ClassName: v.className, Reason: err.Error()}
		}
	}
	return host, nil
}

func projectUserMarshal(v *Value, factory Factory) (interface{}, error) {
	data, err := Project(v.items[0], factory)
	if err != nil {
		return nil, errors.Wrap(err, "user-marshal payload")
	}
	host, err := factory(v.className, data)
	if err != nil {
		return nil, errors.Wrapf(err, "instantiating %s", v.className)
	}
	if host == nil {
		return nil, UnknownClassError{ClassName: v.className}
	}
	if loader, ok := host.(MarshalLoader); ok {
		if err := loader.MarshalLoad(data); err != nil {
			return nil, ProjectionFailedError{ClassName: v.className, Reason: err.Error()}
		}
	}
	return host, nil
}

// ivarGoName strips the leading `@` Ruby convention uses for instance
// variable names, so a Ruby `@foo_bar` looks for a Go `FooBar`/`foo_bar`
// struct field or SetAttr("foo_bar", ...) call, per SPEC_FULL.md §4.4.
func ivarGoName(name string) string {
	return strings.TrimPrefix(name, "@")
}

// setReflectAttr assigns val into the named field of host via reflection,
// adapted from samcday-rmarsh/decoder.go's findStructField/indirect: a
// field is matched first by the UpperCamel form of the name ("foo_bar"
// looks for FooBar, case-sensitively), then by an `rmarshal:"name"`
// struct tag. A name that matches no settable field is ignored.
func setReflectAttr(host interface{}, name string, val interface{}) error {
	rv := reflectIndirect(reflect.ValueOf(host))
	if rv.Kind() != reflect.Struct {
		return errors.Errorf("host value is not a struct (or pointer to one): %T", host)
	}
	f := findStructField(rv, name)
	if !f.IsValid() || !f.CanSet() {
		return nil
	}
	fv := reflect.ValueOf(val)
	if !fv.IsValid() {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}
	if fv.Type().AssignableTo(f.Type()) {
		f.Set(fv)
		return nil
	}
	if fv.Type().ConvertibleTo(f.Type()) {
		f.Set(fv.Convert(f.Type()))
		return nil
	}
	return errors.Errorf("cannot assign %T into field %q of type %s", val, name, f.Type())
}

func reflectIndirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

func findStructField(v reflect.Value, name string) reflect.Value {
	camel := toUpperCamel(name)
	if f := v.FieldByName(camel); f.IsValid() {
		return f
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		if t.Field(i).Tag.Get("rmarshal") == name {
			return v.Field(i)
		}
	}
	return reflect.Value{}
}

// toUpperCamel turns a Ruby-style ivar name ("foo_bar") into an exported
// Go field name ("FooBar").
func toUpperCamel(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// Lift converts a host value back into the Value graph Encode needs,
// inverting Project (spec.md §6.3). factory is passed down the recursion
// but never called: class names and payloads come only from the host's
// own Dumper/MarshalDumper implementations below, and a host value that
// is neither a supported scalar/collection nor implements one of them
// cannot be lifted. A single Lift call establishes one
// string-dedup index (spec.md §4.8) shared by every value reachable from
// hostVal, so two identical strings nested anywhere in the same tree
// lift into the same *Value and the encoder can back-reference the
// second occurrence.
func Lift(hostVal interface{}, factory Factory) (*Value, error) {
	return liftWithDedup(hostVal, factory, newStringDedup())
}

func liftWithDedup(hostVal interface{}, factory Factory, dedup *stringDedup) (*Value, error) {
	switch x := hostVal.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case *Value:
		return x, nil
	case string:
		b := []byte(x)
		return dedup.lookupOrInsert(b, func() *Value { return newString(b, true) }), nil
	case int:
		return NewInt(int64(x)), nil
	case int64:
		return NewInt(x), nil
	case float64:
		return NewFloat(x), nil
	case []interface{}:
		items := make([]*Value, len(x))
		for i, el := range x {
			v, err := liftWithDedup(el, factory, dedup)
			if err != nil {
				return nil, errors.Wrapf(err, "array element %d", i)
			}
			items[i] = v
		}
		return NewArray(items), nil
	case map[interface{}]interface{}:
		pairs := make([]Pair, 0, len(x))
		for k, val := range x {
			kv, err := liftWithDedup(k, factory, dedup)
			if err != nil {
				return nil, errors.Wrap(err, "hash key")
			}
			vv, err := liftWithDedup(val, factory, dedup)
			if err != nil {
				return nil, errors.Wrap(err, "hash value")
			}
			pairs = append(pairs, Pair{Key: kv, Val: vv})
		}
		return NewHash(pairs), nil
	case []HashEntry:
		pairs := make([]Pair, len(x))
		for i, entry := range x {
			kv, err := liftWithDedup(entry.Key, factory, dedup)
			if err != nil {
				return nil, errors.Wrap(err, "hash key")
			}
			vv, err := liftWithDedup(entry.Val, factory, dedup)
			if err != nil {
				return nil, errors.Wrap(err, "hash value")
			}
			pairs[i] = Pair{Key: kv, Val: vv}
		}
		return NewHash(pairs), nil
	}

	return liftViaInterfaces(hostVal, factory, dedup)
}

// Dumper and MarshalDumper are the encode-side counterparts of
// Loader/MarshalLoader: a host type implementing one of these controls
// its own wire representation when lifted.
type Dumper interface {
	ClassName() string
	Dump() ([]byte, error)
}

type MarshalDumper interface {
	ClassName() string
	MarshalDump() (interface{}, error)
}

func liftViaInterfaces(hostVal interface{}, factory Factory, dedup *stringDedup) (*Value, error) {
	if d, ok := hostVal.(Dumper); ok {
		raw, err := d.Dump()
		if err != nil {
			return nil, errors.Wrapf(err, "dumping %s", d.ClassName())
		}
		return NewUserDefined(d.ClassName(), raw, nil), nil
	}
	if d, ok := hostVal.(MarshalDumper); ok {
		inner, err := d.MarshalDump()
		if err != nil {
			return nil, errors.Wrapf(err, "marshal-dumping %s", d.ClassName())
		}
		iv, err := liftWithDedup(inner, factory, dedup)
		if err != nil {
			return nil, err
		}
		return NewUserMarshal(d.ClassName(), iv, nil), nil
	}
	return nil, errors.Errorf("rmarshal: cannot lift value of type %T: implement Dumper or MarshalDumper, or pass a supported scalar/collection", hostVal)
}
