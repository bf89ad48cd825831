package rmarshal

import "io"

// DefaultMaxDepth is the default recursion bound (spec.md §6.2).
const DefaultMaxDepth = 256

// DecodeOptions controls a single Decode call (spec.md §6.2).
type DecodeOptions struct {
	// Trace, if non-nil, receives indented diagnostic lines as the
	// decoder descends through the value graph (spec.md §4.11).
	Trace io.Writer
	// QuietTrace silences tracing even when Trace is set, without the
	// caller needing to pass nil (useful for toggling at runtime).
	QuietTrace bool
	// MaxDepth bounds recursive decodeValue nesting. Zero means
	// DefaultMaxDepth.
	MaxDepth int
	// StrictTags rejects any tag outside spec.md §6.1's required minimum
	// with UnsupportedTagError, per SPEC_FULL.md §4.1.
	StrictTags bool
	// Lazy controls whether host projection happens eagerly as part of
	// Decode (false, the default) or is deferred until the caller walks
	// the returned Value graph with Project (true). Spec.md §6.2 calls
	// this "whether to project lazily or eagerly".
	Lazy bool
}

func (o DecodeOptions) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// EncodeOptions controls a single Encode call.
type EncodeOptions struct {
	Trace      io.Writer
	QuietTrace bool
}

// Decode reads one Marshal 4.8 document from r and returns its projection
// via factory (spec.md §6.2). If opts.Lazy is set, the returned value is
// the root *Value rather than its projection; call Project explicitly.
func Decode(r io.Reader, factory Factory, opts DecodeOptions) (interface{}, error) {
	dec := NewDecoder(r, opts)
	root, err := dec.Decode()
	if err != nil {
		return nil, err
	}
	if opts.Lazy {
		return root, nil
	}
	return Project(root, factory)
}

// DecodeValue reads one Marshal 4.8 document from r and returns the raw
// decoded Value graph without projecting it.
func DecodeValue(r io.Reader, opts DecodeOptions) (*Value, error) {
	return NewDecoder(r, opts).Decode()
}

// Encode writes val back into the wire format (spec.md §6.2). factory is
// handed to Lift, which does not call it: the class-name and
// marshal_dump/_dump lookup goes through the host value's own
// Dumper/MarshalDumper implementation.
func Encode(val interface{}, w io.Writer, factory Factory, opts EncodeOptions) error {
	v, err := Lift(val, factory)
	if err != nil {
		return err
	}
	return NewEncoder(w, opts).Encode(v)
}

// EncodeValue writes an already-constructed Value graph back into the
// wire format.
func EncodeValue(v *Value, w io.Writer, opts EncodeOptions) error {
	return NewEncoder(w, opts).Encode(v)
}
