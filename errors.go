package rmarshal

import "fmt"

// BadSignatureError is returned when the first two bytes of a stream are
// not the Marshal 4.8 magic header (spec.md §7).
type BadSignatureError struct {
	Got [2]byte
}

func (e BadSignatureError) Error() string {
	return fmt.Sprintf("rmarshal: bad signature %#x %#x, expected 0x04 0x08", e.Got[0], e.Got[1])
}

// TruncatedError is returned when the byte source ends mid-value.
type TruncatedError struct {
	Offset int64
	Op     string
}

func (e TruncatedError) Error() string {
	return fmt.Sprintf("rmarshal: truncated stream while reading %s (offset=%d)", e.Op, e.Offset)
}

// UnsupportedTagError is returned for a type tag outside the supported set.
type UnsupportedTagError struct {
	Tag    byte
	Offset int64
}

func (e UnsupportedTagError) Error() string {
	return fmt.Sprintf("rmarshal: unsupported type tag %q (0x%x) at offset %d", rune(e.Tag), e.Tag, e.Offset)
}

// BadRefError is returned when a symbol or object back-reference index is
// out of range.
type BadRefError struct {
	Kind   string // "symbol" or "object"
	Index  int64
	Have   int
	Offset int64
}

func (e BadRefError) Error() string {
	return fmt.Sprintf("rmarshal: %s reference %d out of range (have %d) at offset %d", e.Kind, e.Index, e.Have, e.Offset)
}

// OverLongIntError is returned for a fixnum encoding of a width this
// implementation does not accept.
type OverLongIntError struct {
	Width  int
	Offset int64
}

func (e OverLongIntError) Error() string {
	return fmt.Sprintf("rmarshal: fixnum width %d not supported at offset %d", e.Width, e.Offset)
}

// EncodingUnsupportedError is returned when the `E` instance variable on a
// string carries a non-boolean value, or an unsupported encoding name is
// present.
type EncodingUnsupportedError struct {
	Name string
}

func (e EncodingUnsupportedError) Error() string {
	return fmt.Sprintf("rmarshal: unsupported string encoding %q", e.Name)
}

// ProjectionFailedError wraps a failure raised by a host object's
// load/marshal_load/attribute-setter contract while projecting a value.
type ProjectionFailedError struct {
	ClassName string
	Reason    string
}

func (e ProjectionFailedError) Error() string {
	return fmt.Sprintf("rmarshal: projection of class %q failed: %s", e.ClassName, e.Reason)
}

// UnknownClassError is returned when the factory returns nil/Null for a
// class name during projection.
type UnknownClassError struct {
	ClassName string
}

func (e UnknownClassError) Error() string {
	return fmt.Sprintf("rmarshal: factory does not recognise class %q", e.ClassName)
}

// RecursionLimitError is returned when decode nesting exceeds
// DecodeOptions.MaxDepth (spec.md §6.2).
type RecursionLimitError struct {
	Depth int
	Tag   byte
}

func (e RecursionLimitError) Error() string {
	return fmt.Sprintf("rmarshal: recursion depth %d exceeds the maximum at tag %q", e.Depth, rune(e.Tag))
}

// InvalidValueError is returned when a Value is of the wrong kind for the
// operation being attempted (e.g. calling Value.Int() on a String).
type InvalidValueError struct {
	Op       string
	Expected string
	Got      Kind
}

func (e InvalidValueError) Error() string {
	return fmt.Sprintf("rmarshal: %s: expected %s, got %s", e.Op, e.Expected, e.Got)
}
