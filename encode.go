package rmarshal

import (
	"io"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
)

// Encoder drives a single encode of one Value graph back into Marshal 4.8
// wire format (spec.md §4.6), grounded on
// samcday-rmarsh/encoder.go's encodingCtx{symbolCache, instCache} split,
// generalized from reflect-type-switching over a caller struct to
// Kind-switching over *Value.
type Encoder struct {
	w         *byteWriter
	opts      EncodeOptions
	trc       *tracer
	depth     int
	symbolIDs map[string]int32
	objectIDs map[*Value]int32
}

// NewEncoder constructs an Encoder writing to w.
func NewEncoder(w io.Writer, opts EncodeOptions) *Encoder {
	return &Encoder{
		w:         newByteWriter(w),
		opts:      opts,
		trc:       newTracer(opts.Trace, opts.QuietTrace),
		symbolIDs: make(map[string]int32),
		objectIDs: make(map[*Value]int32),
	}
}

// Encode writes the signature followed by v, per spec.md §4.6.
func (e *Encoder) Encode(v *Value) error {
	if err := e.w.putBytes(marshalMagic[:]); err != nil {
		return err
	}
	if err := e.encodeValue(v); err != nil {
		return err
	}
	return e.w.flush()
}

func (e *Encoder) encodeValue(v *Value) error {
	e.depth++
	e.trc.push()
	defer func() { e.depth--; e.trc.pop() }()

	e.trc.logf("encode %s", v.kind)

	switch v.kind {
	case KindBool:
		if v.boolVal {
			return e.w.putByte(tagTrue)
		}
		return e.w.putByte(tagFalse)
	case KindNull:
		return e.w.putByte(tagNil)
	case KindInt:
		return e.encodeFixnumValue(v.intVal)
	case KindSymbol:
		return e.encodeSymbol(v)
	case KindString:
		return e.encodeString(v)
	case KindArray:
		return e.encodeArray(v)
	case KindHash:
		return e.encodeHash(v)
	case KindGenericObject:
		return e.encodeGenericObject(v)
	case KindUserDefined:
		return e.encodeUserDefined(v)
	case KindUserMarshal:
		return e.encodeUserMarshal(v)
	case KindFloat:
		return e.encodeFloat(v)
	case KindBigInt:
		return e.encodeBignum(v)
	case KindClassRef:
		return e.encodeClassOrModule(tagClass, v)
	case KindModuleRef:
		return e.encodeClassOrModule(tagModule, v)
	case KindRegexp:
		return e.encodeRegexp(v)
	default:
		return errors.Errorf("rmarshal: cannot encode value of kind %s", v.kind)
	}
}

func (e *Encoder) encodeFixnumValue(n int64) error {
	if n < fixnumEncodeMin || n > fixnumEncodeMax {
		return e.encodeBignum(NewBigInt(big.NewInt(n)))
	}
	if err := e.w.putByte(tagFixnum); err != nil {
		return err
	}
	var buf [6]byte
	out := encodeFixnum(buf[:0], n)
	return e.w.putBytes(out)
}

// putRawBytes writes a fixnum length prefix followed by the raw bytes,
// the inverse of Decoder.rawBytes.
func (e *Encoder) putRawBytes(b []byte) error {
	var buf [6]byte
	out := encodeFixnum(buf[:0], int64(len(b)))
	if err := e.w.putBytes(out); err != nil {
		return err
	}
	return e.w.putBytes(b)
}

// encodeSymbol implements tags `:`/`;`. Symbols have their own
// back-reference table, separate from the object table (spec.md §4.3),
// keyed by the symbol's bytes: symbol identity is byte equality.
func (e *Encoder) encodeSymbol(v *Value) error {
	if id, ok := e.symbolIDs[string(v.bytes)]; ok {
		if err := e.w.putByte(tagSymlink); err != nil {
			return err
		}
		var buf [6]byte
		return e.w.putBytes(encodeFixnum(buf[:0], int64(id)))
	}
	id := int32(len(e.symbolIDs))
	e.symbolIDs[string(v.bytes)] = id
	if err := e.w.putByte(tagSymbol); err != nil {
		return err
	}
	return e.putRawBytes(v.bytes)
}

// markObject checks whether v has already been emitted; if so it writes a
// `@` back-reference and returns (true, nil) so the caller returns
// immediately. Otherwise it registers v at the next object id and returns
// false so the caller proceeds to emit the real tag.
func (e *Encoder) markObject(v *Value) (bool, error) {
	if id, ok := e.objectIDs[v]; ok {
		if err := e.w.putByte(tagObjectLink); err != nil {
			return true, err
		}
		var buf [6]byte
		return true, e.w.putBytes(encodeFixnum(buf[:0], int64(id)))
	}
	e.objectIDs[v] = int32(len(e.objectIDs))
	return false, nil
}

// stringIvars reconstructs the synthetic `E`/`encoding` ivar pair a
// decoded String's utf8/enc fields came from, so encoding can wrap the
// string in an `I` the same way the decoder unwrapped it.
func stringIvars(v *Value) []Pair {
	var pairs []Pair
	if v.utf8 {
		pairs = append(pairs, Pair{Key: NewSymbol("E"), Val: Bool(true)})
	} else if v.enc != "" {
		pairs = append(pairs, Pair{Key: NewSymbol("encoding"), Val: NewString(v.enc)})
	}
	return pairs
}

// encodeString implements tag `"`, wrapped in `I` when it carries an
// encoding flag, per spec.md §3 "String".
func (e *Encoder) encodeString(v *Value) error {
	done, err := e.markObject(v)
	if done || err != nil {
		return err
	}

	ivars := stringIvars(v)
	if len(ivars) > 0 {
		if err := e.w.putByte(tagIvar); err != nil {
			return err
		}
	}
	if err := e.w.putByte(tagString); err != nil {
		return err
	}
	if err := e.putRawBytes(v.bytes); err != nil {
		return err
	}
	return e.encodeIvarTail(ivars)
}

func (e *Encoder) encodeIvarTail(ivars []Pair) error {
	if len(ivars) == 0 {
		return nil
	}
	var buf [6]byte
	if err := e.w.putBytes(encodeFixnum(buf[:0], int64(len(ivars)))); err != nil {
		return err
	}
	for _, p := range ivars {
		if err := e.encodeValue(p.Key); err != nil {
			return err
		}
		if err := e.encodeValue(p.Val); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeArray(v *Value) error {
	done, err := e.markObject(v)
	if done || err != nil {
		return err
	}
	if err := e.w.putByte(tagArray); err != nil {
		return err
	}
	var buf [6]byte
	if err := e.w.putBytes(encodeFixnum(buf[:0], int64(len(v.items)))); err != nil {
		return err
	}
	for i, el := range v.items {
		if err := e.encodeValue(el); err != nil {
			return errors.Wrapf(err, "array element %d", i)
		}
	}
	return nil
}

func (e *Encoder) encodeHash(v *Value) error {
	done, err := e.markObject(v)
	if done || err != nil {
		return err
	}
	if err := e.w.putByte(tagHash); err != nil {
		return err
	}
	var buf [6]byte
	if err := e.w.putBytes(encodeFixnum(buf[:0], int64(len(v.pairs)))); err != nil {
		return err
	}
	for i, p := range v.pairs {
		if err := e.encodeValue(p.Key); err != nil {
			return errors.Wrapf(err, "hash key %d", i)
		}
		if err := e.encodeValue(p.Val); err != nil {
			return errors.Wrapf(err, "hash value %d", i)
		}
	}
	return nil
}

func (e *Encoder) encodeClassNameSymbol(name string) error {
	return e.encodeSymbol(internedClassNameSymbol(name))
}

// internedClassNameSymbol always allocates a fresh *Value for a class
// name, since a GenericObject's className is plain text, not a shared
// *Value the decoder produced. Re-encoding the same class twice still
// produces a symlink, because encodeSymbol's back-reference table is
// keyed by the symbol's bytes rather than by pointer identity.
func internedClassNameSymbol(name string) *Value {
	return NewSymbol(name)
}

func (e *Encoder) encodeGenericObject(v *Value) error {
	done, err := e.markObject(v)
	if done || err != nil {
		return err
	}
	if err := e.w.putByte(tagObject); err != nil {
		return err
	}
	if err := e.encodeClassNameSymbol(v.className); err != nil {
		return err
	}
	var buf [6]byte
	if err := e.w.putBytes(encodeFixnum(buf[:0], int64(len(v.pairs)))); err != nil {
		return err
	}
	for i, p := range v.pairs {
		if err := e.encodeValue(p.Key); err != nil {
			return errors.Wrapf(err, "object ivar key %d", i)
		}
		if err := e.encodeValue(p.Val); err != nil {
			return errors.Wrapf(err, "object ivar value %d", i)
		}
	}
	return nil
}

func (e *Encoder) encodeUserDefined(v *Value) error {
	done, err := e.markObject(v)
	if done || err != nil {
		return err
	}

	if len(v.pairs) > 0 {
		if err := e.w.putByte(tagIvar); err != nil {
			return err
		}
	}
	if err := e.w.putByte(tagUsrDef); err != nil {
		return err
	}
	if err := e.encodeClassNameSymbol(v.className); err != nil {
		return err
	}
	if err := e.putRawBytes(v.bytes); err != nil {
		return err
	}
	return e.encodeIvarTail(v.pairs)
}

func (e *Encoder) encodeUserMarshal(v *Value) error {
	done, err := e.markObject(v)
	if done || err != nil {
		return err
	}
	if err := e.w.putByte(tagUsrMarshal); err != nil {
		return err
	}
	if err := e.encodeClassNameSymbol(v.className); err != nil {
		return err
	}
	return e.encodeValue(v.items[0])
}

func (e *Encoder) encodeFloat(v *Value) error {
	done, err := e.markObject(v)
	if done || err != nil {
		return err
	}
	if err := e.w.putByte(tagFloat); err != nil {
		return err
	}
	return e.putRawBytes([]byte(strconv.FormatFloat(v.floatV, 'g', -1, 64)))
}

func (e *Encoder) encodeBignum(v *Value) error {
	done, err := e.markObject(v)
	if done || err != nil {
		return err
	}
	if err := e.w.putByte(tagBignum); err != nil {
		return err
	}
	sign := byte('+')
	if v.bigV.Sign() < 0 {
		sign = '-'
	}
	if err := e.w.putByte(sign); err != nil {
		return err
	}
	digits := bignumDigitBytes(v.bigV)
	var buf [6]byte
	if err := e.w.putBytes(encodeFixnum(buf[:0], int64(len(digits)/2))); err != nil {
		return err
	}
	return e.w.putBytes(digits)
}

func (e *Encoder) encodeClassOrModule(tag byte, v *Value) error {
	done, err := e.markObject(v)
	if done || err != nil {
		return err
	}
	if err := e.w.putByte(tag); err != nil {
		return err
	}
	return e.putRawBytes([]byte(v.className))
}

func (e *Encoder) encodeRegexp(v *Value) error {
	done, err := e.markObject(v)
	if done || err != nil {
		return err
	}
	if err := e.w.putByte(tagRegexp); err != nil {
		return err
	}
	if err := e.putRawBytes(v.bytes); err != nil {
		return err
	}
	return e.w.putByte(v.regexFlags)
}
