package rmarshal

import (
	"fmt"
	"io"
)

// reprBufDefaultCap is the default scratch-buffer size for describe()
// calls (spec.md §4.11).
const reprBufDefaultCap = 256

// reprBuf is a bounded scratch buffer used to build textual
// representations of values for diagnostics. Overflow is expressed by
// truncating with "...", per spec.md §4.11.
type reprBuf struct {
	buf      []byte
	cap      int
	tailRsvd int
	overflow bool
}

func newReprBuf(size int) *reprBuf {
	if size <= 0 {
		size = reprBufDefaultCap
	}
	return &reprBuf{buf: make([]byte, 0, size), cap: size}
}

// reserveTail holds back n bytes from the body for a suffix; finish()
// appends its "..." truncation marker there (Repr reserves 3 bytes for it).
func (r *reprBuf) reserveTail(n int) { r.tailRsvd = n }

func (r *reprBuf) writeString(s string) {
	limit := r.cap - r.tailRsvd
	if r.overflow {
		return
	}
	room := limit - len(r.buf)
	if room <= 0 {
		r.overflow = true
		return
	}
	if len(s) > room {
		r.buf = append(r.buf, s[:room]...)
		r.overflow = true
		return
	}
	r.buf = append(r.buf, s...)
}

// finish returns the accumulated text, truncated with "..." if the buffer
// overflowed during construction.
func (r *reprBuf) finish() string {
	if r.overflow {
		return string(r.buf) + "..."
	}
	return string(r.buf)
}

// Repr renders a bounded textual form of v, per spec.md §4.4 "describe".
func Repr(v *Value, maxLen int) string {
	r := newReprBuf(maxLen)
	r.reserveTail(3)
	v.describe(r)
	return r.finish()
}

// tracer prints depth-indented diagnostic lines while decoding/encoding,
// per spec.md §4.11. Silencing propagates to nested decodes: the quiet
// flag is fixed when the tracer is constructed, and a quiet tracer stays
// silent for every nested value of its decode/encode.
type tracer struct {
	w       io.Writer
	silent  bool
	depth   int
	enabled bool
}

func newTracer(w io.Writer, quiet bool) *tracer {
	if w == nil {
		return &tracer{enabled: false}
	}
	return &tracer{w: w, enabled: true, silent: quiet}
}

func (t *tracer) push() {
	if t == nil || !t.enabled {
		return
	}
	t.depth++
}

func (t *tracer) pop() {
	if t == nil || !t.enabled {
		return
	}
	if t.depth > 0 {
		t.depth--
	}
}

func (t *tracer) logf(format string, args ...interface{}) {
	if t == nil || !t.enabled || t.silent || t.w == nil {
		return
	}
	indent := make([]byte, t.depth*2)
	for i := range indent {
		indent[i] = ' '
	}
	fmt.Fprintf(t.w, "%s%s\n", indent, fmt.Sprintf(format, args...))
}
