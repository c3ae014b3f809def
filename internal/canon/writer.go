// Package canon implements the deterministic binary encoding spec.md §4.2
// and §6 require: equal values always produce byte-identical output, so
// hashes and signatures are reproducible across implementations. This is
// deliberately not JSON — see spec.md §4.2, "Why not JSON."
package canon

import (
	"bytes"
	"encoding/binary"
	"sort"
	"unicode/utf8"

	"github.com/blackrose-blackhat/decisionguard/internal/model"
)

// ErrInvalidUTF8 is returned by Writer methods when asked to encode a
// string that is not valid UTF-8 (the wire format requires UTF-8 NFC;
// malformed input is rejected rather than silently passed through).
type ErrInvalidUTF8 struct{ Field string }

func (e ErrInvalidUTF8) Error() string { return "canon: invalid UTF-8 in field " + e.Field }

// ErrMalformed is returned for structural encoding errors unrelated to
// string validity, such as an unrecognized scalar kind.
type ErrMalformed struct{ Reason string }

func (e ErrMalformed) Error() string { return "canon: " + e.Reason }

// Writer accumulates a canonical byte string. A zero Writer is usable.
type Writer struct {
	buf bytes.Buffer
	err error
}

// Err returns the first error encountered, if any.
func (w *Writer) Err() error { return w.err }

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Bytes returns the accumulated output. Callers should check Err first.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// RawBytes appends b with no length prefix; used for fixed-width fields
// like 32-byte hashes.
func (w *Writer) RawBytes(b []byte) { w.buf.Write(b) }

// U8 appends a single byte.
func (w *Writer) U8(v byte) { w.buf.WriteByte(v) }

// U32 appends a big-endian uint32.
func (w *Writer) U32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf.Write(tmp[:])
}

// U64 appends a big-endian uint64.
func (w *Writer) U64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf.Write(tmp[:])
}

// I64 appends a big-endian int64.
func (w *Writer) I64(v int64) { w.U64(uint64(v)) }

// Bool appends a single byte: 0x00 false, 0x01 true.
func (w *Writer) Bool(b bool) {
	if b {
		w.U8(0x01)
	} else {
		w.U8(0x00)
	}
}

// String appends a u32_be length prefix followed by the UTF-8 bytes of s.
func (w *Writer) String(field, s string) {
	if !utf8.ValidString(s) {
		w.fail(ErrInvalidUTF8{Field: field})
		return
	}
	w.U32(uint32(len(s)))
	w.buf.WriteString(s)
}

// OptionalTag writes the 0x00/0x01 absent/present tag spec.md §4.2
// requires for optional fields, without the value.
func (w *Writer) OptionalTag(present bool) {
	if present {
		w.U8(0x01)
	} else {
		w.U8(0x00)
	}
}

// OptionalString writes the optional tag followed by the string when
// present.
func (w *Writer) OptionalString(field string, present bool, s string) {
	w.OptionalTag(present)
	if present {
		w.String(field, s)
	}
}

// OptionalU8 writes the optional tag followed by a single byte when
// present.
func (w *Writer) OptionalU8(present bool, v byte) {
	w.OptionalTag(present)
	if present {
		w.U8(v)
	}
}

// ContextMap encodes a context_map per spec.md §6: u32_be n followed by n
// key-sorted (key, value) pairs, keys sorted lexicographically on their
// raw bytes. Each value is a one-byte type tag (0x00 string, 0x01 int64,
// 0x02 bool) followed by the value's own encoding.
func (w *Writer) ContextMap(m map[string]model.ContextValue) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w.U32(uint32(len(keys)))
	for _, k := range keys {
		w.String("context_map.key", k)
		v := m[k]
		switch v.Kind {
		case model.ScalarString:
			w.U8(0x00)
			w.String("context_map.value", v.Str)
		case model.ScalarInt64:
			w.U8(0x01)
			w.I64(v.Int)
		case model.ScalarBool:
			w.U8(0x02)
			w.Bool(v.Bool)
		default:
			w.fail(ErrMalformed{Reason: "unknown context_map value kind"})
		}
	}
}
