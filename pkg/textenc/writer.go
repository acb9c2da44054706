package textenc

import (
	"bufio"
	"fmt"
	"io"
)

// maxUTF8 is the widest sequence AppendCodePoint produces.
const maxUTF8 = 6

// AppendCodePoint appends the encoding of cp in enc to dst.
//
// SingleByte keeps the low 8 bits and UTF-16 the low 16 bits of cp; nothing
// is synthesized for values that do not fit. UTF-8 uses the shortest form up
// to six bytes, and values above 0x7FFFFFFF append nothing.
func AppendCodePoint(dst []byte, enc Encoding, cp CodePoint) []byte {
	switch enc {
	case SingleByte:
		return append(dst, byte(cp))
	case UTF8:
		return appendUTF8(dst, cp)
	case UTF16LE:
		return append(dst, byte(cp), byte(cp>>8))
	case UTF16BE:
		return append(dst, byte(cp>>8), byte(cp))
	default:
		return dst
	}
}

func appendUTF8(dst []byte, cp CodePoint) []byte {
	var (
		lead  byte
		extra int
	)
	switch {
	case cp <= 0x7f:
		return append(dst, byte(cp))
	case cp <= 0x7ff:
		lead, extra = 0xc0, 1
	case cp <= 0xffff:
		lead, extra = 0xe0, 2
	case cp <= 0x1fffff:
		lead, extra = 0xf0, 3
	case cp <= 0x3ffffff:
		lead, extra = 0xf8, 4
	case cp <= 0x7fffffff:
		lead, extra = 0xfc, 5
	default:
		return dst
	}

	dst = append(dst, lead|byte(cp>>(6*extra)))
	for shift := 6 * (extra - 1); shift >= 0; shift -= 6 {
		dst = append(dst, 0x80|(byte(cp>>shift)&0x3f))
	}
	return dst
}

// Writer encodes code points onto a byte sink. Output is buffered; call
// Flush once done.
type Writer struct {
	w       *bufio.Writer
	enc     Encoding
	scratch []byte
	written int64
}

func NewWriter(w io.Writer, enc Encoding) *Writer {
	return &Writer{
		w:       bufio.NewWriter(w),
		enc:     enc,
		scratch: make([]byte, 0, maxUTF8),
	}
}

// WriteBOM writes the byte order mark for the Writer's encoding, if any.
func (w *Writer) WriteBOM() error {
	if !w.enc.Concrete() {
		return Unsupported(fmt.Sprintf("cannot encode %s", w.enc))
	}
	return w.write(w.enc.BOM())
}

// WriteCodePoint encodes a single code point.
func (w *Writer) WriteCodePoint(cp CodePoint) error {
	if !w.enc.Concrete() {
		return Unsupported(fmt.Sprintf("cannot encode %s", w.enc))
	}
	w.scratch = AppendCodePoint(w.scratch[:0], w.enc, cp)
	return w.write(w.scratch)
}

// Flush commits buffered output to the sink.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return SinkWriteFailure(err)
	}
	return nil
}

// Written returns the number of bytes accepted so far, including any still
// buffered.
func (w *Writer) Written() int64 {
	return w.written
}

func (w *Writer) write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n, err := w.w.Write(p)
	w.written += int64(n)
	if err != nil {
		return SinkWriteFailure(err)
	}
	return nil
}
