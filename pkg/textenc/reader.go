package textenc

import (
	"bufio"
	"fmt"
	"io"
)

// CodePoint is one decoded character. Values are whatever the source bit
// pattern produces; they are not checked against the Unicode range.
type CodePoint uint32

// Reader decodes code points from a byte source.
type Reader struct {
	r      io.ByteReader
	enc    Encoding
	offset int64
	count  int64
}

// NewReader returns a Reader decoding r as enc. offset is the position of r
// within the overall input, used when reporting malformed bytes.
func NewReader(r io.Reader, enc Encoding, offset int64) *Reader {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br, enc: enc, offset: offset}
}

// Count returns the number of code points decoded so far.
func (r *Reader) Count() int64 {
	return r.count
}

// Offset returns the input offset of the next unread byte.
func (r *Reader) Offset() int64 {
	return r.offset
}

// ReadCodePoint decodes the next code point. It returns io.EOF when the
// input ends, including in the middle of a multi-byte sequence; a truncated
// sequence is never reported as malformed.
func (r *Reader) ReadCodePoint() (CodePoint, error) {
	var (
		cp  CodePoint
		err error
	)

	switch r.enc {
	case SingleByte:
		var b byte
		b, err = r.readByte()
		cp = CodePoint(b)
	case UTF8:
		cp, err = r.readUTF8()
	case UTF16LE:
		var lo, hi byte
		if lo, err = r.readByte(); err == nil {
			hi, err = r.readByte()
		}
		cp = CodePoint(lo) | CodePoint(hi)<<8
	case UTF16BE:
		var hi, lo byte
		if hi, err = r.readByte(); err == nil {
			lo, err = r.readByte()
		}
		cp = CodePoint(hi)<<8 | CodePoint(lo)
	default:
		return 0, Unsupported(fmt.Sprintf("cannot decode %s", r.enc))
	}
	if err != nil {
		return 0, err
	}

	r.count++
	return cp, nil
}

func (r *Reader) readUTF8() (CodePoint, error) {
	lead, err := r.readByte()
	if err != nil {
		return 0, err
	}

	payload, extra, ok := utf8Lead(lead)
	if !ok {
		return 0, InvalidByteSequence(lead, r.offset-1)
	}

	// Continuation bytes contribute their low six bits; the 10xxxxxx marker
	// is not checked.
	cp := CodePoint(payload)
	for i := 0; i < extra; i++ {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		cp = cp<<6 | CodePoint(b&0x3f)
	}
	return cp, nil
}

// utf8Lead splits a leading byte into its payload bits and the number of
// continuation bytes that follow it.
func utf8Lead(b byte) (payload byte, extra int, ok bool) {
	switch {
	case b&0x80 == 0x00:
		return b, 0, true
	case b&0xe0 == 0xc0:
		return b & 0x1f, 1, true
	case b&0xf0 == 0xe0:
		return b & 0x0f, 2, true
	case b&0xf8 == 0xf0:
		return b & 0x07, 3, true
	case b&0xfc == 0xf8:
		return b & 0x03, 4, true
	case b&0xfe == 0xfc:
		return b & 0x01, 5, true
	default:
		return 0, 0, false
	}
}

func (r *Reader) readByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("read source at offset %d: %w", r.offset, err)
	}
	r.offset++
	return b, nil
}
