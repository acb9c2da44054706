package textenc

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
)

const (
	// minSniffLen is the least input needed to classify BOM-less text as ANSI.
	minSniffLen = 16
	maxSniffLen = 32
)

// Peeker is satisfied by *bufio.Reader.
type Peeker interface {
	Peek(n int) ([]byte, error)
	Discard(n int) (int, error)
}

// DetectHeader classifies the leading bytes of a stream. It returns the
// detected encoding and the length of its byte order mark, or Unspecified
// when the header is inconclusive.
func DetectHeader(header []byte) (Encoding, int) {
	for _, entry := range bomTable {
		if bytes.HasPrefix(header, entry.prefix) {
			return entry.enc, len(entry.prefix)
		}
	}

	if len(header) < minSniffLen {
		return Unspecified, 0
	}
	if len(header) > maxSniffLen {
		header = header[:maxSniffLen]
	}
	for _, b := range header {
		if b > 0x7f {
			return Unspecified, 0
		}
	}
	return SingleByte, 0
}

// Detect peeks at the start of p and classifies it with DetectHeader. On a
// byte order mark match the mark is discarded, otherwise p is left untouched.
// An empty source yields ErrEmptyInput; an inconclusive one yields
// Unspecified with a nil error.
func Detect(p Peeker) (Encoding, int, error) {
	header, err := peek(p, maxSniffLen)
	if err != nil {
		return Unspecified, 0, err
	}
	if len(header) == 0 {
		return Unspecified, 0, EmptyInput()
	}

	enc, n := DetectHeader(header)
	if n > 0 {
		if _, err := p.Discard(n); err != nil {
			return Unspecified, 0, err
		}
	}
	return enc, n, nil
}

// SkipBOM discards enc's byte order mark if p starts with it and returns the
// number of bytes discarded. Like Detect, it reports ErrEmptyInput for an
// empty source.
func SkipBOM(p Peeker, enc Encoding) (int, error) {
	bom := enc.BOM()
	header, err := peek(p, max(len(bom), 1))
	if err != nil {
		return 0, err
	}
	if len(header) == 0 {
		return 0, EmptyInput()
	}
	if len(bom) == 0 || !bytes.HasPrefix(header, bom) {
		return 0, nil
	}
	return p.Discard(len(bom))
}

// SniffFile classifies the file at path without decoding it.
func SniffFile(path string) (Encoding, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unspecified, 0, err
	}
	defer f.Close()

	return Detect(bufio.NewReader(f))
}

// peek returns up to n bytes; running short of input is not an error.
func peek(p Peeker, n int) ([]byte, error) {
	header, err := p.Peek(n)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}
	return header, nil
}
