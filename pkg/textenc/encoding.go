// Package textenc implements the byte-level codecs used by txconv: single-byte
// ANSI, UTF-8 (including the legacy 5 and 6 byte forms) and UTF-16 in both
// byte orders, plus byte-order-mark detection.
package textenc

import (
	"fmt"
	"strings"
)

// Encoding identifies a text representation.
type Encoding int

const (
	Unspecified Encoding = iota
	// Auto requests detection and is only meaningful as a source encoding.
	Auto
	SingleByte
	UTF8
	UTF16LE
	UTF16BE
)

var encodingNames = [...]string{
	Unspecified: "UNKNOWN",
	Auto:        "AUTO",
	SingleByte:  "ANSI",
	UTF8:        "UTF8",
	UTF16LE:     "UTF16",
	UTF16BE:     "UTF16BE",
}

var encodingsByName = map[string]Encoding{
	"AUTO":    Auto,
	"ANSI":    SingleByte,
	"UTF8":    UTF8,
	"UTF16":   UTF16LE,
	"UTF16BE": UTF16BE,
}

// Byte order marks, in the order Detect tests them.
var bomTable = []struct {
	prefix []byte
	enc    Encoding
}{
	{[]byte{0xfe, 0xff}, UTF16BE},
	{[]byte{0xff, 0xfe}, UTF16LE},
	{[]byte{0xef, 0xbb, 0xbf}, UTF8},
}

func (e Encoding) String() string {
	if e < 0 || int(e) >= len(encodingNames) {
		return encodingNames[Unspecified]
	}
	return encodingNames[e]
}

// Concrete reports whether e describes actual data, i.e. it is neither
// Unspecified nor Auto.
func (e Encoding) Concrete() bool {
	switch e {
	case SingleByte, UTF8, UTF16LE, UTF16BE:
		return true
	default:
		return false
	}
}

// BOM returns the byte order mark written ahead of content in e.
// SingleByte has none.
func (e Encoding) BOM() []byte {
	for _, entry := range bomTable {
		if entry.enc == e {
			return entry.prefix
		}
	}
	return nil
}

// ParseEncoding maps a case-insensitive name (AUTO, ANSI, UTF8, UTF16,
// UTF16BE) to its Encoding.
func ParseEncoding(name string) (Encoding, error) {
	enc, ok := encodingsByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Unspecified, Unsupported(fmt.Sprintf("unrecognized encoding %q", name))
	}
	return enc, nil
}

// Names lists the accepted encoding names in declaration order.
func Names() []string {
	return append([]string(nil), encodingNames[Auto:]...)
}

// Set implements pflag.Value.
func (e *Encoding) Set(name string) error {
	enc, err := ParseEncoding(name)
	if err != nil {
		return err
	}
	*e = enc
	return nil
}

// Type implements pflag.Value.
func (e *Encoding) Type() string {
	return "encoding"
}

func (e Encoding) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Encoding) UnmarshalText(text []byte) error {
	return e.Set(string(text))
}
