package transcoder

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"txconv/pkg/textenc"
)

// VerifyReport compares what a conversion was meant to carry with what a
// strict decoder recovers from its output.
type VerifyReport struct {
	Stats Stats
	// Expected is the source text as decoded by txconv.
	Expected string
	// Actual is the converted output as decoded by a strict reference decoder.
	Actual string
	// Unrepresentable counts source code points that are not Unicode scalar
	// values, such as unpaired surrogates or values past U+10FFFF.
	Unrepresentable int
	Diffs           []diffmatchpatch.Diff
}

// Lossless reports whether the output decodes strictly to the source text.
func (v VerifyReport) Lossless() bool {
	return v.Unrepresentable == 0 && v.Expected == v.Actual
}

// PrettyDiff renders the differences with ANSI colors.
func (v VerifyReport) PrettyDiff() string {
	return diffmatchpatch.New().DiffPrettyText(v.Diffs)
}

// Verify converts data in memory and checks the result with the strict
// decoders from golang.org/x/text.
func Verify(data []byte, opts Options) (VerifyReport, error) {
	report := VerifyReport{}

	var out bytes.Buffer
	stats, err := Transcode(bytes.NewReader(data), &out, opts)
	report.Stats = stats
	if err != nil {
		return report, err
	}

	expected, unrepresentable, err := sourceText(data[stats.Marker:], stats.Source, int64(stats.Marker), opts.KeepPartialLine)
	if err != nil {
		return report, err
	}
	actual, err := strictDecode(out.Bytes(), stats.Target)
	if err != nil {
		return report, err
	}

	report.Expected = expected
	report.Actual = actual
	report.Unrepresentable = unrepresentable

	dmp := diffmatchpatch.New()
	report.Diffs = dmp.DiffCleanupSemantic(dmp.DiffMain(expected, actual, false))

	Logger().Debug("verified conversion",
		zap.Stringer("source", stats.Source),
		zap.Stringer("target", stats.Target),
		zap.Bool("lossless", report.Lossless()),
		zap.Int("unrepresentable", unrepresentable))
	return report, nil
}

// sourceText decodes the lines Transcode would have written. Adjacent
// surrogate halves are joined so UTF-16 input compares as the text it spells.
func sourceText(data []byte, enc textenc.Encoding, offset int64, keepPartial bool) (string, int, error) {
	r := textenc.NewReader(bufio.NewReader(bytes.NewReader(data)), enc, offset)

	var (
		b               strings.Builder
		line            []textenc.CodePoint
		unrepresentable int
	)
	for {
		var err error
		line, err = readLine(r, line[:0])
		if err != nil && !errors.Is(err, io.EOF) {
			return "", 0, err
		}
		if err == nil || keepPartial {
			unrepresentable += appendCodePoints(&b, line)
		}
		if err != nil {
			return b.String(), unrepresentable, nil
		}
	}
}

func appendCodePoints(b *strings.Builder, line []textenc.CodePoint) int {
	bad := 0
	for i := 0; i < len(line); i++ {
		r := rune(line[i])
		if utf16.IsSurrogate(r) && i+1 < len(line) {
			if pair := utf16.DecodeRune(r, rune(line[i+1])); pair != utf8.RuneError {
				b.WriteRune(pair)
				i++
				continue
			}
		}
		if line[i] > utf8.MaxRune || !utf8.ValidRune(r) {
			bad++
		}
		b.WriteRune(r)
	}
	return bad
}

func strictDecode(out []byte, enc textenc.Encoding) (string, error) {
	var dec transform.Transformer
	switch enc {
	case textenc.SingleByte:
		dec = charmap.ISO8859_1.NewDecoder()
	case textenc.UTF8:
		dec = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	case textenc.UTF16LE:
		dec = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	case textenc.UTF16BE:
		dec = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
	default:
		return "", textenc.Unsupported(fmt.Sprintf("cannot verify %s output", enc))
	}

	text, _, err := transform.Bytes(dec, out)
	if err != nil {
		return "", fmt.Errorf("strict decode of %s output: %w", enc, err)
	}
	return string(text), nil
}
