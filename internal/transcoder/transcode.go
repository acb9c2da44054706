package transcoder

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"txconv/pkg/textenc"
)

const newline textenc.CodePoint = '\n'

// Transcode decodes src as opts.From, resolving Auto by byte order mark
// detection, and writes it to dst as opts.To preceded by the target's byte
// order mark. Text is moved one newline-terminated line at a time.
//
// Detection failures are returned before anything is written. Errors met
// while streaming leave the lines already transcoded in dst.
func Transcode(src io.Reader, dst io.Writer, opts Options) (Stats, error) {
	// Source stays Unspecified until resolution succeeds.
	stats := Stats{Target: opts.To}
	if err := opts.validate(); err != nil {
		return stats, err
	}

	br := bufio.NewReader(src)
	source, marker, err := resolveSource(br, opts.From)
	if err != nil {
		return stats, err
	}
	stats.Source = source
	stats.Marker = marker
	Logger().Debug("source encoding resolved",
		zap.Stringer("requested", opts.From),
		zap.Stringer("source", source),
		zap.Int("marker", marker))

	w := textenc.NewWriter(dst, opts.To)
	r := textenc.NewReader(br, source, int64(marker))

	err = w.WriteBOM()
	if err == nil {
		err = streamLines(r, w, opts, &stats)
	}
	stats.Chars = r.Count()

	// Flushes the BOM when no line was written.
	if flushErr := w.Flush(); err == nil {
		err = flushErr
	}
	stats.BytesWritten = w.Written()

	if err != nil {
		Logger().Debug("transcode failed",
			zap.Int64("lines", stats.Lines),
			zap.Int64("chars", stats.Chars),
			zap.Int64("offset", r.Offset()),
			zap.Error(err))
		return stats, err
	}

	Logger().Debug("transcode complete",
		zap.Int64("lines", stats.Lines),
		zap.Int64("chars", stats.Chars),
		zap.Int64("dropped", stats.Dropped))
	return stats, nil
}

func (o Options) validate() error {
	if o.From != textenc.Auto && !o.From.Concrete() {
		return textenc.Unsupported(fmt.Sprintf("invalid source encoding %s", o.From))
	}
	if !o.To.Concrete() {
		return textenc.Unsupported(fmt.Sprintf("invalid target encoding %s", o.To))
	}
	return nil
}

func resolveSource(br *bufio.Reader, from textenc.Encoding) (textenc.Encoding, int, error) {
	if from != textenc.Auto {
		n, err := textenc.SkipBOM(br, from)
		return from, n, err
	}

	enc, n, err := textenc.Detect(br)
	if err != nil {
		return textenc.Unspecified, 0, err
	}
	if enc == textenc.Unspecified {
		return textenc.Unspecified, 0, textenc.AmbiguousEncoding("auto-detection could not identify the input; specify the source encoding")
	}
	return enc, n, nil
}

func streamLines(r *textenc.Reader, w *textenc.Writer, opts Options, stats *Stats) error {
	line := make([]textenc.CodePoint, 0, 256)
	for {
		var err error
		line, err = readLine(r, line[:0])
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return nil
			}
			if !opts.KeepPartialLine {
				stats.Dropped = int64(len(line))
				return nil
			}
			if err := commitLine(w, line); err != nil {
				return err
			}
			stats.Lines++
			return nil
		}
		if err != nil {
			return err
		}

		if err := commitLine(w, line); err != nil {
			return err
		}
		stats.Lines++
	}
}

// readLine appends code points to line up to and including the next newline.
// At end of input it returns what was collected along with io.EOF.
func readLine(r *textenc.Reader, line []textenc.CodePoint) ([]textenc.CodePoint, error) {
	for {
		cp, err := r.ReadCodePoint()
		if err != nil {
			return line, err
		}
		line = append(line, cp)
		if cp == newline {
			return line, nil
		}
	}
}

// commitLine encodes line and flushes it, so a failing sink stops the run
// at the line it rejected.
func commitLine(w *textenc.Writer, line []textenc.CodePoint) error {
	for _, cp := range line {
		if err := w.WriteCodePoint(cp); err != nil {
			return err
		}
	}
	return w.Flush()
}
