package transcoder

import "txconv/pkg/textenc"

type Options struct {
	From textenc.Encoding
	To   textenc.Encoding
	// KeepPartialLine writes a final line that has no trailing newline
	// instead of dropping it.
	KeepPartialLine bool
}

type Stats struct {
	Source textenc.Encoding
	Target textenc.Encoding
	// Marker is the number of byte order mark bytes consumed from the source.
	Marker int
	Lines  int64
	Chars  int64
	// Dropped counts code points of an unterminated final line that was
	// discarded.
	Dropped      int64
	BytesWritten int64
}

type BatchOptions struct {
	Options
	InPlace   bool
	OutputDir string
	Workers   int
}

type Job struct {
	Path    string
	RelPath string
	Display string
}

type Result struct {
	Path    string
	RelPath string
	Display string
	Skipped bool
	Err     error
	Stats   Stats
}

type Summary struct {
	Total     int
	Processed int
	Skipped   int
	Errors    int
	Lines     int64
	Chars     int64
}

type FileReport struct {
	Path    string
	Source  textenc.Encoding
	Skipped bool
	Err     error
	Stats   Stats
}

type ProgressUpdate struct {
	TotalDelta     int
	ProcessedDelta int
	SkippedDelta   int
	ErrorDelta     int
	LinesDelta     int64
	CharsDelta     int64
}
