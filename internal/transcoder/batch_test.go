package transcoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"txconv/pkg/textenc"
)

func writeFixture(t *testing.T, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestRunConvertsTree(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")

	writeFixture(t, filepath.Join(root, "wide.txt"), []byte{0xff, 0xfe, 'h', 0, 'i', 0, '\n', 0})
	writeFixture(t, filepath.Join(root, "nested", "plain.txt"), []byte("plain ascii text, long enough\n"))
	writeFixture(t, filepath.Join(root, "short.txt"), []byte("hi\n"))
	writeFixture(t, filepath.Join(root, "empty.txt"), nil)

	updates := make(chan ProgressUpdate, 64)
	summary, reports, err := Run(context.Background(), root, BatchOptions{
		Options:   Options{From: textenc.Auto, To: textenc.UTF8},
		OutputDir: out,
		Workers:   2,
	}, updates)
	close(updates)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Total != 4 || summary.Processed != 2 || summary.Skipped != 2 || summary.Errors != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(reports) != 4 {
		t.Fatalf("expected 4 reports, got %d", len(reports))
	}
	if summary.Lines != 2 {
		t.Fatalf("lines = %d, want 2", summary.Lines)
	}

	if got := readFile(t, filepath.Join(out, "wide.txt")); got != "\xef\xbb\xbfhi\n" {
		t.Fatalf("wide.txt = %q", got)
	}
	if got := readFile(t, filepath.Join(out, "nested", "plain.txt")); got != "\xef\xbb\xbfplain ascii text, long enough\n" {
		t.Fatalf("plain.txt = %q", got)
	}
	if _, err := os.Stat(filepath.Join(out, "short.txt")); !os.IsNotExist(err) {
		t.Fatalf("skipped file should not be written, stat err = %v", err)
	}

	var total, processed int
	for update := range updates {
		total += update.TotalDelta
		processed += update.ProcessedDelta
	}
	if total != 4 || processed != 2 {
		t.Fatalf("progress total=%d processed=%d", total, processed)
	}
}

func TestRunInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	writeFixture(t, path, []byte("caf\xc3\xa9 au lait, s'il vous pla\xc3\xaet\n"))

	summary, _, err := Run(context.Background(), path, BatchOptions{
		Options: Options{From: textenc.UTF8, To: textenc.SingleByte},
		InPlace: true,
	}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if got := readFile(t, path); got != "caf\xe9 au lait, s'il vous pla\xeet\n" {
		t.Fatalf("in-place result = %q", got)
	}
}

func TestRunSkipsOutputInsideRoot(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "converted")
	writeFixture(t, filepath.Join(root, "a.txt"), []byte("\xef\xbb\xbfalpha\n"))
	writeFixture(t, filepath.Join(out, "stale.txt"), []byte("\xef\xbb\xbfstale\n"))

	summary, _, err := Run(context.Background(), root, BatchOptions{
		Options:   Options{From: textenc.Auto, To: textenc.UTF16LE},
		OutputDir: out,
	}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total != 1 {
		t.Fatalf("expected output dir to be skipped, summary = %+v", summary)
	}
}

func TestRunCountsErrors(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, filepath.Join(root, "bad.txt"), []byte("fine\n\xff\n"))

	summary, reports, err := Run(context.Background(), root, BatchOptions{
		Options:   Options{From: textenc.UTF8, To: textenc.UTF8},
		OutputDir: filepath.Join(t.TempDir(), "out"),
	}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Errors != 1 || summary.Processed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if !errors.Is(reports[0].Err, textenc.ErrInvalidByteSequence) {
		t.Fatalf("report err = %v", reports[0].Err)
	}
}

func TestRunRequiresOutput(t *testing.T) {
	_, _, err := Run(context.Background(), t.TempDir(), BatchOptions{
		Options: Options{From: textenc.Auto, To: textenc.UTF8},
	}, nil)
	if err == nil {
		t.Fatal("expected error without output dir or in-place")
	}
}

func TestConvertFilePartialOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	writeFixture(t, src, []byte("first\nsec\xffond\n"))
	opts := Options{From: textenc.UTF8, To: textenc.UTF8}

	discarded := filepath.Join(dir, "discarded.txt")
	if _, err := ConvertFile(src, discarded, opts, false); !errors.Is(err, textenc.ErrInvalidByteSequence) {
		t.Fatalf("err = %v", err)
	}
	if _, err := os.Stat(discarded); !os.IsNotExist(err) {
		t.Fatalf("expected no output, stat err = %v", err)
	}

	kept := filepath.Join(dir, "kept.txt")
	stats, err := ConvertFile(src, kept, opts, true)
	if !errors.Is(err, textenc.ErrInvalidByteSequence) {
		t.Fatalf("err = %v", err)
	}
	if stats.Lines != 1 {
		t.Fatalf("lines = %d", stats.Lines)
	}
	if got := readFile(t, kept); got != "\xef\xbb\xbffirst\n" {
		t.Fatalf("partial output = %q", got)
	}
}

func TestConvertFileNoOutputOnDetectionFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	writeFixture(t, src, []byte("tiny\n"))

	dest := filepath.Join(dir, "dest.txt")
	if _, err := ConvertFile(src, dest, Options{From: textenc.Auto, To: textenc.UTF8}, true); !errors.Is(err, textenc.ErrAmbiguousEncoding) {
		t.Fatalf("err = %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("expected no output, stat err = %v", err)
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt"} {
		writeFixture(t, filepath.Join(root, name), []byte{0xef, 0xbb, 0xbf, 'x', '\n'})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, _, err := Run(ctx, root, BatchOptions{
		Options:   Options{From: textenc.Auto, To: textenc.UTF8},
		OutputDir: filepath.Join(t.TempDir(), "out"),
		Workers:   1,
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if summary.Processed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}
