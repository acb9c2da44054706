package transcoder

import (
	"errors"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"

	"txconv/pkg/textenc"
)

func TestVerifyLossless(t *testing.T) {
	report, err := Verify([]byte("just some ascii text\nacross two lines\n"), Options{From: textenc.Auto, To: textenc.UTF8})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !report.Lossless() {
		t.Fatalf("expected lossless, diff:\n%s", report.PrettyDiff())
	}
	if report.Stats.Lines != 2 {
		t.Fatalf("lines = %d", report.Stats.Lines)
	}
}

func TestVerifyDetectsANSIDownConversion(t *testing.T) {
	report, err := Verify([]byte("Erdős\n"), Options{From: textenc.UTF8, To: textenc.SingleByte})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Lossless() {
		t.Fatal("expected lossy conversion")
	}
	if report.Actual != "ErdQs\n" {
		t.Fatalf("actual = %q", report.Actual)
	}

	var deleted, inserted string
	for _, d := range report.Diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			deleted += d.Text
		case diffmatchpatch.DiffInsert:
			inserted += d.Text
		}
	}
	if deleted != "ő" || inserted != "Q" {
		t.Fatalf("diffs deleted %q inserted %q", deleted, inserted)
	}
}

func TestVerifySurrogatePairs(t *testing.T) {
	// U+1F600 as a UTF-16LE surrogate pair.
	src := []byte{0xff, 0xfe, 0x3d, 0xd8, 0x00, 0xde, '\n', 0}

	same, err := Verify(src, Options{From: textenc.Auto, To: textenc.UTF16BE})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !same.Lossless() {
		t.Fatalf("UTF-16 to UTF-16 should be lossless, diff:\n%s", same.PrettyDiff())
	}
	if same.Expected != "\U0001F600\n" {
		t.Fatalf("expected = %q", same.Expected)
	}

	// Each half becomes its own three byte sequence, which strict UTF-8 rejects.
	toUTF8, err := Verify(src, Options{From: textenc.Auto, To: textenc.UTF8})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if toUTF8.Lossless() {
		t.Fatal("surrogate halves in UTF-8 should not verify")
	}
}

func TestVerifyCountsUnrepresentable(t *testing.T) {
	src := []byte{0xfe, 0xff, 0xd8, 0x00, 0x00, '\n'}
	report, err := Verify(src, Options{From: textenc.Auto, To: textenc.UTF16BE})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Unrepresentable != 1 {
		t.Fatalf("unrepresentable = %d, want 1", report.Unrepresentable)
	}
	if report.Lossless() {
		t.Fatal("lone surrogate should not verify")
	}
}

func TestVerifyIgnoresDroppedLine(t *testing.T) {
	report, err := Verify([]byte("kept\ndropped"), Options{From: textenc.UTF8, To: textenc.UTF16LE})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Expected != "kept\n" || !report.Lossless() {
		t.Fatalf("expected %q, lossless %v", report.Expected, report.Lossless())
	}

	report, err = Verify([]byte("kept\nalso kept"), Options{From: textenc.UTF8, To: textenc.UTF16LE, KeepPartialLine: true})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !strings.HasSuffix(report.Actual, "also kept") || !report.Lossless() {
		t.Fatalf("actual = %q", report.Actual)
	}
}

func TestVerifyPropagatesErrors(t *testing.T) {
	_, err := Verify([]byte("x"), Options{From: textenc.Auto, To: textenc.UTF8})
	if !errors.Is(err, textenc.ErrAmbiguousEncoding) {
		t.Fatalf("err = %v", err)
	}
}
