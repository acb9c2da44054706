package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"txconv/internal/transcoder"
	"txconv/internal/tui"
	"txconv/pkg/textenc"
)

var (
	convertFrom        = textenc.Auto
	convertTo          = textenc.SingleByte
	convertKeepPartial bool
)

// previewLen is how many leading input bytes the verbose report shows.
const previewLen = 8

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <infile> [outfile]",
	Short: "Convert one file, writing to outfile or stdout",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildOptions(convertFrom, convertTo, convertKeepPartial)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		inPath := args[0]
		outPath := ""
		if len(args) == 2 {
			outPath = args[1]
		}

		var stats transcoder.Stats
		if outPath != "" {
			stats, err = transcoder.ConvertFile(inPath, outPath, opts, true)
		} else {
			stats, err = convertToStdout(inPath, opts)
		}

		if verbose && stats.Source.Concrete() {
			fmt.Fprintln(os.Stderr, tui.RenderSummary(verboseRows(inPath, outPath, stats)))
		}
		return describeError(inPath, err)
	},
}

func convertToStdout(inPath string, opts transcoder.Options) (transcoder.Stats, error) {
	f, err := os.Open(inPath)
	if err != nil {
		return transcoder.Stats{}, err
	}
	defer f.Close()

	if opts.To == textenc.UTF16LE || opts.To == textenc.UTF16BE {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			transcoder.Logger().Warn("writing UTF-16 to a terminal", zap.Stringer("target", opts.To))
		}
	}
	return transcoder.Transcode(f, os.Stdout, opts)
}

func buildOptions(from, to textenc.Encoding, keepPartial bool) (transcoder.Options, error) {
	if !to.Concrete() {
		return transcoder.Options{}, fmt.Errorf("unrecognized output encoding %s; use one of %s",
			to, strings.Join(textenc.Names()[1:], ", "))
	}
	return transcoder.Options{From: from, To: to, KeepPartialLine: keepPartial}, nil
}

// describeError adds the input path and, where it helps, what to do next.
func describeError(path string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, textenc.ErrAmbiguousEncoding):
		return fmt.Errorf("%s: %w (set the source encoding with --from)", path, err)
	default:
		return fmt.Errorf("%s: %w", path, err)
	}
}

func verboseRows(inPath, outPath string, stats transcoder.Stats) []tui.SummaryRow {
	if outPath == "" {
		outPath = "(stdout)"
	}
	rows := []tui.SummaryRow{
		{Label: "Input file", Value: inPath},
	}
	if info, err := os.Stat(inPath); err == nil {
		rows = append(rows, tui.SummaryRow{Label: "Input length", Value: fmt.Sprintf("%d bytes", info.Size())})
	}
	rows = append(rows,
		tui.SummaryRow{Label: "Input format", Value: stats.Source.String()},
		tui.SummaryRow{Label: "Output file", Value: outPath},
		tui.SummaryRow{Label: "Output format", Value: stats.Target.String()},
	)
	if head, err := readHead(inPath, previewLen); err == nil && len(head) > 0 {
		rows = append(rows, tui.SummaryRow{Label: fmt.Sprintf("First %d bytes", len(head)), Value: fmt.Sprintf("% X", head)})
	}
	rows = append(rows,
		tui.SummaryRow{Label: "Lines processed", Value: fmt.Sprintf("%d", stats.Lines)},
		tui.SummaryRow{Label: "Chars processed", Value: fmt.Sprintf("%d", stats.Chars)},
	)
	if stats.Dropped > 0 {
		rows = append(rows, tui.SummaryRow{Label: "Chars dropped", Value: fmt.Sprintf("%d (no final newline)", stats.Dropped)})
	}
	return rows
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, n)
	read, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return head[:read], nil
}

func addEncodingFlags(cmd *cobra.Command, from, to *textenc.Encoding, keepPartial *bool) {
	names := strings.Join(textenc.Names(), ", ")
	cmd.Flags().VarP(from, "from", "f", "source encoding ("+names+")")
	cmd.Flags().VarP(to, "to", "t", "target encoding ("+names+" except AUTO)")
	cmd.Flags().BoolVar(keepPartial, "keep-partial", false, "write a final line that lacks a trailing newline")
}

func init() {
	addEncodingFlags(convertCmd, &convertFrom, &convertTo, &convertKeepPartial)

	rootCmd.AddCommand(convertCmd)
}
