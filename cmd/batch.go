package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"txconv/internal/transcoder"
	"txconv/internal/tui"
	"txconv/pkg/textenc"
)

var (
	batchFrom        = textenc.Auto
	batchTo          = textenc.UTF8
	batchKeepPartial bool
	batchInPlace     bool
	batchOutputDir   string
	batchWorkers     int
)

var batchCmd = &cobra.Command{
	Use:   "batch [flags] <path>",
	Short: "Convert every file under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if batchInPlace && batchOutputDir != "" {
			return fmt.Errorf("--inplace cannot be used with --output")
		}
		opts, err := buildOptions(batchFrom, batchTo, batchKeepPartial)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		outputDir := batchOutputDir
		if !batchInPlace && outputDir == "" {
			outputDir = "converted"
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		summary, reports, err := runBatch(ctx, path, transcoder.BatchOptions{
			Options:   opts,
			InPlace:   batchInPlace,
			OutputDir: outputDir,
			Workers:   batchWorkers,
		})
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted after %d file(s)", summary.Total)
		}
		if err != nil {
			return err
		}

		rows := []tui.SummaryRow{
			{Label: "Files converted", Value: fmt.Sprintf("%d", summary.Processed)},
			{Label: "Files skipped", Value: fmt.Sprintf("%d", summary.Skipped)},
			{Label: "Errors", Value: fmt.Sprintf("%d", summary.Errors)},
			{Label: "Lines", Value: fmt.Sprintf("%d", summary.Lines)},
			{Label: "Characters", Value: fmt.Sprintf("%d", summary.Chars)},
		}
		fmt.Fprintln(os.Stdout, tui.RenderSummary(rows))

		for _, report := range reports {
			switch {
			case report.Skipped:
				fmt.Fprintf(os.Stdout, "%s %s\n", tui.WarnStyle.Render("skipped"), report.Path)
			case report.Err != nil:
				fmt.Fprintf(os.Stdout, "%s %s: %v\n", tui.ErrorStyle.Render("failed "), report.Path, report.Err)
			}
		}

		if batchInPlace {
			fmt.Fprintln(os.Stdout, "In-place conversion complete.")
		} else {
			outPath := outputDir
			if abs, absErr := filepath.Abs(outputDir); absErr == nil {
				outPath = abs
			}
			fmt.Fprintf(os.Stdout, "Converted files written to: %s\n", outPath)
		}

		if summary.Errors > 0 {
			return fmt.Errorf("%d file(s) failed to convert", summary.Errors)
		}
		return nil
	},
}

// runBatch shows live progress when stdout is a terminal. The progress view
// holds the terminal in raw mode, so it forwards Ctrl+C through cancel.
func runBatch(ctx context.Context, path string, opts transcoder.BatchOptions) (transcoder.Summary, []transcoder.FileReport, error) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return transcoder.Run(ctx, path, opts, nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan transcoder.ProgressUpdate, 64)
	program := tea.NewProgram(tui.NewModel(updates, cancel))

	uiDone := make(chan struct{})
	go func() {
		_, _ = program.Run()
		close(uiDone)
	}()

	summary, reports, err := transcoder.Run(ctx, path, opts, updates)
	close(updates)
	<-uiDone
	return summary, reports, err
}

func init() {
	addEncodingFlags(batchCmd, &batchFrom, &batchTo, &batchKeepPartial)
	batchCmd.Flags().BoolVarP(&batchInPlace, "inplace", "i", false, "replace files in place")
	batchCmd.Flags().StringVarP(&batchOutputDir, "output", "o", "", "destination folder for converted copies")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "number of concurrent conversions (default: number of CPUs)")

	rootCmd.AddCommand(batchCmd)
}
