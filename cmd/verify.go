package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"txconv/internal/transcoder"
	"txconv/internal/tui"
	"txconv/pkg/textenc"
)

var (
	verifyFrom        = textenc.Auto
	verifyTo          = textenc.UTF8
	verifyKeepPartial bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify [flags] <file>",
	Short: "Check that a conversion survives a strict decoder unchanged",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildOptions(verifyFrom, verifyTo, verifyKeepPartial)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		report, err := transcoder.Verify(data, opts)
		if err != nil {
			return describeError(path, err)
		}

		fmt.Fprintf(os.Stdout, "%s\n", tui.PathStyle.Render(path))
		printDetail("conversion", tui.ValueStyle.Render(fmt.Sprintf("%s -> %s", report.Stats.Source, report.Stats.Target)))
		printDetail("lines", tui.ValueStyle.Render(fmt.Sprintf("%d", report.Stats.Lines)))
		printDetail("characters", tui.ValueStyle.Render(fmt.Sprintf("%d", report.Stats.Chars)))
		if report.Stats.Dropped > 0 {
			printDetail("dropped", tui.WarnStyle.Render(fmt.Sprintf("%d characters after the last newline", report.Stats.Dropped)))
		}
		if report.Unrepresentable > 0 {
			printDetail("invalid code points", tui.WarnStyle.Render(fmt.Sprintf("%d", report.Unrepresentable)))
		}

		if report.Lossless() {
			printDetail("result", tui.SuccessStyle.Render("lossless"))
			return nil
		}

		printDetail("result", tui.ErrorStyle.Render("lossy"))
		fmt.Fprintln(os.Stdout, report.PrettyDiff())
		return fmt.Errorf("%s: conversion to %s is lossy", path, report.Stats.Target)
	},
}

func init() {
	addEncodingFlags(verifyCmd, &verifyFrom, &verifyTo, &verifyKeepPartial)

	rootCmd.AddCommand(verifyCmd)
}
