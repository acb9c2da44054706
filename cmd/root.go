package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"txconv/internal/transcoder"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "txconv",
	Short: "txconv - convert text between ANSI, UTF-8 and UTF-16",
	Long: "txconv converts text files between single-byte ANSI, UTF-8 and UTF-16 (little or big endian).\n" +
		"The source encoding can be detected from a byte order mark; output always carries one,\n" +
		"except for ANSI.",
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(verbose)
		if err != nil {
			return err
		}
		transcoder.SetLogger(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = transcoder.Logger().Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "txconv:", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.EncoderConfig.TimeKey = ""
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose diagnostics on stderr")
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}
