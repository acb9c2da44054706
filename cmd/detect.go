package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"txconv/internal/tui"
	"txconv/pkg/textenc"
)

var detectCmd = &cobra.Command{
	Use:   "detect <file>...",
	Short: "Report the encoding auto-detection would choose, without converting",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		failed := 0
		for i, path := range args {
			if i > 0 {
				fmt.Fprintln(os.Stdout)
			}
			fmt.Fprintf(os.Stdout, "%s\n", tui.PathStyle.Render(path))

			enc, marker, err := textenc.SniffFile(path)
			switch {
			case errors.Is(err, textenc.ErrEmptyInput):
				printDetail("encoding", tui.WarnStyle.Render("empty file"))
			case err != nil:
				failed++
				printDetail("error", tui.ErrorStyle.Render(err.Error()))
			case enc == textenc.Unspecified:
				printDetail("encoding", tui.WarnStyle.Render("inconclusive"))
			default:
				printDetail("encoding", tui.ValueStyle.Render(enc.String()))
				if marker > 0 {
					printDetail("byte order mark", tui.ValueStyle.Render(fmt.Sprintf("%d bytes", marker)))
				} else {
					printDetail("byte order mark", tui.DimStyle.Render("none"))
				}
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files could not be read", failed, len(args))
		}
		return nil
	},
}

func printDetail(key, value string) {
	fmt.Fprintf(os.Stdout, "  %s %s %s\n", tui.DimStyle.Render("-"), tui.KeyStyle.Render(key+":"), value)
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
