package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tanq16/grabbit/internal/fetcher"
	"github.com/tanq16/grabbit/internal/output"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover .part files from the output directory",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			dir, err := resolveOutputDir(cmd)
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			removed, err := fetcher.RemoveStaleTemps(dir)
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			if removed == 0 {
				output.PrintInfo("No temporary files found")
				return
			}
			output.PrintSuccess(fmt.Sprintf("%s Removed %d temporary file(s)", output.StyleSymbols["pass"], removed))
		},
	}
}
