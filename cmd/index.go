package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tanq16/grabbit/internal/index"
	"github.com/tanq16/grabbit/internal/output"
)

func newIndexCmd() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "List the dedup index of the output directory",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			dir, err := resolveOutputDir(cmd)
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			idx := index.Load(filepath.Join(dir, index.Filename))
			if idx.Len() == 0 {
				output.PrintInfo("Index is empty")
				return
			}
			missing := 0
			for _, digest := range idx.Digests() {
				record, _ := idx.Lookup(digest)
				line := fmt.Sprintf("%s  %s  %s", output.FDetail(digest[:min(12, len(digest))]), record.Filename, output.FInfo(output.FormatBytes(uint64(record.Size))))
				if verify {
					if _, err := os.Stat(filepath.Join(dir, record.Filename)); err != nil {
						line += "  " + output.FError(output.StyleSymbols["fail"]+" missing")
						missing++
					} else {
						line += "  " + output.FSuccess(output.StyleSymbols["pass"])
					}
				}
				fmt.Println(line)
				output.PrintDebug("    " + output.StyleSymbols["arrow"] + " " + record.URL)
			}
			fmt.Println()
			output.PrintDetail(fmt.Sprintf("%d entries, %s total", idx.Len(), output.FormatBytes(uint64(idx.TotalSize()))))
			if verify && missing > 0 {
				output.PrintWarning(fmt.Sprintf("%s %d indexed file(s) missing from %s", output.StyleSymbols["warning"], missing, dir))
				os.Exit(1)
			}
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "Check that indexed files still exist on disk")
	return cmd
}
