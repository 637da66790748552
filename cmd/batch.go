package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tanq16/grabbit/internal/output"
	"github.com/tanq16/grabbit/internal/scheduler"
	"github.com/tanq16/grabbit/internal/utils"
)

func newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Fetch multiple images from a YAML manifest",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			opts, err := buildOptions(cmd)
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			entries, err := utils.ReadBatchManifest(args[0])
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			jobs := make([]scheduler.Job, 0, len(entries))
			for _, entry := range entries {
				jobs = append(jobs, scheduler.NewJob(entry.URL, entry.Name))
			}
			runJobs(cmd, jobs, opts)
		},
	}
}
