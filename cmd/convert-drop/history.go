// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/convert-drop/internal/history"
	"github.com/pdiddy/convert-drop/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded conversion jobs",
	Long: `History lists finished upload jobs from the local ledger, newest first,
with each job's outcome: the saved path for converted files and the failure
reason for the rest. Use --export to write the listing to a YAML or JSON
report.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("status", "", "filter by status: succeeded or failed")
	historyCmd.Flags().String("source", "", "filter by source file name (substring match)")
	historyCmd.Flags().Int("limit", 50, "maximum number of jobs (-1 for all)")
	historyCmd.Flags().Bool("json", false, "output jobs as JSON")
	historyCmd.Flags().String("export", "", "write a report to this .yaml, .yml, or .json file")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	status, _ := cmd.Flags().GetString("status")
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")
	export, _ := cmd.Flags().GetString("export")

	opts := history.ListOptions{Status: types.JobStatus(status), Source: source, Limit: limit}
	switch opts.Status {
	case "", types.JobSucceeded, types.JobFailed:
	default:
		return fmt.Errorf("unknown status %q: use succeeded or failed", status)
	}

	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := cmd.Context()

	if export != "" {
		switch strings.ToLower(filepath.Ext(export)) {
		case ".yaml", ".yml":
			err = store.ExportYAML(ctx, opts, export)
		case ".json":
			err = store.ExportJSON(ctx, opts, export)
		default:
			return fmt.Errorf("export path %q must end in .yaml, .yml, or .json", export)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported history to %s\n", export)
		return nil
	}

	jobs, err := store.List(ctx, opts)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(jobs)
	}
	return printJobs(cmd.OutOrStdout(), jobs)
}

// printJobs writes jobs as an aligned table.
func printJobs(w io.Writer, jobs []types.UploadJob) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, "No jobs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tSOURCE\tRESULT")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			j.StartedAt.Local().Format(time.DateTime), j.Status, j.Source, jobResult(j))
	}
	return tw.Flush()
}

func jobResult(j types.UploadJob) string {
	if !j.Status.IsFinished() {
		return "in progress"
	}
	if j.Status == types.JobSucceeded {
		return j.SavedPath
	}
	if j.HTTPStatus != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", j.Reason, j.HTTPStatus, j.Error)
	}
	return fmt.Sprintf("%s: %s", j.Reason, j.Error)
}
