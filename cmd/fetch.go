package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inovacc/gitmon/internal/fetch"
	"github.com/inovacc/gitmon/internal/git"
	"github.com/inovacc/gitmon/internal/snapshot"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch every repository under the watch directories",
	Long: `Fetch scans the watch directories and runs "git fetch --all" in each
repository found, bounded by the configured parallelism. Progress is printed
as repositories complete.

Examples:
  gitmon fetch                 # Fetch everything
  gitmon fetch --parallel 8    # Override the worker count`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().Int("parallel", 0, "Concurrent fetches (defaults to fetch_parallel from config)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	parallel, _ := cmd.Flags().GetInt("parallel")
	if parallel <= 0 {
		parallel = cfg.FetchParallel
	}

	records := collectOnce(cmd)
	if len(records) == 0 {
		_, _ = fmt.Fprintln(os.Stdout, "No repositories found.")

		return nil
	}

	paths := make([]string, len(records))
	for i, record := range records {
		paths[i] = record.Path
	}

	store := snapshot.NewStore()
	store.Publish(records)

	scheduler := fetch.NewScheduler(git.NewClient(), store, parallel)

	_, _ = fmt.Fprintf(os.Stdout, "Fetching %d repositories (%d parallel)...\n\n", len(paths), parallel)

	if !scheduler.TryStart(cmd.Context(), paths) {
		return fmt.Errorf("could not start fetch cycle")
	}

	var failures []fetch.Event

	for ev := range scheduler.Events() {
		if ev.Done {
			printFetchSummary(ev, failures)

			if ev.Failed > 0 {
				os.Exit(1)
			}

			return nil
		}

		mark := "ok"
		if !ev.Outcome.Succeeded {
			mark = "FAIL"

			failures = append(failures, ev)
		}

		_, _ = fmt.Fprintf(os.Stdout, "  [%d/%d] %-40s %s\n", ev.Completed, ev.Total, ev.Name, mark)
	}

	return nil
}

func printFetchSummary(done fetch.Event, failures []fetch.Event) {
	_, _ = fmt.Fprintln(os.Stdout)
	_, _ = fmt.Fprintln(os.Stdout, "Summary")
	_, _ = fmt.Fprintln(os.Stdout, "-------")
	_, _ = fmt.Fprintf(os.Stdout, "  Succeeded: %d\n", done.Succeeded)
	_, _ = fmt.Fprintf(os.Stdout, "  Failed:    %d\n", done.Failed)

	if len(failures) > 0 {
		_, _ = fmt.Fprintln(os.Stdout)

		for _, ev := range failures {
			_, _ = fmt.Fprintf(os.Stdout, "  FAIL %s: %s\n", ev.Path, ev.Outcome.Reason)
		}
	}
}
