package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/inovacc/gitmon/internal/collector"
	"github.com/inovacc/gitmon/internal/git"
	"github.com/inovacc/gitmon/internal/model"
	"github.com/inovacc/gitmon/internal/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan watch directories and print repository status",
	Long: `Scan walks the configured watch directories once, collects the status
of every repository found, and prints the result.

Examples:
  gitmon scan              # Table output
  gitmon scan --json       # Machine-readable output
  gitmon scan --dirty      # Only repositories with uncommitted changes`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Bool("json", false, "Output as JSON")
	scanCmd.Flags().Bool("dirty", false, "Only show repositories that are not clean")
}

func runScan(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	dirtyOnly, _ := cmd.Flags().GetBool("dirty")

	records := collectOnce(cmd)

	if dirtyOnly {
		filtered := records[:0]
		for _, record := range records {
			if record.Status != model.StatusClean {
				filtered = append(filtered, record)
			}
		}

		records = filtered
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(records)
	}

	printRecords(records)

	return nil
}

// collectOnce runs a single scan-and-collect pass without starting the
// monitor loops.
func collectOnce(cmd *cobra.Command) []model.RepoRecord {
	runner := git.NewClient()
	coll := collector.New(runner)

	paths := scanner.New(cfg.MaxDepth).Scan(cfg.ExpandedDirectories())

	records := make([]model.RepoRecord, 0, len(paths))
	for _, path := range paths {
		records = append(records, coll.Collect(cmd.Context(), path))
	}

	model.SortRecords(records)

	return records
}

func printRecords(records []model.RepoRecord) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(os.Stdout, "No repositories found.")

		return
	}

	// Unicode sync markers only when stdout is a terminal
	pretty := term.IsTerminal(int(os.Stdout.Fd()))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "OWNER\tREPOSITORY\tBRANCH\tSTATUS\tSYNC\tSTASH")

	for _, record := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			record.RemoteOwner,
			record.Name,
			record.Branch,
			string(record.Status),
			syncColumn(record, pretty),
			stashColumn(record),
		)
	}

	_ = w.Flush()
}

func syncColumn(record model.RepoRecord, pretty bool) string {
	if !record.HasUpstream {
		return "-"
	}

	if record.Ahead == 0 && record.Behind == 0 {
		return "up to date"
	}

	ahead, behind := "+", "-"
	if pretty {
		ahead, behind = "↑", "↓"
	}

	var parts []string
	if record.Ahead > 0 {
		parts = append(parts, ahead+strconv.Itoa(record.Ahead))
	}

	if record.Behind > 0 {
		parts = append(parts, behind+strconv.Itoa(record.Behind))
	}

	return strings.Join(parts, " ")
}

func stashColumn(record model.RepoRecord) string {
	if record.StashCount == 0 {
		return "-"
	}

	return strconv.Itoa(record.StashCount)
}
