package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/inovacc/gitmon/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats [path]",
	Short: "Show commit history statistics for a repository",
	Long: `Display commit history statistics for a repository: commit and author
counts, line churn, top contributors, and optional temporal distribution.

If no path is provided, the current directory is used.

Examples:
  gitmon stats                   # Stats for the current directory
  gitmon stats ~/code/myrepo     # Stats for a specific repo
  gitmon stats --json            # Output as JSON
  gitmon stats --temporal        # Include commits by weekday and hour
  gitmon stats --since 2026-01-01  # Only commits from this year`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Bool("json", false, "Output as JSON")
	statsCmd.Flags().Bool("temporal", false, "Include temporal analysis")
	statsCmd.Flags().String("since", "", "Only count commits after this date (YYYY-MM-DD)")
	statsCmd.Flags().String("until", "", "Only count commits before this date (YYYY-MM-DD)")
}

func runStats(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	temporal, _ := cmd.Flags().GetBool("temporal")

	opts := stats.Options{IncludeTemporal: temporal}

	var err error
	if opts.Since, err = parseDateFlag(cmd, "since"); err != nil {
		return err
	}

	if opts.Until, err = parseDateFlag(cmd, "until"); err != nil {
		return err
	}

	repoPath := "."
	if len(args) > 0 {
		repoPath = args[0]
	}

	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if _, err := os.Stat(filepath.Join(absPath, ".git")); os.IsNotExist(err) {
		return fmt.Errorf("not a git repository: %s", absPath)
	}

	result, err := stats.Gather(absPath, opts)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(result)
	}

	printStatsText(result, temporal)

	return nil
}

// parseDateFlag reads a YYYY-MM-DD flag value; empty means unset
func parseDateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return time.Time{}, nil
	}

	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q, expected YYYY-MM-DD", name, raw)
	}

	return parsed, nil
}

func printStatsText(s *stats.RepoStats, showTemporal bool) {
	_, _ = fmt.Fprintln(os.Stdout)
	_, _ = fmt.Fprintln(os.Stdout, "Repository Statistics")
	_, _ = fmt.Fprintln(os.Stdout, "=====================")
	_, _ = fmt.Fprintln(os.Stdout)

	_, _ = fmt.Fprintf(os.Stdout, "Path: %s\n", s.Path)
	_, _ = fmt.Fprintf(os.Stdout, "Gathered: %s\n", s.GatheredAt.Format("Jan 2, 2006 15:04:05"))
	_, _ = fmt.Fprintf(os.Stdout, "%s\n\n", s.Summary())

	_, _ = fmt.Fprintln(os.Stdout, "Overview")
	_, _ = fmt.Fprintln(os.Stdout, "--------")
	_, _ = fmt.Fprintf(os.Stdout, "  Total Commits:  %d\n", s.TotalCommits)
	_, _ = fmt.Fprintf(os.Stdout, "  Total Authors:  %d\n", s.TotalAuthors)
	_, _ = fmt.Fprintf(os.Stdout, "  Lines Added:    %d\n", s.LinesAdded)
	_, _ = fmt.Fprintf(os.Stdout, "  Lines Deleted:  %d\n", s.LinesDeleted)

	if !s.FirstCommitAt.IsZero() {
		_, _ = fmt.Fprintf(os.Stdout, "  First Commit:   %s\n", s.FirstCommitAt.Format("Jan 2, 2006"))
	}

	if !s.LastCommitAt.IsZero() {
		_, _ = fmt.Fprintf(os.Stdout, "  Last Commit:    %s\n", s.LastCommitAt.Format("Jan 2, 2006"))
	}

	_, _ = fmt.Fprintln(os.Stdout)

	if len(s.Contributors) > 0 {
		_, _ = fmt.Fprintln(os.Stdout, "Top Contributors")
		_, _ = fmt.Fprintln(os.Stdout, "----------------")

		limit := min(len(s.Contributors), 10)

		for i := range limit {
			c := s.Contributors[i]
			_, _ = fmt.Fprintf(os.Stdout, "  %d. %s <%s> - %d commits\n", i+1, c.Name, c.Email, c.Commits)
		}

		if len(s.Contributors) > 10 {
			_, _ = fmt.Fprintf(os.Stdout, "  ... and %d more\n", len(s.Contributors)-10)
		}

		_, _ = fmt.Fprintln(os.Stdout)
	}

	if showTemporal {
		if len(s.CommitsByWeekday) > 0 {
			_, _ = fmt.Fprintln(os.Stdout, "Commits by Weekday")
			_, _ = fmt.Fprintln(os.Stdout, "------------------")

			weekdays := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
			for _, day := range weekdays {
				if count, ok := s.CommitsByWeekday[day]; ok {
					_, _ = fmt.Fprintf(os.Stdout, "  %-10s %d\n", day, count)
				}
			}

			_, _ = fmt.Fprintln(os.Stdout)
		}

		if len(s.CommitsByHour) > 0 {
			_, _ = fmt.Fprintln(os.Stdout, "Commits by Hour (Top 5)")
			_, _ = fmt.Fprintln(os.Stdout, "-----------------------")

			type hourCount struct {
				hour  int
				count int
			}

			hours := make([]hourCount, 0, len(s.CommitsByHour))
			for h, c := range s.CommitsByHour {
				hours = append(hours, hourCount{h, c})
			}

			sort.Slice(hours, func(i, j int) bool {
				return hours[i].count > hours[j].count
			})

			limit := min(len(hours), 5)

			for i := range limit {
				_, _ = fmt.Fprintf(os.Stdout, "  %02d:00  %d commits\n", hours[i].hour, hours[i].count)
			}

			_, _ = fmt.Fprintln(os.Stdout)
		}
	}
}
