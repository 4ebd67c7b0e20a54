package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inovacc/gitmon/internal/model"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(cfg)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _ = fmt.Fprintln(os.Stdout, configPath)

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Init writes the default configuration to the config path. An existing
file is never overwritten unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(configPath); err == nil && !force {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", configPath)
		}

		if err := model.SaveConfig(configPath, model.DefaultConfig()); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(os.Stdout, "Wrote default config to %s\n", configPath)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}
