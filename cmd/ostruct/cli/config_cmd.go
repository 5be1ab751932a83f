package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/yaniv-golan/ostruct-go/cmd/ostruct/cli/config"
	"github.com/yaniv-golan/ostruct-go/core"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ostruct configuration",
	Long: `View and modify ostruct configuration.

Without arguments, displays the current effective configuration.
Use subcommands to view the config path, initialize a config file,
or set configuration values.`,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE: func(_ *cobra.Command, _ []string) error {
		configDir, err := config.Dir()
		if err != nil {
			return err
		}
		fmt.Println(filepath.Join(configDir, "config.yaml"))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long: `Create a default configuration file at the XDG config path.

The file will be created at ~/.config/ostruct/config.yaml (or
$XDG_CONFIG_HOME/ostruct/config.yaml if set).`,
	RunE: runConfigInit,
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	configDir, err := config.Dir()
	if err != nil {
		return err
	}
	configPath := filepath.Join(configDir, "config.yaml")

	// Check if already exists
	if _, statErr := os.Stat(configPath); statErr == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	// Create directory and write default config
	if mkdirErr := os.MkdirAll(configDir, 0o750); mkdirErr != nil {
		return mkdirErr
	}

	limits := core.DefaultLimits()
	defaultConfig := map[string]any{
		"security": map[string]any{
			// allowed_dirs omitted - typically set per invocation via flags
			"allow_temp": false,
		},
		"limits": map[string]any{
			"max_symlink_depth": limits.MaxSymlinkDepth,
			"max_concurrent":    limits.MaxConcurrent,
			"op_quota":          limits.OpQuota,
			"time_budget":       limits.TimeBudget.String(),
		},
		"cache": map[string]any{
			"enabled": true,
		},
	}
	data, err := yaml.Marshal(defaultConfig)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if writeErr := os.WriteFile(configPath, data, 0o600); writeErr != nil {
		return writeErr
	}

	fmt.Printf("Created config file: %s\n", configPath)
	return nil
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the config file.

Examples:
  ostruct config set security.allow_temp true
  ostruct config set limits.max_symlink_depth 32
  ostruct config set cache.dir /custom/cache/path`,
	Args: cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		// Parse boolean and integer values
		var parsedValue any
		switch {
		case value == "true":
			parsedValue = true
		case value == "false":
			parsedValue = false
		default:
			if n, convErr := strconv.Atoi(value); convErr == nil {
				parsedValue = n
			} else {
				parsedValue = value
			}
		}

		// Set in Viper
		viper.Set(key, parsedValue)

		// Write to config file
		configDir, err := config.Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(configDir, 0o750); err != nil {
			return err
		}

		configPath := filepath.Join(configDir, "config.yaml")
		if err := viper.WriteConfigAs(configPath); err != nil {
			return fmt.Errorf("write config: %w", err)
		}

		fmt.Printf("Updated %s = %v\n", key, parsedValue)
		return nil
	},
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	// Show all settings with their effective values
	settings := viper.AllSettings()
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
