// Package cli implements the ostruct command-line interface.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	ostruct "github.com/yaniv-golan/ostruct-go"
	"github.com/yaniv-golan/ostruct-go/cmd/ostruct/cli/config"
)

// Build information set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	baseDir   string
	allowDirs []string
	allowList string
	allowTemp bool
	maxDepth  int
	noCache   bool
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "ostruct",
	Short: "Attach local files to LLM prompts",
	Long: `Ostruct validates and attaches local files for use in LLM prompts and
tool invocations.

Every path passes through the path security subsystem before any content is
read: Unicode-safe normalization, allowed-directory checks, and bounded
symlink resolution. The base directory plus any --allow directories form the
trust boundary; anything outside is rejected.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&baseDir, "base", "", "Base directory of the trust boundary (default: current directory)")
	pf.StringArrayVar(&allowDirs, "allow", nil, "Additional allowed directory (repeatable)")
	pf.StringVar(&allowList, "allow-list", "", "File with one allowed directory per line")
	pf.BoolVar(&allowTemp, "allow-temp", false, "Permit paths under the system temp directories")
	pf.IntVar(&maxDepth, "max-depth", 0, "Maximum symlink chain depth (default 16)")
	pf.BoolVar(&noCache, "no-cache", false, "Disable the upload cache")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug logging")
	rootCmd.Version = version
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
	}
	return err
}

// loadConfig reads the config file, if present, before any command runs.
func loadConfig(_ *cobra.Command, _ []string) error {
	configDir, err := config.Dir()
	if err != nil {
		return nil // no home dir; flags still work
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.SetEnvPrefix("OSTRUCT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// newClient creates an ostruct client from flags and config.
func newClient() (*ostruct.Client, error) {
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	limits := ostruct.DefaultLimits()
	if cfg.Limits.MaxSymlinkDepth > 0 {
		limits.MaxSymlinkDepth = cfg.Limits.MaxSymlinkDepth
	}
	if cfg.Limits.MaxConcurrent > 0 {
		limits.MaxConcurrent = cfg.Limits.MaxConcurrent
	}
	if cfg.Limits.OpQuota > 0 {
		limits.OpQuota = cfg.Limits.OpQuota
	}
	if cfg.Limits.TimeBudget > 0 {
		limits.TimeBudget = cfg.Limits.TimeBudget
	}
	if cfg.Limits.MinResponseTime > 0 {
		limits.MinResponseTime = cfg.Limits.MinResponseTime
	}
	if maxDepth > 0 {
		limits.MaxSymlinkDepth = maxDepth
	}

	allowed := append([]string(nil), cfg.Security.AllowedDirs...)
	allowed = append(allowed, allowDirs...)
	if allowList != "" {
		fromFile, err := readAllowList(allowList)
		if err != nil {
			return nil, err
		}
		allowed = append(allowed, fromFile...)
	}

	secOpts := []ostruct.SecurityOption{
		ostruct.WithAllowedDirs(allowed...),
		ostruct.WithAllowTemp(allowTemp || cfg.Security.AllowTemp),
		ostruct.WithLimits(limits),
	}

	opts := []ostruct.ClientOption{
		ostruct.WithSecurity(secOpts...),
	}
	if verbose {
		opts = append(opts, ostruct.WithLogger(
			slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})),
		))
	}
	switch {
	case noCache || (viper.IsSet("cache.enabled") && !cfg.Cache.Enabled):
		opts = append(opts, ostruct.WithoutCache())
	case cfg.Cache.Dir != "":
		opts = append(opts, ostruct.WithCacheDir(cfg.Cache.Dir))
	default:
		cacheDir, err := config.CacheDir()
		if err != nil {
			return nil, err
		}
		opts = append(opts, ostruct.WithCacheDir(filepath.Join(cacheDir, "uploads")))
	}

	return ostruct.NewClient(baseDir, opts...)
}

// readAllowList reads one directory per line; blank lines and '#' comments
// are skipped.
func readAllowList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is a user-provided CLI flag
	if err != nil {
		return nil, fmt.Errorf("open allow-list: %w", err)
	}
	defer f.Close()

	var dirs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		dirs = append(dirs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read allow-list: %w", err)
	}
	return dirs, nil
}

// formatError converts ostruct errors to user-friendly messages.
func formatError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ostruct.ErrPathTraversal):
		return fmt.Sprintf("Error: path traversal detected (security violation): %v", err)
	case errors.Is(err, ostruct.ErrUnsafeUnicode):
		return fmt.Sprintf("Error: unsafe unicode in path (security violation): %v", err)
	case errors.Is(err, ostruct.ErrSymlinkLoop):
		return fmt.Sprintf("Error: symlink loop: %v", err)
	case errors.Is(err, ostruct.ErrSymlinkMaxDepth):
		return fmt.Sprintf("Error: symlink chain too deep: %v", err)
	case errors.Is(err, ostruct.ErrPathOutsideAllowed):
		return fmt.Sprintf("Error: %v", err)
	case errors.Is(err, ostruct.ErrTempPathsNotAllowed):
		return fmt.Sprintf("Error: temp paths are not allowed (use --allow-temp): %v", err)
	case errors.Is(err, ostruct.ErrConcurrencyLimit), errors.Is(err, ostruct.ErrOpQuota), errors.Is(err, ostruct.ErrTimeBudget):
		return fmt.Sprintf("Error: resource limit exceeded (retry at lower concurrency): %v", err)
	case errors.Is(err, ostruct.ErrFileNotFound):
		return fmt.Sprintf("Error: not found: %v", err)
	case errors.Is(err, ostruct.ErrDirectoryNotFound):
		return fmt.Sprintf("Error: %v", err)
	case errors.Is(err, context.Canceled):
		return "Error: operation canceled"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
