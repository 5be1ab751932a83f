package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yaniv-golan/ostruct-go/cmd/ostruct/cli/config"
	"github.com/yaniv-golan/ostruct-go/internal/uploadcache"
)

// Cache command flags
var (
	cacheDirFlag string
	clearConfirm bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the upload cache",
	Long: `Manage the local upload cache.

The cache stores content digests and compressed copies of attached files
so unchanged files are not re-processed on subsequent runs.

The cache directory can be specified with --dir. If not specified,
the default XDG cache location is used.`,
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runCacheInfo,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached uploads",
	Long: `Remove all entries from the upload cache.

This permanently deletes all cached copies. Use --yes to skip confirmation.`,
	Args: cobra.NoArgs,
	RunE: runCacheClear,
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheDirFlag, "dir", "", "Cache directory path (default: XDG cache dir)")
	cacheClearCmd.Flags().BoolVarP(&clearConfirm, "yes", "y", false, "Skip confirmation prompt")

	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openCache() (*uploadcache.Cache, error) {
	dir := cacheDirFlag
	if dir == "" {
		base, err := config.CacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "uploads")
	}
	return uploadcache.New(dir, slog.New(slog.DiscardHandler))
}

func runCacheInfo(_ *cobra.Command, _ []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	info, err := cache.Stat()
	if err != nil {
		return err
	}

	if info.Entries == 0 {
		fmt.Println("Cache is empty")
		return nil
	}

	fmt.Printf("Cache: %s\n", cache.Dir())
	fmt.Printf("Size:  %s (%d bytes)\n", humanize.Bytes(safeUint64(info.TotalSize)), info.TotalSize)
	fmt.Printf("Entries: %d\n", info.Entries)
	return nil
}

func runCacheClear(_ *cobra.Command, _ []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	info, err := cache.Stat()
	if err != nil {
		return err
	}

	if info.Entries == 0 {
		fmt.Println("Cache is already empty")
		return nil
	}

	// Confirm unless --yes is specified
	if !clearConfirm {
		fmt.Printf("This will remove %d entries (%s) from the cache.\n",
			info.Entries, humanize.Bytes(safeUint64(info.TotalSize)))
		fmt.Print("Continue? [y/N] ")

		var response string
		//nolint:errcheck // Empty input or EOF is treated as "no" - not an error
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted")
			return nil
		}
	}

	removed, err := cache.Clear()
	if err != nil {
		return err
	}

	fmt.Printf("Cleared %d entries (%s)\n", removed, humanize.Bytes(safeUint64(info.TotalSize)))
	return nil
}

// safeUint64 converts int64 to uint64, clamping negative values to 0.
func safeUint64(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
