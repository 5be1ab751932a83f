// Package attach collects validated file attachments from --file, --dir, and
// --collect style inputs. Every candidate path is individually validated by
// the security manager; a rejection is fatal for that attachment and is
// surfaced verbatim with its reason code.
package attach

import (
	"bufio"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yaniv-golan/ostruct-go/core"
)

// Collector builds attachments through a PathValidator. Attachment paths are
// always the validator's output; the collector never re-derives paths from
// raw input.
type Collector struct {
	validator core.PathValidator
	logger    *slog.Logger
}

// NewCollector creates a Collector.
func NewCollector(validator core.PathValidator, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Collector{validator: validator, logger: logger}
}

// File validates a single file and returns it as an attachment.
func (c *Collector) File(alias, path string) (core.Attachment, error) {
	resolved, err := c.validator.ValidatePath(path)
	if err != nil {
		return core.Attachment{}, err
	}
	fi, err := os.Stat(filepath.FromSlash(resolved))
	if err != nil {
		return core.Attachment{}, fmt.Errorf("stat %s: %w", resolved, err)
	}
	if fi.IsDir() {
		return core.Attachment{}, fmt.Errorf("attach %s: is a directory, use a directory attachment", path)
	}
	c.logger.Debug("attached file", "alias", alias, "path", resolved, "size", fi.Size())
	return core.Attachment{
		Alias: alias,
		Path:  resolved,
		Size:  fi.Size(),
		Mode:  fi.Mode(),
	}, nil
}

// Dir validates a directory and attaches the files inside it. With recursive
// set, subdirectories are descended; pattern, when non-empty, filters files
// by base name. Each file goes through full validation on its own, so a
// symlink planted inside the directory cannot smuggle in an outside target.
func (c *Collector) Dir(alias, dir string, recursive bool, pattern string) ([]core.Attachment, error) {
	resolvedDir, err := c.validator.ValidatePath(dir)
	if err != nil {
		return nil, err
	}
	root := filepath.FromSlash(resolvedDir)

	var attachments []core.Attachment
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && p != root {
				return filepath.SkipDir
			}
			return nil
		}
		if pattern != "" {
			ok, matchErr := filepath.Match(pattern, d.Name())
			if matchErr != nil {
				return fmt.Errorf("pattern %q: %w", pattern, matchErr)
			}
			if !ok {
				return nil
			}
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		att, fileErr := c.File(alias+"/"+filepath.ToSlash(rel), p)
		if fileErr != nil {
			return fileErr
		}
		attachments = append(attachments, att)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return attachments, nil
}

// CollectList reads a newline-separated file list and attaches each entry.
// Blank lines and lines starting with '#' are skipped. Relative entries
// resolve against the list file's directory.
func (c *Collector) CollectList(alias, listPath string) ([]core.Attachment, error) {
	resolvedList, err := c.validator.ValidatePath(listPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.FromSlash(resolvedList))
	if err != nil {
		return nil, fmt.Errorf("open list %s: %w", resolvedList, err)
	}
	defer f.Close()

	listDir := filepath.Dir(filepath.FromSlash(resolvedList))
	var attachments []core.Attachment
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		entry := strings.TrimSpace(scanner.Text())
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}
		p := entry
		if !filepath.IsAbs(p) {
			p = filepath.Join(listDir, p)
		}
		att, fileErr := c.File(alias+"/"+filepath.Base(entry), p)
		if fileErr != nil {
			return nil, fmt.Errorf("list %s line %d: %w", listPath, line, fileErr)
		}
		attachments = append(attachments, att)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list %s: %w", resolvedList, err)
	}
	return attachments, nil
}
