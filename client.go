package ostruct

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yaniv-golan/ostruct-go/core"
	"github.com/yaniv-golan/ostruct-go/internal/attach"
	"github.com/yaniv-golan/ostruct-go/internal/uploadcache"
)

// Client attaches local files for prompt and tool use. Every path is
// validated by the SecurityManager before any content is read.
type Client struct {
	security  *SecurityManager
	collector *attach.Collector
	cache     *uploadcache.Cache
	logger    *slog.Logger
}

// NewClient creates a client rooted at baseDir. An empty baseDir means the
// current working directory.
//
// By default a content-addressed upload cache is kept under the user cache
// directory. Use WithCacheDir to relocate it or WithoutCache to disable it.
func NewClient(baseDir string, opts ...ClientOption) (*Client, error) {
	cfg := clientConfig{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	secOpts := append([]SecurityOption{WithSecurityLogger(cfg.logger)}, cfg.security...)
	security, err := NewSecurityManager(baseDir, secOpts...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		security:  security,
		collector: attach.NewCollector(security, cfg.logger),
		logger:    cfg.logger,
	}

	if !cfg.noCache {
		dir := cfg.cacheDir
		if dir == "" {
			base, cacheErr := os.UserCacheDir()
			if cacheErr != nil {
				return nil, fmt.Errorf("locate cache directory: %w", cacheErr)
			}
			dir = filepath.Join(base, "ostruct")
		}
		cache, cacheErr := uploadcache.New(dir, cfg.logger)
		if cacheErr != nil {
			return nil, fmt.Errorf("create upload cache: %w", cacheErr)
		}
		c.cache = cache
	}

	return c, nil
}

// Security returns the client's SecurityManager.
func (c *Client) Security() *SecurityManager { return c.security }

// Cache returns the upload cache, or nil when caching is disabled.
func (c *Client) Cache() *uploadcache.Cache { return c.cache }

// AttachFile validates a single file and returns it as an attachment.
// Any rejection is a *SecurityError carrying the reason code.
func (c *Client) AttachFile(alias, path string) (Attachment, error) {
	att, err := c.collector.File(alias, path)
	if err != nil {
		return Attachment{}, err
	}
	return c.fingerprint(att)
}

// AttachDir validates a directory and attaches the files inside it.
// Each file is validated individually; the first rejection aborts the whole
// directory.
func (c *Client) AttachDir(alias, dir string, opts ...AttachOption) ([]Attachment, error) {
	cfg := attachConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	scope := c.security.CaseScope()
	defer scope.Close()

	atts, err := c.collector.Dir(alias, dir, cfg.recursive, cfg.pattern)
	if err != nil {
		return nil, err
	}
	return c.fingerprintAll(atts)
}

// Collect attaches every file named in a newline-separated list file.
// Relative entries resolve against the list file's directory.
func (c *Client) Collect(alias, listPath string) ([]Attachment, error) {
	scope := c.security.CaseScope()
	defer scope.Close()

	atts, err := c.collector.CollectList(alias, listPath)
	if err != nil {
		return nil, err
	}
	return c.fingerprintAll(atts)
}

// fingerprint runs the attachment through the upload cache, recording its
// content digest so unchanged files can skip re-upload.
func (c *Client) fingerprint(att core.Attachment) (Attachment, error) {
	if c.cache == nil {
		return att, nil
	}
	dgst, hit, err := c.cache.Put(filepath.FromSlash(att.Path))
	if err != nil {
		return Attachment{}, fmt.Errorf("cache %s: %w", att.Path, err)
	}
	att.Digest = dgst.String()
	if hit {
		c.logger.Debug("attachment unchanged", "alias", att.Alias, "digest", att.Digest)
	}
	return att, nil
}

func (c *Client) fingerprintAll(atts []core.Attachment) ([]Attachment, error) {
	out := make([]Attachment, 0, len(atts))
	for _, att := range atts {
		fp, err := c.fingerprint(att)
		if err != nil {
			return nil, err
		}
		out = append(out, fp)
	}
	return out, nil
}
