package cs3

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"
)

// Credential holds the bearer token authorizing gateway calls. The token
// lives in a side-channel file the adapter does not control; expiry is
// discovered reactively when a call fails with an authentication error,
// at which point the file is re-read.
//
// Credential is the only mutable state in the adapter with a lifetime
// beyond a single call. Refresh is safe for concurrent use: overlapping
// refreshes collapse into a single file read.
type Credential struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	token string

	refresh singleflight.Group
}

// LoadCredential reads the token file at path and returns a Credential
// backed by it. A missing or empty token file is an error at
// construction time.
func LoadCredential(path string, logger *slog.Logger) (*Credential, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Credential{path: path, logger: logger}

	token, err := readTokenFile(path)
	if err != nil {
		return nil, err
	}

	c.token = token

	return c, nil
}

// Token returns the current bearer token.
func (c *Credential) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.token
}

// Refresh re-reads the token file. Concurrent callers share one read:
// when two calls fail auth at the same time, the file is read once and
// both observe the new token.
func (c *Credential) Refresh() error {
	_, err, _ := c.refresh.Do("token", func() (any, error) {
		token, readErr := readTokenFile(c.path)
		if readErr != nil {
			return nil, readErr
		}

		c.mu.Lock()
		c.token = token
		c.mu.Unlock()

		c.logger.Debug("credential refreshed", slog.String("path", c.path))

		return nil, nil
	})

	return err
}

// Watch reloads the token whenever the side-channel file changes, so
// most expiries are absorbed before a call fails. It blocks until ctx
// is done. Reactive refresh in the client remains the fallback; Watch
// is an optimization, not a requirement.
func (c *Credential) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cs3: creating token watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(c.path); err != nil {
		return fmt.Errorf("cs3: watching token file %s: %w", c.path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if err := c.Refresh(); err != nil {
				c.logger.Warn("token reload after file change failed",
					slog.String("path", c.path),
					slog.String("error", err.Error()),
				)
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			c.logger.Warn("token watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// readTokenFile reads and trims the token file contents.
func readTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cs3: reading token file %s: %w", path, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("cs3: token file %s is empty", path)
	}

	return token, nil
}
