package github

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/samuelstevens/ghrel/internal/errs"
)

// DownloadAsset streams the asset at downloadURL to dest, creating parent
// directories as needed. The file is written under a temporary name and
// renamed into place once complete.
func (c *Client) DownloadAsset(ctx context.Context, downloadURL, dest string) error {
	resp, err := c.do(ctx, downloadURL, acceptBinary)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := dest + ".part"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	cleanup := true
	defer func() {
		f.Close()
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	var w io.Writer = f
	if c.progress != nil && resp.ContentLength > 0 {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(c.progress),
			progressbar.OptionSetDescription(path.Base(resp.Request.URL.Path)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		w = io.MultiWriter(f, bar)
	}

	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(w, resp.Body, buf); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.Wrap(errs.Connectivity, err, "Network error downloading %s: %v", downloadURL, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	cleanup = false

	c.logger.Debug("downloaded asset", "url", downloadURL, "dest", dest)
	return nil
}
