package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/docker/go-units"
)

const (
	defaultUserAgent        = "etics-setup"
	defaultProgressInterval = 5 * time.Second
	partialSuffix           = ".partial"
)

// Request describes a single file to download.
type Request struct {
	// URLs are tried in order until one succeeds.
	URLs []string

	// Dest is the final path of the file.
	Dest string

	// MD5 is the expected hex MD5 of the file. Empty skips the check.
	MD5 string

	// SHA256Prefix is the expected leading hex digits of the file SHA-256.
	// Empty skips the check.
	SHA256Prefix string
}

// Client downloads files over HTTP.
type Client struct {
	httpClient       *http.Client
	userAgent        string
	progressInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithProgressInterval sets how often progress is logged.
func WithProgressInterval(d time.Duration) Option {
	return func(cl *Client) { cl.progressInterval = d }
}

// NewClient creates a download client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:       http.DefaultClient,
		userAgent:        defaultUserAgent,
		progressInterval: defaultProgressInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Download fetches req.Dest from the first URL that succeeds.
// The file is written next to its destination and renamed into place
// once its checksums match, so Dest never holds a partial download.
func (c *Client) Download(ctx context.Context, req Request) error {
	if len(req.URLs) == 0 {
		return fmt.Errorf("%s: %w", req.Dest, ErrNoURLs)
	}

	if err := os.MkdirAll(filepath.Dir(req.Dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var errs []error
	for i, url := range req.URLs {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.downloadOne(ctx, url, req)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}

		errs = append(errs, err)
		if i < len(req.URLs)-1 {
			slog.Warn("Failed to download, trying next mirror", "url", url, "error", err)
		}
	}

	if len(req.URLs) == 1 {
		return errs[0]
	}
	return fmt.Errorf("%s: %w", req.Dest, errors.Join(append(errs, ErrAllMirrorsFailed)...))
}

func (c *Client) downloadOne(ctx context.Context, url string, req Request) (err error) {
	slog.Info("Downloading", "url", url, "dest", req.Dest)
	started := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: status %d: %w", url, resp.StatusCode, ErrBadStatus)
	}

	partial := req.Dest + partialSuffix
	f, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", partial, err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(partial)
		}
	}()

	v := newVerifier(req.MD5, req.SHA256Prefix)
	var w io.Writer = f
	if hw := v.Writer(); hw != nil {
		w = io.MultiWriter(f, hw)
	}

	pr := &progressReader{reader: resp.Body}
	stop := c.reportProgress(url, pr, resp.ContentLength)
	n, err := io.Copy(w, pr)
	stop()
	if err != nil {
		return fmt.Errorf("reading %s: %w", url, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", partial, err)
	}

	if err := v.Verify(); err != nil {
		return fmt.Errorf("%s: %w", url, err)
	}

	if err := os.Rename(partial, req.Dest); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", req.Dest, err)
	}

	slog.Info("Downloaded", "url", url, "size", units.HumanSize(float64(n)), "elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}

// reportProgress logs the transfer periodically until the returned func is called.
func (c *Client) reportProgress(url string, pr *progressReader, total int64) func() {
	if c.progressInterval <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(c.progressInterval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				read := pr.read.Load()
				if total > 0 {
					slog.Info("Download progress",
						"url", url,
						"read", units.HumanSize(float64(read)),
						"total", units.HumanSize(float64(total)),
						"percent", read*100/total)
				} else {
					slog.Info("Download progress", "url", url, "read", units.HumanSize(float64(read)))
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
	}
}

// progressReader counts the bytes read through it.
type progressReader struct {
	reader io.Reader
	read   atomic.Int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.read.Add(int64(n))
	}
	return n, err
}
