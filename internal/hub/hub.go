// Package hub downloads model files from a Hugging Face compatible hub.
package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/recall-scorer/internal/config"
)

// Client fetches repository files and keeps them in a local cache.
type Client struct {
	endpoint string
	token    string
	revision string
	cacheDir string
	http     *http.Client
}

// New creates a hub Client from config.
func New(cfg config.HuggingFaceConfig) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		token:    cfg.Token,
		revision: cfg.Revision,
		cacheDir: cfg.CacheDir,
		http:     &http.Client{Timeout: 2 * time.Minute},
	}
}

// CachePath is where file of repo is stored locally.
func (c *Client) CachePath(repo, file string) string {
	return filepath.Join(c.cacheDir, strings.ReplaceAll(repo, "/", "--"), c.revision, file)
}

// Fetch returns the local path of file in repo, downloading it on first use.
func (c *Client) Fetch(ctx context.Context, repo, file string) (string, error) {
	dest := c.CachePath(repo, file)
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	url := fmt.Sprintf("%s/%s/resolve/%s/%s", c.endpoint, repo, c.revision, file)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s/%s: %w", repo, file, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("download %s/%s: status %d: %s", repo, file, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Tokenizer files are small; 512MB guards against a wrong URL.
	if _, err := io.Copy(tmp, io.LimitReader(resp.Body, 512<<20)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("save %s: %w", file, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("save %s: %w", file, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("save %s: %w", file, err)
	}
	return dest, nil
}
