package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// DefaultResolveBase is the raw-file download prefix; append the rfilename.
const DefaultResolveBase = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

const downloadBufferSize = 64 * 1024

// ProgressFunc reports transferred versus total bytes; total is zero or
// negative when the server did not send a content length.
type ProgressFunc func(downloaded, total int64)

// httpDoer abstracts the HTTP client for testability.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPDownloader streams model bytes from the remote repository into the
// model directory. Downloads go through a temp file and a final rename so
// an interrupted transfer never leaves a truncated file under the final
// name.
type HTTPDownloader struct {
	baseURL  string
	client   httpDoer
	progress ProgressFunc
}

// NewHTTPDownloader builds a downloader against the default resolve URL.
// progress may be nil.
func NewHTTPDownloader(progress ProgressFunc) *HTTPDownloader {
	return &HTTPDownloader{
		baseURL:  DefaultResolveBase,
		client:   &http.Client{},
		progress: progress,
	}
}

// NewHTTPDownloaderForTests builds a downloader with injectable transport.
func NewHTTPDownloaderForTests(baseURL string, client httpDoer, progress ProgressFunc) *HTTPDownloader {
	return &HTTPDownloader{
		baseURL:  baseURL,
		client:   client,
		progress: progress,
	}
}

// Download fetches filename into destDir and returns the final path. When
// the destination already exists the download is skipped entirely. No
// retries; any transport or storage failure aborts the run.
func (d *HTTPDownloader) Download(ctx context.Context, filename, destDir string) (string, error) {
	dest := filepath.Join(destDir, filename)
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}

	url := d.baseURL + filename + "?download=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "vid2txt")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected HTTP status: %s", resp.Status)
	}

	tmpPath := dest + ".download"
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("remove stale temp file: %w", err)
	}

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	total := resp.ContentLength
	if err := d.copyWithProgress(file, resp.Body, total); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("move model into place: %w", err)
	}
	return dest, nil
}

// copyWithProgress streams fixed-size chunks and reports progress.
func (d *HTTPDownloader) copyWithProgress(dst io.Writer, src io.Reader, total int64) error {
	buf := make([]byte, downloadBufferSize)
	var downloaded int64

	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("write model file: %w", writeErr)
			}
			downloaded += int64(n)
			if d.progress != nil {
				d.progress(downloaded, total)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read download stream: %w", err)
		}
	}
}
