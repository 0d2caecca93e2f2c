package models

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeClient serves a canned response and records the requested URL.
type fakeClient struct {
	status  int
	body    string
	err     error
	lastURL string
	calls   int
}

func (c *fakeClient) Do(req *http.Request) (*http.Response, error) {
	c.calls++
	c.lastURL = req.URL.String()
	if c.err != nil {
		return nil, c.err
	}
	return &http.Response{
		StatusCode:    c.status,
		Status:        http.StatusText(c.status),
		Body:          io.NopCloser(strings.NewReader(c.body)),
		ContentLength: int64(len(c.body)),
		Request:       req,
	}, nil
}

// TestDownloadWritesFileAndReportsProgress checks the happy path.
func TestDownloadWritesFileAndReportsProgress(t *testing.T) {
	client := &fakeClient{status: http.StatusOK, body: "model-bytes"}

	var lastDownloaded, lastTotal int64
	dl := NewHTTPDownloaderForTests("http://unit.test/resolve/", client, func(downloaded, total int64) {
		lastDownloaded = downloaded
		lastTotal = total
	})

	destDir := filepath.Join(t.TempDir(), "models")
	got, err := dl.Download(context.Background(), "ggml-base.bin", destDir)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "model-bytes" {
		t.Fatalf("content = %q", data)
	}
	if lastDownloaded != int64(len("model-bytes")) || lastTotal != int64(len("model-bytes")) {
		t.Fatalf("progress = %d/%d", lastDownloaded, lastTotal)
	}
	if client.lastURL != "http://unit.test/resolve/ggml-base.bin?download=true" {
		t.Fatalf("url = %s", client.lastURL)
	}
}

// TestDownloadSkipsExistingDestination verifies idempotence.
func TestDownloadSkipsExistingDestination(t *testing.T) {
	destDir := t.TempDir()
	dest := filepath.Join(destDir, "ggml-base.bin")
	if err := os.WriteFile(dest, []byte("already here"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	client := &fakeClient{status: http.StatusOK, body: "new bytes"}
	dl := NewHTTPDownloaderForTests("http://unit.test/", client, nil)

	got, err := dl.Download(context.Background(), "ggml-base.bin", destDir)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if got != dest {
		t.Fatalf("got %q, want %q", got, dest)
	}
	if client.calls != 0 {
		t.Fatalf("network calls = %d, want 0", client.calls)
	}
}

// TestDownloadHTTPError surfaces non-success statuses.
func TestDownloadHTTPError(t *testing.T) {
	client := &fakeClient{status: http.StatusNotFound, body: "missing"}
	dl := NewHTTPDownloaderForTests("http://unit.test/", client, nil)

	if _, err := dl.Download(context.Background(), "ggml-base.bin", t.TempDir()); err == nil {
		t.Fatal("expected HTTP status error")
	}
}

// TestDownloadTransportError surfaces client failures.
func TestDownloadTransportError(t *testing.T) {
	client := &fakeClient{err: errors.New("connection reset")}
	dl := NewHTTPDownloaderForTests("http://unit.test/", client, nil)

	if _, err := dl.Download(context.Background(), "ggml-base.bin", t.TempDir()); err == nil {
		t.Fatal("expected transport error")
	}
}

// TestDownloadLeavesNoTruncatedFile checks a failed stream removes the
// temp file and never creates the final name.
func TestDownloadLeavesNoTruncatedFile(t *testing.T) {
	client := &fakeClient{status: http.StatusOK, body: "partial"}
	dl := NewHTTPDownloaderForTests("http://unit.test/", client, nil)
	// Replace the body with a reader that fails midway.
	client.body = ""
	clientErr := &failingBodyClient{}
	dl.client = clientErr

	destDir := t.TempDir()
	if _, err := dl.Download(context.Background(), "ggml-base.bin", destDir); err == nil {
		t.Fatal("expected stream error")
	}

	if _, err := os.Stat(filepath.Join(destDir, "ggml-base.bin")); err == nil {
		t.Fatal("final file should not exist after failed download")
	}
	if _, err := os.Stat(filepath.Join(destDir, "ggml-base.bin.download")); err == nil {
		t.Fatal("temp file should be cleaned up after failed download")
	}
}

// failingBodyClient responds OK but the body errors after a few bytes.
type failingBodyClient struct{}

func (c *failingBodyClient) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "OK",
		Body: io.NopCloser(io.MultiReader(
			strings.NewReader("abc"),
			&erroringReader{},
		)),
		ContentLength: 100,
		Request:       req,
	}, nil
}

type erroringReader struct{}

func (r *erroringReader) Read([]byte) (int, error) {
	return 0, errors.New("stream interrupted")
}
