package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vid2txt/internal/domain"
)

// TestCheckerRunAllPass validates the happy-path report.
func TestCheckerRunAllPass(t *testing.T) {
	root := t.TempDir()
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(Options{
		NeedDownloader: true,
		ModelsDir:      filepath.Join(root, "models"),
		OutputDir:      filepath.Join(root, "out"),
	})

	if report.HasFailures {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
	if len(report.Items) != 5 {
		t.Fatalf("items = %d, want 5 with downloader check", len(report.Items))
	}
}

// TestCheckerRunSkipsDownloaderForLocalInputs omits the yt-dlp check.
func TestCheckerRunSkipsDownloaderForLocalInputs(t *testing.T) {
	root := t.TempDir()
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(Options{
		NeedDownloader: false,
		ModelsDir:      filepath.Join(root, "models"),
		OutputDir:      filepath.Join(root, "out"),
	})

	for _, item := range report.Items {
		if item.ID == "tool_yt-dlp" {
			t.Fatal("yt-dlp check should be skipped for local inputs")
		}
	}
}

// TestCheckerRunMissingTools validates failure reporting for absent tools.
func TestCheckerRunMissingTools(t *testing.T) {
	root := t.TempDir()
	checker := NewCheckerForTests(
		func(string) (string, error) { return "", errors.New("not found") },
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(Options{
		NeedDownloader: true,
		ModelsDir:      filepath.Join(root, "models"),
		OutputDir:      filepath.Join(root, "out"),
	})

	if !report.HasFailures {
		t.Fatal("expected failures")
	}
	assertStatusByID(t, report, "tool_ffmpeg", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "tool_whisper-cli", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "tool_yt-dlp", domain.DiagnosticStatusFail)
}

// TestCheckerRunEmptyDirsFail validates the directory checks.
func TestCheckerRunEmptyDirsFail(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(Options{})
	assertStatusByID(t, report, "models_dir", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "output_dir", domain.DiagnosticStatusFail)
}

// TestCheckerRunUnwritableDir validates the write probe.
func TestCheckerRunUnwritableDir(t *testing.T) {
	root := t.TempDir()
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.MkdirAll,
		func(string, string) (*os.File, error) { return nil, errors.New("read-only") },
		os.Remove,
	)

	report := checker.Run(Options{
		ModelsDir: filepath.Join(root, "models"),
		OutputDir: filepath.Join(root, "out"),
	})
	assertStatusByID(t, report, "output_dir", domain.DiagnosticStatusFail)
}

// assertStatusByID checks status for one diagnostic item by ID.
func assertStatusByID(t *testing.T, report domain.DiagnosticReport, id string, want domain.DiagnosticStatus) {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			if item.Status != want {
				t.Fatalf("item %s: got %s, want %s", id, item.Status, want)
			}
			return
		}
	}
	t.Fatalf("diagnostic item not found: %s", id)
}
