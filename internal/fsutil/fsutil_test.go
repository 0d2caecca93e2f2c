package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestInferWithExtensionExistingPath returns the candidate unchanged.
func TestInferWithExtensionExistingPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, ok := InferWithExtension(path)
	if !ok || got != path {
		t.Fatalf("InferWithExtension(%q) = %q, %v; want same path", path, got, ok)
	}
}

// TestInferWithExtensionProbesSiblings finds clip.mp4 from bare "clip".
func TestInferWithExtensionProbesSiblings(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(real, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, ok := InferWithExtension(filepath.Join(dir, "clip"))
	if !ok || got != real {
		t.Fatalf("got %q, %v; want %q", got, ok, real)
	}
}

// TestInferWithExtensionHonorsProbeOrder prefers mp4 over later extensions.
func TestInferWithExtensionHonorsProbeOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"clip.wav", "clip.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	got, ok := InferWithExtension(filepath.Join(dir, "clip"))
	if !ok || filepath.Base(got) != "clip.mp4" {
		t.Fatalf("got %q, %v; want clip.mp4 first", got, ok)
	}
}

// TestInferWithExtensionSkipsQualifiedNames refuses to guess when the
// missing candidate already has an extension.
func TestInferWithExtensionSkipsQualifiedNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "clip.mkv"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if got, ok := InferWithExtension(filepath.Join(dir, "clip.mp4")); ok {
		t.Fatalf("expected no inference for qualified name, got %q", got)
	}
}

// TestInferWithExtensionProbesDotfiles treats a leading-dot-only name as
// extensionless and probes siblings for it.
func TestInferWithExtensionProbesDotfiles(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, ".hidden.mp4")
	if err := os.WriteFile(real, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, ok := InferWithExtension(filepath.Join(dir, ".hidden"))
	if !ok || got != real {
		t.Fatalf("got %q, %v; want %q", got, ok, real)
	}
}

// TestInferWithExtensionNoMatches returns none for unknown stems.
func TestInferWithExtensionNoMatches(t *testing.T) {
	dir := t.TempDir()
	if got, ok := InferWithExtension(filepath.Join(dir, "missing")); ok {
		t.Fatalf("expected no inference, got %q", got)
	}
}

// TestFindFirstWithExt locates a WAV file in a nested directory.
func TestFindFirstWithExt(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "sub")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want := filepath.Join(nested, "Some_Title.WAV")
	if err := os.WriteFile(want, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, ok := FindFirstWithExt(dir, "wav")
	if !ok || got != want {
		t.Fatalf("got %q, %v; want %q", got, ok, want)
	}
}

// TestFindFirstWithExtEmptyDir reports no match.
func TestFindFirstWithExtEmptyDir(t *testing.T) {
	if got, ok := FindFirstWithExt(t.TempDir(), "wav"); ok {
		t.Fatalf("expected no match, got %q", got)
	}
}

// TestSanitizeBaseName strips reserved characters and the extension.
func TestSanitizeBaseName(t *testing.T) {
	cases := map[string]string{
		"/tmp/Some_Title.wav":     "Some_Title",
		"/tmp/a:b|c<d>.wav":       "a_b_c_d_",
		"/tmp/...wav":             "audio",
		"/tmp/ spaced name .wav":  "spaced name",
		"/tmp/What? Really!.wav":  "What_ Really!",
		"relative/path/track.wav": "track",
	}
	for in, want := range cases {
		if got := SanitizeBaseName(in); got != want {
			t.Errorf("SanitizeBaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestWhisperModelsDir derives the models dir next to the binary.
func TestWhisperModelsDir(t *testing.T) {
	got, err := WhisperModelsDir(func(string) (string, error) {
		return "/opt/whisper/bin/whisper-cli", nil
	})
	if err != nil {
		t.Fatalf("WhisperModelsDir() error = %v", err)
	}
	want := filepath.Join("/opt/whisper/bin", "models")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// TestWhisperModelsDirMissingTool propagates the lookup error.
func TestWhisperModelsDirMissingTool(t *testing.T) {
	if _, err := WhisperModelsDir(func(string) (string, error) {
		return "", os.ErrNotExist
	}); err == nil {
		t.Fatal("expected error for missing whisper-cli")
	}
}
