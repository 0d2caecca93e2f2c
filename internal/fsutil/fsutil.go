// Package fsutil holds small filesystem helpers shared by the pipeline.
package fsutil

import (
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// mediaExtensions is the probe order for inputs given without an extension.
var mediaExtensions = []string{
	"mp4", "mkv", "webm", "mov", "m4a", "mp3",
	"wav", "flac", "avi", "m4v", "aac", "opus",
}

// MediaExtensionHint lists the probed extensions for error messages.
func MediaExtensionHint() string {
	parts := make([]string, 0, len(mediaExtensions))
	for _, ext := range mediaExtensions {
		parts = append(parts, "."+ext)
	}
	return strings.Join(parts, " ")
}

// InferWithExtension resolves a candidate media path that may lack an
// extension. An existing candidate is returned as-is. A candidate whose
// final segment already carries an extension is never guessed over.
// Otherwise sibling files stem.<ext> are probed in a fixed order and the
// first hit wins. No mutation, no network.
func InferWithExtension(candidate string) (string, bool) {
	if _, err := os.Stat(candidate); err == nil {
		return candidate, true
	}

	base := filepath.Base(candidate)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", false
	}
	// For a dotfile like ".hidden" Ext returns the whole name; that is a
	// hidden extensionless file, not a qualified one.
	if ext := filepath.Ext(base); ext != "" && ext != base {
		return "", false
	}

	parent := filepath.Dir(candidate)
	for _, ext := range mediaExtensions {
		probe := filepath.Join(parent, base+"."+ext)
		if _, err := os.Stat(probe); err == nil {
			return probe, true
		}
	}
	return "", false
}

// FindFirstWithExt walks dir and returns the first regular file whose
// extension matches ext (case-insensitive, without leading dot).
func FindFirstWithExt(dir, ext string) (string, bool) {
	want := strings.ToLower(strings.TrimPrefix(ext, "."))
	var found string

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		got := strings.ToLower(strings.TrimPrefix(filepath.Ext(d.Name()), "."))
		if got == want {
			found = path
			return fs.SkipAll
		}
		return nil
	})

	return found, found != ""
}

// SanitizeBaseName derives a filesystem-safe base name from a media file
// path: the file stem with reserved characters replaced and surrounding
// dots/spaces trimmed. Falls back to "audio" when nothing survives.
func SanitizeBaseName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '?', '%', '*', ':', '|', '"', '<', '>':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, stem)

	cleaned = strings.Trim(cleaned, " .")
	if cleaned == "" {
		return "audio"
	}
	return cleaned
}

// WhisperModelsDir resolves the model directory as a "models" folder next
// to the whisper-cli binary. lookPath is injectable for tests; pass nil
// for exec.LookPath.
func WhisperModelsDir(lookPath func(string) (string, error)) (string, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	cliPath, err := lookPath("whisper-cli")
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(cliPath), "models"), nil
}
