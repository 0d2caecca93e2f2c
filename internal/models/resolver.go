// Package models resolves user-supplied model identifiers to local files,
// downloading catalog entries on demand.
package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vid2txt/internal/catalog"
)

// ErrModelNotFound is returned when an alias matches nothing in the
// catalog and no existing path or local file matched either.
var ErrModelNotFound = errors.New("model not found")

// downloader materializes a catalog entry into destDir and returns the
// local path. Isolated behind an interface so resolution logic is testable
// against an in-memory catalog.
type downloader interface {
	Download(ctx context.Context, filename, destDir string) (string, error)
}

// Resolver turns a model identifier (path, filename, or alias) into a
// concrete local model path.
type Resolver struct {
	modelsDir  string
	stat       func(string) (os.FileInfo, error)
	downloader downloader
}

// NewResolver builds a resolver over the given model directory.
func NewResolver(modelsDir string, dl downloader) *Resolver {
	return &Resolver{
		modelsDir:  modelsDir,
		stat:       os.Stat,
		downloader: dl,
	}
}

// NewResolverForTests builds a resolver with an injectable stat.
func NewResolverForTests(modelsDir string, dl downloader, stat func(string) (os.FileInfo, error)) *Resolver {
	return &Resolver{
		modelsDir:  modelsDir,
		stat:       stat,
		downloader: dl,
	}
}

// Resolve applies the resolution order, first success wins: an existing
// path is returned verbatim; an existing file under the model directory is
// returned; otherwise the input is treated as a catalog alias and the best
// match is downloaded if missing.
func (r *Resolver) Resolve(ctx context.Context, userInput string, files []catalog.File, preferQuantized bool) (string, error) {
	if _, err := r.stat(userInput); err == nil {
		return userInput, nil
	}

	local := filepath.Join(r.modelsDir, userInput)
	if _, err := r.stat(local); err == nil {
		return local, nil
	}

	match, err := PickCandidate(userInput, files, preferQuantized)
	if err != nil {
		return "", err
	}

	path, err := r.downloader.Download(ctx, match.RFilename, r.modelsDir)
	if err != nil {
		return "", fmt.Errorf("download model %s: %w", match.RFilename, err)
	}
	return path, nil
}

// PickCandidate selects the best catalog entry for an alias: filter by
// case-insensitive substring, then minimize (preference penalty,
// lowercased name). Pure function, no I/O.
func PickCandidate(alias string, files []catalog.File, preferQuantized bool) (catalog.File, error) {
	needle := strings.ToLower(alias)

	var best catalog.File
	bestPenalty := -1
	bestName := ""

	for _, f := range files {
		name := strings.ToLower(f.RFilename)
		if !strings.Contains(name, needle) {
			continue
		}

		penalty := 1
		if catalog.IsQuantizedName(name) == preferQuantized {
			penalty = 0
		}

		if bestPenalty < 0 || penalty < bestPenalty || (penalty == bestPenalty && name < bestName) {
			best = f
			bestPenalty = penalty
			bestName = name
		}
	}

	if bestPenalty < 0 {
		return catalog.File{}, fmt.Errorf("%w: nothing matches %q", ErrModelNotFound, alias)
	}
	return best, nil
}
