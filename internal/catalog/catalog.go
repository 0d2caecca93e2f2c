// Package catalog fetches and caches the whisper.cpp model listing from
// Hugging Face.
package catalog

import (
	"regexp"
	"sort"
	"strings"
)

// File is one downloadable model descriptor from the repository listing.
// Size is in bytes; zero or negative means unknown.
type File struct {
	RFilename string `json:"rfilename"`
	Size      int64  `json:"size,omitempty"`
}

// repoModel mirrors the Hugging Face model API response shape. The raw
// structure is what gets persisted to the cache file.
type repoModel struct {
	Siblings []File `json:"siblings"`
}

// modelNamePattern accepts legacy ggml .bin and newer .gguf file names.
var modelNamePattern = regexp.MustCompile(`^ggml-.*\.(bin|gguf)$`)

// IsQuantizedName reports whether a model file name looks like a reduced
// precision variant. Substring heuristics tuned for the whisper.cpp repo;
// used for ordering and labels only.
func IsQuantizedName(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "-q") || strings.Contains(n, ".q") ||
		strings.Contains(n, "-q5") || strings.Contains(n, "-q8")
}

// FilterAndSort keeps only recognizable model files and orders them by a
// two-level key: entries whose quantization status matches the caller's
// preference first, then lowercased name ascending. The sort is stable and
// deterministic for a given input set and preference flag.
func FilterAndSort(files []File, preferQuantized bool) []File {
	kept := make([]File, 0, len(files))
	for _, f := range files {
		if modelNamePattern.MatchString(f.RFilename) {
			kept = append(kept, f)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		ni := strings.ToLower(kept[i].RFilename)
		nj := strings.ToLower(kept[j].RFilename)
		pi := preferencePenalty(ni, preferQuantized)
		pj := preferencePenalty(nj, preferQuantized)
		if pi != pj {
			return pi < pj
		}
		return ni < nj
	})

	return kept
}

// preferencePenalty is 0 when the name's quantization status matches the
// preference and 1 otherwise.
func preferencePenalty(lowerName string, preferQuantized bool) int {
	if IsQuantizedName(lowerName) == preferQuantized {
		return 0
	}
	return 1
}
