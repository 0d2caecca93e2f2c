// Package locator classifies user input as a remote URL or a local path.
package locator

import (
	"regexp"
	"strings"
)

// Kind is the classified form of a user-supplied input string.
type Kind int

const (
	// KindLocal means the input should be treated as a filesystem path.
	KindLocal Kind = iota
	// KindRemote means the input should be handed to the download tool.
	KindRemote
)

// Locator pairs an input string with its classification.
type Locator struct {
	Kind  Kind
	Value string
}

// IsRemote reports whether the locator refers to a remote resource.
func (l Locator) IsRemote() bool {
	return l.Kind == KindRemote
}

var (
	schemePattern = regexp.MustCompile(`(?i)^(?:https?|ftp)://`)

	// One or more dot-separated labels, a letters-only TLD of 2-63 chars,
	// then an optional path/query/fragment with no whitespace. Rejects
	// numeric "TLDs" such as report.v1 or D3.3.
	bareDomainPattern = regexp.MustCompile(`^(?:[A-Za-z0-9-]+\.)+[A-Za-z]{2,63}(?:[/:?#][^\s]*)?$`)
)

// fileExtensions disambiguates bare dotted tokens that match the domain
// pattern but name files, like file.txt or clip.mp4. A token ending in one
// of these with no path, port, query, or fragment stays local.
var fileExtensions = map[string]bool{
	"mp4": true, "mkv": true, "webm": true, "mov": true, "m4a": true,
	"mp3": true, "wav": true, "flac": true, "avi": true, "m4v": true,
	"aac": true, "opus": true,
	"txt": true, "md": true, "srt": true, "vtt": true, "json": true,
	"log": true,
}

// looksLikeBareFileName reports whether s is a plain dotted name whose
// final label is a known file extension. Only applies when no path/port/
// query/fragment follows the labels.
func looksLikeBareFileName(s string) bool {
	if strings.ContainsAny(s, "/:?#") {
		return false
	}
	dot := strings.LastIndexByte(s, '.')
	if dot < 0 {
		return false
	}
	return fileExtensions[strings.ToLower(s[dot+1:])]
}

// Classify decides whether input names a remote resource or a local path.
// Local-path shapes are checked first so strings like `C:\videos\clip` are
// never mistaken for domains. The function is pure: no filesystem or
// network access, and it never fails; unknown shapes classify as local.
func Classify(input string) Locator {
	s := strings.TrimSpace(input)
	if s == "" {
		return Locator{Kind: KindLocal, Value: s}
	}

	if looksLikeLocalPath(s) {
		return Locator{Kind: KindLocal, Value: s}
	}

	if schemePattern.MatchString(s) {
		return Locator{Kind: KindRemote, Value: s}
	}
	if strings.HasPrefix(s, "//") {
		return Locator{Kind: KindRemote, Value: s}
	}
	if bareDomainPattern.MatchString(s) && !looksLikeBareFileName(s) {
		return Locator{Kind: KindRemote, Value: s}
	}

	return Locator{Kind: KindLocal, Value: s}
}

// looksLikeLocalPath recognizes path shapes that must never be treated as
// URLs: dot-relative prefixes, POSIX absolute or home-relative paths,
// Windows drive letters, UNC prefixes, and file:// pseudo-URLs.
func looksLikeLocalPath(s string) bool {
	for _, prefix := range []string{"./", "../", `.\`, `..\`} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "~/") {
		return true
	}
	if len(s) >= 3 && isASCIILetter(s[0]) && s[1] == ':' && (s[2] == '\\' || s[2] == '/') {
		return true
	}
	if strings.HasPrefix(s, `\\`) {
		return true
	}
	if strings.HasPrefix(strings.ToLower(s), "file://") {
		return true
	}
	return false
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
