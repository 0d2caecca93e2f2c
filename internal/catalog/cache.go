package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultEndpoint lists the repo files including sizes.
	DefaultEndpoint = "https://huggingface.co/api/models/ggerganov/whisper.cpp?expand=siblings"

	// CacheTTL is the freshness window for the on-disk listing. The cache
	// is trusted by modification time only; beyond the window a network
	// fetch is required and stale data is never served silently.
	CacheTTL = 24 * time.Hour

	userAgent = "vid2txt"
)

// ErrUnavailable is returned when neither a fresh fetch nor a usable cache
// can produce a listing.
var ErrUnavailable = errors.New("model catalog unavailable")

// httpDoer abstracts the HTTP client for testability.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Service fetches the model listing with a time-based cache-with-fallback
// policy. Clock and filesystem accessors are injectable so freshness logic
// is testable without real delays or network.
type Service struct {
	endpoint  string
	cachePath string
	client    httpDoer
	now       func() time.Time
	stat      func(string) (os.FileInfo, error)
	readFile  func(string) ([]byte, error)
	writeFile func(string, []byte, os.FileMode) error
	mkdirAll  func(string, os.FileMode) error
}

// NewService constructs the production catalog service. The cache file
// lives under the platform cache directory.
func NewService() (*Service, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("resolve cache directory: %w", err)
	}
	return NewServiceWithDeps(
		DefaultEndpoint,
		filepath.Join(base, "vid2txt", "models.json"),
		&http.Client{Timeout: 2 * time.Minute},
		time.Now,
		os.Stat,
		os.ReadFile,
		os.WriteFile,
		os.MkdirAll,
	), nil
}

// NewServiceWithDeps constructs a service with injectable dependencies.
func NewServiceWithDeps(
	endpoint string,
	cachePath string,
	client httpDoer,
	now func() time.Time,
	stat func(string) (os.FileInfo, error),
	readFile func(string) ([]byte, error),
	writeFile func(string, []byte, os.FileMode) error,
	mkdirAll func(string, os.FileMode) error,
) *Service {
	return &Service{
		endpoint:  endpoint,
		cachePath: cachePath,
		client:    client,
		now:       now,
		stat:      stat,
		readFile:  readFile,
		writeFile: writeFile,
		mkdirAll:  mkdirAll,
	}
}

// CachePath returns the on-disk location of the cached listing.
func (s *Service) CachePath() string {
	return s.cachePath
}

// Fetch returns the filtered, preference-ordered model listing. Unless
// refresh is set, a cache file modified within CacheTTL is served without
// touching the network; any cache miss, staleness, or parse failure falls
// through to a fetch. A successful fetch persists the raw listing back to
// the cache file on a best-effort basis.
func (s *Service) Fetch(ctx context.Context, refresh bool, preferQuantized bool) ([]File, error) {
	if !refresh {
		if files, ok := s.loadFreshCache(); ok {
			return FilterAndSort(files, preferQuantized), nil
		}
	}

	model, err := s.fetchRemote(ctx)
	if err != nil {
		return nil, err
	}

	s.persist(model)
	return FilterAndSort(model.Siblings, preferQuantized), nil
}

// loadFreshCache reads the cache file when its mtime is inside the
// freshness window and it parses cleanly.
func (s *Service) loadFreshCache() ([]File, bool) {
	info, err := s.stat(s.cachePath)
	if err != nil {
		return nil, false
	}
	if s.now().Sub(info.ModTime()) >= CacheTTL {
		return nil, false
	}

	data, err := s.readFile(s.cachePath)
	if err != nil {
		return nil, false
	}

	var model repoModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, false
	}
	return model.Siblings, true
}

// fetchRemote performs the network fetch. Transport errors and non-success
// statuses surface as ErrUnavailable; there is no retry.
func (s *Service) fetchRemote(ctx context.Context) (repoModel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return repoModel{}, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return repoModel{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return repoModel{}, fmt.Errorf("%w: listing request returned %s", ErrUnavailable, resp.Status)
	}

	var model repoModel
	if err := json.NewDecoder(resp.Body).Decode(&model); err != nil {
		return repoModel{}, fmt.Errorf("%w: decode listing: %v", ErrUnavailable, err)
	}
	return model, nil
}

// persist writes the raw listing back to the cache file. Failures are
// swallowed: a broken cache must not fail a successful fetch.
func (s *Service) persist(model repoModel) {
	data, err := json.Marshal(model)
	if err != nil {
		return
	}
	if err := s.mkdirAll(filepath.Dir(s.cachePath), 0o755); err != nil {
		return
	}
	_ = s.writeFile(s.cachePath, data, 0o644)
}
