// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spottube/internal/services"
)

// MockProvider is an in-memory [services.MetadataProvider].
//
// Album and playlist items are paged according to the limit and offset the caller asks for.
type MockProvider struct {
	Tracks          map[string]*services.SpotifyTrack
	Albums          map[string]*services.SpotifyAlbum
	AlbumItems      map[string][]services.SpotifyTrack
	Playlists       map[string]*services.SpotifyPlaylist
	PlaylistEntries map[string][]services.SpotifyPlaylistItem
	Err             error

	mu    sync.Mutex
	calls []string
}

func (m *MockProvider) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls lists the provider calls in order, as "method id limit offset".
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockProvider) Track(ctx context.Context, id string) (*services.SpotifyTrack, error) {
	m.record("track " + id)
	if m.Err != nil {
		return nil, m.Err
	}
	if t, ok := m.Tracks[id]; ok {
		return t, nil
	}
	return nil, errors.New("track not found")
}

func (m *MockProvider) Album(ctx context.Context, id string) (*services.SpotifyAlbum, error) {
	m.record("album " + id)
	if m.Err != nil {
		return nil, m.Err
	}
	if a, ok := m.Albums[id]; ok {
		return a, nil
	}
	return nil, errors.New("album not found")
}

func (m *MockProvider) AlbumTracks(ctx context.Context, id string, limit, offset int) (*services.SpotifyAlbumTracksPage, error) {
	m.record(fmt.Sprintf("album_tracks %s %d %d", id, limit, offset))
	if m.Err != nil {
		return nil, m.Err
	}
	items := m.AlbumItems[id]
	page := &services.SpotifyAlbumTracksPage{Total: len(items), Limit: limit, Offset: offset}
	page.Items = window(items, limit, offset)
	if offset+limit < len(items) {
		next := fmt.Sprintf("offset=%d", offset+limit)
		page.Next = &next
	}
	return page, nil
}

func (m *MockProvider) Playlist(ctx context.Context, id string) (*services.SpotifyPlaylist, error) {
	m.record("playlist " + id)
	if m.Err != nil {
		return nil, m.Err
	}
	if p, ok := m.Playlists[id]; ok {
		return p, nil
	}
	return nil, errors.New("playlist not found")
}

func (m *MockProvider) PlaylistItems(ctx context.Context, id string, limit, offset int) (*services.SpotifyPlaylistItemsPage, error) {
	m.record(fmt.Sprintf("playlist_items %s %d %d", id, limit, offset))
	if m.Err != nil {
		return nil, m.Err
	}
	return &services.SpotifyPlaylistItemsPage{Items: window(m.PlaylistEntries[id], limit, offset)}, nil
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

// SpotifyTrack builds a provider track with the given artists.
func SpotifyTrack(name string, artists ...string) services.SpotifyTrack {
	t := services.SpotifyTrack{Name: name}
	for _, a := range artists {
		t.Artists = append(t.Artists, services.SpotifyArtist{Name: a})
	}
	return t
}

// MockMatcher answers searches from a title keyed table.
type MockMatcher struct {
	Links map[string]string
	Errs  map[string]error
	// Default is returned for titles missing from Links.
	Default string
}

func (m *MockMatcher) FindBestMatch(ctx context.Context, artist, title string) (string, error) {
	if err := m.Errs[title]; err != nil {
		return "", err
	}
	if link, ok := m.Links[title]; ok {
		return link, nil
	}
	return m.Default, nil
}

// MockFetcher is a [services.Fetcher] that records requests.
type MockFetcher struct {
	// Err fails every fetch.
	Err error
	// Panic makes Fetch panic with this value when non-nil.
	Panic any
	// CreateFiles writes an empty OutputPath+".mp3" on success.
	CreateFiles bool
	// Progress is reported to the callback in order before returning.
	Progress []float64
	// Block, when non-nil, holds every fetch until it is closed or the context ends.
	Block chan struct{}
	// Started receives one value per fetch that begins, if non-nil.
	Started chan string

	mu       sync.Mutex
	requests []services.FetchRequest
	active   int
	peak     int
}

func (m *MockFetcher) Fetch(ctx context.Context, req services.FetchRequest, progress func(services.FetchProgress)) error {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.active++
	m.peak = max(m.peak, m.active)
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}()

	if m.Started != nil {
		m.Started <- req.Title
	}
	if m.Panic != nil {
		panic(m.Panic)
	}
	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for _, p := range m.Progress {
		if progress != nil {
			progress(services.FetchProgress{Percent: p})
		}
	}
	if m.Err != nil {
		return m.Err
	}
	if m.CreateFiles {
		return os.WriteFile(req.OutputPath+".mp3", nil, 0644)
	}
	return nil
}

// Requests lists the fetches made so far.
func (m *MockFetcher) Requests() []services.FetchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]services.FetchRequest(nil), m.requests...)
}

// Peak is the highest number of concurrent fetches observed.
func (m *MockFetcher) Peak() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// Eventually polls cond until it holds or timeout elapses.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
