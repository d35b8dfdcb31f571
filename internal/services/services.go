// package services defines the external collaborators of the download queue
//
// Spotify (metadata), YouTube Music (search, via proxy), yt-dlp (fetch)
package services

import (
	"context"
)

// MetadataProvider resolves Spotify ids into track listings.
type MetadataProvider interface {
	// Track retrieves a single track by ID.
	Track(ctx context.Context, trackID string) (*SpotifyTrack, error)

	// Album retrieves album metadata by ID.
	Album(ctx context.Context, albumID string) (*SpotifyAlbum, error)

	// AlbumTracks retrieves one page of an album's tracks.
	AlbumTracks(ctx context.Context, albumID string, limit, offset int) (*SpotifyAlbumTracksPage, error)

	// Playlist retrieves a playlist's name and track total.
	Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error)

	// PlaylistItems retrieves one page of a playlist's tracks.
	PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*SpotifyPlaylistItemsPage, error)
}

// Searcher queries YouTube Music.
type Searcher interface {
	// Search returns at most limit results for query. An empty filter searches all categories.
	Search(ctx context.Context, query, filter string, limit int) ([]SearchResult, error)
}

// Fetcher downloads, transcodes and tags a single video.
type Fetcher interface {
	// Fetch downloads req.URL to req.OutputPath plus the audio extension.
	// progress may be nil.
	Fetch(ctx context.Context, req FetchRequest, progress func(FetchProgress)) error
}

// SearchResult is one entry of a YouTube Music search.
type SearchResult struct {
	VideoID    string          `json:"videoId"`
	Title      string          `json:"title"`
	Artists    []YouTubeArtist `json:"artists"`
	Category   string          `json:"category"`
	ResultType string          `json:"resultType"`
}

// ArtistNames lists the artist names of the result in order.
func (r SearchResult) ArtistNames() []string {
	names := make([]string, 0, len(r.Artists))
	for _, a := range r.Artists {
		names = append(names, a.Name)
	}
	return names
}

// FetchRequest describes one download.
type FetchRequest struct {
	URL string
	// OutputPath is the destination without extension.
	OutputPath string

	Title       string
	Artist      string
	Album       string
	TrackNumber int
}

// FetchProgress is reported while bytes are being downloaded.
type FetchProgress struct {
	Percent         float64
	DownloadedBytes int
	TotalBytes      int
	Speed           string
}
