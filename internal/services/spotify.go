// Spotify Web API implementation of [MetadataProvider]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/spottube/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// playlistItemFields trims playlist item pages down to what the queue needs.
	playlistItemFields = "items.track(name,artists.name,track_number,album(name,images))"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
}

// SpotifyTrack represents a Spotify track. Album is absent on album track pages.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       *SpotifyAlbum   `json:"album"`
	TrackNumber int             `json:"track_number"`
	DurationMS  int             `json:"duration_ms"`
}

// ArtistNames joins the track's artist names with ", ".
func (t SpotifyTrack) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

// SpotifyAlbumTracksPage is a paginated response of an album's tracks.
type SpotifyAlbumTracksPage struct {
	Items  []SpotifyTrack `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}

// SpotifyPlaylistTracks is the track summary embedded in a playlist.
type SpotifyPlaylistTracks struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents the playlist fields the lister reads.
type SpotifyPlaylist struct {
	ID     string                `json:"id"`
	Name   string                `json:"name"`
	Tracks SpotifyPlaylistTracks `json:"tracks"`
}

// SpotifyPlaylistItem is a playlist entry. Track is nil for removed or local items.
type SpotifyPlaylistItem struct {
	Track *SpotifyTrack `json:"track"`
}

// SpotifyPlaylistItemsPage is a paginated response of playlist entries.
type SpotifyPlaylistItemsPage struct {
	Items []SpotifyPlaylistItem `json:"items"`
}

// LinkKind is the kind of resource a Spotify link points at.
type LinkKind string

const (
	LinkTrack    LinkKind = "track"
	LinkAlbum    LinkKind = "album"
	LinkPlaylist LinkKind = "playlist"
)

// ParseLink extracts the resource kind and ID from an open.spotify.com URL or a spotify: URI.
//
// A kind segment containing "track" is a track, one containing "album" is an album
// and anything else is treated as a playlist.
func ParseLink(link string) (LinkKind, string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", "", fmt.Errorf("%w: empty link", shared.ErrInvalidLink)
	}

	var segments []string
	if strings.HasPrefix(link, "spotify:") {
		segments = strings.Split(strings.TrimPrefix(link, "spotify:"), ":")
	} else {
		u, err := url.Parse(link)
		if err != nil || !strings.HasSuffix(u.Host, "spotify.com") {
			return "", "", fmt.Errorf("%w: %s", shared.ErrInvalidLink, link)
		}
		for _, seg := range strings.Split(u.Path, "/") {
			if seg == "" || seg == "embed" || strings.HasPrefix(seg, "intl-") {
				continue
			}
			segments = append(segments, seg)
		}
	}

	if len(segments) < 2 || segments[len(segments)-1] == "" {
		return "", "", fmt.Errorf("%w: %s", shared.ErrInvalidLink, link)
	}

	kindSeg, id := segments[len(segments)-2], segments[len(segments)-1]
	switch {
	case strings.Contains(kindSeg, "track"):
		return LinkTrack, id, nil
	case strings.Contains(kindSeg, "album"):
		return LinkAlbum, id, nil
	default:
		return LinkPlaylist, id, nil
	}
}

// SpotifyService implements [MetadataProvider] against the Spotify Web API.
// Uses the client-credentials flow; no user login is involved.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a new Spotify service with the given client credentials.
//
// The optional "token_url" key overrides the accounts endpoint. The context bounds token refreshes.
func NewSpotifyService(ctx context.Context, credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	tokenURL := credentials["token_url"]
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}

	return &SpotifyService{
		baseURL:    spotifyBaseURL,
		httpClient: config.Client(ctx),
	}, nil
}

// WithBaseURL points the service at a different API root.
func (s *SpotifyService) WithBaseURL(baseURL string) *SpotifyService {
	s.baseURL = strings.TrimSuffix(baseURL, "/")
	return s
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			return fmt.Errorf("%w: spotify status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Error.Message)
		}
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	var track SpotifyTrack
	if err := s.doRequest(ctx, "/tracks/"+url.PathEscape(trackID), &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// Album retrieves album metadata by ID.
func (s *SpotifyService) Album(ctx context.Context, albumID string) (*SpotifyAlbum, error) {
	var album SpotifyAlbum
	if err := s.doRequest(ctx, "/albums/"+url.PathEscape(albumID), &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// AlbumTracks retrieves one page of an album's tracks (limit capped at 50).
func (s *SpotifyService) AlbumTracks(ctx context.Context, albumID string, limit, offset int) (*SpotifyAlbumTracksPage, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/albums/%s/tracks?limit=%d&offset=%d", url.PathEscape(albumID), limit, offset)

	var page SpotifyAlbumTracksPage
	if err := s.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Playlist retrieves a playlist's name and track total.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	q := url.Values{"fields": {"id,name,tracks.total"}}
	endpoint := "/playlists/" + url.PathEscape(playlistID) + "?" + q.Encode()

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, endpoint, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistItems retrieves one page of a playlist's tracks (limit capped at 100).
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*SpotifyPlaylistItemsPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	q := url.Values{}
	q.Set("fields", playlistItemFields)
	q.Set("limit", fmt.Sprint(limit))
	q.Set("offset", fmt.Sprint(offset))
	endpoint := "/playlists/" + url.PathEscape(playlistID) + "/tracks?" + q.Encode()

	var page SpotifyPlaylistItemsPage
	if err := s.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
