package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spottube/internal/models"
	"github.com/desertthunder/spottube/internal/services"
	"github.com/desertthunder/spottube/internal/shared"
)

const (
	albumPageSize    = 50
	playlistPageSize = 100
)

// Lister expands a Spotify link into queued track descriptors.
type Lister struct {
	provider services.MetadataProvider
	logger   *log.Logger
}

// NewLister creates a Lister backed by provider.
func NewLister(provider services.MetadataProvider, logger *log.Logger) *Lister {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Lister{provider: provider, logger: logger}
}

// Expand resolves link into descriptors with status Queued.
func (l *Lister) Expand(ctx context.Context, link string) ([]*models.TrackDescriptor, error) {
	return l.ExpandWithProgress(ctx, link, nil)
}

// Reporting returns an [Expander] that sends every expansion's progress to progress.
func (l *Lister) Reporting(progress chan<- ProgressUpdate) Expander {
	return reportingExpander{l, progress}
}

type reportingExpander struct {
	lister   *Lister
	progress chan<- ProgressUpdate
}

func (r reportingExpander) Expand(ctx context.Context, link string) ([]*models.TrackDescriptor, error) {
	return r.lister.ExpandWithProgress(ctx, link, r.progress)
}

// ExpandWithProgress is [Lister.Expand] with progress reporting.
//
// Malformed album or playlist entries are skipped with a warning. Provider failures wrap [shared.ErrProvider].
func (l *Lister) ExpandWithProgress(ctx context.Context, link string, progress chan<- ProgressUpdate) ([]*models.TrackDescriptor, error) {
	sendProgress(progress, ProgressUpdate{Phase: ResolveLink, Message: "Resolving " + link})

	kind, id, err := services.ParseLink(link)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrProvider, err)
	}

	var tracks []*models.TrackDescriptor
	switch kind {
	case services.LinkTrack:
		tracks, err = l.track(ctx, id, progress)
	case services.LinkAlbum:
		tracks, err = l.album(ctx, id, progress)
	default:
		tracks, err = l.playlist(ctx, id, progress)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", shared.ErrProvider, kind, id, err)
	}

	sendProgress(progress, ProgressUpdate{
		Phase:   ListComplete,
		Step:    len(tracks),
		Total:   len(tracks),
		Message: fmt.Sprintf("Listed %d tracks", len(tracks)),
	})
	return tracks, nil
}

func (l *Lister) track(ctx context.Context, id string, progress chan<- ProgressUpdate) ([]*models.TrackDescriptor, error) {
	sendProgress(progress, ProgressUpdate{Phase: FetchTrack, Total: 1, Message: "Fetching track"})

	t, err := l.provider.Track(ctx, id)
	if err != nil {
		return nil, err
	}

	desc := models.NewTrack(t.ArtistNames(), t.Name, "")
	desc.TrackNumber = t.TrackNumber
	if t.Album != nil {
		desc.Album = t.Album.Name
		desc.ArtworkURL = artworkURL(t.Album.Images)
	}
	return []*models.TrackDescriptor{desc}, nil
}

func (l *Lister) album(ctx context.Context, id string, progress chan<- ProgressUpdate) ([]*models.TrackDescriptor, error) {
	album, err := l.provider.Album(ctx, id)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, ProgressUpdate{Phase: FetchAlbum, Total: album.TotalTracks, Message: "Fetching album " + album.Name})

	artwork := artworkURL(album.Images)
	var tracks []*models.TrackDescriptor
	for offset := 0; ; offset += albumPageSize {
		page, err := l.provider.AlbumTracks(ctx, id, albumPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Name == "" || len(item.Artists) == 0 {
				l.logger.Warn("skipping malformed album entry", "album", album.Name, "offset", offset)
				continue
			}
			desc := models.NewTrack(item.ArtistNames(), item.Name, album.Name)
			desc.Album = album.Name
			desc.TrackNumber = item.TrackNumber
			desc.ArtworkURL = artwork
			tracks = append(tracks, desc)
		}

		sendProgress(progress, ProgressUpdate{Phase: FetchPage, Step: len(tracks), Total: page.Total, Message: album.Name})
		if page.Next == nil || len(page.Items) == 0 {
			break
		}
	}
	return tracks, nil
}

func (l *Lister) playlist(ctx context.Context, id string, progress chan<- ProgressUpdate) ([]*models.TrackDescriptor, error) {
	playlist, err := l.provider.Playlist(ctx, id)
	if err != nil {
		return nil, err
	}
	total := playlist.Tracks.Total
	sendProgress(progress, ProgressUpdate{Phase: FetchPlaylist, Total: total, Message: "Fetching playlist " + playlist.Name})

	var tracks []*models.TrackDescriptor
	for offset := 0; offset < total; offset += playlistPageSize {
		page, err := l.provider.PlaylistItems(ctx, id, playlistPageSize, offset)
		if err != nil {
			return nil, err
		}

		for i, item := range page.Items {
			t := item.Track
			if t == nil || t.Name == "" || len(t.Artists) == 0 {
				l.logger.Warn("skipping malformed playlist entry", "playlist", playlist.Name, "position", offset+i)
				continue
			}
			desc := models.NewTrack(t.ArtistNames(), t.Name, playlist.Name)
			desc.TrackNumber = t.TrackNumber
			if t.Album != nil {
				desc.Album = t.Album.Name
				desc.ArtworkURL = artworkURL(t.Album.Images)
			}
			tracks = append(tracks, desc)
		}

		sendProgress(progress, ProgressUpdate{Phase: FetchPage, Step: len(tracks), Total: total, Message: playlist.Name})
		if len(page.Items) == 0 {
			break
		}
	}
	return tracks, nil
}

// artworkURL picks the first (largest) image.
func artworkURL(images []services.SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
