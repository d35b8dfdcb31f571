package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event while a link is being expanded.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Tracks listed so far
	Total   int    // Total tracks expected, 0 when unknown
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	ResolveLink Phase = iota
	FetchTrack
	FetchAlbum
	FetchPlaylist
	FetchPage
	ListComplete
)

func (p Phase) String() string {
	switch p {
	case ResolveLink:
		return "resolve_link"
	case FetchTrack:
		return "fetch_track"
	case FetchAlbum:
		return "fetch_album"
	case FetchPlaylist:
		return "fetch_playlist"
	case FetchPage:
		return "fetch_page"
	case ListComplete:
		return "list_complete"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
