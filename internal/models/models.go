package models

import (
	"fmt"
	"strings"
)

// TrackStatus is the user-visible state of a single track.
type TrackStatus string

const (
	StatusQueued       TrackStatus = "Queued"
	StatusLinkFound    TrackStatus = "Link Found"
	StatusComplete     TrackStatus = "Processing Complete"
	StatusSearchFailed TrackStatus = "Search Failed"
	StatusNoLink       TrackStatus = "No Link Found"
	StatusFailed       TrackStatus = "Download Failed"
	StatusExists       TrackStatus = "File Already Exists"
)

const downloadingSuffix = "% Downloaded"

// Downloading is the interim status reported while a fetch is in flight.
//
// The percentage is truncated to an integer.
func Downloading(percent float64) TrackStatus {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return TrackStatus(fmt.Sprintf("%d%s", int(percent), downloadingSuffix))
}

// IsDownloading reports whether s is an interim "N% Downloaded" status.
func (s TrackStatus) IsDownloading() bool {
	return strings.HasSuffix(string(s), downloadingSuffix)
}

// IsTerminal reports whether no further worker transition will follow.
func (s TrackStatus) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusSearchFailed, StatusNoLink, StatusFailed, StatusExists:
		return true
	}
	return false
}

func (s TrackStatus) String() string { return string(s) }

// TrackDescriptor is one song to match and download.
//
// Only Status changes after creation, and only under the owning queue's lock;
// workers read the other fields without it.
type TrackDescriptor struct {
	Artist string      `json:"Artist"`
	Title  string      `json:"Title"`
	Status TrackStatus `json:"Status"`
	// Folder is the album or playlist name, empty for a single track.
	Folder string `json:"Folder"`

	Album       string `json:"Album,omitempty"`
	TrackNumber int    `json:"TrackNumber,omitempty"`
	ArtworkURL  string `json:"ArtworkURL,omitempty"`
}

// NewTrack creates a queued descriptor.
func NewTrack(artist, title, folder string) *TrackDescriptor {
	return &TrackDescriptor{Artist: artist, Title: title, Folder: folder, Status: StatusQueued}
}

// String is the "Title - Artist" form used in logs.
func (t TrackDescriptor) String() string {
	return t.Title + " - " + t.Artist
}

// RunStatus is the lifecycle of a queue's dispatch loop.
type RunStatus string

const (
	RunIdle     RunStatus = "Idle"
	RunRunning  RunStatus = "Running"
	RunComplete RunStatus = "Complete"
	RunStopped  RunStatus = "Stopped"
)

// Snapshot is a point-in-time copy of a queue.
type Snapshot struct {
	Data              []TrackDescriptor `json:"Data"`
	Status            RunStatus         `json:"Status"`
	PercentCompletion float64           `json:"Percent_Completion"`
}

// Counts tallies tracks by status.
func (s Snapshot) Counts() map[TrackStatus]int {
	counts := make(map[TrackStatus]int)
	for _, t := range s.Data {
		counts[t.Status]++
	}
	return counts
}

// Percent computes 100 * cursor / total, 0 when total is 0.
func Percent(cursor, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(cursor) / float64(total)
}
