package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spottube/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.TrackDescriptor] to implement [list.Item].
type trackItem struct {
	track models.TrackDescriptor
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Folder != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Folder)
	}
	return fmt.Sprintf("%s • %s", desc, styles.Status(i.track.Status).Render(i.track.Status.String()))
}

func trackItems(tracks []models.TrackDescriptor) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}
