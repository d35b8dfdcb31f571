package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/spottube/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// Status picks the style for a track status.
func (p *Palette) Status(s models.TrackStatus) lipgloss.Style {
	switch s {
	case models.StatusComplete:
		return p.ok
	case models.StatusFailed, models.StatusSearchFailed:
		return p.err
	case models.StatusNoLink, models.StatusExists:
		return p.warn
	case models.StatusQueued:
		return p.help
	default:
		return lipgloss.NewStyle()
	}
}
