package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spottube/internal/models"
	"github.com/desertthunder/spottube/internal/services"
	"github.com/desertthunder/spottube/internal/shared"
)

// Matcher finds a watch URL for a track; "" means nothing suitable was found.
type Matcher interface {
	FindBestMatch(ctx context.Context, artist, title string) (string, error)
}

// StatusFunc records a status transition for a track.
type StatusFunc func(track *models.TrackDescriptor, status models.TrackStatus)

// Worker runs one track through search, fetch and tagging.
type Worker struct {
	matcher   Matcher
	fetcher   services.Fetcher
	userDir   string
	extension string
	logger    *log.Logger

	setStatus StatusFunc
	pacing    func() time.Duration
}

// NewWorker creates a worker writing below userDir.
func NewWorker(matcher Matcher, fetcher services.Fetcher, userDir string, logger *log.Logger) *Worker {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Worker{
		matcher:   matcher,
		fetcher:   fetcher,
		userDir:   userDir,
		extension: ".mp3",
		logger:    logger,
		setStatus: func(t *models.TrackDescriptor, s models.TrackStatus) { t.Status = s },
		pacing:    func() time.Duration { return 0 },
	}
}

// WithExtension sets the extension the fetcher produces, used for the existence check.
func (w *Worker) WithExtension(ext string) *Worker {
	if ext != "" {
		w.extension = ext
	}
	return w
}

// OutputPath is the destination of track without extension:
// userDir/folder/title - artist, each component normalized.
func (w *Worker) OutputPath(track *models.TrackDescriptor) string {
	name := shared.Normalize(track.Title) + " - " + shared.Normalize(track.Artist)
	return filepath.Join(w.userDir, shared.Normalize(track.Folder), name)
}

// Process drives track to a terminal status and returns it.
//
// After a completed download the worker waits for the pacing interval; stop or ctx cut the wait short.
func (w *Worker) Process(ctx context.Context, track *models.TrackDescriptor, stop <-chan struct{}) models.TrackStatus {
	logger := shared.WithLogger(w.logger, "track", track.String())

	link, err := w.matcher.FindBestMatch(ctx, track.Artist, track.Title)
	if err != nil {
		logger.Error("search failed", "error", err)
		return w.finish(track, models.StatusSearchFailed)
	}
	if link == "" {
		logger.Warn("no link found")
		return w.finish(track, models.StatusNoLink)
	}
	w.setStatus(track, models.StatusLinkFound)

	output := w.OutputPath(track)
	if _, err := os.Stat(output + w.extension); err == nil {
		logger.Warn("file already exists", "path", output+w.extension)
		return w.finish(track, models.StatusExists)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		logger.Error("failed to create folder", "error", err)
		return w.finish(track, models.StatusFailed)
	}

	req := services.FetchRequest{
		URL:         link,
		OutputPath:  output,
		Title:       track.Title,
		Artist:      track.Artist,
		Album:       track.Album,
		TrackNumber: track.TrackNumber,
	}
	err = w.fetcher.Fetch(ctx, req, func(p services.FetchProgress) {
		w.setStatus(track, models.Downloading(p.Percent))
	})
	if err != nil {
		logger.Error("download failed", "link", link, "error", err)
		return w.finish(track, models.StatusFailed)
	}

	logger.Info("download complete", "link", link)
	w.setStatus(track, models.StatusComplete)
	w.pause(ctx, stop)
	return models.StatusComplete
}

func (w *Worker) finish(track *models.TrackDescriptor, status models.TrackStatus) models.TrackStatus {
	w.setStatus(track, status)
	return status
}

func (w *Worker) pause(ctx context.Context, stop <-chan struct{}) {
	d := w.pacing()
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-stop:
	case <-ctx.Done():
	}
}

// recoverTrack marks track as failed when a worker panics.
func (w *Worker) recoverTrack(track *models.TrackDescriptor) {
	if r := recover(); r != nil {
		w.logger.Error("worker panicked", "track", track.String(), "panic", fmt.Sprint(r))
		w.setStatus(track, models.StatusFailed)
	}
}
