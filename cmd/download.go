package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spottube/internal/formatter"
	"github.com/desertthunder/spottube/internal/models"
	"github.com/desertthunder/spottube/internal/services"
	"github.com/desertthunder/spottube/internal/shared"
	"github.com/desertthunder/spottube/internal/tasks"
	"github.com/desertthunder/spottube/internal/ui"
	"github.com/urfave/cli/v3"
)

const plainInterval = time.Second

// Download runs a single queue for one link in the terminal.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	link := strings.TrimSpace(cmd.StringArg("link"))
	if link == "" {
		return fmt.Errorf("%w: link", shared.ErrMissingArgument)
	}
	if _, _, err := services.ParseLink(link); err != nil {
		return err
	}

	user := cmd.String("user")
	if user == "" {
		if len(r.config.Users.Allowed) == 0 {
			return fmt.Errorf("%w: --user is required when no users are configured", shared.ErrMissingArgument)
		}
		user = r.config.Users.Allowed[0]
	}

	d := r.config.Downloads
	layout, err := shared.EnsureLayout(d.DownloadRoot, d.ConfigRoot, []string{user})
	if err != nil {
		return err
	}

	plain := cmd.Bool("plain")
	if !plain {
		// Logs would corrupt the alt screen.
		fileLogger, err := shared.NewFileLogger(filepath.Join(d.ConfigRoot, "spottube-tui.log"))
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		shared.SetLogLevel(fileLogger, r.logger.GetLevel())
		r.SetLogger(fileLogger)
	}

	if err := r.ensureServices(ctx, layout); err != nil {
		return err
	}

	var snapshot models.Snapshot
	if plain {
		snapshot, err = r.downloadPlain(ctx, user, link, layout)
	} else {
		snapshot, err = r.downloadTUI(ctx, user, link, layout)
	}
	if err != nil {
		return err
	}

	if path := cmd.String("report"); path != "" {
		result, err := formatter.WriteReport(&formatter.Report{Link: link, User: user, Snapshot: snapshot}, path)
		if err != nil {
			return err
		}
		r.writePlain("Report written to %s\n", result.Path)
	}
	return nil
}

func (r *Runner) downloadTUI(ctx context.Context, user, link string, layout *shared.Layout) (models.Snapshot, error) {
	updates := make(chan tasks.ProgressUpdate, 32)
	lister := tasks.NewLister(r.spotify, r.logger)
	queue := r.newQueue(ctx, user, layout, lister.Reporting(updates))

	model := ui.NewModel(ctx, queue, link, updates)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && ctx.Err() == nil {
		return models.Snapshot{}, fmt.Errorf("error running TUI: %w", err)
	}

	queue.Stop()
	queue.Wait()
	if err := model.Err(); err != nil {
		return models.Snapshot{}, err
	}

	snapshot := queue.Snapshot()
	r.printSummary(snapshot)
	return snapshot, nil
}

func (r *Runner) downloadPlain(ctx context.Context, user, link string, layout *shared.Layout) (models.Snapshot, error) {
	queue := r.newQueue(ctx, user, layout, nil)
	if err := queue.Submit(ctx, link); err != nil {
		return models.Snapshot{}, err
	}

	done := make(chan struct{})
	go func() {
		queue.Wait()
		close(done)
	}()

	ticker := time.NewTicker(plainInterval)
	defer ticker.Stop()

	last := ""
	for {
		select {
		case <-done:
			snapshot := queue.Snapshot()
			r.printSummary(snapshot)
			return snapshot, nil
		case <-ctx.Done():
			r.logger.Warn("interrupted, waiting for in-flight downloads")
			queue.Stop()
			<-done
			snapshot := queue.Snapshot()
			r.printSummary(snapshot)
			return snapshot, ctx.Err()
		case <-ticker.C:
			snap := queue.Snapshot()
			line := progressLine(snap)
			if line != last {
				r.logger.Info(line, "status", snap.Status)
				last = line
			}
		}
	}
}

func progressLine(s models.Snapshot) string {
	done := 0
	var current []string
	for _, t := range s.Data {
		switch {
		case t.Status.IsTerminal():
			done++
		case t.Status != models.StatusQueued:
			current = append(current, fmt.Sprintf("%s (%s)", t.Title, t.Status))
		}
	}
	line := fmt.Sprintf("%3.0f%% %d/%d", s.PercentCompletion, done, len(s.Data))
	if len(current) > 0 {
		line += " " + strings.Join(current, ", ")
	}
	return line
}

func (r *Runner) printSummary(s models.Snapshot) {
	r.writePlainHeader(fmt.Sprintf("Queue %s: %d tracks", s.Status, len(s.Data)))
	counts := s.Counts()
	for _, status := range []models.TrackStatus{
		models.StatusComplete, models.StatusExists, models.StatusNoLink, models.StatusSearchFailed, models.StatusFailed, models.StatusQueued,
	} {
		if n := counts[status]; n > 0 {
			r.writePlain("  %-20s %d\n", status, n)
		}
	}
}
