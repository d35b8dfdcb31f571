package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spottube/internal/matcher"
	"github.com/desertthunder/spottube/internal/shared"
	"github.com/desertthunder/spottube/internal/tasks"
	"github.com/urfave/cli/v3"
)

// MatchResult is the output of [Runner.Match].
type MatchResult struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Link   string `json:"link"`
}

// Match runs the match scorer for one artist and title and prints the chosen link.
func (r *Runner) Match(ctx context.Context, cmd *cli.Command) error {
	artist, title := cmd.StringArg("artist"), cmd.StringArg("title")
	if artist == "" || title == "" {
		return fmt.Errorf("%w: artist and title", shared.ErrMissingArgument)
	}
	if err := r.ensureYouTube(ctx); err != nil {
		return err
	}

	link, err := matcher.NewScorer(r.youtube, r.logger).FindBestMatch(ctx, artist, title)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(MatchResult{Artist: artist, Title: title, Link: link}, true)
	}
	if link == "" {
		return r.writePlain("No link found for %s - %s\n", title, artist)
	}
	return r.writePlain("%s\n", link)
}

// Expand prints the tracks a link resolves to.
func (r *Runner) Expand(ctx context.Context, cmd *cli.Command) error {
	link := cmd.StringArg("link")
	if link == "" {
		return fmt.Errorf("%w: link", shared.ErrMissingArgument)
	}
	if err := r.ensureSpotify(ctx); err != nil {
		return err
	}

	tracks, err := tasks.NewLister(r.spotify, r.logger).Expand(ctx, link)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	r.writePlainHeader(fmt.Sprintf("%d tracks", len(tracks)))
	for i, t := range tracks {
		folder := ""
		if t.Folder != "" {
			folder = fmt.Sprintf(" [%s]", t.Folder)
		}
		r.writePlain("%d. %s - %s%s\n", i+1, t.Artist, t.Title, folder)
	}
	return nil
}
