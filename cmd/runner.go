package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spottube/internal/matcher"
	"github.com/desertthunder/spottube/internal/services"
	"github.com/desertthunder/spottube/internal/shared"
	"github.com/desertthunder/spottube/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services left nil are built from the config the first time a command needs them.
type Runner struct {
	config      *shared.Config
	configFixed bool
	configPath  string
	spotify     services.MetadataProvider
	youtube     services.Searcher
	api         *services.APIService
	fetcher     services.Fetcher
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	getenv      func(string) string
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	// Config, when set, is used as is and config.toml is not read.
	Config     *shared.Config
	Spotify    services.MetadataProvider
	YouTube    services.Searcher
	API        *services.APIService
	Fetcher    services.Fetcher
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	fixed := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	return &Runner{
		config:      opts.Config,
		configFixed: fixed,
		spotify:     opts.Spotify,
		youtube:     opts.YouTube,
		api:         opts.API,
		fetcher:     opts.Fetcher,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		getenv:      opts.Getenv,
	}
}

// SetLogger replaces the logger used by every component built afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// load reads the config file named by --config, applies environment overrides and sets the log level.
func (r *Runner) load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.configPath = cmd.String("config")

	if !r.configFixed {
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		}
	}

	if err := r.config.ApplyEnv(r.getenv); err != nil {
		return ctx, err
	}

	level := r.config.Log.Level
	if v := cmd.String("log-level"); v != "" {
		level = v
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	return ctx, nil
}

func (r *Runner) ensureSpotify(ctx context.Context) error {
	if r.spotify != nil {
		return nil
	}
	creds := r.config.Credentials.Spotify
	svc, err := services.NewSpotifyService(ctx, map[string]string{
		"client_id":     creds.ClientID,
		"client_secret": creds.ClientSecret,
	})
	if err != nil {
		return fmt.Errorf("spotify: %w", err)
	}
	r.spotify = svc
	return nil
}

func (r *Runner) ensureYouTube(ctx context.Context) error {
	if r.youtube != nil {
		return nil
	}
	cfg := r.config.Credentials.YouTube
	yt := services.NewYouTubeService(cfg.ProxyURL).WithRateLimit(cfg.SearchRateLimit)
	if cfg.HeadersPath != "" {
		if err := yt.Authenticate(ctx, map[string]string{"auth_file": cfg.HeadersPath}); err != nil {
			return fmt.Errorf("youtube: %w", err)
		}
	}
	r.youtube = yt
	return nil
}

func (r *Runner) ensureAPI() {
	if r.api == nil {
		r.api = services.NewAPIService(r.config.Credentials.YouTube.ProxyURL, r.httpClient)
	}
}

func (r *Runner) ensureFetcher(layout *shared.Layout) {
	if r.fetcher != nil {
		return
	}
	d := r.config.Downloads
	r.fetcher = services.NewYTDLPFetcher(d.FFmpegPath, layout.CookiesPath, d.AudioFormat, r.logger)
}

// ensureServices builds everything a download queue needs.
func (r *Runner) ensureServices(ctx context.Context, layout *shared.Layout) error {
	if err := r.ensureSpotify(ctx); err != nil {
		return err
	}
	if err := r.ensureYouTube(ctx); err != nil {
		return err
	}
	r.ensureFetcher(layout)
	return nil
}

func (r *Runner) extension() string {
	if f, ok := r.fetcher.(*services.YTDLPFetcher); ok {
		return f.Extension()
	}
	if format := r.config.Downloads.AudioFormat; format != "" {
		return "." + format
	}
	return ".mp3"
}

// newQueue wires a queue for user. A nil expander uses a plain [tasks.Lister].
func (r *Runner) newQueue(ctx context.Context, user string, layout *shared.Layout, expander tasks.Expander) *tasks.Queue {
	logger := shared.WithLogger(r.logger, "user", user)
	scorer := matcher.NewScorer(r.youtube, logger)
	worker := tasks.NewWorker(scorer, r.fetcher, layout.UserDownloadDir(user), logger).WithExtension(r.extension())
	if expander == nil {
		expander = tasks.NewLister(r.spotify, logger)
	}

	return tasks.NewQueue(ctx, expander, worker, tasks.QueueOptions{
		User:          user,
		ThreadLimit:   r.config.Downloads.ThreadLimit,
		SleepInterval: r.config.SleepDuration(),
		Logger:        r.logger,
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
