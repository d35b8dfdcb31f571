package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/desertthunder/spottube/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the template config file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Fill in credentials.spotify and users.allowed before running 'spottube serve'\n")
	return nil
}

// SetupFolders creates the download and config folders for every allowed user.
func (r *Runner) SetupFolders(ctx context.Context, cmd *cli.Command) error {
	d := r.config.Downloads
	layout, err := shared.EnsureLayout(d.DownloadRoot, d.ConfigRoot, r.config.Users.Allowed)
	if err != nil {
		return err
	}

	r.writePlain("✓ Downloads: %s\n", layout.DownloadRoot)
	r.writePlain("✓ Config: %s\n", layout.ConfigRoot)
	for _, u := range r.config.Users.Allowed {
		r.writePlain("  %s\n", layout.UserDownloadDir(u))
	}
	if layout.CookiesPath == "" {
		r.writePlain("No cookies file at %s; run 'spottube setup cookies' if YouTube asks to sign in\n", layout.DefaultCookiesPath())
	}
	return nil
}

// SetupCookies converts a browser cURL capture into a Netscape cookies file for yt-dlp.
func (r *Runner) SetupCookies(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidInput)
	}

	var (
		capture *shared.CurlCapture
		err     error
	)
	if curlFile != "" {
		capture, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		capture, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
	}

	if outputPath == "" {
		outputPath = filepath.Join(r.config.Downloads.ConfigRoot, "cookies.txt")
	}
	if err := capture.SaveCookiesFile(outputPath, cmd.String("domain")); err != nil {
		return err
	}

	r.logger.Info("cookies saved", "path", outputPath, "count", len(capture.CookiePairs()))
	r.writePlain("✓ Saved %d cookies to %s\n", len(capture.CookiePairs()), outputPath)
	return nil
}
