// yt-dlp implementation of [Fetcher]
package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spottube/internal/shared"
	"github.com/lrstanley/go-ytdlp"
)

const (
	// fetchFormat prefers the opus audio stream and falls back to the best available.
	fetchFormat       = "251/best"
	defaultAudioFmt   = "mp3"
	progressFrequency = 500 * time.Millisecond
)

// YTDLPFetcher downloads audio with yt-dlp, converts it with ffmpeg and rewrites the ID3 tags.
type YTDLPFetcher struct {
	ffmpegPath  string
	cookiesPath string
	audioFormat string
	logger      *log.Logger
}

// NewYTDLPFetcher creates a fetcher. Empty ffmpegPath or cookiesPath leave yt-dlp defaults in place.
func NewYTDLPFetcher(ffmpegPath, cookiesPath, audioFormat string, logger *log.Logger) *YTDLPFetcher {
	if audioFormat == "" {
		audioFormat = defaultAudioFmt
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &YTDLPFetcher{
		ffmpegPath:  ffmpegPath,
		cookiesPath: cookiesPath,
		audioFormat: audioFormat,
		logger:      logger,
	}
}

// Extension is the file extension produced by the audio conversion.
func (f *YTDLPFetcher) Extension() string {
	return "." + f.audioFormat
}

func (f *YTDLPFetcher) command(req FetchRequest) *ytdlp.Command {
	dl := ytdlp.New().
		Format(fetchFormat).
		ExtractAudio().
		AudioFormat(f.audioFormat).
		AudioQuality("0").
		EmbedThumbnail().
		EmbedMetadata().
		NoPlaylist().
		NoWarnings().
		Output(req.OutputPath + ".%(ext)s")

	if f.cookiesPath != "" {
		dl.Cookies(f.cookiesPath)
	}
	if f.ffmpegPath != "" {
		dl.FFmpegLocation(f.ffmpegPath)
	}
	return dl
}

// Fetch downloads req.URL and tags the converted file with the Spotify metadata.
func (f *YTDLPFetcher) Fetch(ctx context.Context, req FetchRequest, progress func(FetchProgress)) error {
	dl := f.command(req)

	if progress != nil {
		dl.ProgressFunc(progressFrequency, func(update ytdlp.ProgressUpdate) {
			progress(toFetchProgress(update))
		})
	}

	if _, err := dl.Run(ctx, req.URL); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrFetchFailed, req.URL, err)
	}

	if f.audioFormat != defaultAudioFmt {
		return nil
	}

	path := req.OutputPath + f.Extension()
	if err := TagFile(path, req); err != nil {
		f.logger.Warn("failed to rewrite tags", "path", path, "error", err)
	}
	return nil
}

func toFetchProgress(update ytdlp.ProgressUpdate) FetchProgress {
	p := FetchProgress{
		DownloadedBytes: update.DownloadedBytes,
		TotalBytes:      update.TotalBytes,
	}
	if update.TotalBytes > 0 {
		p.Percent = float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
	}
	if !update.Started.IsZero() {
		if elapsed := time.Since(update.Started).Seconds(); elapsed > 0 {
			p.Speed = fmt.Sprintf("%.1fMB/s", float64(update.DownloadedBytes)/elapsed/1024/1024)
		}
	}
	return p
}

// TagFile overwrites the title, artist, album and track number frames of an MP3 file.
//
// yt-dlp embeds the video's metadata; the Spotify values are the ones the library should show.
func TagFile(path string, req FetchRequest) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open tags: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if req.Title != "" {
		tag.SetTitle(req.Title)
	}
	if req.Artist != "" {
		tag.SetArtist(req.Artist)
	}
	if req.Album != "" {
		tag.SetAlbum(req.Album)
	}
	if req.TrackNumber > 0 {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), tag.DefaultEncoding(), strconv.Itoa(req.TrackNumber))
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}
	return nil
}
