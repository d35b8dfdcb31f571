// package formatter renders a finished download queue as CSV, Markdown, JSON or plain text reports
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spottube/internal/models"
)

// Report is a queue snapshot plus what produced it.
type Report struct {
	Link     string          `json:"link"`
	User     string          `json:"user"`
	Snapshot models.Snapshot `json:"snapshot"`
}

// Title is the folder shared by the tracks, or the link when they span several.
func (r *Report) Title() string {
	if len(r.Snapshot.Data) > 0 {
		folder := r.Snapshot.Data[0].Folder
		for _, t := range r.Snapshot.Data[1:] {
			if t.Folder != folder {
				return r.Link
			}
		}
		if folder != "" {
			return folder
		}
	}
	return r.Link
}

// ArtworkURL returns the first cover found among the tracks.
func (r *Report) ArtworkURL() string {
	for _, t := range r.Snapshot.Data {
		if t.ArtworkURL != "" {
			return t.ArtworkURL
		}
	}
	return ""
}

var statusOrder = []models.TrackStatus{
	models.StatusComplete,
	models.StatusExists,
	models.StatusNoLink,
	models.StatusSearchFailed,
	models.StatusFailed,
	models.StatusQueued,
}

// ExportToCSV converts a Report to CSV format with columns: Artist, Title, Album, Track, Folder, Status
func ExportToCSV(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Artist", "Title", "Album", "Track", "Folder", "Status"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range report.Snapshot.Data {
		number := ""
		if track.TrackNumber > 0 {
			number = strconv.Itoa(track.TrackNumber)
		}
		record := []string{track.Artist, track.Title, track.Album, number, track.Folder, track.Status.String()}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Report to Markdown format with optional cover image
func ExportToMarkdown(report *Report, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", report.Title())

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Link**: %s\n", report.Link)
	if report.User != "" {
		fmt.Fprintf(&buf, "**User**: %s\n", report.User)
	}
	fmt.Fprintf(&buf, "**Status**: %s (%.0f%%)\n", report.Snapshot.Status, report.Snapshot.PercentCompletion)
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(report.Snapshot.Data))

	counts := report.Snapshot.Counts()
	buf.WriteString("| Status | Count |\n|---|---|\n")
	for _, s := range statusOrder {
		if n := counts[s]; n > 0 {
			fmt.Fprintf(&buf, "| %s | %d |\n", s, n)
		}
	}

	buf.WriteString("\n## Tracks\n\n")
	for i, track := range report.Snapshot.Data {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.Artist, track.Title, albumPart, track.Status)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Report to plain text format
func ExportToText(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Download: %s\n", report.Title())
	fmt.Fprintf(&buf, "Status: %s (%.0f%%)\n", report.Snapshot.Status, report.Snapshot.PercentCompletion)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(report.Snapshot.Data))

	for i, track := range report.Snapshot.Data {
		fmt.Fprintf(&buf, "%d. %s - %s: %s\n", i+1, track.Artist, track.Title, track.Status)
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the whole report as indented JSON.
func ExportToJSON(report *Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{Timeout: 30 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteResult lists the files a report write produced.
type WriteResult struct {
	Path       string
	CoverImage string
}

// WriteReport writes report to path, picking the format from the extension:
// .csv, .md, .json, anything else is plain text.
//
// Markdown reports also try to save the cover art next to the file as cover.jpg; a failed
// download only drops the image.
func WriteReport(report *Report, path string) (*WriteResult, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	result := &WriteResult{Path: path}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		data, err = ExportToCSV(report)
	case ".json":
		data, err = ExportToJSON(report)
	case ".md", ".markdown":
		var cover string
		if url := report.ArtworkURL(); url != "" {
			cover = writeCover(url, filepath.Join(filepath.Dir(path), "cover.jpg"))
			if cover != "" {
				result.CoverImage = cover
				cover = filepath.Base(cover)
			}
		}
		data, err = ExportToMarkdown(report, cover)
	default:
		data, err = ExportToText(report)
	}
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	return result, nil
}

func writeCover(url, path string) string {
	imageData, err := DownloadImage(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		return ""
	}
	if err := os.WriteFile(path, imageData, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
		return ""
	}
	return path
}
