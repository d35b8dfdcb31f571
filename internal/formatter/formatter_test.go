package formatter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spottube/internal/models"
	th "github.com/desertthunder/spottube/internal/testing"
)

func sampleReport() *Report {
	return &Report{
		Link: "https://open.spotify.com/album/a1",
		User: "alice",
		Snapshot: models.Snapshot{
			Status:            models.RunComplete,
			PercentCompletion: 100,
			Data: []models.TrackDescriptor{
				{Artist: "Daft Punk", Title: "One More Time", Album: "Discovery", TrackNumber: 1, Folder: "Discovery", Status: models.StatusComplete},
				{Artist: "Daft Punk", Title: "Aerodynamic", Album: "Discovery", TrackNumber: 2, Folder: "Discovery", Status: models.StatusNoLink},
				{Artist: "Daft Punk", Title: "Digital Love", Album: "Discovery", TrackNumber: 3, Folder: "Discovery", Status: models.StatusComplete},
			},
		},
	}
}

func TestReport(t *testing.T) {
	t.Run("Title uses the shared folder", func(t *testing.T) {
		if got := sampleReport().Title(); got != "Discovery" {
			t.Errorf("Title() = %q", got)
		}
	})

	t.Run("Title falls back to the link", func(t *testing.T) {
		r := sampleReport()
		r.Snapshot.Data[1].Folder = "Other"
		if got := r.Title(); got != r.Link {
			t.Errorf("Title() = %q", got)
		}

		single := &Report{Link: "spotify:track:t1", Snapshot: models.Snapshot{Data: []models.TrackDescriptor{{Title: "x"}}}}
		if got := single.Title(); got != "spotify:track:t1" {
			t.Errorf("Title() = %q", got)
		}
	})

	t.Run("ArtworkURL", func(t *testing.T) {
		r := sampleReport()
		if r.ArtworkURL() != "" {
			t.Error("expected no artwork")
		}
		r.Snapshot.Data[2].ArtworkURL = "https://i.scdn.co/image/abc"
		if r.ArtworkURL() != "https://i.scdn.co/image/abc" {
			t.Errorf("ArtworkURL() = %q", r.ArtworkURL())
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleReport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected header plus 3 rows, got %d", len(lines))
		}
		if lines[0] != "Artist,Title,Album,Track,Folder,Status" {
			t.Errorf("CSV headers = %q", lines[0])
		}
		if lines[2] != "Daft Punk,Aerodynamic,Discovery,2,Discovery,No Link Found" {
			t.Errorf("CSV row = %q", lines[2])
		}
	})

	t.Run("ExportToCSV quotes commas", func(t *testing.T) {
		r := &Report{Snapshot: models.Snapshot{Data: []models.TrackDescriptor{
			{Artist: "Crosby, Stills & Nash", Title: "Wooden Ships", Status: models.StatusQueued},
		}}}
		data, err := ExportToCSV(r)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `"Crosby, Stills & Nash",Wooden Ships,,,,Queued`) {
			t.Errorf("unexpected CSV:\n%s", data)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleReport(), "")
			if err != nil {
				t.Fatal(err)
			}
			output := string(data)

			for _, want := range []string{
				"# Discovery\n",
				"**User**: alice",
				"**Status**: Complete (100%)",
				"| Processing Complete | 2 |",
				"| No Link Found | 1 |",
				"2. Daft Punk - Aerodynamic (Discovery) [No Link Found]",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q:\n%s", want, output)
				}
			}
			if strings.Contains(output, "![Cover]") {
				t.Error("unexpected cover image")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, _ := ExportToMarkdown(sampleReport(), "cover.jpg")
			if !strings.Contains(string(data), "![Cover](cover.jpg)") {
				t.Error("Markdown missing cover image")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleReport())
		if err != nil {
			t.Fatal(err)
		}
		output := string(data)
		if !strings.HasPrefix(output, "Download: Discovery\nStatus: Complete (100%)\nTracks: 3\n") {
			t.Errorf("unexpected header:\n%s", output)
		}
		if !strings.Contains(output, "3. Daft Punk - Digital Love: Processing Complete") {
			t.Errorf("missing track line:\n%s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleReport())
		if err != nil {
			t.Fatal(err)
		}
		var decoded struct {
			Link     string `json:"link"`
			Snapshot struct {
				Data   []map[string]any `json:"Data"`
				Status string           `json:"Status"`
				Pct    float64          `json:"Percent_Completion"`
			} `json:"snapshot"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Snapshot.Status != "Complete" || decoded.Snapshot.Pct != 100 || len(decoded.Snapshot.Data) != 3 {
			t.Errorf("unexpected decoded report %+v", decoded)
		}
		if decoded.Snapshot.Data[0]["Title"] != "One More Time" {
			t.Errorf("unexpected first track %v", decoded.Snapshot.Data[0])
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(""); err == nil {
			t.Error("expected error for empty URL")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()
		if _, err := DownloadImage(srv.URL); err == nil || !strings.Contains(err.Error(), "status 404") {
			t.Errorf("expected status error, got %v", err)
		}
	})

	t.Run("OK", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg"))
		}))
		defer srv.Close()
		data, err := DownloadImage(srv.URL)
		if err != nil || string(data) != "jpeg" {
			t.Errorf("DownloadImage() = %q, %v", data, err)
		}
	})
}

func TestWriteReport(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"csv", "report.csv", "Artist,Title,Album,Track,Folder,Status"},
		{"json", "report.json", `"Percent_Completion": 100`},
		{"markdown", "report.md", "# Discovery"},
		{"text", "report.txt", "Download: Discovery"},
		{"no extension", "report", "Download: Discovery"},
		{"nested directory", "out/reports/report.CSV", "Artist,Title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			result, err := WriteReport(sampleReport(), path)
			if err != nil {
				t.Fatalf("WriteReport() error = %v", err)
			}
			if result.Path != path || result.CoverImage != "" {
				t.Errorf("unexpected result %+v", result)
			}
			th.AssertFileExists(t, path)
			if content := th.MustReadFile(t, path); !strings.Contains(content, tt.want) {
				t.Errorf("report missing %q:\n%s", tt.want, content)
			}
		})
	}

	t.Run("markdown saves the cover", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg"))
		}))
		defer srv.Close()

		r := sampleReport()
		r.Snapshot.Data[0].ArtworkURL = srv.URL + "/cover"
		dir := t.TempDir()

		result, err := WriteReport(r, filepath.Join(dir, "README.md"))
		if err != nil {
			t.Fatal(err)
		}
		if result.CoverImage != filepath.Join(dir, "cover.jpg") {
			t.Errorf("CoverImage = %q", result.CoverImage)
		}
		if content := th.MustReadFile(t, result.Path); !strings.Contains(content, "![Cover](cover.jpg)") {
			t.Errorf("markdown missing cover link:\n%s", content)
		}
	})

	t.Run("markdown without a reachable cover", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		r := sampleReport()
		r.Snapshot.Data[0].ArtworkURL = srv.URL
		result, err := WriteReport(r, filepath.Join(t.TempDir(), "README.md"))
		if err != nil {
			t.Fatal(err)
		}
		if result.CoverImage != "" {
			t.Errorf("expected no cover, got %q", result.CoverImage)
		}
	})

	t.Run("unwritable path", func(t *testing.T) {
		dir := t.TempDir()
		if _, err := WriteReport(sampleReport(), dir); err == nil {
			t.Error("expected error writing to a directory")
		}
	})
}
