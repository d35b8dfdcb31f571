package matcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/desertthunder/spottube/internal/services"
	"github.com/desertthunder/spottube/internal/shared"
)

type fakeSearcher struct {
	results map[string][]services.SearchResult
	errs    map[string]error
	calls   []string
}

func (f *fakeSearcher) Search(_ context.Context, query, filter string, limit int) ([]services.SearchResult, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s|%s|%d", query, filter, limit))
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return f.results[query], nil
}

func result(id, title string, artists ...string) services.SearchResult {
	r := services.SearchResult{VideoID: id, Title: title, Category: "Songs", ResultType: "song"}
	for _, a := range artists {
		r.Artists = append(r.Artists, services.YouTubeArtist{Name: a})
	}
	return r
}

func topResult(id, title, resultType string, artists ...string) services.SearchResult {
	r := result(id, title, artists...)
	r.Category = "Top result"
	r.ResultType = resultType
	return r
}

func newTestScorer(f *fakeSearcher) *Scorer {
	return NewScorer(f, shared.NewLogger(io.Discard))
}

const (
	primaryQuery = "The Weeknd Blinding Lights"
	titleQuery   = "blinding lights"
)

func TestFindBestMatch(t *testing.T) {
	filler := []services.SearchResult{
		result("f0", "Save Your Tears", "The Weeknd"),
		result("f1", "Starboy", "The Weeknd", "Daft Punk"),
		result("f2", "In Your Eyes", "The Weeknd"),
		result("f3", "Heartless", "The Weeknd"),
	}

	t.Run("substring match at any index", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			t.Run(fmt.Sprintf("index %d", i), func(t *testing.T) {
				results := append([]services.SearchResult{}, filler[:i]...)
				results = append(results, result("target", "Blinding Lights", "The Weeknd"))
				results = append(results, filler[i:]...)

				f := &fakeSearcher{results: map[string][]services.SearchResult{primaryQuery: results[:5]}}
				link, err := newTestScorer(f).FindBestMatch(context.Background(), "The Weeknd", "Blinding Lights")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if link != "https://www.youtube.com/watch?v=target" {
					t.Errorf("expected target link, got %s", link)
				}
				if len(f.calls) != 1 || f.calls[0] != primaryQuery+"|songs|5" {
					t.Errorf("expected a single songs search, got %v", f.calls)
				}
			})
		}
	})

	t.Run("substring ignores forbidden characters and case", func(t *testing.T) {
		f := &fakeSearcher{results: map[string][]services.SearchResult{
			"AC/DC Back In Black": {result("x", "Tonight"), result("hit", "BACK IN BLACK (Live)", "AC DC")},
		}}
		link, err := newTestScorer(f).FindBestMatch(context.Background(), "AC/DC", "Back In Black")
		if err != nil {
			t.Fatal(err)
		}
		if link != services.WatchURL("hit") {
			t.Errorf("expected hit, got %s", link)
		}
	})

	t.Run("fuzzy tier", func(t *testing.T) {
		tests := []struct {
			name   string
			artist string
			title  string
			cands  []services.SearchResult
			want   string
		}{
			{
				name:   "near miss on punctuation",
				artist: "Dua Lipa",
				title:  "Dont Start Now",
				cands:  []services.SearchResult{result("other", "Levitating", "Dua Lipa"), result("fz", "Don't Start Now", "Dua Lipa")},
				want:   "fz",
			},
			{
				name:   "candidate words contained in target",
				artist: "The Weeknd",
				title:  "Blinding Lights",
				cands:  []services.SearchResult{result("other", "Popular", "Someone"), result("fz", "Lights", "The Weeknd, Someone")},
				want:   "fz",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := &fakeSearcher{results: map[string][]services.SearchResult{tt.artist + " " + tt.title: tt.cands}}
				link, err := newTestScorer(f).FindBestMatch(context.Background(), tt.artist, tt.title)
				if err != nil {
					t.Fatal(err)
				}
				if link != services.WatchURL(tt.want) {
					t.Errorf("expected %s, got %s", tt.want, link)
				}
				if len(f.calls) != 1 {
					t.Errorf("fuzzy match should not run a second search, got %v", f.calls)
				}
			})
		}
	})

	t.Run("top result tier", func(t *testing.T) {
		unrelated := []services.SearchResult{result("first", "Alpha", "Nobody"), result("second", "Beta", "Nobody")}

		tests := []struct {
			name string
			top  []services.SearchResult
			want string
		}{
			{name: "not a top result keeps first", top: []services.SearchResult{result("t", "Blinding Lights", "The Weeknd")}, want: "first"},
			{name: "album top result keeps first", top: []services.SearchResult{topResult("t", "Blinding Lights", "album", "The Weeknd")}, want: "first"},
			{name: "title 100 artist 100 overrides", top: []services.SearchResult{topResult("t", "Blinding Lights", "song", "The Weeknd")}, want: "t"},
			{name: "title 100 artist below 40 keeps first", top: []services.SearchResult{topResult("t", "Blinding Lights", "video", "Zz")}, want: "first"},
			{name: "title 70 artist 100 overrides", top: []services.SearchResult{topResult("t", "Blinding", "video", "The Weeknd")}, want: "t"},
			{name: "title below 40 artist 100 keeps first", top: []services.SearchResult{topResult("t", "Zzz", "song", "The Weeknd")}, want: "first"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := &fakeSearcher{results: map[string][]services.SearchResult{primaryQuery: unrelated, titleQuery: tt.top}}
				link, err := newTestScorer(f).FindBestMatch(context.Background(), "The Weeknd", "Blinding Lights")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if link != services.WatchURL(tt.want) {
					t.Errorf("expected %s, got %s", tt.want, link)
				}
				if len(f.calls) != 2 || f.calls[1] != titleQuery+"||5" {
					t.Errorf("expected an unfiltered title search, got %v", f.calls)
				}
			})
		}
	})

	t.Run("title search failures", func(t *testing.T) {
		unrelated := []services.SearchResult{result("first", "Alpha", "Nobody")}

		tests := []struct {
			name string
			top  []services.SearchResult
			err  error
		}{
			{name: "title search errors", err: errors.New("proxy down")},
			{name: "title search is empty"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := &fakeSearcher{
					results: map[string][]services.SearchResult{primaryQuery: unrelated, titleQuery: tt.top},
					errs:    map[string]error{titleQuery: tt.err},
				}
				link, err := newTestScorer(f).FindBestMatch(context.Background(), "The Weeknd", "Blinding Lights")
				if !errors.Is(err, shared.ErrSearchFailed) {
					t.Errorf("expected ErrSearchFailed, got %v", err)
				}
				if link != "" {
					t.Errorf("expected no link, got %s", link)
				}
			})
		}
	})

	t.Run("no results", func(t *testing.T) {
		f := &fakeSearcher{}
		link, err := newTestScorer(f).FindBestMatch(context.Background(), "The Weeknd", "Blinding Lights")
		if err != nil || link != "" {
			t.Errorf("expected empty link and nil error, got %q, %v", link, err)
		}
	})

	t.Run("search failure", func(t *testing.T) {
		f := &fakeSearcher{errs: map[string]error{primaryQuery: errors.New("proxy down")}}
		_, err := newTestScorer(f).FindBestMatch(context.Background(), "The Weeknd", "Blinding Lights")
		if !errors.Is(err, shared.ErrSearchFailed) {
			t.Errorf("expected ErrSearchFailed, got %v", err)
		}
	})
}

func TestTiers(t *testing.T) {
	names := []string{}
	for _, tier := range newTestScorer(&fakeSearcher{}).Tiers() {
		names = append(names, tier.Name())
	}
	if fmt.Sprint(names) != "[substring fuzzy top-result]" {
		t.Errorf("unexpected tier order %v", names)
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 100},
		{"abc", "abc", 100},
		{"abc", "", 0},
		{"kitten", "sitting", 62},
		{"dont start now", "don't start now", 97},
		{"blinding lights", "blinding", 70},
		{"héllo", "hello", 80},
	}
	for _, tt := range tests {
		if got := Ratio(tt.a, tt.b); got != tt.want {
			t.Errorf("Ratio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
