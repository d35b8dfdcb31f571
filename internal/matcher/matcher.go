package matcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spottube/internal/services"
	"github.com/desertthunder/spottube/internal/shared"
)

const (
	searchLimit = 5

	// fuzzyThreshold applies to both title and artist in the fuzzy tier.
	fuzzyThreshold = 90
	// topResultHigh and topResultLow are the asymmetric title/artist pair of the top-result tier.
	topResultHigh = 90
	topResultLow  = 40

	topResultCategory = "Top result"
)

// Query is the normalized target of a match.
type Query struct {
	Artist string
	Title  string
}

// NewQuery normalizes and lowercases artist and title.
func NewQuery(artist, title string) Query {
	return Query{Artist: shared.NormalizeLower(artist), Title: shared.NormalizeLower(title)}
}

// candidate is a search result with comparison-ready text.
type candidate struct {
	services.SearchResult
	title   string
	artists string
}

func newCandidate(r services.SearchResult) candidate {
	names := make([]string, 0, len(r.Artists))
	for _, a := range r.Artists {
		names = append(names, shared.NormalizeLower(a.Name))
	}
	return candidate{
		SearchResult: r,
		title:        shared.NormalizeLower(r.Title),
		artists:      strings.Join(names, ", "),
	}
}

// Tier is one matching strategy. Match returns the chosen video id and whether the tier accepted one.
// An error means a search the tier depends on failed.
type Tier interface {
	Name() string
	Match(ctx context.Context, q Query, results []services.SearchResult) (string, bool, error)
}

// SubstringTier accepts the first candidate whose title contains the target title.
type SubstringTier struct{}

func (SubstringTier) Name() string { return "substring" }

func (SubstringTier) Match(_ context.Context, q Query, results []services.SearchResult) (string, bool, error) {
	for _, r := range results {
		if c := newCandidate(r); strings.Contains(c.title, q.Title) {
			return r.VideoID, true, nil
		}
	}
	return "", false, nil
}

// FuzzyTier accepts the first candidate scoring at least Threshold on both title and artist.
//
// The title scores 100 when every word of the candidate title occurs in the target title.
type FuzzyTier struct {
	Threshold int
}

func (FuzzyTier) Name() string { return "fuzzy" }

func (t FuzzyTier) Match(_ context.Context, q Query, results []services.SearchResult) (string, bool, error) {
	for _, r := range results {
		c := newCandidate(r)
		titleScore := tokenTitleScore(q.Title, c.title)
		artistScore := containedScore(q.Artist, c.artists)
		if titleScore >= t.Threshold && artistScore >= t.Threshold {
			return r.VideoID, true, nil
		}
	}
	return "", false, nil
}

// TopResultTier defaults to the first candidate and overrides it with the top result of a
// title-only search when that result is a song or video that scores well enough.
// A title-only search that fails or comes back empty fails the match.
type TopResultTier struct {
	searcher services.Searcher
}

func (TopResultTier) Name() string { return "top-result" }

func (t TopResultTier) Match(ctx context.Context, q Query, results []services.SearchResult) (string, bool, error) {
	if len(results) == 0 {
		return "", false, nil
	}
	fallback := results[0].VideoID

	top, err := t.searcher.Search(ctx, q.Title, "", searchLimit)
	if err != nil {
		return "", false, fmt.Errorf("title search %q: %w", q.Title, err)
	}
	if len(top) == 0 {
		return "", false, fmt.Errorf("title search %q returned no results", q.Title)
	}

	first := top[0]
	if !strings.Contains(first.Category, topResultCategory) || (first.ResultType != "song" && first.ResultType != "video") {
		return fallback, true, nil
	}

	c := newCandidate(first)
	titleScore := containedScore(q.Title, c.title)
	artistScore := containedScore(q.Artist, c.artists)
	if (titleScore >= topResultHigh && artistScore >= topResultLow) || (titleScore >= topResultLow && artistScore >= topResultHigh) {
		return first.VideoID, true, nil
	}
	return fallback, true, nil
}

// Scorer finds the best YouTube link for a track.
type Scorer struct {
	searcher services.Searcher
	tiers    []Tier
	logger   *log.Logger
}

// NewScorer creates a Scorer with the substring, fuzzy and top-result tiers in that order.
func NewScorer(searcher services.Searcher, logger *log.Logger) *Scorer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Scorer{
		searcher: searcher,
		logger:   logger,
		tiers: []Tier{
			SubstringTier{},
			FuzzyTier{Threshold: fuzzyThreshold},
			TopResultTier{searcher: searcher},
		},
	}
}

// Tiers returns the strategies in evaluation order.
func (s *Scorer) Tiers() []Tier {
	return s.tiers
}

// FindBestMatch returns a watch URL for the best candidate, or "" when the search found nothing.
//
// A failing search, including the title-only search of the top-result tier, is reported as
// [shared.ErrSearchFailed].
func (s *Scorer) FindBestMatch(ctx context.Context, artist, title string) (string, error) {
	q := NewQuery(artist, title)

	results, err := s.searcher.Search(ctx, artist+" "+title, services.FilterSongs, searchLimit)
	if err != nil {
		return "", fmt.Errorf("%w: %s - %s: %v", shared.ErrSearchFailed, title, artist, err)
	}
	if len(results) == 0 {
		s.logger.Debug("no search results", "artist", artist, "title", title)
		return "", nil
	}

	for _, tier := range s.tiers {
		videoID, ok, err := tier.Match(ctx, q, results)
		if err != nil {
			return "", fmt.Errorf("%w: %s - %s: %v", shared.ErrSearchFailed, title, artist, err)
		}
		if ok {
			s.logger.Debug("match found", "tier", tier.Name(), "title", title, "video", videoID)
			return services.WatchURL(videoID), nil
		}
	}
	return "", nil
}
