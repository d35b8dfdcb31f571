package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spottube/internal/models"
	"github.com/desertthunder/spottube/internal/services"
	"github.com/desertthunder/spottube/internal/shared"
	"github.com/desertthunder/spottube/internal/tasks"
	testutil "github.com/desertthunder/spottube/internal/testing"
)

type event struct {
	user string
	name string
	data any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event
}

func (p *recordingPublisher) Publish(user, name string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event{user: user, name: name, data: data})
}

func (p *recordingPublisher) count(user string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.user == user {
			n++
		}
	}
	return n
}

func (p *recordingPublisher) last(user string) (event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].user == user {
			return p.events[i], true
		}
	}
	return event{}, false
}

func newTestRegistry(t *testing.T, pub Publisher) *Registry {
	t.Helper()
	track := testutil.SpotifyTrack("Blinding Lights", "The Weeknd")
	provider := &testutil.MockProvider{Tracks: map[string]*services.SpotifyTrack{"t1": &track}}
	return newRegistryWith(t, pub, provider, &testutil.MockMatcher{}, &testutil.MockFetcher{})
}

func newRegistryWith(t *testing.T, pub Publisher, provider services.MetadataProvider, matcher tasks.Matcher, fetcher services.Fetcher) *Registry {
	t.Helper()
	logger := shared.NewLogger(io.Discard)

	r := NewRegistry(context.Background(), RegistryOptions{
		Allowed: func(u string) bool { return u != "mallory" },
		NewQueue: func(ctx context.Context, user string) *tasks.Queue {
			worker := tasks.NewWorker(matcher, fetcher, t.TempDir(), logger)
			return tasks.NewQueue(ctx, tasks.NewLister(provider, logger), worker, tasks.QueueOptions{User: user, ThreadLimit: 1, Logger: logger})
		},
		Publisher: pub,
		Interval:  10 * time.Millisecond,
		Logger:    logger,
	})
	t.Cleanup(r.Close)
	return r
}

// threeTracks serves t1, t2 and t3 with a blocking fetcher that reports each fetch it starts.
func threeTracks() (*testutil.MockProvider, *testutil.MockFetcher) {
	provider := &testutil.MockProvider{Tracks: map[string]*services.SpotifyTrack{}}
	for i, title := range []string{"Blinding Lights", "Save Your Tears", "Starboy"} {
		track := testutil.SpotifyTrack(title, "The Weeknd")
		provider.Tracks[fmt.Sprintf("t%d", i+1)] = &track
	}
	fetcher := &testutil.MockFetcher{Block: make(chan struct{}), Started: make(chan string, 3)}
	return provider, fetcher
}

func submitAll(t *testing.T, q *tasks.Queue, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := q.Submit(context.Background(), "spotify:track:"+id); err != nil {
			t.Fatalf("Submit(%s) error = %v", id, err)
		}
	}
}

func TestRegistry(t *testing.T) {
	t.Run("rejects missing and unknown users", func(t *testing.T) {
		r := newTestRegistry(t, &recordingPublisher{})

		if _, err := r.Connect(""); !errors.Is(err, shared.ErrMissingUser) {
			t.Errorf("expected ErrMissingUser, got %v", err)
		}
		if _, err := r.Connect("mallory"); !errors.Is(err, shared.ErrUnauthorizedUser) {
			t.Errorf("expected ErrUnauthorizedUser, got %v", err)
		}
		if _, err := r.Lookup("mallory"); !errors.Is(err, shared.ErrUnauthorizedUser) {
			t.Errorf("expected ErrUnauthorizedUser, got %v", err)
		}
		if _, err := r.Lookup("alice"); !errors.Is(err, shared.ErrUnknownSession) {
			t.Errorf("expected ErrUnknownSession, got %v", err)
		}
	})

	t.Run("connections share a session until the last leaves", func(t *testing.T) {
		r := newTestRegistry(t, &recordingPublisher{})

		first, err := r.Connect("alice")
		if err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
		second, err := r.Connect("alice")
		if err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
		if first != second {
			t.Fatal("expected both connections to share one session")
		}
		if !first.MonitorActive() {
			t.Error("expected the broadcaster to be running")
		}

		r.Disconnect("alice")
		if _, err := r.Lookup("alice"); err != nil {
			t.Errorf("session should survive while a connection remains: %v", err)
		}

		r.Disconnect("alice")
		if _, err := r.Lookup("alice"); !errors.Is(err, shared.ErrUnknownSession) {
			t.Errorf("expected session removal, got %v", err)
		}
		if first.MonitorActive() {
			t.Error("broadcaster should stop with the session")
		}

		r.Disconnect("alice")
	})

	t.Run("reconnect creates a fresh session", func(t *testing.T) {
		r := newTestRegistry(t, &recordingPublisher{})

		s1, _ := r.Connect("alice")
		r.Disconnect("alice")
		s2, err := r.Connect("alice")
		if err != nil {
			t.Fatal(err)
		}
		if s1 == s2 || s1.Queue == s2.Queue {
			t.Error("expected a new session after the last disconnect")
		}
	})

	t.Run("publishes progress per user", func(t *testing.T) {
		pub := &recordingPublisher{}
		r := newTestRegistry(t, pub)

		s, err := r.Connect("alice")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := r.Connect("bob"); err != nil {
			t.Fatal(err)
		}

		if err := s.Queue.Submit(context.Background(), "spotify:track:t1"); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		s.Queue.Wait()

		testutil.Eventually(t, time.Second, func() bool { return pub.count("alice") >= 3 }, "alice receives progress")
		testutil.Eventually(t, time.Second, func() bool { return pub.count("bob") >= 1 }, "bob receives progress")

		testutil.Eventually(t, time.Second, func() bool {
			e, ok := pub.last("alice")
			if !ok {
				return false
			}
			snap, ok := e.data.(models.Snapshot)
			return ok && e.name == EventProgressStatus && snap.Status == models.RunComplete && len(snap.Data) == 1
		}, "alice sees the completed queue")

		if got := r.Users(); len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
			t.Errorf("unexpected users %v", got)
		}

		r.Disconnect("alice")
		before := pub.count("alice")
		time.Sleep(50 * time.Millisecond)
		if after := pub.count("alice"); after != before {
			t.Errorf("expected no pushes after disconnect, got %d more", after-before)
		}
	})

	t.Run("downloads continue after the last disconnect", func(t *testing.T) {
		provider, fetcher := threeTracks()
		r := newRegistryWith(t, &recordingPublisher{}, provider, &testutil.MockMatcher{Default: "https://www.youtube.com/watch?v=x"}, fetcher)

		s, err := r.Connect("alice")
		if err != nil {
			t.Fatal(err)
		}
		submitAll(t, s.Queue, "t1", "t2", "t3")

		<-fetcher.Started
		r.Disconnect("alice")
		if s.MonitorActive() {
			t.Error("broadcaster should stop with the last connection")
		}
		close(fetcher.Block)
		s.Queue.Wait()

		snap := s.Queue.Snapshot()
		if snap.Status != models.RunComplete {
			t.Errorf("status = %s, want %s", snap.Status, models.RunComplete)
		}
		if got := len(fetcher.Requests()); got != 3 {
			t.Errorf("expected 3 fetches, got %d", got)
		}
		for _, track := range snap.Data {
			if track.Status != models.StatusComplete {
				t.Errorf("%s: status = %s", track.Title, track.Status)
			}
		}
	})

	t.Run("close stops detached queues", func(t *testing.T) {
		provider, fetcher := threeTracks()
		r := newRegistryWith(t, &recordingPublisher{}, provider, &testutil.MockMatcher{Default: "https://www.youtube.com/watch?v=x"}, fetcher)

		s, err := r.Connect("alice")
		if err != nil {
			t.Fatal(err)
		}
		submitAll(t, s.Queue, "t1", "t2", "t3")
		<-fetcher.Started
		r.Disconnect("alice")

		r.Close()
		if got := s.Queue.Status(); got != models.RunStopped {
			t.Errorf("status = %s, want %s", got, models.RunStopped)
		}
		if got := len(fetcher.Requests()); got != 1 {
			t.Errorf("expected no fetches after close, got %d", got)
		}
	})

	t.Run("close stops everything", func(t *testing.T) {
		r := newTestRegistry(t, &recordingPublisher{})
		s, _ := r.Connect("alice")
		r.Close()

		if s.MonitorActive() {
			t.Error("broadcaster should be stopped")
		}
		if len(r.Users()) != 0 {
			t.Errorf("expected no sessions, got %v", r.Users())
		}
		if _, err := r.Connect("alice"); err == nil {
			t.Error("connect after close should fail")
		}
	})
}

func TestBroadcaster(t *testing.T) {
	pub := &recordingPublisher{}
	source := snapshotFunc(func() models.Snapshot { return models.Snapshot{Status: models.RunIdle} })
	b := NewBroadcaster("alice", source, pub, 5*time.Millisecond, nil)

	b.Start(context.Background())
	b.Start(context.Background())
	testutil.Eventually(t, time.Second, func() bool { return pub.count("alice") >= 2 }, "ticks")

	b.Stop()
	b.Stop()
	if b.Active() {
		t.Error("expected stopped broadcaster")
	}

	t.Run("context cancellation ends the loop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		b := NewBroadcaster("bob", source, pub, time.Hour, nil)
		b.Start(ctx)
		testutil.Eventually(t, time.Second, func() bool { return pub.count("bob") == 1 }, "first push is immediate")
		cancel()
		b.Stop()
	})
}

type snapshotFunc func() models.Snapshot

func (f snapshotFunc) Snapshot() models.Snapshot { return f() }
