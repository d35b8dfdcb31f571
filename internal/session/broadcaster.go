package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spottube/internal/models"
	"github.com/desertthunder/spottube/internal/shared"
)

// EventProgressStatus is the event name of a queue snapshot push.
const EventProgressStatus = "progress_status"

// Publisher delivers an event to every connection of a user.
type Publisher interface {
	Publish(user, event string, data any)
}

// Snapshotter is anything that can report queue progress.
type Snapshotter interface {
	Snapshot() models.Snapshot
}

// Broadcaster pushes a user's queue snapshot on a fixed interval.
type Broadcaster struct {
	user     string
	source   Snapshotter
	pub      Publisher
	interval time.Duration
	logger   *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewBroadcaster creates a stopped broadcaster. A non-positive interval means one second.
func NewBroadcaster(user string, source Snapshotter, pub Publisher, interval time.Duration, logger *log.Logger) *Broadcaster {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Broadcaster{user: user, source: source, pub: pub, interval: interval, logger: logger}
}

// Start begins publishing until ctx ends or [Broadcaster.Stop] is called. It is a no-op when already running.
func (b *Broadcaster) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.loop(ctx, b.done)
	b.logger.Debug("progress broadcaster started", "user", b.user)
}

// Stop cancels the loop and waits for it to exit.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	b.logger.Debug("progress broadcaster stopped", "user", b.user)
}

// Active reports whether the loop is running.
func (b *Broadcaster) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancel != nil
}

func (b *Broadcaster) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		b.pub.Publish(b.user, EventProgressStatus, b.source.Snapshot())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
