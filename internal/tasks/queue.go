package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spottube/internal/models"
	"github.com/desertthunder/spottube/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Expander turns a link into queued tracks.
type Expander interface {
	Expand(ctx context.Context, link string) ([]*models.TrackDescriptor, error)
}

// QueueOptions configures a [Queue].
type QueueOptions struct {
	User          string
	ThreadLimit   int
	SleepInterval time.Duration
	Logger        *log.Logger
}

// Queue is one user's download queue.
//
// Tracks are only appended while the dispatch loop runs and the cursor never passes
// the end of the list. Stopping clears the list when the loop exits.
type Queue struct {
	ctx         context.Context
	user        string
	lister      Expander
	worker      *Worker
	threadLimit int
	logger      *log.Logger

	mu     sync.Mutex
	tracks []*models.TrackDescriptor
	cursor int
	status models.RunStatus
	stopCh chan struct{}
	sleep  time.Duration
	done   chan struct{}
}

// NewQueue creates an idle queue. ctx bounds every dispatch loop the queue starts.
func NewQueue(ctx context.Context, lister Expander, worker *Worker, opts QueueOptions) *Queue {
	if opts.ThreadLimit < 1 {
		opts.ThreadLimit = 1
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	q := &Queue{
		ctx:         ctx,
		user:        opts.User,
		lister:      lister,
		worker:      worker,
		threadLimit: opts.ThreadLimit,
		logger:      shared.WithLogger(opts.Logger, "user", opts.User),
		status:      models.RunIdle,
		stopCh:      make(chan struct{}),
		sleep:       opts.SleepInterval,
	}
	worker.setStatus = q.setStatus
	worker.pacing = q.SleepInterval
	return q
}

// User is the owner of the queue.
func (q *Queue) User() string {
	return q.user
}

// Submit expands link and appends its tracks, starting the dispatch loop when it is not running.
//
// It returns once the tracks are queued. An expansion error leaves the queue untouched.
func (q *Queue) Submit(ctx context.Context, link string) error {
	q.mu.Lock()
	q.resetStopLocked()
	q.mu.Unlock()

	tracks, err := q.lister.Expand(ctx, link)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.status == models.RunComplete {
		q.tracks = nil
	}
	q.tracks = append(q.tracks, tracks...)
	q.logger.Info("tracks queued", "count", len(tracks), "total", len(q.tracks))

	if q.status != models.RunRunning {
		q.cursor = 0
		q.status = models.RunRunning
		q.done = make(chan struct{})
		go q.run(q.done)
	}
	return nil
}

// Stop asks the dispatch loop to stop. In-flight downloads finish; no new ones start.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	select {
	case <-q.stopCh:
	default:
		close(q.stopCh)
		q.logger.Info("stop requested")
	}
}

// Clear stops the queue and empties it. A running loop empties it when it exits.
func (q *Queue) Clear() {
	q.Stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.status != models.RunRunning {
		q.tracks = nil
		q.cursor = 0
		q.status = models.RunIdle
	}
}

// Wait blocks until the current dispatch loop exits.
func (q *Queue) Wait() {
	q.mu.Lock()
	done := q.done
	q.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Snapshot returns a copy of the queue state.
func (q *Queue) Snapshot() models.Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	data := make([]models.TrackDescriptor, len(q.tracks))
	for i, t := range q.tracks {
		data[i] = *t
	}
	return models.Snapshot{
		Data:              data,
		Status:            q.status,
		PercentCompletion: models.Percent(q.cursor, len(q.tracks)),
	}
}

// Status is the current run status.
func (q *Queue) Status() models.RunStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.status
}

// SetSleepInterval changes the pause after each completed download.
func (q *Queue) SetSleepInterval(d time.Duration) {
	if d < 0 {
		d = 0
	}
	q.mu.Lock()
	q.sleep = d
	q.mu.Unlock()
}

// SleepInterval is the pause after each completed download.
func (q *Queue) SleepInterval() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sleep
}

// ThreadLimit is the number of concurrent workers per batch.
func (q *Queue) ThreadLimit() int {
	return q.threadLimit
}

func (q *Queue) setStatus(track *models.TrackDescriptor, status models.TrackStatus) {
	q.mu.Lock()
	track.Status = status
	q.mu.Unlock()
}

func (q *Queue) advance() {
	q.mu.Lock()
	if q.cursor < len(q.tracks) {
		q.cursor++
	}
	q.mu.Unlock()
}

func (q *Queue) resetStopLocked() {
	select {
	case <-q.stopCh:
		q.stopCh = make(chan struct{})
	default:
	}
}

func (q *Queue) stoppedLocked() bool {
	if q.ctx.Err() != nil {
		return true
	}
	select {
	case <-q.stopCh:
		return true
	default:
		return false
	}
}

func (q *Queue) stopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stoppedLocked()
}

// run is the dispatch loop: batches of workers over the unprocessed tail until the
// list is exhausted or a stop is requested.
func (q *Queue) run(done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("dispatch loop panicked", "panic", fmt.Sprint(r))
			q.mu.Lock()
			q.status = models.RunStopped
			q.mu.Unlock()
		}
	}()

	for {
		q.mu.Lock()
		if q.stoppedLocked() {
			q.status = models.RunStopped
			q.tracks = nil
			q.cursor = 0
			q.mu.Unlock()
			q.logger.Info("queue stopped")
			return
		}
		if q.cursor >= len(q.tracks) {
			q.status = models.RunComplete
			q.mu.Unlock()
			q.logger.Info("queue complete")
			return
		}
		q.status = models.RunRunning
		batch := append([]*models.TrackDescriptor(nil), q.tracks[q.cursor:]...)
		stop := q.stopCh
		q.mu.Unlock()

		q.dispatch(batch, stop)
	}
}

// dispatch runs one batch with at most threadLimit workers in flight.
//
// A slot is acquired before the stop signal is checked, so nothing launches once a stop has been requested.
func (q *Queue) dispatch(batch []*models.TrackDescriptor, stop <-chan struct{}) {
	launchCtx, cancel := context.WithCancel(q.ctx)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-launchCtx.Done():
		}
	}()

	var g errgroup.Group
	slots := semaphore.NewWeighted(int64(q.threadLimit))
	for _, track := range batch {
		if err := slots.Acquire(launchCtx, 1); err != nil {
			break
		}
		if q.stopped() {
			slots.Release(1)
			break
		}

		q.logger.Info("searching for song", "title", track.Title, "artist", track.Artist)
		g.Go(func() error {
			defer slots.Release(1)
			defer q.advance()
			defer q.worker.recoverTrack(track)
			q.worker.Process(q.ctx, track, stop)
			return nil
		})
	}
	g.Wait()
}
