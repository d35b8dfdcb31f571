// Package session tracks connected users and their download queues.
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spottube/internal/models"
	"github.com/desertthunder/spottube/internal/shared"
	"github.com/desertthunder/spottube/internal/tasks"
)

// QueueFactory builds the queue for a newly connected user.
type QueueFactory func(ctx context.Context, user string) *tasks.Queue

// Session is the state shared by every connection of one user.
type Session struct {
	UserID string
	Queue  *tasks.Queue

	broadcaster *Broadcaster
	conns       int
}

// MonitorActive reports whether progress is being pushed for this session.
func (s *Session) MonitorActive() bool {
	return s.broadcaster.Active()
}

// RegistryOptions configures a [Registry].
type RegistryOptions struct {
	// Allowed reports whether a user may connect. Nil allows everyone.
	Allowed   func(user string) bool
	NewQueue  QueueFactory
	Publisher Publisher
	// Interval between progress pushes, one second when zero.
	Interval time.Duration
	Logger   *log.Logger
}

// Registry maps user ids to sessions. Connections of the same user share one session,
// which lives until the last of them disconnects.
type Registry struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   RegistryOptions
	logger *log.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	// detached holds queues of departed users that may still be downloading.
	detached []*tasks.Queue
}

// NewRegistry creates an empty registry. Queues and broadcasters live at most as long as ctx.
func NewRegistry(ctx context.Context, opts RegistryOptions) *Registry {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Allowed == nil {
		opts.Allowed = func(string) bool { return true }
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Registry{
		ctx:      ctx,
		cancel:   cancel,
		opts:     opts,
		logger:   opts.Logger,
		sessions: make(map[string]*Session),
	}
}

func (r *Registry) authorize(user string) error {
	if user == "" {
		return shared.ErrMissingUser
	}
	if !r.opts.Allowed(user) {
		return fmt.Errorf("%w: %s", shared.ErrUnauthorizedUser, user)
	}
	return nil
}

// Connect registers one more connection for user, creating the session on first use.
func (r *Registry) Connect(user string) (*Session, error) {
	if err := r.authorize(user); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ctx.Err(); err != nil {
		return nil, fmt.Errorf("registry closed: %w", err)
	}

	s, ok := r.sessions[user]
	if !ok {
		queue := r.opts.NewQueue(r.ctx, user)
		s = &Session{
			UserID:      user,
			Queue:       queue,
			broadcaster: NewBroadcaster(user, queue, r.opts.Publisher, r.opts.Interval, r.logger),
		}
		r.sessions[user] = s
		r.logger.Info("session created", "user", user)
	}

	s.conns++
	s.broadcaster.Start(r.ctx)
	return s, nil
}

// Lookup returns the session of a connected user.
func (r *Registry) Lookup(user string) (*Session, error) {
	if err := r.authorize(user); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[user]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownSession, user)
	}
	return s, nil
}

// Disconnect drops one connection of user. The last one stops the broadcaster and removes
// the session. Its queue keeps downloading until it drains or the registry closes.
func (r *Registry) Disconnect(user string) {
	r.mu.Lock()
	s, ok := r.sessions[user]
	if !ok {
		r.mu.Unlock()
		return
	}
	s.conns--
	if s.conns > 0 {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, user)
	r.detach(s.Queue)
	r.mu.Unlock()

	s.broadcaster.Stop()
	r.logger.Info("session removed", "user", user)
}

// detach keeps q for Close and drops detached queues that have finished. Callers hold r.mu.
func (r *Registry) detach(q *tasks.Queue) {
	kept := r.detached[:0]
	for _, d := range r.detached {
		if d.Status() == models.RunRunning {
			kept = append(kept, d)
		}
	}
	r.detached = append(kept, q)
}

// Users lists the connected users in sorted order.
func (r *Registry) Users() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]string, 0, len(r.sessions))
	for u := range r.sessions {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// Close stops every session and detached queue and cancels the registry context.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	queues := r.detached
	r.detached = nil
	r.mu.Unlock()

	for _, s := range sessions {
		s.broadcaster.Stop()
		queues = append(queues, s.Queue)
	}
	for _, q := range queues {
		q.Stop()
	}
	r.cancel()
	for _, q := range queues {
		q.Wait()
	}
}
