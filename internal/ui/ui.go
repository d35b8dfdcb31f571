package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spottube/internal/models"
	"github.com/desertthunder/spottube/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ExpandView ViewState = iota
	QueueView
	ResultView
)

// Queue is the part of [tasks.Queue] the view drives.
type Queue interface {
	Submit(ctx context.Context, link string) error
	Snapshot() models.Snapshot
	Stop()
}

// resultOrder fixes the order tallies are printed in.
var resultOrder = []models.TrackStatus{
	models.StatusComplete,
	models.StatusExists,
	models.StatusNoLink,
	models.StatusSearchFailed,
	models.StatusFailed,
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	queue     Queue
	link      string
	view      ViewState
	updates   chan tasks.ProgressUpdate
	expand    tasks.ProgressUpdate
	snapshot  models.Snapshot
	trackList list.Model
	bar       progress.Model
	spinner   spinner.Model
	interval  time.Duration
	stopping  bool
	width     int
	height    int
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a model that submits link to queue on start.
//
// updates may be nil. When set it should be the channel the queue's lister reports to;
// the model closes it once the submission returns.
func NewModel(ctx context.Context, queue Queue, link string, updates chan tasks.ProgressUpdate) *Model {
	tracks := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	tracks.Title = "Tracks"
	tracks.SetFilteringEnabled(false)
	tracks.SetShowHelp(false)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:       ctx,
		queue:     queue,
		link:      link,
		view:      ExpandView,
		updates:   updates,
		trackList: tracks,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(60)),
		spinner:   s,
		interval:  250 * time.Millisecond,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// WithInterval sets how often the queue snapshot is polled.
func (m *Model) WithInterval(d time.Duration) *Model {
	if d > 0 {
		m.interval = d
	}
	return m
}

// View state accessors, for callers that inspect the model after the program exits.
func (m *Model) State() ViewState          { return m.view }
func (m *Model) Snapshot() models.Snapshot { return m.snapshot }
func (m *Model) Err() error                { return m.err }

// Init starts the submission and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.submit(), m.waitForExpand())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, max(msg.Height-10, 5))
		m.bar.Width = min(msg.Width-4, 60)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if m.view != ExpandView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		if m.view != ResultView {
			m.queue.Stop()
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.stop):
		if m.view == QueueView && !m.stopping {
			m.stopping = true
			m.queue.Stop()
		}
		return m, nil
	}

	if m.view == QueueView {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgExpandProgress:
		m.expand = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForExpand()

	case MsgExpandDone:
		return m, nil

	case MsgSubmitted:
		if err, _ := msg.data.(error); err != nil {
			m.err = err
			m.view = ResultView
			return m, nil
		}
		m.view = QueueView
		return m, m.poll()

	case MsgSnapshot:
		m.snapshot = msg.data.(models.Snapshot)
		cmd := m.trackList.SetItems(trackItems(m.snapshot.Data))
		switch m.snapshot.Status {
		case models.RunComplete, models.RunStopped:
			m.view = ResultView
			return m, cmd
		}
		return m, tea.Batch(cmd, m.poll())
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ExpandView:
		return m.renderExpand()
	case QueueView:
		return m.renderQueue()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) submit() tea.Cmd {
	return func() tea.Msg {
		err := m.queue.Submit(m.ctx, m.link)
		if m.updates != nil {
			close(m.updates)
		}
		return submittedMsg(err)
	}
}

func (m *Model) waitForExpand() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-m.updates
		if !ok {
			return expandDoneMsg()
		}
		return expandProgressMsg(update)
	}
}

func (m *Model) poll() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return snapshotMsg(m.queue.Snapshot())
	})
}

func (m *Model) renderExpand() string {
	title := styles.title.Render("Expanding link")

	line := m.expand.Message
	if line == "" {
		line = m.link
	}
	if m.expand.Total > 0 {
		line = fmt.Sprintf("%s (%d/%d)", line, m.expand.Step, m.expand.Total)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s %s\n\n%s", title, m.spinner.View(), line, helpView)
}

func (m *Model) renderQueue() string {
	title := styles.title.Render(fmt.Sprintf("Downloading (%s)", m.snapshot.Status))

	done := 0
	for _, t := range m.snapshot.Data {
		if t.Status.IsTerminal() {
			done++
		}
	}
	bar := fmt.Sprintf("%s  %d/%d tracks", m.bar.ViewAs(m.snapshot.PercentCompletion/100), done, len(m.snapshot.Data))

	var notice string
	if m.stopping {
		notice = "\n" + styles.warn.Render("Stopping after in-flight downloads finish...")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.stop, m.keys.quit})
	return fmt.Sprintf("%s\n%s%s\n\n%s\n\n%s", title, bar, notice, m.trackList.View(), helpView)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Download failed: %v", m.err)), helpView)
	}

	var title string
	if m.snapshot.Status == models.RunStopped {
		title = styles.warn.Render("Queue stopped")
	} else {
		title = styles.ok.Render("✓ Queue complete")
	}

	var b strings.Builder
	counts := m.snapshot.Counts()
	fmt.Fprintf(&b, "\nTracks: %d (%.0f%%)", len(m.snapshot.Data), m.snapshot.PercentCompletion)
	for _, s := range resultOrder {
		if n := counts[s]; n > 0 {
			fmt.Fprintf(&b, "\n  %s: %d", styles.Status(s).Render(s.String()), n)
		}
	}

	var missed []string
	for _, t := range m.snapshot.Data {
		if t.Status != models.StatusComplete && t.Status != models.StatusExists {
			missed = append(missed, fmt.Sprintf("  • %s - %s (%s)", t.Artist, t.Title, t.Status))
		}
	}
	if len(missed) > 0 {
		fmt.Fprintf(&b, "\n\n%s\n%s", styles.warn.Render(fmt.Sprintf("Not downloaded (%d):", len(missed))), strings.Join(missed, "\n"))
	}

	return fmt.Sprintf("%s\n%s\n\n%s", title, b.String(), helpView)
}
