// Package tui is the terminal playback view: status, transport keys and quality selection.
package tui

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arsu-cli/arsu/playback"
	"github.com/arsu-cli/arsu/stream"
	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
)

// Controller is the playback surface the view drives.
type Controller interface {
	Load(src string) error
	Play(ctx context.Context) error
	Pause() error
	Status() playback.Status
	Subscribe() <-chan playback.Status
}

// Options configures the view.
type Options struct {
	Title      string
	ResourceID string
	Quality    stream.Quality
	Resolver   stream.Resolver
	Controller Controller
	// Position reports playback position and duration in seconds. Optional.
	Position func() (pos, dur float64, err error)
	// OnLoad is called after each successful source change. Optional.
	OnLoad func(q stream.Quality)
}

// Run shows the view until the user quits.
func Run(options *Options) error {
	_, err := tea.NewProgram(newModel(options), tea.WithAltScreen()).Run()
	return err
}

type (
	statusMsg   playback.Status
	closedMsg   struct{}
	actionMsg   struct{ err error }
	positionMsg struct{ pos, dur float64 }
	tickMsg     time.Time
)

type loadedMsg struct {
	seq     uint64
	quality stream.Quality
	err     error
}

// loader applies source changes one at a time in the order they were asked
// for. A change that was superseded before its turn is skipped.
type loader struct {
	mu     sync.Mutex
	latest atomic.Uint64
}

func (l *loader) next() uint64 {
	return l.latest.Add(1)
}

func (l *loader) current(seq uint64) bool {
	return seq == l.latest.Load()
}

func (l *loader) run(seq uint64, fn func() error) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.current(seq) {
		return false, nil
	}
	return true, fn()
}

type model struct {
	options *Options
	keymap  *keymap
	updates <-chan playback.Status
	loads   *loader

	status  playback.Status
	quality stream.Quality
	err     error
	pos     float64
	dur     float64
	width   int
	quiting bool

	helpC     help.Model
	spinnerC  spinner.Model
	progressC progress.Model
}

func newModel(options *Options) *model {
	q := options.Quality
	if !q.Valid() {
		q = stream.DefaultQuality
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	return &model{
		options:   options,
		keymap:    newKeymap(),
		loads:     &loader{},
		quality:   q,
		status:    options.Controller.Status(),
		helpC:     help.New(),
		spinnerC:  s,
		progressC: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (m *model) Init() tea.Cmd {
	m.updates = m.options.Controller.Subscribe()
	return tea.Batch(m.waitForStatus(), m.load(m.quality), m.spinnerC.Tick, tick())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.helpC.Width = msg.Width
		m.progressC.Width = max(msg.Width-8, 10)
		return m, nil
	case statusMsg:
		m.status = playback.Status(msg)
		return m, m.waitForStatus()
	case closedMsg:
		return m, tea.Quit
	case loadedMsg:
		if !m.loads.current(msg.seq) {
			return m, nil
		}
		if msg.err == nil && m.options.OnLoad != nil {
			m.options.OnLoad(msg.quality)
		}
		m.err = msg.err
		return m, nil
	case actionMsg:
		m.err = msg.err
		return m, nil
	case positionMsg:
		m.pos, m.dur = msg.pos, msg.dur
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.position(), tick())
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinnerC, cmd = m.spinnerC.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case bubblesKey.Matches(msg, m.keymap.quit, m.keymap.forceQuit):
		m.quiting = true
		return m, tea.Quit
	case bubblesKey.Matches(msg, m.keymap.showHelp):
		m.helpC.ShowAll = !m.helpC.ShowAll
		return m, nil
	case bubblesKey.Matches(msg, m.keymap.playPause):
		return m, m.togglePlay()
	case bubblesKey.Matches(msg, m.keymap.nextQuality):
		return m, m.setQuality(m.quality.Next())
	}

	for i, binding := range m.keymap.qualities {
		if bubblesKey.Matches(msg, binding) {
			return m, m.setQuality(stream.Qualities()[i])
		}
	}
	return m, nil
}

// setQuality builds a new request for the tier; the controller resets on Load.
func (m *model) setQuality(q stream.Quality) tea.Cmd {
	if q == m.quality && m.status.Source != "" {
		return nil
	}
	m.quality = q
	return m.load(q)
}

func (m *model) load(q stream.Quality) tea.Cmd {
	seq := m.loads.next()

	src, err := m.options.Resolver.Resolve(m.options.ResourceID, q)
	if err != nil {
		return func() tea.Msg { return loadedMsg{seq: seq, quality: q, err: err} }
	}

	controller, loads := m.options.Controller, m.loads
	return func() tea.Msg {
		ran, err := loads.run(seq, func() error { return controller.Load(src) })
		if !ran {
			return nil
		}
		return loadedMsg{seq: seq, quality: q, err: err}
	}
}

func (m *model) togglePlay() tea.Cmd {
	controller := m.options.Controller
	playing := m.status.State == playback.Playing

	return func() tea.Msg {
		if playing {
			return actionMsg{err: controller.Pause()}
		}
		return actionMsg{err: controller.Play(context.Background())}
	}
}

func (m *model) waitForStatus() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return statusMsg(s)
	}
}

func (m *model) position() tea.Cmd {
	if m.options.Position == nil || m.status.State < playback.Ready {
		return nil
	}

	fn := m.options.Position
	return func() tea.Msg {
		pos, dur, err := fn()
		if err != nil {
			return nil
		}
		return positionMsg{pos: pos, dur: dur}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) qualityIndex() int {
	return lo.IndexOf(stream.Qualities(), m.quality)
}
