package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/arsu-cli/arsu/playback"
	"github.com/arsu-cli/arsu/strategy"
	"github.com/arsu-cli/arsu/stream"
	tea "github.com/charmbracelet/bubbletea"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeController struct {
	mu      sync.Mutex
	status  playback.Status
	loads   []string
	plays   int
	pauses  int
	updates chan playback.Status
}

func newFakeController() *fakeController {
	return &fakeController{updates: make(chan playback.Status, 4)}
}

func (c *fakeController) Load(src string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads = append(c.loads, src)
	c.status = playback.Status{Source: src, State: playback.Loading, Strategy: strategy.SegmentedStreaming}
	return nil
}

func (c *fakeController) Play(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plays++
	return nil
}

func (c *fakeController) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauses++
	return nil
}

func (c *fakeController) Status() playback.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *fakeController) Subscribe() <-chan playback.Status { return c.updates }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func setup() (*model, *fakeController) {
	c := newFakeController()
	m := newModel(&Options{
		Title:      "Big Buck Bunny",
		ResourceID: "abc123",
		Quality:    stream.Q480p,
		Resolver:   stream.NewResolver(),
		Controller: c,
	})
	m.updates = c.updates
	return m, c
}

func TestModel(t *testing.T) {
	Convey("Given a playback view", t, func() {
		m, c := setup()

		Convey("When loading the initial quality", func() {
			msg := m.load(m.quality)()

			Convey("Then the controller receives the resolved url", func() {
				So(msg, ShouldResemble, loadedMsg{seq: 1, quality: stream.Q480p})
				So(c.loads, ShouldHaveLength, 1)
				So(c.loads[0], ShouldContainSubstring, "abc123")
				So(c.loads[0], ShouldContainSubstring, "quality=480p")
			})
		})

		Convey("When a quality digit is pressed", func() {
			_, cmd := m.Update(runes("1"))
			So(cmd, ShouldNotBeNil)
			cmd()

			Convey("Then the lowest tier is loaded", func() {
				So(m.quality, ShouldEqual, stream.Qualities()[0])
				So(c.loads, ShouldHaveLength, 1)
				So(c.loads[0], ShouldContainSubstring, "quality="+stream.Qualities()[0].String())
			})
		})

		Convey("When tab is pressed", func() {
			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
			cmd()

			Convey("Then the next tier is loaded", func() {
				So(m.quality, ShouldEqual, stream.Q480p.Next())
				So(c.loads, ShouldHaveLength, 1)
			})
		})

		Convey("When the tier changes twice before either load runs", func() {
			var loaded []stream.Quality
			m.options.OnLoad = func(q stream.Quality) { loaded = append(loaded, q) }

			first := m.setQuality(stream.Q1080p)
			second := m.setQuality(stream.Q240p)

			var wg sync.WaitGroup
			msgs := make([]tea.Msg, 2)
			for i, cmd := range []tea.Cmd{second, first} {
				wg.Add(1)
				go func(i int, cmd tea.Cmd) {
					defer wg.Done()
					msgs[i] = cmd()
				}(i, cmd)
			}
			wg.Wait()
			for _, msg := range msgs {
				m.Update(msg)
			}

			Convey("Then only the latest tier reaches the controller", func() {
				So(c.loads, ShouldHaveLength, 1)
				So(c.loads[0], ShouldContainSubstring, "quality=240p")
			})

			Convey("Then only the latest tier is recorded", func() {
				So(loaded, ShouldResemble, []stream.Quality{stream.Q240p})
			})
		})

		Convey("When a load finishes after a newer one was asked for", func() {
			var loaded []stream.Quality
			m.options.OnLoad = func(q stream.Quality) { loaded = append(loaded, q) }

			msg := m.setQuality(stream.Q1080p)()
			cmd := m.setQuality(stream.Q240p)
			m.Update(msg)
			m.Update(cmd())

			Convey("Then the controller sees both in order", func() {
				So(c.loads, ShouldHaveLength, 2)
				So(c.loads[0], ShouldContainSubstring, "quality=1080p")
				So(c.loads[1], ShouldContainSubstring, "quality=240p")
			})

			Convey("Then the stale result is not recorded", func() {
				So(loaded, ShouldResemble, []stream.Quality{stream.Q240p})
			})
		})

		Convey("When the current tier is pressed again after loading", func() {
			m.status.Source = "http://x"
			_, cmd := m.Update(runes("2"))

			Convey("Then nothing is reloaded", func() {
				So(cmd, ShouldBeNil)
			})
		})

		Convey("When space is pressed while ready", func() {
			m.Update(statusMsg(playback.Status{State: playback.Ready}))
			_, cmd := m.Update(runes(" "))
			msg := cmd()

			Convey("Then play is requested", func() {
				So(msg, ShouldResemble, actionMsg{})
				So(c.plays, ShouldEqual, 1)
				So(c.pauses, ShouldEqual, 0)
			})
		})

		Convey("When space is pressed while playing", func() {
			m.Update(statusMsg(playback.Status{State: playback.Playing}))
			_, cmd := m.Update(runes(" "))
			cmd()

			Convey("Then pause is requested", func() {
				So(c.pauses, ShouldEqual, 1)
				So(c.plays, ShouldEqual, 0)
			})
		})

		Convey("When a status update arrives", func() {
			c.updates <- playback.Status{State: playback.Ready, Strategy: strategy.SegmentedStreaming}
			msg := m.waitForStatus()()
			m.Update(msg)

			Convey("Then the view shows it", func() {
				So(m.status.State, ShouldEqual, playback.Ready)
				So(m.View(), ShouldContainSubstring, "Ready")
				So(m.View(), ShouldContainSubstring, "Big Buck Bunny")
			})
		})

		Convey("When the controller closes its updates", func() {
			close(c.updates)
			msg := m.waitForStatus()()

			Convey("Then the view quits", func() {
				So(msg, ShouldResemble, closedMsg{})
			})
		})

		Convey("When the status carries an error", func() {
			m.Update(statusMsg(playback.Status{State: playback.Loading, Err: errors.New("can't load video")}))

			Convey("Then it is shown", func() {
				So(m.View(), ShouldContainSubstring, "can't load video")
			})
		})

		Convey("When q is pressed", func() {
			_, cmd := m.Update(runes("q"))

			Convey("Then the program quits", func() {
				So(cmd(), ShouldResemble, tea.Quit())
				So(m.View(), ShouldBeEmpty)
			})
		})
	})
}
