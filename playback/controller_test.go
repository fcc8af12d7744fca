package playback

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/arsu-cli/arsu/constant"
	"github.com/arsu-cli/arsu/hls"
	"github.com/arsu-cli/arsu/player"
	"github.com/arsu-cli/arsu/strategy"
	"github.com/arsu-cli/arsu/stream"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeEngine hands its callbacks to the test. Unlike a real engine it keeps
// delivering after Destroy, so late callbacks can be simulated.
type fakeEngine struct {
	mu        sync.Mutex
	src       string
	element   player.Element
	parsed    []func()
	errs      []func(error)
	destroyed bool
}

func (e *fakeEngine) LoadSource(src string)         { e.mu.Lock(); e.src = src; e.mu.Unlock() }
func (e *fakeEngine) AttachMedia(el player.Element) { e.mu.Lock(); e.element = el; e.mu.Unlock() }
func (e *fakeEngine) OnManifestParsed(fn func())    { e.mu.Lock(); e.parsed = append(e.parsed, fn); e.mu.Unlock() }
func (e *fakeEngine) OnError(fn func(error))        { e.mu.Lock(); e.errs = append(e.errs, fn); e.mu.Unlock() }
func (e *fakeEngine) Destroy()                      { e.mu.Lock(); e.destroyed = true; e.mu.Unlock() }

func (e *fakeEngine) fireParsed() {
	e.mu.Lock()
	fns := append([]func(){}, e.parsed...)
	e.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (e *fakeEngine) fireError(err error) {
	e.mu.Lock()
	fns := append([]func(error){}, e.errs...)
	e.mu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
}

type engines struct {
	mu   sync.Mutex
	list []*fakeEngine
}

func (f *engines) factory() Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := &fakeEngine{}
	f.list = append(f.list, e)
	return e
}

func (f *engines) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return lo.CountBy(f.list, func(e *fakeEngine) bool { return !e.destroyed })
}

func (f *engines) at(i int) *fakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list[i]
}

type fakeElement struct {
	mu        sync.Mutex
	types     []string
	autoplay  bool
	sources   []string
	plays     int
	pauses    int
	resets    int
	unpaused  bool
	listeners map[int]func()
	next      int
	// onPlay runs at the start of every Play, before the element unpauses.
	onPlay func()
}

func newElement(autoplay bool, types ...string) *fakeElement {
	return &fakeElement{types: types, autoplay: autoplay, listeners: make(map[int]func())}
}

func (el *fakeElement) CanPlayType(mime string) bool { return lo.Contains(el.types, mime) }

func (el *fakeElement) SetSource(src string) error {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.sources = append(el.sources, src)
	el.unpaused = false
	return nil
}

func (el *fakeElement) OnLoadedMetadata(fn func()) func() {
	el.mu.Lock()
	defer el.mu.Unlock()
	id := el.next
	el.next++
	el.listeners[id] = fn
	return func() {
		el.mu.Lock()
		defer el.mu.Unlock()
		delete(el.listeners, id)
	}
}

func (el *fakeElement) Play(ctx context.Context) error {
	el.mu.Lock()
	hook := el.onPlay
	el.mu.Unlock()
	if hook != nil {
		hook()
	}

	el.mu.Lock()
	defer el.mu.Unlock()
	el.plays++
	if !el.autoplay && !player.IsUserGesture(ctx) {
		return player.ErrPlaybackRejected
	}
	el.unpaused = true
	return nil
}

func (el *fakeElement) Pause() error {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.pauses++
	el.unpaused = false
	return nil
}

func (el *fakeElement) Reset() error {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.resets++
	el.unpaused = false
	return nil
}

func (el *fakeElement) Close() error { return nil }

func (el *fakeElement) isUnpaused() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.unpaused
}

func (el *fakeElement) loadedMetadata() {
	el.mu.Lock()
	fns := lo.Values(el.listeners)
	el.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (el *fakeElement) playCount() int {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.plays
}

func TestControllerSegmented(t *testing.T) {
	Convey("Given an element the engine can drive", t, func() {
		el := newElement(true, constant.MimeMPEGTS, constant.MimeHLS)
		f := &engines{}
		c := New(el, WithEngineFactory(f.factory))
		defer c.Close()

		Convey("When abc123 is requested at 480p", func() {
			src, err := stream.Resolver{}.Resolve("abc123", stream.Q480p)
			So(err, ShouldBeNil)
			So(src, ShouldEqual, "/api/videos/stream/abc123?quality=480p")

			So(c.Load(src), ShouldBeNil)

			Convey("The session should be loading on the segmented strategy", func() {
				st := c.Status()
				So(st.State, ShouldEqual, Loading)
				So(st.Strategy, ShouldEqual, strategy.SegmentedStreaming)
				So(f.at(0).src, ShouldEqual, src)
				So(f.at(0).element == player.Element(el), ShouldBeTrue)
				So(el.playCount(), ShouldEqual, 0)
			})

			Convey("Manifest parsed should lead to Ready then Playing", func() {
				updates := c.Subscribe()
				So((<-updates).State, ShouldEqual, Loading)

				f.at(0).fireParsed()

				So((<-updates).State, ShouldEqual, Ready)
				So((<-updates).State, ShouldEqual, Playing)
				So(c.Status().State, ShouldEqual, Playing)
				So(c.Status().Err, ShouldBeNil)
				So(el.playCount(), ShouldEqual, 1)
			})

			Convey("A repeated readiness event should not start playback twice", func() {
				f.at(0).fireParsed()
				f.at(0).fireParsed()
				So(el.playCount(), ShouldEqual, 1)
			})

			Convey("Play and Pause should move between Playing and Ready", func() {
				f.at(0).fireParsed()

				So(c.Pause(), ShouldBeNil)
				So(c.Status().State, ShouldEqual, Ready)

				So(c.Play(context.Background()), ShouldBeNil)
				So(c.Status().State, ShouldEqual, Playing)
			})

			Convey("An engine error should be recorded without ending the session", func() {
				f.at(0).fireError(hls.ErrUpstream)

				st := c.Status()
				So(errors.Is(st.Err, ErrNetworkOrDecode), ShouldBeTrue)
				So(st.State, ShouldEqual, Loading)
				So(f.active(), ShouldEqual, 1)
			})
		})

		Convey("When a second source arrives before readiness", func() {
			So(c.Load("/api/videos/stream/a?quality=720p"), ShouldBeNil)
			So(c.Load("/api/videos/stream/b?quality=720p"), ShouldBeNil)

			Convey("Exactly one engine should remain", func() {
				So(f.active(), ShouldEqual, 1)
				So(f.at(0).destroyed, ShouldBeTrue)
				So(f.at(1).destroyed, ShouldBeFalse)
				So(el.resets, ShouldEqual, 1)
			})

			Convey("A late readiness from the first engine should be ignored", func() {
				first := c.Status().Session

				f.at(0).fireParsed()
				f.at(0).fireError(hls.ErrUpstream)

				st := c.Status()
				So(st.State, ShouldEqual, Loading)
				So(st.Err, ShouldBeNil)
				So(st.Source, ShouldEqual, "/api/videos/stream/b?quality=720p")
				So(st.Session, ShouldEqual, first)
				So(el.playCount(), ShouldEqual, 0)

				f.at(1).fireParsed()
				So(c.Status().State, ShouldEqual, Playing)
			})
		})

		Convey("When the controller is closed", func() {
			So(c.Load("/api/videos/stream/a?quality=720p"), ShouldBeNil)
			updates := c.Subscribe()

			So(c.Close(), ShouldBeNil)
			So(c.Close(), ShouldBeNil)

			Convey("The engine should be destroyed and subscribers released", func() {
				So(f.active(), ShouldEqual, 0)
				for range updates {
				}
				So(c.Load("/api/videos/stream/b?quality=720p"), ShouldEqual, ErrClosed)
				So(c.Play(context.Background()), ShouldEqual, ErrClosed)
			})
		})

		Convey("Play before readiness should be refused", func() {
			So(c.Play(context.Background()), ShouldEqual, ErrNotReady)
			So(c.Pause(), ShouldEqual, ErrNotReady)
		})
	})
}

func TestControllerLoadDuringStart(t *testing.T) {
	Convey("Given a session whose start request is still in flight", t, func() {
		el := newElement(true, constant.MimeMPEGTS)
		f := &engines{}
		c := New(el, WithEngineFactory(f.factory))
		defer c.Close()

		next := "/api/videos/stream/b?quality=720p"
		var once sync.Once
		el.onPlay = func() {
			once.Do(func() { So(c.Load(next), ShouldBeNil) })
		}

		So(c.Load("/api/videos/stream/a?quality=720p"), ShouldBeNil)

		Convey("When a new source is loaded before the element answers", func() {
			f.at(0).fireParsed()

			Convey("Then the new source should stay paused while it loads", func() {
				st := c.Status()
				So(st.State, ShouldEqual, Loading)
				So(st.Source, ShouldEqual, next)
				So(el.isUnpaused(), ShouldBeFalse)
				So(f.active(), ShouldEqual, 1)
			})

			Convey("Then the new session should still start once it is ready", func() {
				f.at(1).fireParsed()

				So(c.Status().State, ShouldEqual, Playing)
				So(el.isUnpaused(), ShouldBeTrue)
			})
		})

		Convey("When a manual start races a new source", func() {
			el.onPlay = nil
			el.autoplay = false
			f.at(0).fireParsed()
			So(c.Status().AutoplayBlocked, ShouldBeTrue)

			el.onPlay = func() {
				once.Do(func() { So(c.Load(next), ShouldBeNil) })
			}
			err := c.Play(context.Background())

			Convey("Then the start should be revoked", func() {
				So(err, ShouldEqual, ErrNotReady)
				So(c.Status().State, ShouldEqual, Loading)
				So(el.isUnpaused(), ShouldBeFalse)
			})
		})
	})
}

func TestControllerAutoplayBlocked(t *testing.T) {
	Convey("Given an element that rejects unsolicited playback", t, func() {
		el := newElement(false, constant.MimeMPEGTS)
		f := &engines{}
		c := New(el, WithEngineFactory(f.factory))
		defer c.Close()

		So(c.Load("/api/videos/stream/abc123?quality=720p"), ShouldBeNil)
		f.at(0).fireParsed()

		Convey("The session should stay Ready with autoplay blocked", func() {
			st := c.Status()
			So(st.State, ShouldEqual, Ready)
			So(st.AutoplayBlocked, ShouldBeTrue)
			So(errors.Is(st.Err, ErrAutoplayBlocked), ShouldBeTrue)
			So(el.playCount(), ShouldEqual, 1)
		})

		Convey("A manual start should still be accepted", func() {
			So(c.Play(context.Background()), ShouldBeNil)

			st := c.Status()
			So(st.State, ShouldEqual, Playing)
			So(st.AutoplayBlocked, ShouldBeFalse)
			So(st.Err, ShouldBeNil)
		})
	})
}

func TestControllerNative(t *testing.T) {
	Convey("Given an element with native HLS and the engine disabled", t, func() {
		el := newElement(true, constant.MimeHLS, constant.MimeMPEGTS)
		f := &engines{}
		c := New(el, WithEngineFactory(f.factory), WithEngine(false))
		defer c.Close()

		src := "/api/videos/stream/abc123?quality=1080p"
		So(c.Load(src), ShouldBeNil)

		Convey("The source should go straight to the element", func() {
			So(c.Status().Strategy, ShouldEqual, strategy.NativeHLS)
			So(el.sources, ShouldResemble, []string{src})
			So(f.active(), ShouldEqual, 0)
		})

		Convey("Loaded metadata should make the session play", func() {
			el.loadedMetadata()
			So(c.Status().State, ShouldEqual, Playing)
		})

		Convey("Metadata from a replaced source should be ignored", func() {
			So(c.Load("/api/videos/stream/other?quality=240p"), ShouldBeNil)
			So(len(el.listeners), ShouldEqual, 1)

			el.loadedMetadata()
			So(c.Status().State, ShouldEqual, Playing)
			So(el.playCount(), ShouldEqual, 1)
		})
	})
}

func TestControllerUnsupported(t *testing.T) {
	Convey("Given an element that can play nothing", t, func() {
		el := newElement(true)
		f := &engines{}
		c := New(el, WithEngineFactory(f.factory))
		defer c.Close()

		Convey("Load should surface the unsupported platform and stay Idle", func() {
			err := c.Load("/api/videos/stream/abc123?quality=480p")
			So(err, ShouldEqual, ErrUnsupportedPlatform)

			st := c.Status()
			So(st.State, ShouldEqual, Idle)
			So(st.Strategy, ShouldEqual, strategy.Unsupported)
			So(errors.Is(st.Err, ErrUnsupportedPlatform), ShouldBeTrue)
			So(f.active(), ShouldEqual, 0)
			So(el.sources, ShouldBeEmpty)
			So(el.playCount(), ShouldEqual, 0)
		})
	})
}

func TestState(t *testing.T) {
	Convey("States should have readable names", t, func() {
		So(Idle.String(), ShouldEqual, "idle")
		So(Loading.String(), ShouldEqual, "loading")
		So(Ready.String(), ShouldEqual, "ready")
		So(Playing.String(), ShouldEqual, "playing")
		So(State(42).String(), ShouldEqual, "unknown")
	})
}
