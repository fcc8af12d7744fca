// Package hls is an in-process segmented-streaming engine.
//
// The engine fetches an HLS manifest, picks the variant for the requested
// quality and re-serves the media playlist from a loopback server whose
// segment routes proxy and prefetch the upstream segments. The media element
// is pointed at that loopback playlist once the manifest is parsed and the
// element is attached, in either order.
package hls

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/arsu-cli/arsu/log"
	"github.com/arsu-cli/arsu/network"
	"github.com/arsu-cli/arsu/player"
	"github.com/arsu-cli/arsu/stream"
	"golang.org/x/sync/singleflight"
)

const (
	minReload     = time.Second
	prefetchDepth = 2
)

// Option configures an Engine.
type Option func(*Engine)

// WithClient sets the HTTP client used for upstream fetches.
func WithClient(c *http.Client) Option {
	return func(e *Engine) { e.client = c }
}

// WithPrefetch sets how many segments ahead of the last request are fetched.
func WithPrefetch(n int) Option {
	return func(e *Engine) { e.prefetch = n }
}

// Engine drives one source into one media element. It is single use: after
// Destroy a new Engine must be created.
type Engine struct {
	client   *http.Client
	prefetch int

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	src       string
	element   player.Element
	media     *media
	playlist  []byte
	parsed    bool
	started   bool
	destroyed bool
	onParsed  []func()
	onError   []func(error)

	server *server
	group  singleflight.Group
	cache  *segmentCache
}

func New(opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		client:   network.MediaClient,
		prefetch: prefetchDepth,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cache = newSegmentCache(e.prefetch + 2)
	return e
}

// OnManifestParsed registers fn to run once the element has been given the stream.
func (e *Engine) OnManifestParsed(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onParsed = append(e.onParsed, fn)
}

// OnError registers fn to receive fetch and decode failures.
func (e *Engine) OnError(fn func(error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onError = append(e.onError, fn)
}

// LoadSource starts fetching src in the background.
func (e *Engine) LoadSource(src string) {
	e.mu.Lock()
	if e.destroyed || e.src != "" {
		e.mu.Unlock()
		return
	}
	e.src = src
	e.mu.Unlock()

	go e.load(src)
}

// AttachMedia binds the element the stream is rendered on.
func (e *Engine) AttachMedia(el player.Element) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.element = el
	e.mu.Unlock()

	e.maybeStart()
}

// URL returns the loopback playlist address, or "" before the server is up.
func (e *Engine) URL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.server == nil {
		return ""
	}
	return e.server.url(routePlaylist)
}

// Destroy cancels fetches, stops the loopback server and detaches the element.
// Callbacks already being dispatched are not waited for; any dispatch that
// begins after Destroy is dropped. Calling it again is a no-op.
func (e *Engine) Destroy() {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.destroyed = true
	e.cancel()
	src, srv := e.src, e.server
	e.element = nil
	e.onParsed = nil
	e.onError = nil
	e.mu.Unlock()

	if srv != nil {
		srv.close()
	}
	e.cache.clear()

	log.WithFields(log.Fields{"src": src}).Debug("engine destroyed")
}

func (e *Engine) load(src string) {
	u, err := url.Parse(src)
	if err != nil {
		e.fail(fmt.Errorf("%w: source url: %v", ErrDecode, err))
		return
	}

	height := 0
	if q, ok := stream.QualityOf(src).Get(); ok {
		height = q.Height()
	}

	m, err := resolveMedia(e.ctx, e.client, u, height)
	if err != nil {
		e.fail(err)
		return
	}

	if err := e.update(m); err != nil {
		e.fail(err)
		return
	}

	log.WithFields(log.Fields{
		"src":      src,
		"media":    m.url.Redacted(),
		"segments": len(m.segments),
		"live":     !m.playlist.Closed,
	}).Info("manifest parsed")

	e.mu.Lock()
	e.parsed = true
	e.mu.Unlock()

	e.maybeStart()

	if !m.playlist.Closed {
		e.reload(m)
	}
}

// reload refreshes a live playlist every target duration until it closes.
func (e *Engine) reload(m *media) {
	interval := max(time.Duration(float64(m.playlist.TargetDuration)*float64(time.Second)), minReload)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
		}

		next, err := fetchMedia(e.ctx, e.client, m.url)
		if err != nil {
			if e.ctx.Err() != nil {
				return
			}
			e.fail(err)
			return
		}

		if err := e.update(next); err != nil {
			e.fail(err)
			return
		}

		if next.playlist.Closed {
			return
		}
	}
}

func (e *Engine) update(m *media) error {
	rendered, err := m.render()
	if err != nil {
		return fmt.Errorf("%w: render: %v", ErrDecode, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.media = m
	e.playlist = rendered
	return nil
}

func (e *Engine) maybeStart() {
	e.mu.Lock()
	if e.destroyed || e.started || !e.parsed || e.element == nil {
		e.mu.Unlock()
		return
	}
	e.started = true
	el := e.element
	e.mu.Unlock()

	srv, err := newServer(e)
	if err != nil {
		e.fail(err)
		return
	}

	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		srv.close()
		return
	}
	e.server = srv
	e.mu.Unlock()

	if err := el.SetSource(srv.url(routePlaylist)); err != nil {
		e.fail(fmt.Errorf("attach source: %w", err))
		return
	}

	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	handlers := append([]func(){}, e.onParsed...)
	e.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

func (e *Engine) fail(err error) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	src, handlers := e.src, append([]func(error){}, e.onError...)
	e.mu.Unlock()

	log.WithFields(log.Fields{"src": src}).Warnf("engine error: %v", err)
	for _, fn := range handlers {
		fn(err)
	}
}

func (e *Engine) lookup(seq uint64) (part, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.media == nil {
		return part{}, false
	}
	p, ok := e.media.segments[seq]
	return p, ok
}

func (e *Engine) initPart() (part, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.media == nil || e.media.init == nil {
		return part{}, false
	}
	return *e.media.init, true
}

func (e *Engine) currentPlaylist() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playlist
}
