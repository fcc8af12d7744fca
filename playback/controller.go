// Package playback drives a media element from a stream URL to playing.
//
// A Controller owns one element. Every Load starts a new session: the previous
// session's backend is torn down before the new one touches the element, and
// callbacks from a previous session are discarded by epoch.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arsu-cli/arsu/log"
	"github.com/arsu-cli/arsu/metrics"
	"github.com/arsu-cli/arsu/player"
	"github.com/arsu-cli/arsu/strategy"
	"github.com/google/uuid"
)

const subscriberBuffer = 16

// Option configures a Controller.
type Option func(*Controller)

// WithEngineFactory replaces the streaming engine used by segmented sessions.
func WithEngineFactory(f EngineFactory) Option {
	return func(c *Controller) { c.newEngine = f }
}

// WithEngine enables or disables the streaming engine. Disabled, only native playback is tried.
func WithEngine(enabled bool) Option {
	return func(c *Controller) { c.engineEnabled = enabled }
}

type Controller struct {
	element       player.Element
	newEngine     EngineFactory
	engineEnabled bool

	// loadMu serializes Load and Close; mu guards the fields below it.
	// Backends are started without mu held since they may call back synchronously.
	// startMu serializes start and pause requests to the element, so a request
	// issued for a session that was replaced meanwhile can be undone before
	// the next one goes out. It is taken before mu, never after.
	loadMu   sync.Mutex
	startMu  sync.Mutex
	mu       sync.Mutex
	epoch    uint64
	status   Status
	backend  backend
	loadedAt time.Time
	subs     []chan Status
	closed   bool
}

func New(element player.Element, opts ...Option) *Controller {
	c := &Controller{
		element:       element,
		newEngine:     DefaultEngine,
		engineEnabled: true,
		status:        Status{State: Idle, Updated: time.Now()},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load starts a session for src, discarding whatever session came before.
// It returns once the backend was started; readiness is reported through
// Status and Subscribe. The only error returned synchronously is
// ErrUnsupportedPlatform (or ErrClosed); load failures are recorded in Status.
func (c *Controller) Load(src string) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	old := c.backend
	c.backend = nil
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()

	c.teardown(old)

	strat := strategy.Select(strategy.Probe(c.element, c.engineEnabled))
	b := newBackend(strat, c.newEngine)

	c.mu.Lock()
	c.status = Status{
		Session:  uuid.New(),
		Source:   src,
		State:    Idle,
		Strategy: strat,
		Updated:  time.Now(),
	}
	logger := c.logger()
	metrics.SessionsTotal.WithLabelValues(strat.String()).Inc()

	if b == nil {
		c.status.Err = ErrUnsupportedPlatform
		c.publishLocked()
		c.mu.Unlock()

		metrics.PlaybackErrorsTotal.WithLabelValues("unsupported").Inc()
		logger.Warn("no playback path for this element")
		return ErrUnsupportedPlatform
	}

	c.backend = b
	c.loadedAt = time.Now()
	c.setStateLocked(Loading)
	c.mu.Unlock()

	logger.Info("loading source")

	if err := b.start(src, c.element, func() { c.onReady(epoch) }, func(err error) { c.onError(epoch, err) }); err != nil {
		c.onError(epoch, err)
	}

	return nil
}

// Play starts playback on behalf of the user. It is accepted after an autoplay rejection.
func (c *Controller) Play(ctx context.Context) error {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.status.State != Ready && c.status.State != Playing {
		c.mu.Unlock()
		return ErrNotReady
	}
	epoch := c.epoch
	c.mu.Unlock()

	if err := c.element.Play(player.WithUserGesture(ctx)); err != nil {
		return fmt.Errorf("play: %w", err)
	}

	if c.revokeStale(epoch) {
		return ErrNotReady
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch == c.epoch && c.status.State == Ready {
		c.status.AutoplayBlocked = false
		c.status.Err = nil
		c.setStateLocked(Playing)
	}
	return nil
}

// Pause suspends playback, moving Playing back to Ready.
func (c *Controller) Pause() error {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.status.State != Ready && c.status.State != Playing {
		c.mu.Unlock()
		return ErrNotReady
	}
	epoch := c.epoch
	c.mu.Unlock()

	if err := c.element.Pause(); err != nil {
		return fmt.Errorf("pause: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch == c.epoch && c.status.State == Playing {
		c.setStateLocked(Ready)
	}
	return nil
}

// Close ends the session and all subscriptions. The element itself is left
// to its owner. Calling Close again is a no-op.
func (c *Controller) Close() error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.epoch++
	old := c.backend
	c.backend = nil
	c.status.State = Idle
	c.status.Updated = time.Now()
	c.publishLocked()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	c.teardown(old)
	for _, ch := range subs {
		close(ch)
	}
	return nil
}

// Status returns a snapshot of the current session.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Subscribe returns a channel of status changes, starting with the current one.
// Slow readers lose the oldest updates. The channel is closed by Close.
func (c *Controller) Subscribe() <-chan Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Status, subscriberBuffer)
	if c.closed {
		close(ch)
		return ch
	}
	ch <- c.status
	c.subs = append(c.subs, ch)
	return ch
}

func (c *Controller) onReady(epoch uint64) {
	c.mu.Lock()
	if epoch != c.epoch || c.status.State != Loading {
		c.mu.Unlock()
		log.WithFields(log.Fields{"epoch": epoch}).Debug("dropping stale readiness")
		return
	}
	c.setStateLocked(Ready)
	metrics.TimeToReady.Observe(time.Since(c.loadedAt).Seconds())
	c.mu.Unlock()

	c.autoplay(epoch)
}

// autoplay issues the single start request that follows a readiness transition.
func (c *Controller) autoplay(epoch uint64) {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	c.mu.Lock()
	current := epoch == c.epoch && c.status.State == Ready
	c.mu.Unlock()
	if !current {
		return
	}

	err := c.element.Play(context.Background())
	if err == nil && c.revokeStale(epoch) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch || c.status.State != Ready {
		return
	}

	switch {
	case err == nil:
		c.setStateLocked(Playing)
	case errors.Is(err, player.ErrPlaybackRejected):
		c.status.AutoplayBlocked = true
		c.status.Err = ErrAutoplayBlocked
		c.status.Updated = time.Now()
		c.publishLocked()

		metrics.AutoplayBlockedTotal.Inc()
		c.logger().Info("autoplay blocked, waiting for manual play")
	default:
		c.status.Err = fmt.Errorf("start playback: %w", err)
		c.status.Updated = time.Now()
		c.publishLocked()

		metrics.PlaybackErrorsTotal.WithLabelValues("start").Inc()
		c.logger().Warnf("start playback: %v", err)
	}
}

// revokeStale pauses the element again when the session that asked for
// playback was replaced while the request was in flight. The replacing session
// cannot have started playback itself, since that needs startMu.
func (c *Controller) revokeStale(epoch uint64) bool {
	c.mu.Lock()
	stale := epoch != c.epoch
	c.mu.Unlock()
	if !stale {
		return false
	}

	if err := c.element.Pause(); err != nil && !errors.Is(err, player.ErrNotStarted) {
		log.Warnf("pause after replaced session: %v", err)
	}
	log.WithFields(log.Fields{"epoch": epoch}).Debug("revoked start of a replaced session")
	return true
}

func (c *Controller) onError(epoch uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		return
	}

	c.status.Err = fmt.Errorf("%w: %v", ErrNetworkOrDecode, err)
	c.status.Updated = time.Now()
	c.publishLocked()

	metrics.PlaybackErrorsTotal.WithLabelValues("network_or_decode").Inc()
	c.logger().Errorf("session error: %v", err)
}

// teardown stops a backend and resets the element so the next session starts clean.
func (c *Controller) teardown(b backend) {
	if b == nil {
		return
	}
	b.stop()
	if err := c.element.Reset(); err != nil {
		log.Warnf("reset element: %v", err)
	}
}

func (c *Controller) setStateLocked(s State) {
	c.status.State = s
	c.status.Updated = time.Now()
	c.publishLocked()
	metrics.PlaybackStateTransitions.WithLabelValues(s.String()).Inc()
}

func (c *Controller) publishLocked() {
	for _, ch := range c.subs {
		select {
		case ch <- c.status:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- c.status:
			default:
			}
		}
	}
}

func (c *Controller) logger() *log.Entry {
	return log.WithFields(log.Fields{
		"session":  c.status.Session.String(),
		"strategy": c.status.Strategy.String(),
		"source":   c.status.Source,
	})
}
