// Package player abstracts the media element a stream is rendered on.
// The primary implementation drives mpv through its JSON-IPC socket.
package player

import (
	"context"
	"errors"
	"fmt"
)

// ErrPlaybackRejected is returned by Play when the element refuses to start
// playback on its own, the way a browser enforces its autoplay policy.
var ErrPlaybackRejected = errors.New("playback start rejected")

// ErrNotStarted is returned when commands reach an element with no running backend.
var ErrNotStarted = errors.New("player not started")

// Element is a controllable media surface. Events may be delivered on any goroutine.
type Element interface {
	// CanPlayType reports whether the element renders the media type natively.
	CanPlayType(mime string) bool

	// SetSource loads src paused, replacing whatever was loaded before.
	SetSource(src string) error

	// OnLoadedMetadata registers fn to run when a source finished loading.
	// The returned function removes the registration.
	OnLoadedMetadata(fn func()) (cancel func())

	// Play requests playback start. Without a user gesture on ctx the element
	// may reject the request with ErrPlaybackRejected.
	Play(ctx context.Context) error

	// Pause suspends playback.
	Pause() error

	// Reset unloads the current source, leaving the element idle.
	Reset() error

	// Close releases the element.
	Close() error
}

type gestureKey struct{}

// WithUserGesture marks ctx as originating from an explicit user action.
func WithUserGesture(ctx context.Context) context.Context {
	return context.WithValue(ctx, gestureKey{}, true)
}

// IsUserGesture reports whether ctx carries a user gesture.
func IsUserGesture(ctx context.Context) bool {
	v, _ := ctx.Value(gestureKey{}).(bool)
	return v
}

// Available lists the player names New accepts.
func Available() []string {
	return []string{"mpv"}
}

// New returns the element registered under name.
func New(name string, autoplay bool) (Element, error) {
	switch name {
	case "mpv":
		return NewMPV(autoplay), nil
	default:
		return nil, fmt.Errorf("unknown player %q", name)
	}
}
