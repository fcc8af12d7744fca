package playback

import "errors"

var (
	// ErrNetworkOrDecode is recorded when the manifest or a segment could not be fetched or decoded.
	ErrNetworkOrDecode = errors.New("can't load video")
	// ErrAutoplayBlocked is recorded when playback did not start on its own. Manual Play is still possible.
	ErrAutoplayBlocked = errors.New("autoplay blocked")
	// ErrUnsupportedPlatform is returned when neither the engine nor the element can play the stream.
	ErrUnsupportedPlatform = errors.New("playback not supported on this platform")
	// ErrNotReady is returned by Play and Pause before the session is ready.
	ErrNotReady = errors.New("session not ready")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("controller closed")
)
