package hls

import "errors"

var (
	// ErrUpstream is returned when the origin answers a manifest or segment fetch with a failure.
	ErrUpstream = errors.New("upstream fetch failed")
	// ErrDecode is returned when a manifest cannot be parsed.
	ErrDecode = errors.New("manifest decode failed")
	// ErrNoVariants is returned for a master playlist without usable variants.
	ErrNoVariants = errors.New("master playlist has no variants")
	// ErrSegmentNotFound is returned for a segment outside the current playlist window.
	ErrSegmentNotFound = errors.New("segment not in playlist")
)
