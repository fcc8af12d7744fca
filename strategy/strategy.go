// Package strategy negotiates how a stream is delivered to the media element.
package strategy

import (
	"github.com/arsu-cli/arsu/constant"
	"github.com/samber/lo"
)

// Strategy is the playback path chosen once per session.
type Strategy int

const (
	// Unsupported means no playback path exists on this platform.
	Unsupported Strategy = iota
	// SegmentedStreaming feeds the element from the in-process engine.
	SegmentedStreaming
	// NativeHLS hands the stream URL to the element directly.
	NativeHLS
)

func (s Strategy) String() string {
	switch s {
	case SegmentedStreaming:
		return "segmented"
	case NativeHLS:
		return "native"
	default:
		return "unsupported"
	}
}

// Capabilities describes what the platform can do.
type Capabilities struct {
	// SegmentedStreaming reports whether the engine can drive the element.
	SegmentedStreaming bool
	// NativeTypes lists the media types the element plays on its own.
	NativeTypes []string
}

// CanPlayType reports whether the element plays mime natively.
func (c Capabilities) CanPlayType(mime string) bool {
	return lo.Contains(c.NativeTypes, mime)
}

// Select picks the strategy: engine first, then native HLS, else Unsupported.
func Select(caps Capabilities) Strategy {
	switch {
	case caps.SegmentedStreaming:
		return SegmentedStreaming
	case caps.CanPlayType(constant.MimeHLS):
		return NativeHLS
	default:
		return Unsupported
	}
}

// TypeProber is the part of a media element the probe needs.
type TypeProber interface {
	CanPlayType(mime string) bool
}

// Probe derives capabilities from an element. The engine is usable when it is
// enabled and the element can decode the transport stream segments it relays.
// A nil element, typed or not, has no capabilities.
func Probe(element TypeProber, engineEnabled bool) Capabilities {
	if lo.IsNil(element) {
		return Capabilities{}
	}

	candidates := []string{constant.MimeHLS, constant.MimeMPEGTS, constant.MimeMP4}
	return Capabilities{
		SegmentedStreaming: engineEnabled && element.CanPlayType(constant.MimeMPEGTS),
		NativeTypes:        lo.Filter(candidates, func(m string, _ int) bool { return element.CanPlayType(m) }),
	}
}
