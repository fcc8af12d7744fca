package playback

import (
	"github.com/arsu-cli/arsu/hls"
	"github.com/arsu-cli/arsu/player"
	"github.com/arsu-cli/arsu/strategy"
)

// Engine is a segmented-streaming engine bound to a single source.
type Engine interface {
	LoadSource(src string)
	AttachMedia(el player.Element)
	OnManifestParsed(fn func())
	OnError(fn func(error))
	Destroy()
}

// EngineFactory creates a fresh engine for each session.
type EngineFactory func() Engine

// DefaultEngine is the in-process HLS engine.
func DefaultEngine() Engine {
	return hls.New()
}

// backend is one way of bringing a source to readiness on the element.
type backend interface {
	start(src string, el player.Element, ready func(), fail func(error)) error
	stop()
}

func newBackend(s strategy.Strategy, factory EngineFactory) backend {
	switch s {
	case strategy.SegmentedStreaming:
		return &segmentedBackend{newEngine: factory}
	case strategy.NativeHLS:
		return &nativeBackend{}
	default:
		return nil
	}
}

// segmentedBackend hands the source to a streaming engine; readiness is manifest-parsed.
type segmentedBackend struct {
	newEngine EngineFactory
	engine    Engine
}

func (b *segmentedBackend) start(src string, el player.Element, ready func(), fail func(error)) error {
	b.engine = b.newEngine()
	b.engine.OnManifestParsed(ready)
	b.engine.OnError(fail)
	b.engine.LoadSource(src)
	b.engine.AttachMedia(el)
	return nil
}

func (b *segmentedBackend) stop() {
	if b.engine != nil {
		b.engine.Destroy()
		b.engine = nil
	}
}

// nativeBackend gives the source straight to the element; readiness is loaded-metadata.
type nativeBackend struct {
	cancel func()
}

func (b *nativeBackend) start(src string, el player.Element, ready func(), _ func(error)) error {
	b.cancel = el.OnLoadedMetadata(ready)
	return el.SetSource(src)
}

func (b *nativeBackend) stop() {
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}
