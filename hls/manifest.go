package hls

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/arsu-cli/arsu/metrics"
	"github.com/arsu-cli/arsu/network"
	"github.com/grafov/m3u8"
	"github.com/samber/lo"
)

const maxManifestSize = 8 << 20

// media is a parsed media playlist together with the upstream addresses of its parts.
type media struct {
	url      *url.URL
	playlist *m3u8.MediaPlaylist
	segments map[uint64]part
	init     *part
}

// part is an upstream resource, optionally a byte range of it.
type part struct {
	url    *url.URL
	limit  int64
	offset int64
}

func fetch(ctx context.Context, client *http.Client, u *url.URL, limit int64) (*http.Response, io.Reader, error) {
	return fetchPart(ctx, client, part{url: u}, limit)
}

func fetchPart(ctx context.Context, client *http.Client, p part, limit int64) (*http.Response, io.Reader, error) {
	u := p.url
	req, err := network.NewRequest(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, err
	}
	if p.limit > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", p.offset, p.offset+p.limit-1))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("%w: %s: %s", ErrUpstream, u.Redacted(), resp.Status)
	}

	return resp, io.LimitReader(resp.Body, limit), nil
}

func fetchPlaylist(ctx context.Context, client *http.Client, u *url.URL) (m3u8.Playlist, m3u8.ListType, error) {
	resp, body, err := fetch(ctx, client, u, maxManifestSize)
	if err != nil {
		metrics.ManifestFetchesTotal.WithLabelValues("unknown", "error").Inc()
		return nil, 0, err
	}
	defer resp.Body.Close()

	playlist, kind, err := m3u8.DecodeFrom(body, false)
	if err != nil {
		metrics.ManifestFetchesTotal.WithLabelValues("unknown", "error").Inc()
		return nil, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	metrics.ManifestFetchesTotal.WithLabelValues(kindName(kind), "ok").Inc()
	return playlist, kind, nil
}

func kindName(kind m3u8.ListType) string {
	switch kind {
	case m3u8.MASTER:
		return "master"
	case m3u8.MEDIA:
		return "media"
	default:
		return "unknown"
	}
}

// resolveMedia follows a master playlist down to one media playlist.
// height selects the variant; zero means highest bandwidth.
func resolveMedia(ctx context.Context, client *http.Client, src *url.URL, height int) (*media, error) {
	playlist, kind, err := fetchPlaylist(ctx, client, src)
	if err != nil {
		return nil, err
	}

	switch kind {
	case m3u8.MEDIA:
		return newMedia(src, playlist.(*m3u8.MediaPlaylist))
	case m3u8.MASTER:
		variant := pickVariant(playlist.(*m3u8.MasterPlaylist).Variants, height)
		if variant == nil {
			return nil, ErrNoVariants
		}

		ref, err := src.Parse(variant.URI)
		if err != nil {
			return nil, fmt.Errorf("%w: variant uri: %v", ErrDecode, err)
		}

		return fetchMedia(ctx, client, ref)
	default:
		return nil, fmt.Errorf("%w: unknown playlist type", ErrDecode)
	}
}

func fetchMedia(ctx context.Context, client *http.Client, u *url.URL) (*media, error) {
	playlist, kind, err := fetchPlaylist(ctx, client, u)
	if err != nil {
		return nil, err
	}
	if kind != m3u8.MEDIA {
		return nil, fmt.Errorf("%w: expected a media playlist at %s", ErrDecode, u.Redacted())
	}
	return newMedia(u, playlist.(*m3u8.MediaPlaylist))
}

func newMedia(u *url.URL, p *m3u8.MediaPlaylist) (*media, error) {
	m := &media{
		url:      u,
		playlist: p,
		segments: make(map[uint64]part),
	}

	if p.Map != nil && p.Map.URI != "" {
		ref, err := u.Parse(p.Map.URI)
		if err != nil {
			return nil, fmt.Errorf("%w: map uri: %v", ErrDecode, err)
		}
		m.init = &part{url: ref, limit: p.Map.Limit, offset: p.Map.Offset}
	}

	for i, seg := range segmentsOf(p) {
		ref, err := u.Parse(seg.URI)
		if err != nil {
			return nil, fmt.Errorf("%w: segment uri: %v", ErrDecode, err)
		}
		m.segments[p.SeqNo+uint64(i)] = part{url: ref, limit: seg.Limit, offset: seg.Offset}
	}

	return m, nil
}

// segmentsOf drops the nil padding of the playlist ring buffer.
func segmentsOf(p *m3u8.MediaPlaylist) []*m3u8.MediaSegment {
	return lo.Compact(p.Segments)
}

// pickVariant returns the highest bandwidth variant of the wanted height,
// or the highest bandwidth overall when none matches.
func pickVariant(variants []*m3u8.Variant, height int) *m3u8.Variant {
	variants = lo.Filter(lo.Compact(variants), func(v *m3u8.Variant, _ int) bool {
		return v.URI != "" && !v.Iframe
	})
	if len(variants) == 0 {
		return nil
	}

	if height > 0 {
		matching := lo.Filter(variants, func(v *m3u8.Variant, _ int) bool {
			return heightOf(v.Resolution) == height
		})
		if len(matching) > 0 {
			variants = matching
		}
	}

	return lo.MaxBy(variants, func(a, b *m3u8.Variant) bool {
		return a.Bandwidth > b.Bandwidth
	})
}

// heightOf extracts the height from a RESOLUTION attribute such as 1280x720.
func heightOf(resolution string) int {
	_, h, ok := strings.Cut(strings.ToLower(resolution), "x")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0
	}
	return n
}

// render produces the loopback playlist: segments point at /segment/{seq},
// the init section at /init, keys at their absolute upstream address.
func (m *media) render() ([]byte, error) {
	src := m.playlist
	segments := segmentsOf(src)

	out, err := m3u8.NewMediaPlaylist(0, uint(max(len(segments), 1)))
	if err != nil {
		return nil, err
	}

	out.SeqNo = src.SeqNo
	out.TargetDuration = src.TargetDuration
	out.MediaType = src.MediaType
	out.DiscontinuitySeq = src.DiscontinuitySeq
	out.Closed = src.Closed

	if m.init != nil {
		out.SetDefaultMap(routeInit, 0, 0)
	}
	if src.Key != nil {
		out.Key = m.absoluteKey(src.Key)
	}

	for i, seg := range segments {
		s := *seg
		s.URI = fmt.Sprintf("%s/%d", routeSegment, src.SeqNo+uint64(i))
		if s.Key != nil {
			s.Key = m.absoluteKey(s.Key)
		}
		// ranges are resolved by the proxy; only the default init section is proxied
		s.Limit, s.Offset = 0, 0
		s.Map = nil
		if err := out.AppendSegment(&s); err != nil {
			return nil, err
		}
	}

	return out.Encode().Bytes(), nil
}

func (m *media) absoluteKey(k *m3u8.Key) *m3u8.Key {
	key := *k
	if key.URI != "" {
		if ref, err := m.url.Parse(key.URI); err == nil {
			key.URI = ref.String()
		}
	}
	return &key
}
