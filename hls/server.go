package hls

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/arsu-cli/arsu/constant"
	"github.com/arsu-cli/arsu/log"
	"github.com/arsu-cli/arsu/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	routePlaylist = "/playlist.m3u8"
	routeInit     = "/init"
	routeSegment  = "/segment"

	maxSegmentSize = 256 << 20
	initKey        = "init"
)

type server struct {
	ln   net.Listener
	http *http.Server
}

func newServer(e *Engine) (*server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("loopback listen: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(routePlaylist, e.handlePlaylist)
	r.Get(routeInit, e.handleInit)
	r.Get(routeSegment+"/{seq}", e.handleSegment)

	s := &server{
		ln: ln,
		http: &http.Server{
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warnf("loopback server: %v", err)
		}
	}()

	metrics.ActiveEngines.Inc()
	return s, nil
}

func (s *server) url(route string) string {
	return "http://" + s.ln.Addr().String() + route
}

func (s *server) close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		_ = s.http.Close()
	}
	metrics.ActiveEngines.Dec()
}

func (e *Engine) handlePlaylist(w http.ResponseWriter, _ *http.Request) {
	body := e.currentPlaylist()
	if body == nil {
		http.Error(w, "playlist not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", constant.MimeHLS)
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(body)
}

func (e *Engine) handleInit(w http.ResponseWriter, r *http.Request) {
	p, ok := e.initPart()
	if !ok {
		http.NotFound(w, r)
		return
	}

	seg, err := e.load1(initKey, p)
	if err != nil {
		e.writeError(w, err)
		return
	}
	seg.write(w)
}

func (e *Engine) handleSegment(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseUint(chi.URLParam(r, "seq"), 10, 64)
	if err != nil {
		http.Error(w, "bad segment number", http.StatusBadRequest)
		return
	}

	seg, err := e.segment(seq)
	if err != nil {
		e.writeError(w, err)
		return
	}

	for i := 1; i <= e.prefetch; i++ {
		go func(next uint64) {
			if _, err := e.segment(next); err != nil && !errors.Is(err, ErrSegmentNotFound) {
				log.Debugf("prefetch segment %d: %v", next, err)
			}
		}(seq + uint64(i))
	}
	e.cache.evictBefore(seq)

	seg.write(w)
}

func (e *Engine) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSegmentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case e.ctx.Err() != nil:
		http.Error(w, "engine closed", http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func (e *Engine) segment(seq uint64) (*segment, error) {
	p, ok := e.lookup(seq)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrSegmentNotFound, seq)
	}
	return e.load1(strconv.FormatUint(seq, 10), p)
}

// load1 fetches p once: concurrent callers share a fetch and later callers hit the cache.
func (e *Engine) load1(key string, p part) (*segment, error) {
	if seg, ok := e.cache.get(key); ok {
		return seg, nil
	}

	v, err, _ := e.group.Do(key, func() (interface{}, error) {
		if seg, ok := e.cache.get(key); ok {
			return seg, nil
		}

		resp, body, err := fetchPart(e.ctx, e.client, p, maxSegmentSize)
		if err != nil {
			metrics.SegmentsFetchedTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(body)
		if err != nil {
			metrics.SegmentsFetchedTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("%w: read segment: %v", ErrUpstream, err)
		}

		metrics.SegmentsFetchedTotal.WithLabelValues("ok").Inc()
		seg := &segment{data: data, mime: resp.Header.Get("Content-Type")}
		e.cache.put(key, seg)
		return seg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*segment), nil
}

type segment struct {
	data []byte
	mime string
}

func (s *segment) write(w http.ResponseWriter) {
	mime := s.mime
	if mime == "" {
		mime = constant.MimeMPEGTS
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(s.data)))
	n, _ := w.Write(s.data)
	metrics.SegmentBytesTotal.Add(float64(n))
}

// segmentCache keeps recently fetched segments. The init section is never evicted.
type segmentCache struct {
	mu    sync.Mutex
	limit int
	items map[string]*segment
	order []string
}

func newSegmentCache(limit int) *segmentCache {
	return &segmentCache{limit: limit, items: make(map[string]*segment)}
}

func (c *segmentCache) get(key string) (*segment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.items[key]
	return s, ok
}

func (c *segmentCache) put(key string, s *segment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		return
	}
	c.items[key] = s
	if key == initKey {
		return
	}

	c.order = append(c.order, key)
	for len(c.order) > c.limit {
		delete(c.items, c.order[0])
		c.order = c.order[1:]
	}
}

// evictBefore drops segments older than seq; they will not be requested again.
func (c *segmentCache) evictBefore(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.order[:0]
	for _, key := range c.order {
		n, err := strconv.ParseUint(key, 10, 64)
		if err == nil && n < seq {
			delete(c.items, key)
			continue
		}
		kept = append(kept, key)
	}
	c.order = kept
}

func (c *segmentCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*segment)
	c.order = nil
}
