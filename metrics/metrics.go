// Package metrics holds the prometheus collectors for playback sessions and the streaming engine.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arsu-cli/arsu/log"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "arsu"

var (
	SessionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "playback_sessions_total",
		Help:      "Total playback sessions started by negotiated strategy.",
	}, []string{"strategy"})

	PlaybackStateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "playback_state_transitions_total",
		Help:      "Total playback state transitions by target state.",
	}, []string{"state"})

	AutoplayBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "playback_autoplay_blocked_total",
		Help:      "Total playback start requests rejected by the element.",
	})

	PlaybackErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "playback_errors_total",
		Help:      "Total errors recorded on playback sessions by kind.",
	}, []string{"kind"})

	TimeToReady = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "playback_time_to_ready_seconds",
		Help:      "Time from Load to the session becoming ready.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13},
	})

	ManifestFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "engine_manifest_fetches_total",
		Help:      "Total manifest fetches by playlist kind and result.",
	}, []string{"kind", "result"})

	SegmentsFetchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "engine_segments_fetched_total",
		Help:      "Total upstream segment fetches by result.",
	}, []string{"result"})

	SegmentBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "engine_segment_bytes_total",
		Help:      "Total segment bytes relayed to the media element.",
	})

	ActiveEngines = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "engine_active",
		Help:      "Number of streaming engines currently alive.",
	})
)

// Registry is the process registry. Collectors are registered on it at init.
var Registry = prometheus.NewRegistry()

func init() {
	Register(Registry)
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		SessionsTotal,
		PlaybackStateTransitions,
		AutoplayBlockedTotal,
		PlaybackErrorsTotal,
		TimeToReady,
		ManifestFetchesTotal,
		SegmentsFetchedTotal,
		SegmentBytesTotal,
		ActiveEngines,
	)
}

// Handler exposes Registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	r := chi.NewRouter()
	r.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infof("metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
