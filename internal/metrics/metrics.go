package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the planner's Prometheus metrics on a private registry.
// It satisfies both the timeline's metrics hooks and the event publisher's.
type Collector struct {
	reg *prometheus.Registry

	SavesIssued prometheus.Counter
	SaveErrors  prometheus.Counter

	ConflictsFlagged  prometheus.Counter
	ConflictsResolved prometheus.Counter
	ConflictedStops   prometheus.Gauge

	LayoutDuration prometheus.Histogram

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		SavesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_schedule_saves_total",
			Help: "Total schedule saves issued after drag commits.",
		}),
		SaveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_schedule_save_errors_total",
			Help: "Total schedule saves that failed and were rolled back.",
		}),
		ConflictsFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_conflicts_flagged_total",
			Help: "Total times a save left time order and route order disagreeing.",
		}),
		ConflictsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_conflicts_resolved_total",
			Help: "Total conflicts resolved by reordering the route.",
		}),
		ConflictedStops: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_conflicted_stops",
			Help: "Number of stops currently out of agreement with route order.",
		}),
		LayoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_layout_duration_seconds",
			Help:    "Duration of timeline relayout computations.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
	}

	reg.MustRegister(
		c.SavesIssued, c.SaveErrors,
		c.ConflictsFlagged, c.ConflictsResolved, c.ConflictedStops,
		c.LayoutDuration,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
	)

	return c
}

// timeline.Metrics

func (c *Collector) SaveIssued() { c.SavesIssued.Inc() }
func (c *Collector) SaveFailed() { c.SaveErrors.Inc() }

func (c *Collector) ConflictFlagged(stops int) {
	c.ConflictsFlagged.Inc()
	c.ConflictedStops.Set(float64(stops))
}

func (c *Collector) ConflictResolved() {
	c.ConflictsResolved.Inc()
	c.ConflictedStops.Set(0)
}

func (c *Collector) LayoutObserve(d time.Duration) { c.LayoutDuration.Observe(d.Seconds()) }

// events.PublisherMetrics

func (c *Collector) NATSPublishedInc()  { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc() { c.NATSPublishErrs.Inc() }

func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
