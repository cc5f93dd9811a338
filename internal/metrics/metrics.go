// Package metrics exposes supervisor and ffmpeg relay metrics in Prometheus format.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/ffmpeg-sidecar/internal/events"
	"github.com/smazurov/ffmpeg-sidecar/internal/ffmpeg"
	"github.com/smazurov/ffmpeg-sidecar/internal/process"
)

const namespace = "sidecar"

// StatusSource reports the current state of the supervised process.
type StatusSource interface {
	Status() process.Snapshot
}

// Collector owns a registry with lifecycle counters fed from the event bus,
// gauges derived from the supervisor status, and relay progress gauges.
type Collector struct {
	registry *prometheus.Registry
	handler  http.Handler

	starts        prometheus.Counter
	spawnFailures prometheus.Counter
	stops         *prometheus.CounterVec

	fps           prometheus.Gauge
	speed         prometheus.Gauge
	bitrate       prometheus.Gauge
	frames        prometheus.Gauge
	droppedFrames prometheus.Gauge
	dupFrames     prometheus.Gauge

	mu     sync.Mutex
	unsubs []func()
}

// New creates a collector. status may be nil, in which case the running,
// pid and uptime gauges are not registered.
func New(status StatusSource) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),

		starts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "process",
			Name:      "starts_total",
			Help:      "Relay processes spawned",
		}),
		spawnFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "process",
			Name:      "spawn_failures_total",
			Help:      "Start requests that failed to spawn a process",
		}),
		stops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "process",
			Name:      "stops_total",
			Help:      "Completed terminations by outcome and reason",
		}, []string{"outcome", "reason"}),

		fps:           newFFmpegGauge("fps", "Current encoding frames per second"),
		speed:         newFFmpegGauge("speed", "Processing speed relative to realtime"),
		bitrate:       newFFmpegGauge("bitrate_kbps", "Current output bitrate in kbit/s"),
		frames:        newFFmpegGauge("frames", "Frames encoded by the current process"),
		droppedFrames: newFFmpegGauge("dropped_frames", "Frames dropped by the current process"),
		dupFrames:     newFFmpegGauge("duplicate_frames", "Frames duplicated by the current process"),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.starts,
		c.spawnFailures,
		c.stops,
		c.fps,
		c.speed,
		c.bitrate,
		c.frames,
		c.droppedFrames,
		c.dupFrames,
	)

	if status != nil {
		registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "process",
				Name:      "running",
				Help:      "1 if the relay process is alive",
			}, func() float64 {
				if status.Status().Status == process.StatusRunning {
					return 1
				}
				return 0
			}),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "process",
				Name:      "uptime_seconds",
				Help:      "Seconds since the running relay process was spawned",
			}, func() float64 {
				snap := status.Status()
				if snap.Status != process.StatusRunning {
					return 0
				}
				return time.Since(snap.StartedAt).Seconds()
			}),
		)
	}

	return c
}

func newFFmpegGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ffmpeg",
		Name:      name,
		Help:      help,
	})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the HTTP handler serving the registry.
func (c *Collector) Handler() http.Handler {
	return c.handler
}

// Subscribe feeds lifecycle counters from bus and zeroes the ffmpeg gauges
// when the relay stops. Call Close to unsubscribe.
func (c *Collector) Subscribe(bus *events.Bus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.unsubs = append(c.unsubs,
		bus.Subscribe(func(events.ProcessStartedEvent) {
			c.starts.Inc()
		}),
		bus.Subscribe(func(e events.ProcessStoppedEvent) {
			c.stops.WithLabelValues(e.Outcome, e.Reason).Inc()
			c.ObserveProgress(ffmpeg.Progress{})
		}),
		bus.Subscribe(func(events.ProcessSpawnFailedEvent) {
			c.spawnFailures.Inc()
		}),
	)
}

// ObserveProgress records a statistics line from the running relay.
func (c *Collector) ObserveProgress(p ffmpeg.Progress) {
	c.fps.Set(p.FPS)
	c.speed.Set(p.Speed)
	c.bitrate.Set(p.BitrateKbps)
	c.frames.Set(float64(p.Frame))
	c.droppedFrames.Set(float64(p.DroppedFrames))
	c.dupFrames.Set(float64(p.DupFrames))
}

// ObserveLine parses line as a statistics line and records it.
// Other lines are ignored. Suitable as a process.LineHook.
func (c *Collector) ObserveLine(line string) {
	if p, ok := ffmpeg.ParseProgress(line); ok {
		c.ObserveProgress(p)
	}
}

// Close removes all bus subscriptions.
func (c *Collector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil
}
