package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/ffmpeg-sidecar/cmd"
	"github.com/smazurov/ffmpeg-sidecar/internal/api"
	"github.com/smazurov/ffmpeg-sidecar/internal/config"
	"github.com/smazurov/ffmpeg-sidecar/internal/events"
	"github.com/smazurov/ffmpeg-sidecar/internal/ffmpeg"
	"github.com/smazurov/ffmpeg-sidecar/internal/logging"
	"github.com/smazurov/ffmpeg-sidecar/internal/metrics"
	"github.com/smazurov/ffmpeg-sidecar/internal/process"
	"github.com/smazurov/ffmpeg-sidecar/internal/systemd"
	"github.com/smazurov/ffmpeg-sidecar/internal/version"
	"github.com/spf13/cobra"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Address to listen on" short:"p" default:":5000" toml:"server.port" env:"SIDECAR_PORT"`

	// Relay settings
	FfmpegBinary         string `help:"ffmpeg executable" default:"ffmpeg" toml:"ffmpeg.binary" env:"FFMPEG_BINARY"`
	FfmpegSourceURL      string `help:"RTSP source pulled by ffmpeg" default:"rtsp://mediamtx:8554/live" toml:"ffmpeg.source_url" env:"MEDIAMTX_SOURCE"`
	FfmpegDestinationURL string `help:"RTMP destination including the stream key" toml:"ffmpeg.destination_url" env:"OWNCAST_URL"`
	FfmpegGracePeriod    string `help:"Wait after SIGTERM before SIGKILL" default:"5s" toml:"ffmpeg.grace_period" env:"FFMPEG_GRACE_PERIOD"`
	FfmpegKillTimeout    string `help:"Wait for the process to be reaped after SIGKILL" default:"5s" toml:"ffmpeg.kill_timeout" env:"FFMPEG_KILL_TIMEOUT"`

	// Observability settings
	MetricsEnabled bool `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSupervisor string `help:"Supervisor logging level" default:"info" toml:"logging.supervisor" env:"LOGGING_SUPERVISOR"`
	LoggingAPI        string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingFfmpeg     string `help:"ffmpeg output logging level" default:"info" toml:"logging.ffmpeg" env:"LOGGING_FFMPEG"`
}

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Subcommands run this callback too, so nothing is built until the
		// root command starts.
		registerHooks(hooks, func() lifecycle { return newSidecar(opts, cli.Root()) })
	})

	cli.Root().Use = "ffmpeg-sidecar"
	cli.Root().Version = version.String()
	cli.Root().AddCommand(cmd.CreateTriggerCmd())

	cli.Run()
}

// lifecycle is the serving process as seen by the CLI hooks.
type lifecycle interface {
	run()
	shutdown()
}

// registerHooks builds the app in OnStart and shuts it down in OnStop.
// OnStop runs on the signal goroutine and may race construction.
func registerHooks(hooks humacli.Hooks, build func() lifecycle) {
	var (
		mu  sync.Mutex
		app lifecycle
	)

	hooks.OnStart(func() {
		mu.Lock()
		app = build()
		mu.Unlock()
		app.run()
	})

	hooks.OnStop(func() {
		mu.Lock()
		started := app
		mu.Unlock()
		if started != nil {
			started.shutdown()
		}
	})
}

// sidecar holds the components of the serving process.
type sidecar struct {
	opts        *Options
	logger      *slog.Logger
	eventBus    *events.Bus
	destination string
	gracePeriod time.Duration
	killTimeout time.Duration
	supervisor  *process.Supervisor
	collector   *metrics.Collector
	server      *api.Server
	notifier    *systemd.Notifier
}

func newSidecar(opts *Options, root *cobra.Command) *sidecar {
	if loadErr := config.LoadConfig(opts, root); loadErr != nil {
		slog.Warn("Failed to load config", "error", loadErr)
	}

	// Module levels from the config file, overridden by the options.
	loggingConfig := config.LoadLoggingConfig(opts.Config)
	loggingConfig.Level = opts.LoggingLevel
	loggingConfig.Format = opts.LoggingFormat
	loggingConfig.Modules["supervisor"] = opts.LoggingSupervisor
	loggingConfig.Modules["api"] = opts.LoggingAPI
	loggingConfig.Modules["ffmpeg"] = opts.LoggingFfmpeg
	logging.Initialize(loggingConfig)

	s := &sidecar{
		opts:     opts,
		logger:   logging.GetLogger("main"),
		eventBus: events.New(),
	}

	logging.SetLogCallback(func(entry logging.LogEntry) {
		s.eventBus.Publish(events.LogEntryEvent{
			Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
			Level:      entry.Level,
			Module:     entry.Module,
			Message:    entry.Message,
			Attributes: entry.Attributes,
		})
	})

	s.destination = opts.FfmpegDestinationURL
	if s.destination == "" {
		s.destination = config.DefaultDestination
	}

	template := ffmpeg.DefaultTemplate(opts.FfmpegSourceURL)
	if opts.FfmpegBinary != "" {
		template.Binary = opts.FfmpegBinary
	}

	spawnerOpts := []process.ExecOption{
		process.WithOutputLogger(logging.GetLogger("ffmpeg"), ffmpeg.ParseLogLevel),
	}

	s.gracePeriod = parseDuration(s.logger, "ffmpeg.grace_period", opts.FfmpegGracePeriod, process.DefaultGracePeriod)
	s.killTimeout = parseDuration(s.logger, "ffmpeg.kill_timeout", opts.FfmpegKillTimeout, process.DefaultKillTimeout)

	if opts.MetricsEnabled {
		// Only scraped once the server runs, after supervisor is assigned.
		s.collector = metrics.New(statusFunc(func() process.Snapshot { return s.supervisor.Status() }))
		spawnerOpts = append(spawnerOpts, process.WithLineHook(s.collector.ObserveLine))
	}

	s.supervisor = process.NewSupervisor(&process.Options{
		Spawner:     process.NewExecSpawner(logging.GetLogger("supervisor"), spawnerOpts...),
		Template:    template,
		Destination: s.destination,
		GracePeriod: s.gracePeriod,
		KillTimeout: s.killTimeout,
		EventBus:    s.eventBus,
		Logger:      logging.GetLogger("supervisor"),
	})

	apiOpts := &api.Options{
		Supervisor: s.supervisor,
		EventBus:   s.eventBus,
	}
	if s.collector != nil {
		apiOpts.PrometheusHandler = s.collector.Handler()
	}
	s.server = api.NewServer(apiOpts)
	s.notifier = systemd.NewNotifier(s.logger)

	return s
}

// run serves the control API until shutdown.
func (s *sidecar) run() {
	s.logger.Info("Starting ffmpeg sidecar", "version", version.String())
	s.logger.Info("Relay configuration",
		"source", s.opts.FfmpegSourceURL,
		"destination_length", len(s.destination))
	if s.opts.FfmpegDestinationURL == "" {
		s.logger.Warn("OWNCAST_URL not set, using the built-in destination")
	}
	if msg := config.DestinationWarning(s.destination); msg != "" {
		s.logger.Warn("Destination may be invalid", "reason", msg)
	}

	if s.collector != nil {
		s.collector.Subscribe(s.eventBus)
	}
	s.eventBus.Subscribe(func(e events.ProcessStartedEvent) {
		s.notifier.Status(fmt.Sprintf("ffmpeg running (pid %d)", e.PID))
	})
	s.eventBus.Subscribe(func(e events.ProcessStoppedEvent) {
		s.notifier.Status(fmt.Sprintf("ffmpeg %s (pid %d)", e.Outcome, e.PID))
	})

	if startErr := s.server.Start(s.opts.Port, s.notifier.Ready); startErr != nil {
		s.logger.Error("Failed to start HTTP server", "error", startErr)
		os.Exit(1)
	}
}

func (s *sidecar) shutdown() {
	s.logger.Info("Shutting down")
	s.notifier.Stopping()

	// Leave room for an in-flight stop to finish its grace period.
	if stopErr := s.server.Stop(s.gracePeriod + s.killTimeout + time.Second); stopErr != nil {
		s.logger.Error("Error stopping HTTP server", "error", stopErr)
	}

	s.supervisor.Shutdown()

	if s.collector != nil {
		s.collector.Close()
	}
	s.logger.Info("Shutdown complete")
}

// statusFunc adapts a function to metrics.StatusSource.
type statusFunc func() process.Snapshot

func (f statusFunc) Status() process.Snapshot { return f() }

func parseDuration(logger *slog.Logger, key, value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Warn("Invalid duration, using default", "key", key, "value", value, "default", def)
		return def
	}
	return d
}
