package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smazurov/ffmpeg-sidecar/internal/config"
	"github.com/smazurov/ffmpeg-sidecar/internal/logging"
	"github.com/smazurov/ffmpeg-sidecar/internal/trigger"
	"github.com/spf13/cobra"
)

// triggerOptions are the trigger settings. Flags win over TRIGGER_* env
// vars, which win over the [trigger] table of the config file.
type triggerOptions struct {
	Config     string
	TriggerURL string        `toml:"trigger.url" env:"TRIGGER_URL"`
	Delay      time.Duration `toml:"trigger.delay" env:"TRIGGER_DELAY"`
	Timeout    time.Duration `toml:"trigger.timeout" env:"TRIGGER_TIMEOUT"`
	LogLevel   string        `toml:"logging.trigger" env:"LOGGING_TRIGGER"`
}

// CreateTriggerCmd creates the trigger command.
func CreateTriggerCmd() *cobra.Command {
	opts := &triggerOptions{}

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Ask the sidecar to start the relay",
		Long: `Waits briefly, then sends one start request to the sidecar control API. ` +
			`Intended as the MediaMTX runOnReady hook. Exits 0 if the relay was started and 1 otherwise.`,
		Args: cobra.NoArgs,
		Run: func(c *cobra.Command, _ []string) {
			if err := config.LoadConfig(opts, c); err != nil {
				fmt.Fprintf(os.Stderr, "Unexpected error starting ffmpeg: %v\n", err)
				os.Exit(1)
			}

			logging.Initialize(logging.Config{
				Level:   "warn",
				Format:  "text",
				Output:  os.Stderr,
				Modules: map[string]string{"trigger": opts.LogLevel},
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := trigger.New(
				trigger.WithURL(opts.TriggerURL),
				trigger.WithDelay(opts.Delay),
				trigger.WithTimeout(opts.Timeout),
				trigger.WithLogger(logging.GetLogger("trigger")),
			)

			res, err := client.Fire(ctx)
			msg := trigger.Message(res, err)
			if err != nil {
				fmt.Fprintln(os.Stderr, msg)
				stop()
				os.Exit(trigger.ExitCode(err))
			}
			fmt.Fprintln(os.Stdout, msg)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.TriggerURL, "trigger-url", trigger.DefaultURL, "Start endpoint of the control API")
	cmd.Flags().DurationVar(&opts.Delay, "delay", trigger.DefaultDelay, "Wait before sending the request")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", trigger.DefaultTimeout, "Request timeout")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "warn", "Trigger logging level (debug, info, warn, error)")

	return cmd
}
