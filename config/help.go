package config

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const HelpMessage = `driver-presence keeps a driver's online state and location in sync with the dispatch backend.

Usage:
  driver-presence --mode=<agent|reporter> [--config-path=config.yaml]

Modes:
  agent      foreground process: session, availability, realtime channel, control API
  reporter   background process: periodic location telemetry

Flags:
`

// Flags are the command line options.
type Flags struct {
	Help       bool
	ConfigPath string
	Mode       string

	set *pflag.FlagSet
}

// ParseFlags parses args (without the program name).
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{set: pflag.NewFlagSet("driver-presence", pflag.ContinueOnError)}
	f.set.SetOutput(io.Discard)

	f.set.BoolVarP(&f.Help, "help", "h", false, "Show help message")
	f.set.StringVar(&f.ConfigPath, "config-path", "config.yaml", "Path to the config yaml file")
	f.set.StringVar(&f.Mode, "mode", "", "Application mode: agent or reporter")

	if err := f.set.Parse(args); err != nil {
		return f, fmt.Errorf("failed to parse flags: %w", err)
	}
	return f, nil
}

// PrintHelp writes the help message and flag defaults to stdout.
func (f *Flags) PrintHelp() {
	fmt.Fprint(os.Stdout, HelpMessage)
	if f != nil && f.set != nil {
		fmt.Fprint(os.Stdout, f.set.FlagUsages())
	}
}

// PrintConfig prints the effective configuration with secrets masked.
func PrintConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	fmt.Printf("mode=%s log_level=%s server=%s\n", cfg.Mode, cfg.LogLevel, cfg.Server.Addr())
	fmt.Printf("api.base_url=%s api.timeout=%s\n", cfg.API.BaseURL, cfg.API.Timeout)
	fmt.Printf("telemetry.url=%s telemetry.interval=%s thresholds=%gm/%s pickup=%gm/%s\n",
		cfg.Telemetry.URL, cfg.Telemetry.Interval,
		cfg.Telemetry.DistanceThresholdM, cfg.Telemetry.TimeThreshold,
		cfg.Telemetry.PickupDistanceThresholdM, cfg.Telemetry.PickupTimeThreshold,
	)
	fmt.Printf("realtime.url=%s reconnect_delay=%s\n", cfg.Realtime.URL, cfg.Realtime.ReconnectDelay)
	fmt.Printf("store.kind=%s broker.kind=%s\n", cfg.Store.Kind, cfg.Broker.Kind)
	switch cfg.Store.Kind {
	case "redis":
		fmt.Printf("redis.addr=%s redis.password=%s\n", cfg.Redis.Addr, mask(cfg.Redis.Password))
	case "postgres":
		fmt.Printf("database=%s@%s:%s/%s password=%s\n", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database, mask(cfg.Database.Password))
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "******"
}
