// Command gout-agent runs the client half of a gout tunnel: it dials a
// relay, registers one tunnel, and forwards traffic to a local
// upstream service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fb0sh/gout/internal/agent"
	"github.com/fb0sh/gout/internal/config"
	"github.com/fb0sh/gout/internal/logging"
	"github.com/fb0sh/gout/internal/wire"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds the optional overrides layered on top of config.LoadAgent;
// the tunnel itself is named positionally, matching the original tool's
// "gout.py <protocol> <forward_port>" invocation.
type cliFlags struct {
	configPath string
	relayHost  string
	relayPort  int
	password   string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&f.relayHost, "host", "", "Override relay control address")
	flag.IntVar(&f.relayPort, "port", 0, "Override relay control port")
	flag.StringVar(&f.password, "password", "", "Override the shared tunnel password")
	flag.Parse()
	return f
}

func usage() error {
	return fmt.Errorf("usage: %s [flags] <protocol> <local_port>", os.Args[0])
}

func run() error {
	flags := parseFlags()
	if flag.NArg() != 2 {
		return usage()
	}

	protocol := wire.Protocol(flag.Arg(0))
	if protocol != wire.ProtocolTCP && protocol != wire.ProtocolUDP {
		return fmt.Errorf("protocol must be tcp or udp, got %q", flag.Arg(0))
	}
	upstreamPort, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		return fmt.Errorf("local_port must be numeric: %w", err)
	}

	cfg, err := config.LoadAgent(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flags.relayHost != "" {
		cfg.Host = flags.relayHost
	}
	if flags.relayPort != 0 {
		cfg.Port = flags.relayPort
	}
	if flags.password != "" {
		cfg.VerifyPassword = flags.password
	}

	logger := logging.Configure(logging.Config{Program: "gout", Level: cfg.Logging.Level})
	logger.Info("gout agent starting", "relay", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		"protocol", protocol, "upstream_port", upstreamPort)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = agent.Run(ctx, agent.Config{
		RelayHost:    cfg.Host,
		RelayPort:    cfg.Port,
		Password:     cfg.VerifyPassword,
		Protocol:     protocol,
		UpstreamPort: upstreamPort,
	}, logger)
	if err != nil {
		return fmt.Errorf("agent exited with error: %w", err)
	}
	return nil
}
