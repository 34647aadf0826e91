// Command gout-relay runs the public-facing half of a gout tunnel: it
// accepts agent control connections, authenticates them, and exposes
// one public listener per registered tunnel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fb0sh/gout/internal/api"
	"github.com/fb0sh/gout/internal/config"
	"github.com/fb0sh/gout/internal/journal"
	"github.com/fb0sh/gout/internal/logging"
	"github.com/fb0sh/gout/internal/publicip"
	"github.com/fb0sh/gout/internal/relay"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	configPath string
	host       string
	port       int
	returnIP   string
	password   string
	apiEnabled bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&f.host, "host", "", "Override control listener bind host")
	flag.IntVar(&f.port, "port", 0, "Override control listener bind port")
	flag.StringVar(&f.returnIP, "return-ip", "", "Override the public IP advertised to agents")
	flag.StringVar(&f.password, "password", "", "Override the shared tunnel password")
	flag.BoolVar(&f.apiEnabled, "api", false, "Enable the management HTTP API")
	flag.Parse()
	return f
}

func run() error {
	flags := parseFlags()

	cfg, err := config.LoadRelay(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyRelayOverrides(cfg, flags)

	logger := logging.Configure(logging.Config{Program: "gout_server", Level: cfg.Logging.Level})

	if cfg.ReturnIP == "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		ip, ipErr := publicip.Discover(ctx)
		cancel()
		if ipErr != nil {
			logger.Warn("public IP discovery failed, agents must be told the relay address out of band", "err", ipErr)
		} else {
			cfg.ReturnIP = ip
			logger.Info("discovered public IP", "ip", ip)
		}
	}

	var recorder relay.EventRecorder
	var j *journal.Journal
	if cfg.Journal.Path != "" {
		j, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("open event journal: %w", err)
		}
		defer j.Close()
		recorder = j
	}

	dispatcher := relay.NewDispatcher(relay.Config{
		VerifyPassword: cfg.VerifyPassword,
		ReturnIP:       cfg.ReturnIP,
		MinPort:        cfg.MinPort,
		MaxPort:        cfg.MaxPort,
		MaxConnections: cfg.MaxConnections,
	}, logger, recorder)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	controlAddr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	ln, err := net.Listen("tcp", controlAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", controlAddr, err)
	}

	logger.Info("gout relay starting", "control_addr", controlAddr, "return_ip", cfg.ReturnIP,
		"port_range", fmt.Sprintf("%d-%d", cfg.MinPort, cfg.MaxPort))

	var apiSrv *api.Server
	if cfg.API.Enabled {
		apiSrv = api.New(api.Config{Host: cfg.API.Host, Port: cfg.API.Port, APIKey: cfg.API.APIKey},
			dispatcher.Stats, j, logger)
		logger.Info("management API starting", "addr", apiSrv.Addr())
		go func() {
			if srvErr := apiSrv.ListenAndServe(); srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
				logger.Error("management API error", "err", srvErr)
			}
		}()
	}

	err = dispatcher.Serve(ctx, ln)

	if apiSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = apiSrv.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	if err != nil {
		return fmt.Errorf("relay exited with error: %w", err)
	}
	return nil
}

func applyRelayOverrides(cfg *config.RelayConfig, f cliFlags) {
	if f.host != "" {
		cfg.Host = f.host
	}
	if f.port != 0 {
		cfg.Port = f.port
	}
	if f.returnIP != "" {
		cfg.ReturnIP = f.returnIP
	}
	if f.password != "" {
		cfg.VerifyPassword = f.password
	}
	if f.apiEnabled {
		cfg.API.Enabled = true
	}
}
