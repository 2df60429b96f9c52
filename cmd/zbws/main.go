// Command zbws connects to the ZB websocket API, subscribes to market data
// channels and prints every inbound frame.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"zbws/internal/config"
	"zbws/pkg/core"
	"zbws/pkg/metrics"
	"zbws/pkg/session"
	"zbws/pkg/stream"
	"zbws/pkg/zb"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "zbws:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("zbws", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	channels := flags.StringSlice("channel", []string{"ltcbtc_depth"}, "channels to subscribe to")
	accountInfo := flags.Bool("account-info", false, "request account info after connecting (needs credentials)")
	printConfig := flags.Bool("print-config", false, "print the effective config with secrets redacted and exit")
	metricsAddr := flags.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(config.Options{
		File:    config.LookupString(flags, "config"),
		EnvFile: config.LookupString(flags, "env-file"),
		Flags:   flags,
	})
	if err != nil {
		return err
	}

	if *printConfig {
		return config.Dump(os.Stdout, cfg)
	}

	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if *metricsAddr != "" {
		srv := serveMetrics(*metricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	router := stream.NewRouter()
	router.SetLogger(logger)
	router.HandleFunc(func(message string) {
		fmt.Println(message)
	})
	router.Handle(zb.ChannelName("", core.OpGetAccountInfo), func(message string) {
		resp, err := zb.DecodeResponse(message)
		if err != nil {
			logger.Error().Err(err).Msg("undecodable account info reply")
			return
		}
		if err := resp.Err(); err != nil {
			logger.Error().Err(err).Msg("account info rejected")
			return
		}
		fmt.Println(string(resp.Data))
	})

	sess := session.New(session.ConfigFrom(cfg), router.Dispatch)
	sess.SetLogger(logger)
	sess.SetMetrics(m)
	defer sess.Close()

	client, err := zb.NewClient(cfg, sess)
	if err != nil {
		return err
	}
	client.SetLogger(logger)
	client.SetMetrics(m)

	logger.Info().
		Str("url", cfg.URL).
		Str("access_key", cfg.Credentials.MaskedAccessKey()).
		Msg("connecting")
	if err := sess.Connect(ctx); err != nil {
		return err
	}

	for _, ch := range *channels {
		if err := client.AddChannel(ctx, strings.TrimSpace(ch)); err != nil {
			return fmt.Errorf("subscribe %s: %w", ch, err)
		}
	}
	if *accountInfo {
		if err := client.GetAccountInfo(ctx); err != nil {
			return err
		}
	}

	err = waitForShutdown(ctx, sess, logger)
	if stats := client.RateLimiter().Metrics(); stats.TotalRequests > 0 {
		logger.Info().
			Int64("total", stats.TotalRequests).
			Int64("denied", stats.DeniedRequests).
			Msg("rate limiter")
	}
	return err
}

// waitForShutdown blocks until a signal arrives or the server drops the
// connection. A dropped connection is reported as an error.
func waitForShutdown(ctx context.Context, sess *session.Session, logger zerolog.Logger) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down")
			return nil
		case <-ticker.C:
			if !sess.IsAlive() {
				return core.NewError(core.ErrorTypeConnection, "read", errors.New("connection lost"))
			}
		}
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func serveMetrics(addr string, reg *prometheus.Registry, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	logger.Info().Str("addr", addr).Msg("serving metrics")
	return srv
}
