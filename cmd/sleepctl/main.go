package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/sleepctl/internal/config"
	"codeberg.org/mutker/sleepctl/internal/console"
	"codeberg.org/mutker/sleepctl/internal/cycle"
	"codeberg.org/mutker/sleepctl/internal/errors"
	"codeberg.org/mutker/sleepctl/internal/logger"
	"codeberg.org/mutker/sleepctl/internal/metrics"
	"codeberg.org/mutker/sleepctl/internal/pid"
	"codeberg.org/mutker/sleepctl/internal/platform"
)

const summaryTimeout = 5 * time.Second

type app struct {
	cfg      *config.Config
	log      logger.Logger
	platform platform.Platform
	console  *console.Console
	metrics  metrics.Collector
	runner   *cycle.Runner
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.Init(level, logger.IsService())
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(cfg.PIDDir); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}

	a, err := newApp(cfg, logger.Default())
	if err != nil {
		_ = pid.Remove(cfg.PIDDir)
		logger.Fatal().Err(err).Msg("failed to initialize")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	runErr := a.runner.Run(ctx)
	a.shutdown()

	if err := pid.Remove(cfg.PIDDir); err != nil {
		logger.Error().Err(err).Msg("failed to remove PID file")
	}

	if runErr != nil {
		var appErr errors.Error
		if errors.As(runErr, &appErr) {
			logger.FatalWithCode(appErr).Msg("error in main loop")
		}
		logger.Fatal().Err(runErr).Msg("error in main loop")
	}
}

func newApp(cfg *config.Config, log logger.Logger) (*app, error) {
	errFactory := errors.New()

	p, err := platform.New(platform.Options{
		Name:       cfg.Platform,
		EarlyWake:  cfg.EarlyWake,
		RTCDevice:  cfg.RTCDevice,
		SleepState: cfg.SleepState,
		Logger:     log,
	})
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	con := console.New(os.Stdout, log)
	if cfg.SerialPort != "" {
		if err := con.OpenSerial(cfg.SerialPort, cfg.SerialBaud); err != nil {
			return nil, errFactory.Wrap(errors.ErrInitApp, err)
		}
	}

	collector, err := metrics.NewService(metrics.Config{
		DBPath:       cfg.MetricsDB,
		Enabled:      cfg.Metrics,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}, log)
	if err != nil {
		con.Close()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	runner := cycle.NewRunner(p, con, collector, log, cycle.Config{
		Wakeup:    cfg.WakeupDuration(),
		MaxCycles: cfg.Cycles,
	})

	log.Info().
		Str("platform", cfg.Platform).
		Int64("wakeup_us", cfg.WakeupUS).
		Bool("metrics", cfg.Metrics).
		Msg("sleepctl initialized")

	return &app{
		cfg:      cfg,
		log:      log,
		platform: p,
		console:  con,
		metrics:  collector,
		runner:   runner,
	}, nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func (a *app) shutdown() {
	stats := a.runner.Stats()
	a.log.Info().
		Int("cycles", stats.Cycles).
		Int("timer_wakes", stats.TimerWakes).
		Int("other_wakes", stats.OtherWakes).
		Int64("total_slept_ms", stats.TotalSleptMs).
		Msg("Sleep cycle stopped")

	if a.cfg.Metrics {
		ctx, cancel := context.WithTimeout(context.Background(), summaryTimeout)
		summary, err := a.metrics.Summary(ctx)
		cancel()
		if err != nil {
			a.log.Warn().Err(err).Msg("failed to summarize recorded cycles")
		} else {
			a.log.Info().
				Int("cycles", summary.Cycles).
				Int("timer_wakes", summary.TimerWakes).
				Int("other_wakes", summary.OtherWakes).
				Float64("avg_slept_ms", summary.AvgSleptMs).
				Msg("Recorded cycles")
		}
	}

	if err := a.metrics.Close(); err != nil {
		a.log.Error().Err(err).Msg("failed to close metrics")
	}
	if c, ok := a.platform.(platform.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.Error().Err(err).Msg("failed to release platform")
		}
	}
	if err := a.console.Close(); err != nil {
		a.log.Error().Err(err).Msg("failed to close console")
	}
	a.log.Info().Msg("Exiting...")
}
