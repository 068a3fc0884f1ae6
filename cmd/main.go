package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	service "github.com/okian/waitcast/internal/app"
	"github.com/okian/waitcast/internal/config"
	"github.com/okian/waitcast/pkg/logger"
)

// Process exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

// run loads configuration, initializes logging and executes one pipeline run.
func run(ctx context.Context) int {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return exitConfig
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return exitConfig
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := service.New(cfg, service.WithLogger(log))
	if err != nil {
		log.Error(ctx, "failed to build pipeline", logger.Error(err))
		return exitConfig
	}

	res, err := svc.Run(ctx)
	if err != nil {
		return exitFailed
	}
	if res.Report != nil && len(res.Report.Warnings) > 0 {
		log.Info(ctx, "run finished with warnings", logger.Int("warnings", len(res.Report.Warnings)))
	}
	return exitOK
}
