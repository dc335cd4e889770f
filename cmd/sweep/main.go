// cmd/sweep/main.go
//
// sweep runs one global cart sweep and exits. Non-zero exit on failure so a
// scheduler (Cloud Run job / cron) can alert and retry.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	appcfg "campusmarket/internal/infra/config"
	"campusmarket/internal/infra/logger"
	marketDI "campusmarket/internal/platform/di/market"
	shared "campusmarket/internal/platform/di/shared"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "overall deadline for the sweep")
	flag.Parse()

	os.Exit(run(*timeout))
}

func run(timeout time.Duration) int {
	cfg, err := appcfg.Load()
	if err != nil {
		logger.Must(appcfg.EnvProduction).Error("config", zap.Error(err))
		return 2
	}
	log := logger.Must(cfg.AppEnv).Named("sweep")
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	inf, err := shared.NewInfra(ctx, cfg, log)
	if err != nil {
		log.Error("infra init", zap.Error(err))
		return 1
	}
	defer func() { _ = inf.Close() }()

	cont, err := marketDI.NewContainer(ctx, inf)
	if err != nil {
		log.Error("di init", zap.Error(err))
		return 1
	}

	start := time.Now()
	rep, err := cont.Engine.GlobalSweep(ctx)
	fields := []zap.Field{
		zap.Int("scanned", rep.Scanned),
		zap.Int("itemsChecked", rep.ItemsChecked),
		zap.Int("stale", rep.Stale),
		zap.Int("removed", rep.Removed),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		log.Error("sweep failed", append(fields, zap.Error(err))...)
		return 1
	}
	log.Info("sweep done", fields...)
	return 0
}
