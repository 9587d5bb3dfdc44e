package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/QuoteBox/config"
	"github.com/BearBump/QuoteBox/internal/logger"
	"github.com/pkg/errors"
)

// quote-migrate [run|report]
func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}
	logger.Init(cfg.QuoteBox.LogEnv, cfg.QuoteBox.LogLevel)

	mode := modeRun
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := RunQuoteMigrate(ctx, cfg, defaultMigrateFactories(), mode, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		logger.Get().Error().Err(err).Msg("quote-migrate failed")
		cancel()
		os.Exit(1)
	}
}
