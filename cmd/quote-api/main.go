package main

import (
	"context"

	"github.com/BearBump/QuoteBox/internal/logger"
	"github.com/pkg/errors"
)

func main() {
	app := mustBootstrapQuoteAPI()
	defer app.Close()

	if err := app.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Get().Error().Err(err).Msg("quote-api stopped")
		panic(err)
	}
}
