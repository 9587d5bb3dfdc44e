package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	quotesapi "github.com/BearBump/QuoteBox/internal/api/quotes_api"
	"github.com/BearBump/QuoteBox/internal/broker/kafka"
	"github.com/BearBump/QuoteBox/internal/broker/messages"
	"github.com/BearBump/QuoteBox/internal/logger"
	"github.com/BearBump/QuoteBox/internal/metrics"
	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/BearBump/QuoteBox/internal/services/zoneadmin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type quoteAPIOpts struct {
	httpAddr       string
	swaggerPath    string
	requestTimeout time.Duration

	importTopic   string
	consumerGroup string

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

type zoneImporter interface {
	ImportZones(ctx context.Context, records []models.ZoneImportRecord) ([]*models.DeliveryZone, error)
}

type quoteAPIDeps struct {
	api      *quotesapi.QuotesAPI
	importer zoneImporter
	metrics  *metrics.Metrics
	ping     func(ctx context.Context) error
	consumer kafkaConsumer
}

func runQuoteAPI(ctx context.Context, opts quoteAPIOpts, deps quoteAPIDeps) error {
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runHTTPServer(ctx, lis, newRouter(opts, deps))
	}()

	if deps.consumer != nil {
		go func() {
			log := logger.Get()
			log.Info().Str("topic", opts.importTopic).Str("group", opts.consumerGroup).Msg("kafka consumer started")
			err := deps.consumer.Consume(ctx, func(_ []byte, value []byte) error {
				return handleZoneImport(ctx, deps.importer, value)
			})
			if err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("topic", opts.importTopic).Msg("kafka consumer stopped")
			}
		}()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-httpErr:
		return err
	}
}

func newRouter(opts quoteAPIOpts, deps quoteAPIDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(quotesapi.Instrument(deps.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if deps.ping != nil {
			if err := deps.ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if deps.metrics != nil {
		r.Handle("/metrics", deps.metrics.Handler())
	}

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, opts.swaggerPath)
	})
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger.json"),
	))

	r.Group(func(r chi.Router) {
		if opts.requestTimeout > 0 {
			r.Use(middleware.Timeout(opts.requestTimeout))
		}
		deps.api.Routes(r)
	})
	return r
}

func runHTTPServer(ctx context.Context, lis net.Listener, h http.Handler) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Get().Info().Str("addr", lis.Addr().String()).Msg("HTTP server listening")
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// handleZoneImport applies one zone.import message. Messages that can never
// succeed are skipped so they do not block the partition.
func handleZoneImport(ctx context.Context, importer zoneImporter, value []byte) error {
	log := logger.WithContext(ctx)

	var m messages.ZoneImport
	if err := json.Unmarshal(value, &m); err != nil {
		log.Warn().Err(err).Msg("zone import: malformed message")
		return kafka.ErrSkip
	}

	records := m.Records
	if len(m.GeoJSON) > 0 {
		parsed, err := zoneadmin.ParseGeoJSON(m.GeoJSON)
		if err != nil {
			log.Warn().Err(err).Str("source", m.Source).Msg("zone import: bad geojson")
			return kafka.ErrSkip
		}
		records = append(records, parsed...)
	}

	zs, err := importer.ImportZones(ctx, records)
	if err != nil {
		var bad *zoneadmin.ValidationError
		if errors.As(err, &bad) {
			log.Warn().Err(err).Str("source", m.Source).Msg("zone import: rejected")
			return kafka.ErrSkip
		}
		return err
	}
	log.Info().Str("source", m.Source).Int("zones", len(zs)).Msg("zone import applied")
	return nil
}
