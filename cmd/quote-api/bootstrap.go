package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/QuoteBox/config"
	quotesapi "github.com/BearBump/QuoteBox/internal/api/quotes_api"
	"github.com/BearBump/QuoteBox/internal/broker/kafka"
	"github.com/BearBump/QuoteBox/internal/cache/rediscache"
	"github.com/BearBump/QuoteBox/internal/integrations/riders"
	"github.com/BearBump/QuoteBox/internal/integrations/riders/dispatchhttp"
	"github.com/BearBump/QuoteBox/internal/integrations/riders/fake"
	"github.com/BearBump/QuoteBox/internal/logger"
	"github.com/BearBump/QuoteBox/internal/metrics"
	"github.com/BearBump/QuoteBox/internal/services/eta"
	"github.com/BearBump/QuoteBox/internal/services/pricing"
	"github.com/BearBump/QuoteBox/internal/services/quotes"
	"github.com/BearBump/QuoteBox/internal/services/zoneadmin"
	"github.com/BearBump/QuoteBox/internal/storage/pgquote"
	"github.com/redis/go-redis/v9"
)

type quoteAPIApp struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   quoteAPIOpts
	deps   quoteAPIDeps

	consumer *kafka.Consumer
	producer *kafka.Producer
	redis    *redis.Client
	closeDB  func()
}

func mustBootstrapQuoteAPI() *quoteAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		swaggerPath = "api/swagger.json"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}
	logger.Init(cfg.QuoteBox.LogEnv, cfg.QuoteBox.LogLevel)
	log := logger.Get()

	pricingCfg := pricingFromConfig(cfg.Pricing)
	etaCfg, err := etaFromConfig(cfg.ETA)
	if err != nil {
		log.Fatal().Err(err).Msg("bad eta config")
	}

	m := metrics.New("quotebox")

	st := mustOpenPostgresWithRetry(cfg.Database.DSN(), 60*time.Second)
	rc := rediscache.NewClient(cfg.Redis.Addr())

	producer := kafka.NewProducer(cfg.Kafka.Brokers(), kafka.BreakerSettings{
		ConsecutiveFailures: cfg.Kafka.BreakerFailures,
		OpenTimeout:         time.Duration(cfg.Kafka.BreakerOpenTimeoutSecs) * time.Second,
		OnStateChange: func(from, to string) {
			log.Warn().Str("from", from).Str("to", to).Msg("kafka producer breaker state changed")
		},
	})

	quoteSvc := quotes.New(st, st, pricingCfg, etaCfg).
		WithRiders(selectRiderSource(cfg, rc)).
		WithPublisher(producer, cfg.Kafka.QuoteComputedTopicName).
		WithMetrics(m)

	zoneSvc := zoneadmin.New(st).
		WithPublisher(producer, cfg.Kafka.ZoneChangedTopicName).
		WithMetrics(m)

	api := quotesapi.New(quoteSvc, zoneSvc).
		WithPreviewLimit(rediscache.NewRateLimiter(rc), int64(cfg.QuoteBox.PreviewRateLimitPerMinute)).
		WithAudit(st)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers(), cfg.Kafka.ZoneImportTopicName, cfg.QuoteBox.KafkaConsumerGroup)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &quoteAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: quoteAPIOpts{
			httpAddr:       cfg.QuoteBox.HTTPAddr,
			swaggerPath:    swaggerPath,
			requestTimeout: time.Duration(cfg.QuoteBox.RequestTimeoutSeconds) * time.Second,
			importTopic:    cfg.Kafka.ZoneImportTopicName,
			consumerGroup:  cfg.QuoteBox.KafkaConsumerGroup,
		},
		deps: quoteAPIDeps{
			api:      api,
			importer: zoneSvc,
			metrics:  m,
			ping:     st.Ping,
			consumer: consumer,
		},
		consumer: consumer,
		producer: producer,
		redis:    rc,
		closeDB:  st.Close,
	}
}

// selectRiderSource picks where rider availability comes from. Unknown kinds
// and a dispatch source without a base URL fall back to redis.
func selectRiderSource(cfg *config.Config, rc *redis.Client) quotes.RiderSource {
	switch cfg.QuoteBox.RiderSource {
	case riders.KindFake:
		return fake.New()
	case riders.KindDispatch:
		if cfg.QuoteBox.DispatchBaseURL != "" {
			timeout := time.Duration(cfg.QuoteBox.DispatchTimeoutMillis) * time.Millisecond
			return dispatchhttp.New(cfg.QuoteBox.DispatchBaseURL, cfg.QuoteBox.DispatchAPIKey, timeout)
		}
		logger.Get().Warn().Msg("dispatch rider source without base url, using redis")
	}
	return rediscache.NewRiderAvailability(rc)
}

func pricingFromConfig(c config.PricingConfig) pricing.Config {
	return pricing.Config{
		FreeWeightAllowanceKg: c.FreeWeightAllowanceKg,
		WeightRatePerKg:       c.WeightRatePerKg,
		InsuranceThreshold:    c.InsuranceThreshold,
		InsuranceRate:         c.InsuranceRate,
		CODRate:               c.CODRate,
		FreeShippingThreshold: c.FreeShippingThreshold,
		LegacyFlatFee:         c.LegacyFlatFee,
		DefaultCrossZoneFee:   c.DefaultCrossZoneFee,
		DenseMultipliers:      c.DenseMultipliers,
		RegionalMultipliers:   c.RegionalMultipliers,
	}
}

func etaFromConfig(c config.ETAConfig) (eta.Config, error) {
	out := eta.Config{
		CongestionFactor:      c.CongestionFactor,
		DeliveryTypeFactors:   c.DeliveryTypeFactors,
		BaseDispatchMinutes:   c.BaseDispatchMinutes,
		PerExcessJobMinutes:   c.PerExcessJobMinutes,
		SpreadMinutes:         c.SpreadMinutes,
		HoursThresholdMinutes: c.HoursThresholdMins,
	}
	for _, s := range c.PeakWindows {
		w, err := eta.ParseWindow(s)
		if err != nil {
			return eta.Config{}, err
		}
		out.PeakWindows = append(out.PeakWindows, w)
	}
	return out, nil
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgquote.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgquote.New(context.Background(), connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *quoteAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *quoteAPIApp) Run() error {
	return runQuoteAPI(a.ctx, a.opts, a.deps)
}
