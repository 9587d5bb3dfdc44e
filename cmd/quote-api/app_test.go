package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BearBump/QuoteBox/config"
	quotesapi "github.com/BearBump/QuoteBox/internal/api/quotes_api"
	"github.com/BearBump/QuoteBox/internal/broker/kafka"
	"github.com/BearBump/QuoteBox/internal/cache/rediscache"
	"github.com/BearBump/QuoteBox/internal/integrations/riders/dispatchhttp"
	"github.com/BearBump/QuoteBox/internal/integrations/riders/fake"
	"github.com/BearBump/QuoteBox/internal/metrics"
	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/BearBump/QuoteBox/internal/services/eta"
	"github.com/BearBump/QuoteBox/internal/services/pricing"
	"github.com/BearBump/QuoteBox/internal/services/quotes"
	quotesmocks "github.com/BearBump/QuoteBox/internal/services/quotes/mocks"
	"github.com/BearBump/QuoteBox/internal/services/zoneadmin"
	zonemocks "github.com/BearBump/QuoteBox/internal/services/zoneadmin/mocks"
	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeConsumer struct {
	messages [][]byte
	handled  chan error
}

func (c *fakeConsumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	for _, m := range c.messages {
		err := handler(nil, m)
		if c.handled != nil {
			c.handled <- err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

type fakeImporter struct {
	got [][]models.ZoneImportRecord
	err error
}

func (f *fakeImporter) ImportZones(ctx context.Context, records []models.ZoneImportRecord) ([]*models.DeliveryZone, error) {
	f.got = append(f.got, records)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.DeliveryZone, 0, len(records))
	for _, r := range records {
		z := r.ToZone()
		out = append(out, &z)
	}
	return out, nil
}

func writeSwagger(t *testing.T) string {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))
	return sw
}

func testDeps(consumer kafkaConsumer, importer zoneImporter) quoteAPIDeps {
	quoteSvc := quotes.New(&quotesmocks.MockZoneStore{}, &quotesmocks.MockAuditStore{}, pricing.DefaultConfig(), eta.DefaultConfig())
	zoneSvc := zoneadmin.New(&zonemocks.MockRepository{})
	return quoteAPIDeps{
		api:      quotesapi.New(quoteSvc, zoneSvc),
		importer: importer,
		metrics:  metrics.New("test"),
		ping:     func(ctx context.Context) error { return nil },
		consumer: consumer,
	}
}

func get(t *testing.T, url string) (int, string) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestRunQuoteAPI_ServesDocsHealthAndRoutes(t *testing.T) {
	sw := writeSwagger(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	opts := quoteAPIOpts{
		httpAddr:       "127.0.0.1:0",
		swaggerPath:    sw,
		requestTimeout: time.Second,
		importTopic:    "zone.import",
		consumerGroup:  "g",
		onListen:       func(httpAddr string) { addrCh <- httpAddr },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- runQuoteAPI(ctx, opts, testDeps(&fakeConsumer{}, &fakeImporter{}))
	}()
	base := "http://" + <-addrCh

	code, body := get(t, base+"/swagger.json")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `"swagger"`)

	code, body = get(t, base+"/healthz")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "ok")

	code, body = get(t, base+"/v1/quotes/legacy?subtotal=200000")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `"fee_ngn":0`)

	code, body = get(t, base+"/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `test_http_requests_total{method="GET",route="/v1/quotes/legacy",status="200"} 1`)

	cancel()
	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting server to stop")
	}
}

func TestRunQuoteAPI_HealthReportsStorageDown(t *testing.T) {
	sw := writeSwagger(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := testDeps(nil, &fakeImporter{})
	deps.ping = func(ctx context.Context) error { return errors.New("db down") }

	addrCh := make(chan string, 1)
	go func() {
		_ = runQuoteAPI(ctx, quoteAPIOpts{
			httpAddr:    "127.0.0.1:0",
			swaggerPath: sw,
			onListen:    func(a string) { addrCh <- a },
		}, deps)
	}()

	code, _ := get(t, "http://"+<-addrCh+"/healthz")
	require.Equal(t, http.StatusServiceUnavailable, code)
}

func TestRunQuoteAPI_SwaggerMissing(t *testing.T) {
	err := runQuoteAPI(context.Background(), quoteAPIOpts{
		httpAddr:    "127.0.0.1:0",
		swaggerPath: filepath.Join(t.TempDir(), "nope.json"),
	}, testDeps(nil, nil))
	require.Error(t, err)
}

func TestRunQuoteAPI_ConsumerAppliesZoneImport(t *testing.T) {
	sw := writeSwagger(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	imp := &fakeImporter{}
	cons := &fakeConsumer{
		messages: [][]byte{[]byte(`{"source":"ops","records":[{"code":"MKD-CORE","name":"Core","cluster":"dense"}]}`)},
		handled:  make(chan error, 1),
	}

	go func() {
		_ = runQuoteAPI(ctx, quoteAPIOpts{httpAddr: "127.0.0.1:0", swaggerPath: sw}, testDeps(cons, imp))
	}()

	select {
	case err := <-cons.handled:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("zone import not consumed")
	}
	require.Len(t, imp.got, 1)
	require.Equal(t, "MKD-CORE", imp.got[0][0].Code)
}

func TestHandleZoneImport(t *testing.T) {
	ctx := context.Background()

	t.Run("geojson", func(t *testing.T) {
		imp := &fakeImporter{}
		msg := `{"source":"gis","geojson":{"type":"FeatureCollection","features":[{
			"type":"Feature",
			"properties":{"code":"MKD-NORTH","name":"North","radius_km":4,"eta_config":{"urban":3}},
			"geometry":{"type":"Point","coordinates":[8.52,7.85]}}]}}`
		require.NoError(t, handleZoneImport(ctx, imp, []byte(msg)))
		require.Len(t, imp.got, 1)
		rec := imp.got[0][0]
		require.Equal(t, "MKD-NORTH", rec.Code)
		require.NotNil(t, rec.Centroid)
		require.InDelta(t, 7.85, rec.Centroid.Lat, 1e-9)
	})

	t.Run("malformed message skipped", func(t *testing.T) {
		imp := &fakeImporter{}
		err := handleZoneImport(ctx, imp, []byte(`{not json`))
		require.ErrorIs(t, err, kafka.ErrSkip)
		require.Empty(t, imp.got)
	})

	t.Run("bad geojson skipped", func(t *testing.T) {
		err := handleZoneImport(ctx, &fakeImporter{}, []byte(`{"geojson":{"type":"FeatureCollection","features":[{
			"type":"Feature","properties":{"code":"X"},
			"geometry":{"type":"LineString","coordinates":[[8.4,7.7],[8.5,7.8]]}}]}}`))
		require.ErrorIs(t, err, kafka.ErrSkip)
	})

	t.Run("validation error skipped", func(t *testing.T) {
		imp := &fakeImporter{err: &zoneadmin.ValidationError{Index: 0, Reason: "no records"}}
		err := handleZoneImport(ctx, imp, []byte(`{"records":[]}`))
		require.ErrorIs(t, err, kafka.ErrSkip)
	})

	t.Run("storage error returned", func(t *testing.T) {
		boom := errors.New("db down")
		imp := &fakeImporter{err: errors.Wrap(boom, "import zones")}
		err := handleZoneImport(ctx, imp, []byte(`{"records":[{"code":"A"}]}`))
		require.Error(t, err)
		require.NotErrorIs(t, err, kafka.ErrSkip)
	})
}

func TestSelectRiderSource(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := rediscache.NewClient(mr.Addr())

	src := selectRiderSource(&config.Config{QuoteBox: config.QuoteBoxConfig{RiderSource: "fake"}}, rc)
	_, ok := src.(*fake.Source)
	require.True(t, ok)

	src = selectRiderSource(&config.Config{QuoteBox: config.QuoteBoxConfig{
		RiderSource:     "dispatch",
		DispatchBaseURL: "http://localhost:9000",
		DispatchAPIKey:  "k",
	}}, rc)
	_, ok = src.(*dispatchhttp.Client)
	require.True(t, ok)

	src = selectRiderSource(&config.Config{QuoteBox: config.QuoteBoxConfig{RiderSource: "dispatch"}}, rc)
	_, ok = src.(*rediscache.RiderAvailability)
	require.True(t, ok)

	src = selectRiderSource(&config.Config{QuoteBox: config.QuoteBoxConfig{RiderSource: "redis"}}, rc)
	_, ok = src.(*rediscache.RiderAvailability)
	require.True(t, ok)
}

func TestConfigConversion(t *testing.T) {
	pc := pricingFromConfig(config.PricingConfig{CODRate: 0.03, DefaultCrossZoneFee: 250})
	require.Equal(t, 0.03, pc.CODRate)
	require.Equal(t, int64(250), pc.DefaultCrossZoneFee)

	ec, err := etaFromConfig(config.ETAConfig{PeakWindows: []string{"07:00-09:00"}, SpreadMinutes: 12})
	require.NoError(t, err)
	require.Len(t, ec.PeakWindows, 1)
	require.Equal(t, 7*time.Hour, ec.PeakWindows[0].Start)
	require.Equal(t, 12.0, ec.SpreadMinutes)

	_, err = etaFromConfig(config.ETAConfig{PeakWindows: []string{"nine-ish"}})
	require.Error(t, err)
}
