package quotes_api

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/QuoteBox/internal/logger"
	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/BearBump/QuoteBox/internal/services/eta"
	"github.com/BearBump/QuoteBox/internal/services/pricing"
	"github.com/BearBump/QuoteBox/internal/services/quotes"
	"github.com/BearBump/QuoteBox/internal/services/zoneadmin"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	maxQuoteBody  = 1 << 20
	maxImportBody = 16 << 20

	contentTypeGeoJSON = "application/geo+json"
)

type QuoteService interface {
	ComputeQuote(ctx context.Context, req models.DeliveryQuoteRequest) (*models.Quote, error)
	PreviewQuote(ctx context.Context, req models.DeliveryQuoteRequest, ov quotes.Overrides) (*models.Quote, error)
	LegacyFlatFee(subtotal int64) int64
	PricingConfig() pricing.Config
	ETAConfig() eta.Config
}

type ZoneAdmin interface {
	ListZones(ctx context.Context) ([]*models.DeliveryZone, error)
	SuspendZone(ctx context.Context, code string) (*models.DeliveryZone, error)
	ResumeZone(ctx context.Context, code string) (*models.DeliveryZone, error)
	ImportZones(ctx context.Context, records []models.ZoneImportRecord) ([]*models.DeliveryZone, error)
	ListCrossZoneFees(ctx context.Context) ([]models.CrossZoneFee, error)
	SetCrossZoneFee(ctx context.Context, f models.CrossZoneFee) error
}

type AuditReader interface {
	GetAuditByQuoteID(ctx context.Context, quoteID string) (*models.AuditLogEntry, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type QuotesAPI struct {
	quotes   QuoteService
	zones    ZoneAdmin
	validate *validator.Validate

	limiter      RateLimiter
	previewLimit int64

	audit AuditReader
}

func New(q QuoteService, z ZoneAdmin) *QuotesAPI {
	return &QuotesAPI{quotes: q, zones: z, validate: validator.New()}
}

// WithPreviewLimit caps preview calls per client per minute.
func (a *QuotesAPI) WithPreviewLimit(rl RateLimiter, perMinute int64) *QuotesAPI {
	a.limiter = rl
	a.previewLimit = perMinute
	return a
}

func (a *QuotesAPI) WithAudit(ar AuditReader) *QuotesAPI {
	a.audit = ar
	return a
}

func (a *QuotesAPI) Routes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/quotes", a.createQuote)
		r.Post("/quotes/preview", a.previewQuote)
		r.Get("/quotes/legacy", a.legacyFee)
		r.Get("/zones", a.listZones)

		r.Route("/admin/zones", func(r chi.Router) {
			r.Post("/import", a.importZones)
			r.Post("/{code}/suspend", a.suspendZone)
			r.Post("/{code}/resume", a.resumeZone)
		})
		r.Get("/admin/cross-zone-fees", a.listCrossZoneFees)
		r.Put("/admin/cross-zone-fees", a.setCrossZoneFee)
		if a.audit != nil {
			r.Get("/admin/audit/{quoteID}", a.getAudit)
		}
	})
}

func (a *QuotesAPI) createQuote(w http.ResponseWriter, r *http.Request) {
	var dto quoteRequestDTO
	if !a.decode(w, r, maxQuoteBody, &dto) {
		return
	}
	q, err := a.quotes.ComputeQuote(r.Context(), dto.toModel())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (a *QuotesAPI) previewQuote(w http.ResponseWriter, r *http.Request) {
	if !a.allowPreview(w, r) {
		return
	}
	var dto previewRequestDTO
	if !a.decode(w, r, maxQuoteBody, &dto) {
		return
	}
	ov, err := dto.overrides(a.quotes.PricingConfig(), a.quotes.ETAConfig())
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := a.quotes.PreviewQuote(r.Context(), dto.Request.toModel(), ov)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (a *QuotesAPI) legacyFee(w http.ResponseWriter, r *http.Request) {
	subtotal, err := strconv.ParseInt(r.URL.Query().Get("subtotal"), 10, 64)
	if err != nil || subtotal < 0 {
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: "invalid_request", Message: "subtotal must be a non-negative integer"})
		return
	}
	writeJSON(w, http.StatusOK, legacyFeeDTO{SubtotalNGN: subtotal, FeeNGN: a.quotes.LegacyFlatFee(subtotal)})
}

func (a *QuotesAPI) listZones(w http.ResponseWriter, r *http.Request) {
	zs, err := a.zones.ListZones(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"zones": zs})
}

func (a *QuotesAPI) suspendZone(w http.ResponseWriter, r *http.Request) {
	z, err := a.zones.SuspendZone(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, z)
}

func (a *QuotesAPI) resumeZone(w http.ResponseWriter, r *http.Request) {
	z, err := a.zones.ResumeZone(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, z)
}

func (a *QuotesAPI) listCrossZoneFees(w http.ResponseWriter, r *http.Request) {
	fees, err := a.zones.ListCrossZoneFees(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cross_zone_fees": fees})
}

func (a *QuotesAPI) setCrossZoneFee(w http.ResponseWriter, r *http.Request) {
	var f models.CrossZoneFee
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQuoteBody)).Decode(&f); err != nil {
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: "invalid_request", Message: "malformed JSON body"})
		return
	}
	if err := a.zones.SetCrossZoneFee(r.Context(), f); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (a *QuotesAPI) getAudit(w http.ResponseWriter, r *http.Request) {
	e, err := a.audit.GetAuditByQuoteID(r.Context(), chi.URLParam(r, "quoteID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// importZones accepts {"records": [...]} or a GeoJSON FeatureCollection.
func (a *QuotesAPI) importZones(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBody))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorDTO{Error: "invalid_request", Message: "body too large"})
		return
	}

	var records []models.ZoneImportRecord
	if isGeoJSON(r.Header.Get("Content-Type"), body) {
		records, err = zoneadmin.ParseGeoJSON(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorDTO{Error: "invalid_geojson", Message: err.Error()})
			return
		}
	} else {
		var dto importRecordsDTO
		if err := json.Unmarshal(body, &dto); err != nil {
			writeJSON(w, http.StatusBadRequest, errorDTO{Error: "invalid_request", Message: "malformed JSON body"})
			return
		}
		records = dto.Records
	}

	zs, err := a.zones.ImportZones(r.Context(), records)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": len(zs), "zones": zs})
}

func isGeoJSON(contentType string, body []byte) bool {
	if strings.HasPrefix(contentType, contentTypeGeoJSON) {
		return true
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &head); err != nil {
		return false
	}
	return head.Type == "FeatureCollection"
}

func (a *QuotesAPI) allowPreview(w http.ResponseWriter, r *http.Request) bool {
	if a.limiter == nil || a.previewLimit <= 0 {
		return true
	}
	key := "ratelimit:preview:" + clientIP(r)
	ok, _, err := a.limiter.Allow(r.Context(), key, a.previewLimit, time.Minute)
	if err != nil {
		// redis недоступен: пропускаем запрос
		logger.WithContext(r.Context()).Warn().Err(err).Msg("preview rate limiter unavailable")
		return true
	}
	if !ok {
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusTooManyRequests, errorDTO{Error: "rate_limited", Message: "too many preview requests"})
		return false
	}
	return true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (a *QuotesAPI) decode(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: "invalid_request", Message: "malformed JSON body"})
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: "invalid_request", Message: validationMessage(err)})
		return false
	}
	return true
}
