package quotes_api

import (
	"net/http"
	"strings"

	"github.com/BearBump/QuoteBox/internal/logger"
	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/BearBump/QuoteBox/internal/services/zoneadmin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// writeError maps domain errors to HTTP. Internal details only reach the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		noCov     *models.NoCoverageError
		suspended *models.ZoneSuspendedError
		invalid   *models.InvalidCartPartitionError
		badType   *models.UnsupportedDeliveryTypeError
		notFound  *models.ZoneNotFoundError
		noAudit   *models.AuditNotFoundError
		badZone   *zoneadmin.ValidationError
	)
	switch {
	case errors.As(err, &noCov):
		writeJSON(w, http.StatusUnprocessableEntity, errorDTO{Error: "outside_delivery_coverage", Message: noCov.Error()})
	case errors.As(err, &suspended):
		writeJSON(w, http.StatusConflict, errorDTO{Error: "zone_suspended", Message: suspended.Error()})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: "invalid_cart", Message: invalid.Error()})
	case errors.As(err, &badType):
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: "unsupported_delivery_type", Message: badType.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorDTO{Error: "zone_not_found", Message: notFound.Error()})
	case errors.As(err, &noAudit):
		writeJSON(w, http.StatusNotFound, errorDTO{Error: "audit_not_found", Message: noAudit.Error()})
	case errors.As(err, &badZone):
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: "invalid_zone_records", Message: badZone.Error()})
	default:
		logger.WithContext(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorDTO{Error: "internal_error", Message: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fe.Namespace()+" failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}
