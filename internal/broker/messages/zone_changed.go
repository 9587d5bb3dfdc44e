package messages

import (
	"time"

	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/goccy/go-json"
)

const (
	ZoneSuspended = "suspended"
	ZoneResumed   = "resumed"
	ZoneImported  = "imported"
)

type ZoneChanged struct {
	Code      string    `json:"code"`
	Change    string    `json:"change"`
	Version   int64     `json:"version"`
	ChangedAt time.Time `json:"changed_at"`
}

// ZoneImport is consumed from the zone.import topic. Either Records or
// GeoJSON (a FeatureCollection) is set.
type ZoneImport struct {
	Source  string                    `json:"source,omitempty"`
	Records []models.ZoneImportRecord `json:"records,omitempty"`
	GeoJSON json.RawMessage           `json:"geojson,omitempty"`
}
