package riders

import (
	"context"

	"github.com/BearBump/QuoteBox/internal/models"
)

// Source reports rider availability around a zone at request time.
type Source interface {
	Snapshot(ctx context.Context, zoneCode string) (models.RiderSnapshot, error)
}

const (
	KindRedis    = "redis"
	KindDispatch = "dispatch"
	KindFake     = "fake"
)
