package fake

import (
	"context"
	"hash/fnv"

	"github.com/BearBump/QuoteBox/internal/models"
)

// Source: заглушка диспетчерской, детерминированные счётчики по коду зоны.
type Source struct{}

func New() *Source { return &Source{} }

func (f *Source) Snapshot(ctx context.Context, zoneCode string) (models.RiderSnapshot, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(zoneCode))
	v := h.Sum32()

	return models.RiderSnapshot{
		ActiveRiders: int(v%8) + 1,
		QueuedJobs:   int((v >> 8) % 12),
	}, nil
}
