package rediscache

import (
	"context"
	"strconv"
	"time"

	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

// RiderAvailability reads the rider counters dispatch keeps per zone in a
// redis hash (riders:zone:<code> -> active, queued). Zone configuration is
// never stored here.
type RiderAvailability struct {
	c *redis.Client
}

func NewRiderAvailability(c *redis.Client) *RiderAvailability {
	return &RiderAvailability{c: c}
}

func riderKey(zoneCode string) string {
	return "riders:zone:" + zoneCode
}

// Snapshot returns the zone counters. A zone with no hash has no riders
// reported and yields an empty snapshot.
func (r *RiderAvailability) Snapshot(ctx context.Context, zoneCode string) (models.RiderSnapshot, error) {
	vals, err := r.c.HGetAll(ctx, riderKey(zoneCode)).Result()
	if err != nil {
		return models.RiderSnapshot{}, errors.Wrap(err, "redis hgetall")
	}
	var rs models.RiderSnapshot
	if rs.ActiveRiders, err = atoi(vals["active"]); err != nil {
		return models.RiderSnapshot{}, errors.Wrapf(err, "zone %s active riders", zoneCode)
	}
	if rs.QueuedJobs, err = atoi(vals["queued"]); err != nil {
		return models.RiderSnapshot{}, errors.Wrapf(err, "zone %s queued jobs", zoneCode)
	}
	return rs, nil
}

// Put overwrites the zone counters; ttl 0 keeps them until replaced.
func (r *RiderAvailability) Put(ctx context.Context, zoneCode string, rs models.RiderSnapshot, ttl time.Duration) error {
	key := riderKey(zoneCode)
	pipe := r.c.TxPipeline()
	pipe.HSet(ctx, key, "active", rs.ActiveRiders, "queued", rs.QueuedJobs)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "redis hset")
	}
	return nil
}

func atoi(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}
