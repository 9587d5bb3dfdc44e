package eta

import (
	"fmt"
	"math"
	"time"

	"github.com/BearBump/QuoteBox/internal/models"
)

type Input struct {
	DistanceKm   float64
	Zone         *models.DeliveryZone
	AreaType     string
	DeliveryType string
	RequestedAt  time.Time
	Riders       models.RiderSnapshot
}

type Estimator struct {
	cfg Config
}

func New(cfg Config) *Estimator {
	return &Estimator{cfg: cfg.withDefaults()}
}

func (e *Estimator) Config() Config { return e.cfg }

func (e *Estimator) Estimate(in Input) (models.ETAWindow, error) {
	if in.Zone == nil {
		return models.ETAWindow{}, &models.ConfigurationMissingError{What: "eta zone"}
	}
	area := in.AreaType
	if area == "" {
		area = in.Zone.AreaType
	}
	mpk, ok := in.Zone.ETAConfig[area]
	if !ok || mpk <= 0 {
		return models.ETAWindow{}, &models.ConfigurationMissingError{ZoneCode: in.Zone.Code, What: "eta minutes per km for " + area}
	}

	travel := in.DistanceKm * mpk * e.PeakMultiplier(in.RequestedAt) * e.typeFactor(in.DeliveryType)
	delay := e.DispatchDelay(in.Riders)

	minM := int(math.Floor(math.Max(0, travel-e.cfg.SpreadMinutes))) + delay
	maxM := int(math.Ceil(travel+e.cfg.SpreadMinutes)) + delay

	return models.ETAWindow{
		MinMinutes: minM,
		MaxMinutes: maxM,
		Text:       e.Format(minM, maxM),
	}, nil
}

func (e *Estimator) PeakMultiplier(at time.Time) float64 {
	for _, w := range e.cfg.PeakWindows {
		if w.Contains(at) {
			return 1 + e.cfg.CongestionFactor
		}
	}
	return 1.0
}

// DispatchDelay is additive: base delay plus a penalty per job queued beyond
// the riders available.
func (e *Estimator) DispatchDelay(r models.RiderSnapshot) int {
	excess := r.QueuedJobs - r.ActiveRiders
	if excess < 0 {
		excess = 0
	}
	return e.cfg.BaseDispatchMinutes + excess*e.cfg.PerExcessJobMinutes
}

func (e *Estimator) typeFactor(dt string) float64 {
	if f, ok := e.cfg.DeliveryTypeFactors[dt]; ok && f > 0 {
		return f
	}
	return 1.0
}

func (e *Estimator) Format(minM, maxM int) string {
	if maxM < e.cfg.HoursThresholdMinutes {
		if minM == maxM {
			return fmt.Sprintf("%d mins", maxM)
		}
		return fmt.Sprintf("%d-%d mins", minM, maxM)
	}
	lo := minM / 60
	if lo < 1 {
		lo = 1
	}
	hi := (maxM + 59) / 60
	if lo >= hi {
		return fmt.Sprintf("%d hours", hi)
	}
	return fmt.Sprintf("%d-%d hours", lo, hi)
}

// AreaFor picks the speed profile: cross-zone legs run on the highway
// profile when the destination defines one.
func AreaFor(origin, dest *models.DeliveryZone) string {
	if origin != nil && dest != nil && origin.Code != dest.Code {
		if mpk, ok := dest.ETAConfig[models.AreaHighway]; ok && mpk > 0 {
			return models.AreaHighway
		}
	}
	if dest == nil || dest.AreaType == "" {
		return models.AreaUrban
	}
	return dest.AreaType
}

// Union widens a to cover b.
func Union(a, b models.ETAWindow, first bool) models.ETAWindow {
	if first {
		return b
	}
	if b.MinMinutes < a.MinMinutes {
		a.MinMinutes = b.MinMinutes
	}
	if b.MaxMinutes > a.MaxMinutes {
		a.MaxMinutes = b.MaxMinutes
	}
	return a
}
