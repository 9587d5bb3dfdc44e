package eta

import (
	"strings"
	"time"

	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/pkg/errors"
)

// Window is a UTC time-of-day range, start inclusive, end exclusive.
type Window struct {
	Start time.Duration
	End   time.Duration
}

func (w Window) Contains(t time.Time) bool {
	t = t.UTC()
	tod := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
	return tod >= w.Start && tod < w.End
}

// ParseWindow parses "07:00-09:00".
func ParseWindow(s string) (Window, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return Window{}, errors.Errorf("bad peak window %q", s)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return Window{}, err
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return Window{}, err
	}
	if end <= start {
		return Window{}, errors.Errorf("bad peak window %q: end before start", s)
	}
	return Window{Start: start, End: end}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrap(err, "parse clock")
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

type Config struct {
	PeakWindows      []Window
	CongestionFactor float64

	DeliveryTypeFactors map[string]float64

	BaseDispatchMinutes int
	PerExcessJobMinutes int

	SpreadMinutes float64
	// Below this many minutes the text is in minutes, otherwise in hours.
	HoursThresholdMinutes int
}

func DefaultConfig() Config {
	return Config{
		PeakWindows: []Window{
			{Start: 7 * time.Hour, End: 9 * time.Hour},
			{Start: 16 * time.Hour, End: 18*time.Hour + 30*time.Minute},
		},
		CongestionFactor: 0.4,
		DeliveryTypeFactors: map[string]float64{
			models.DeliveryStandard: 1.0,
			models.DeliveryExpress:  0.85,
			models.DeliverySameDay:  0.75,
		},
		BaseDispatchMinutes:   5,
		PerExcessJobMinutes:   4,
		SpreadMinutes:         10,
		HoursThresholdMinutes: 120,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PeakWindows == nil {
		c.PeakWindows = def.PeakWindows
	}
	if c.CongestionFactor < 0 {
		c.CongestionFactor = 0
	}
	if len(c.DeliveryTypeFactors) == 0 {
		c.DeliveryTypeFactors = def.DeliveryTypeFactors
	}
	if c.BaseDispatchMinutes <= 0 {
		c.BaseDispatchMinutes = def.BaseDispatchMinutes
	}
	if c.PerExcessJobMinutes <= 0 {
		c.PerExcessJobMinutes = def.PerExcessJobMinutes
	}
	if c.SpreadMinutes <= 0 {
		c.SpreadMinutes = def.SpreadMinutes
	}
	if c.HoursThresholdMinutes <= 0 {
		c.HoursThresholdMinutes = def.HoursThresholdMinutes
	}
	return c
}
