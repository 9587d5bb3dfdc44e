package quotes

import (
	"context"

	"github.com/BearBump/QuoteBox/internal/geo"
	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/BearBump/QuoteBox/internal/services/eta"
	"github.com/BearBump/QuoteBox/internal/services/pricing"
)

// Overrides are hypothetical rule changes applied to a preview only.
// Zones replace stored zones with the same code or add new ones;
// CrossZoneFees replace the stored pairs they name.
type Overrides struct {
	Pricing       *pricing.Config
	ETA           *eta.Config
	Zones         []*models.DeliveryZone
	CrossZoneFees []models.CrossZoneFee
}

// PreviewQuote runs the full pipeline against live configuration patched
// with the overrides. It writes no audit record and publishes nothing.
func (s *Service) PreviewQuote(ctx context.Context, req models.DeliveryQuoteRequest, ov Overrides) (*models.Quote, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	snap = snap.patch(ov)

	pe := s.pricing
	if ov.Pricing != nil {
		pe = pricing.New(*ov.Pricing)
	}
	ee := s.eta
	if ov.ETA != nil {
		ee = eta.New(*ov.ETA)
	}

	q, _, err := s.compute(ctx, req, snap, pe, ee)
	if err != nil {
		return nil, err
	}
	q.Preview = true
	return q, nil
}

func (sn snapshot) patch(ov Overrides) snapshot {
	if len(ov.Zones) > 0 {
		byCode := make(map[string]int, len(sn.zones))
		zones := make([]*models.DeliveryZone, 0, len(sn.zones)+len(ov.Zones))
		for _, z := range sn.zones {
			byCode[z.Code] = len(zones)
			zones = append(zones, z)
		}
		for _, z := range ov.Zones {
			if z == nil {
				continue
			}
			if i, ok := byCode[z.Code]; ok {
				zones[i] = z
				continue
			}
			byCode[z.Code] = len(zones)
			zones = append(zones, z)
		}
		sn.zones = zones
	}

	if len(ov.CrossZoneFees) > 0 {
		fees := make([]models.CrossZoneFee, 0, len(sn.crossFees)+len(ov.CrossZoneFees))
		replaced := map[[2]string]bool{}
		for _, f := range ov.CrossZoneFees {
			replaced[geo.PairKey(f.ZoneA, f.ZoneB)] = true
		}
		for _, f := range sn.crossFees {
			if !replaced[geo.PairKey(f.ZoneA, f.ZoneB)] {
				fees = append(fees, f)
			}
		}
		sn.crossFees = append(fees, ov.CrossZoneFees...)
	}
	return sn
}
