package geo

import (
	"sort"

	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Resolver answers point-in-zone queries against one snapshot of zones.
// Build a new Resolver per request so suspend/resume toggles are observed.
//
// Zones without polygon data (rural LGAs with sparse boundaries) are matched
// by centroid + radius. That containment is an approximation: a point is
// inside when its haversine distance to the centroid is <= RadiusKm.
type Resolver struct {
	polygons  []polygonZone
	centroids []*models.DeliveryZone
	byCode    map[string]*models.DeliveryZone
}

type polygonZone struct {
	zone *models.DeliveryZone
	poly orb.Polygon
}

func NewResolver(zones []*models.DeliveryZone) *Resolver {
	r := &Resolver{byCode: make(map[string]*models.DeliveryZone, len(zones))}

	sorted := make([]*models.DeliveryZone, 0, len(zones))
	for _, z := range zones {
		if z == nil || !z.IsActive {
			continue
		}
		sorted = append(sorted, z)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })

	for _, z := range sorted {
		r.byCode[z.Code] = z
		switch {
		case z.HasPolygon():
			r.polygons = append(r.polygons, polygonZone{zone: z, poly: toPolygon(z.Polygon)})
		case z.Centroid != nil && z.RadiusKm > 0:
			r.centroids = append(r.centroids, z)
		}
	}
	return r
}

// Resolve returns the zone containing p. Suspended zones still resolve; the
// caller decides whether to block.
func (r *Resolver) Resolve(p models.LatLng, role string) (*models.DeliveryZone, error) {
	pt := orb.Point{p.Lng, p.Lat}
	for _, pz := range r.polygons {
		if planar.PolygonContains(pz.poly, pt) {
			return pz.zone, nil
		}
	}

	var best *models.DeliveryZone
	bestDist := 0.0
	for _, z := range r.centroids {
		d := HaversineKm(*z.Centroid, p)
		if d > z.RadiusKm {
			continue
		}
		// centroids are code-sorted, so strict < keeps the lowest code on ties
		if best == nil || d < bestDist {
			best, bestDist = z, d
		}
	}
	if best != nil {
		return best, nil
	}
	return nil, &models.NoCoverageError{Point: p, Role: role}
}

func (r *Resolver) Zone(code string) (*models.DeliveryZone, bool) {
	z, ok := r.byCode[code]
	return z, ok
}

func toPolygon(ring []models.LatLng) orb.Polygon {
	out := make(orb.Ring, 0, len(ring)+1)
	for _, p := range ring {
		out = append(out, orb.Point{p.Lng, p.Lat})
	}
	if !out.Closed() {
		out = append(out, out[0])
	}
	return orb.Polygon{out}
}
