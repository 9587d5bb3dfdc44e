package quotes

import (
	"fmt"
	"sort"

	"github.com/BearBump/QuoteBox/internal/models"
)

type pickupGroup struct {
	id     string
	coords models.LatLng
	items  []models.CartItem
}

// partition groups items by pickup location, ordered by id. Items sharing a
// pickup location must carry identical coordinates.
func partition(items []models.CartItem) ([]pickupGroup, error) {
	if len(items) == 0 {
		return nil, &models.InvalidCartPartitionError{Reason: "cart is empty"}
	}

	byID := make(map[string]*pickupGroup, len(items))
	for i, it := range items {
		if it.PickupLocationID == "" {
			return nil, &models.InvalidCartPartitionError{Reason: fmt.Sprintf("item %d has no pickup location", i)}
		}
		if it.Quantity <= 0 {
			return nil, &models.InvalidCartPartitionError{
				PickupLocationID: it.PickupLocationID,
				Reason:           fmt.Sprintf("item %q has non-positive quantity %d", it.ProductID, it.Quantity),
			}
		}
		g, ok := byID[it.PickupLocationID]
		if !ok {
			g = &pickupGroup{id: it.PickupLocationID, coords: it.PickupCoords}
			byID[it.PickupLocationID] = g
		} else if g.coords != it.PickupCoords {
			return nil, &models.InvalidCartPartitionError{
				PickupLocationID: it.PickupLocationID,
				Reason:           "items disagree on pickup coordinates",
			}
		}
		g.items = append(g.items, it)
	}

	out := make([]pickupGroup, 0, len(byID))
	for _, g := range byID {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out, nil
}

// quotedTypes returns the primary type plus alternates, listed in the
// static delivery type order; unknown types follow in request order.
func quotedTypes(primary string, alternates []string) []string {
	want := map[string]bool{primary: true}
	extra := []string{}
	for _, t := range alternates {
		if t == "" || want[t] {
			continue
		}
		want[t] = true
		extra = append(extra, t)
	}

	out := make([]string, 0, len(want))
	known := map[string]bool{}
	for _, t := range models.DeliveryTypeOrder {
		known[t] = true
		if want[t] {
			out = append(out, t)
		}
	}
	if !known[primary] {
		out = append(out, primary)
	}
	for _, t := range extra {
		if !known[t] {
			out = append(out, t)
		}
	}
	return out
}

// orderTags returns the union of tags in the static tag order.
func orderTags(sets ...[]string) []string {
	seen := map[string]bool{}
	for _, s := range sets {
		for _, t := range s {
			seen[t] = true
		}
	}
	out := []string{}
	for _, t := range models.TagOrder {
		if seen[t] {
			out = append(out, t)
		}
	}
	return out
}
