package geo

import "github.com/BearBump/QuoteBox/internal/models"

// CrossZoneFees is a symmetric pair table with a single default surcharge.
type CrossZoneFees struct {
	fees       map[[2]string]int64
	defaultFee int64
}

func NewCrossZoneFees(rows []models.CrossZoneFee, defaultFee int64) *CrossZoneFees {
	t := &CrossZoneFees{fees: make(map[[2]string]int64, len(rows)), defaultFee: defaultFee}
	for _, r := range rows {
		t.fees[PairKey(r.ZoneA, r.ZoneB)] = r.Fee
	}
	return t
}

func (t *CrossZoneFees) Lookup(a, b string) int64 {
	if a == b {
		return 0
	}
	if fee, ok := t.fees[PairKey(a, b)]; ok {
		return fee
	}
	return t.defaultFee
}

// PairKey normalises an unordered pair so (A,B) and (B,A) share a key.
func PairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}
