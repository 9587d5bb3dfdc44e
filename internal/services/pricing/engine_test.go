package pricing

import (
	"errors"
	"testing"

	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/stretchr/testify/require"
)

var (
	makurdiA = models.LatLng{Lat: 7.7333, Lng: 8.5333}
	makurdiB = models.LatLng{Lat: 7.7500, Lng: 8.5167}
)

func zone(code, cluster string, base, perKm int64) *models.DeliveryZone {
	return &models.DeliveryZone{
		Code:     code,
		Cluster:  cluster,
		AreaType: models.AreaUrban,
		BaseFee:  base,
		PerKmFee: perKm,
		IsActive: true,
	}
}

func baseInput() Input {
	z := zone("MKD", models.ClusterDense, 500, 100)
	return Input{
		OriginCoords:      makurdiA,
		DestinationCoords: makurdiA,
		Origin:            z,
		Destination:       z,
		DeliveryType:      models.DeliveryStandard,
		PaymentMethod:     models.PaymentCard,
		Dense:             true,
	}
}

func TestEngine_WeightSurcharge(t *testing.T) {
	e := New(Config{FreeWeightAllowanceKg: 5, WeightRatePerKg: 100})
	in := baseInput()
	in.EffectiveWeightKg = 8

	res, err := e.Calculate(in)
	require.NoError(t, err)
	require.Equal(t, int64(300), res.Breakdown.WeightSurcharge)
	require.Equal(t, []string{RuleWeightSurcharge}, res.AppliedRules)

	in.EffectiveWeightKg = 5
	res, err = e.Calculate(in)
	require.NoError(t, err)
	require.Zero(t, res.Breakdown.WeightSurcharge)
	require.Empty(t, res.AppliedRules)
}

func TestEngine_Insurance(t *testing.T) {
	e := New(Config{InsuranceThreshold: 50_000, InsuranceRate: 0.01})
	in := baseInput()
	in.DeclaredValue = 100_000

	res, err := e.Calculate(in)
	require.NoError(t, err)
	require.Equal(t, int64(1_000), res.Breakdown.Insurance)
	require.Contains(t, res.AppliedRules, RuleInsurance)

	// threshold itself is not "above"
	in.DeclaredValue = 50_000
	res, err = e.Calculate(in)
	require.NoError(t, err)
	require.Zero(t, res.Breakdown.Insurance)
}

func TestEngine_DistanceFeeBillsFromZero(t *testing.T) {
	e := New(DefaultConfig())
	in := baseInput()
	in.DestinationCoords = makurdiB
	// legacy vintage value must not create a free band
	in.Destination.FreeDistanceKm = 2

	res, err := e.Calculate(in)
	require.NoError(t, err)
	require.Equal(t, res.DistanceKm, res.BillableKm)
	require.Equal(t, 2.606, res.BillableKm)
	require.Equal(t, int64(261), res.Breakdown.DistanceFee)
	require.Equal(t, int64(500+261), res.Breakdown.Subtotal)
}

func TestEngine_CODSurcharge(t *testing.T) {
	e := New(DefaultConfig())

	in := baseInput()
	in.PaymentMethod = models.PaymentCOD
	in.DeclaredValue = 20_000
	res, err := e.Calculate(in)
	require.NoError(t, err)
	require.Zero(t, res.Breakdown.CODSurcharge, "dense cluster is exempt from COD surcharge")

	in.Dense = false
	in.Destination = zone("GBK", models.ClusterRegional, 800, 120)
	in.Origin = in.Destination
	res, err = e.Calculate(in)
	require.NoError(t, err)
	require.Equal(t, int64(400), res.Breakdown.CODSurcharge)
	require.Equal(t, []string{RuleCODSurcharge}, res.AppliedRules)
}

func TestEngine_DeliveryTypeMultiplier(t *testing.T) {
	e := New(DefaultConfig())

	in := baseInput()
	in.DeliveryType = models.DeliveryExpress
	res, err := e.Calculate(in)
	require.NoError(t, err)
	require.Equal(t, int64(500), res.Breakdown.Subtotal)
	require.Equal(t, int64(650), res.Fee)
	require.Equal(t, []string{RuleDeliveryTypeMultiplier}, res.AppliedRules)

	in.Dense = false
	res, err = e.Calculate(in)
	require.NoError(t, err)
	require.Equal(t, int64(750), res.Fee)

	// zone override beats the cluster table
	in.Destination.DeliveryTypeMultipliers = map[string]float64{models.DeliveryExpress: 2}
	res, err = e.Calculate(in)
	require.NoError(t, err)
	require.Equal(t, int64(1000), res.Fee)
}

func TestEngine_RoundingBeforeMultiplier(t *testing.T) {
	e := New(Config{FreeWeightAllowanceKg: 5, WeightRatePerKg: 100})
	in := baseInput()
	in.Destination.BaseFee = 1001
	in.EffectiveWeightKg = 5.555 // 55.5 -> 56
	in.DeliveryType = models.DeliveryExpress

	res, err := e.Calculate(in)
	require.NoError(t, err)
	require.Equal(t, int64(56), res.Breakdown.WeightSurcharge)
	require.Equal(t, int64(1057), res.Breakdown.Subtotal)
	// 1057 * 1.3 = 1374.1
	require.Equal(t, int64(1374), res.Fee)
}

func TestEngine_MinMaxFee(t *testing.T) {
	e := New(DefaultConfig())

	in := baseInput()
	in.Destination.MinFee = 700
	res, err := e.Calculate(in)
	require.NoError(t, err)
	require.Equal(t, int64(700), res.Fee)
	require.Equal(t, []string{RuleMinFee}, res.AppliedRules)

	in.Destination.MinFee = 0
	in.Destination.MaxFee = 400
	res, err = e.Calculate(in)
	require.NoError(t, err)
	require.Equal(t, int64(400), res.Fee)
	require.Equal(t, []string{RuleMaxFee}, res.AppliedRules)
}

func TestEngine_CrossZoneFeeAndTag(t *testing.T) {
	e := New(DefaultConfig())
	in := baseInput()
	in.Destination = zone("MKD-2", models.ClusterDense, 500, 100)
	in.CrossZoneFee = 350

	res, err := e.Calculate(in)
	require.NoError(t, err)
	require.Equal(t, int64(350), res.Breakdown.CrossZoneFee)
	require.Equal(t, []string{RuleCrossZoneFee}, res.AppliedRules)
	require.Equal(t, []string{models.TagCrossZone}, res.Tags)
}

func TestEngine_FreeShipping(t *testing.T) {
	e := New(Config{FreeShippingThreshold: 100_000})
	in := baseInput()
	in.CartSubtotal = 100_000
	in.EffectiveWeightKg = 9

	res, err := e.Calculate(in)
	require.NoError(t, err)
	require.Zero(t, res.Fee)
	require.Zero(t, res.Breakdown.Total)
	require.Equal(t, int64(900), res.Breakdown.FreeShippingDiscount)
	require.Equal(t, []string{RuleWeightSurcharge, RuleFreeShipping}, res.AppliedRules)
	require.Equal(t, []string{models.TagFreeShipping}, res.Tags)
}

func TestEngine_SuspendedBeatsFreeShipping(t *testing.T) {
	e := New(DefaultConfig())

	in := baseInput()
	in.CartSubtotal = 1_000_000
	in.Destination = zone("MKD-2", models.ClusterDense, 500, 100)
	in.Destination.IsSuspended = true
	_, err := e.Calculate(in)
	var zs *models.ZoneSuspendedError
	require.True(t, errors.As(err, &zs))
	require.Equal(t, "MKD-2", zs.ZoneCode)

	in = baseInput()
	in.Origin = zone("MKD-0", models.ClusterDense, 500, 100)
	in.Origin.IsSuspended = true
	_, err = e.Calculate(in)
	require.True(t, errors.As(err, &zs))
	require.Equal(t, "MKD-0", zs.ZoneCode)

	// a rule that cannot be evaluated must not hide the suspension
	in = baseInput()
	in.DeliveryType = "drone"
	in.Destination = zone("MKD-2", models.ClusterDense, 500, 100)
	in.Destination.IsSuspended = true
	_, err = e.Calculate(in)
	require.True(t, errors.As(err, &zs))
	require.Equal(t, "MKD-2", zs.ZoneCode)
	var cfgErr *models.ConfigurationMissingError
	require.False(t, errors.As(err, &cfgErr))
}

func TestEngine_AllLinesIntegersAndRulesStable(t *testing.T) {
	e := New(DefaultConfig())
	in := Input{
		OriginCoords:      makurdiA,
		DestinationCoords: makurdiB,
		Origin:            zone("MKD", models.ClusterDense, 500, 100),
		Destination:       zone("GBK", models.ClusterRegional, 777, 133),
		EffectiveWeightKg: 7.321,
		DeclaredValue:     73_333,
		DeliveryType:      models.DeliveryExpress,
		PaymentMethod:     models.PaymentCOD,
		CrossZoneFee:      450,
	}

	var first Result
	for i := 0; i < 3; i++ {
		res, err := e.Calculate(in)
		require.NoError(t, err)
		if i == 0 {
			first = res
			continue
		}
		require.Equal(t, first.AppliedRules, res.AppliedRules)
		require.Equal(t, first.Breakdown, res.Breakdown)
	}
	require.Equal(t, []string{
		RuleWeightSurcharge, RuleInsurance, RuleCrossZoneFee, RuleCODSurcharge, RuleDeliveryTypeMultiplier,
	}, first.AppliedRules)

	bd := first.Breakdown
	require.Equal(t, bd.BaseFee+bd.DistanceFee+bd.WeightSurcharge+bd.Insurance+bd.CrossZoneFee+bd.CODSurcharge, bd.Subtotal)
	require.Equal(t, int64(232), bd.WeightSurcharge) // 2.321 * 100
	require.Equal(t, int64(733), bd.Insurance)
	require.Equal(t, int64(1467), bd.CODSurcharge)
}

func TestEngine_UnknownDeliveryType(t *testing.T) {
	e := New(DefaultConfig())
	in := baseInput()
	in.DeliveryType = "drone"

	_, err := e.Calculate(in)
	var cm *models.ConfigurationMissingError
	require.True(t, errors.As(err, &cm))
}

func TestEngine_MissingZone(t *testing.T) {
	_, err := New(DefaultConfig()).Calculate(Input{})
	var cm *models.ConfigurationMissingError
	require.True(t, errors.As(err, &cm))
}

func TestEngine_LegacyFlatFee(t *testing.T) {
	e := New(Config{FreeShippingThreshold: 100_000, LegacyFlatFee: 1_500})
	require.Equal(t, int64(1_500), e.LegacyFlatFee(99_999))
	require.Equal(t, int64(0), e.LegacyFlatFee(100_000))
	require.Equal(t, int64(0), e.LegacyFlatFee(250_000))
}

func TestRulePrecedence(t *testing.T) {
	require.Equal(t, []string{
		"weight_surcharge", "insurance", "cross_zone_fee", "cod_surcharge",
		"delivery_type_multiplier", "min_fee", "max_fee", "free_shipping",
	}, RulePrecedence())
}

func TestEffectiveWeightKg(t *testing.T) {
	w := 2.0
	items := []models.CartItem{{Quantity: 3, WeightKg: &w}}
	require.Equal(t, 6.0, EffectiveWeightKg(items))

	// 50*40*30/5000 = 12 kg volumetric beats 6 kg gross
	items = append(items, models.CartItem{Quantity: 1, Dimensions: &models.Dimensions{LengthCm: 50, WidthCm: 40, HeightCm: 30}})
	require.Equal(t, 12.0, EffectiveWeightKg(items))

	small := 0.1234
	require.Equal(t, 0.247, EffectiveWeightKg([]models.CartItem{{Quantity: 2, WeightKg: &small}}))
	require.Zero(t, EffectiveWeightKg(nil))
}

func TestDeclaredValue(t *testing.T) {
	require.Equal(t, int64(7_000), DeclaredValue([]models.CartItem{
		{Quantity: 2, Price: 2_000},
		{Quantity: 1, Price: 3_000},
	}))
}
