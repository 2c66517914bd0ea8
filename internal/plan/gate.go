// Package plan holds the tier catalogue and the pure report projection
// (the "plan gate"). No I/O happens here; projecting never touches the
// persisted report.
package plan

import "siteintel-workers/internal/models"

// FreePlaceLimit caps nearbyPlaces/distances entries on the free tier.
const FreePlaceLimit = 3

// basePrices are tier prices in base currency units (INR).
var basePrices = map[models.PlanTier]int64{
	models.TierFree: 0,
	models.TierPaid: 199,
	models.TierPro:  499,
}

// BasePrice returns the base-currency price for a tier. Unknown tiers price
// as free so a bad value can never produce a charge.
func BasePrice(tier models.PlanTier) int64 {
	return basePrices[tier]
}

// Project restricts a computed report to the fields a tier is entitled to.
// free: location score plus at most FreePlaceLimit places/distances.
// paid: full places, distances and growth prediction.
// pro: paid plus recommendations (attached by the caller; the gate itself
// stays pure and carries them through untouched).
func Project(report models.ScoredReport, tier models.PlanTier) models.ReportView {
	view := models.ReportView{
		LocationScore: report.LocationScore,
	}

	switch tier {
	case models.TierPaid, models.TierPro:
		growth := report.GrowthPrediction
		view.GrowthPrediction = &growth
		view.NearbyPlaces = append([]models.Place(nil), report.NearbyPlaces...)
		view.Distances = copyDistances(report.Distances, report.NearbyPlaces, len(report.NearbyPlaces))
	default:
		limit := FreePlaceLimit
		if limit > len(report.NearbyPlaces) {
			limit = len(report.NearbyPlaces)
		}
		view.NearbyPlaces = append([]models.Place(nil), report.NearbyPlaces[:limit]...)
		view.Distances = copyDistances(report.Distances, report.NearbyPlaces, limit)
	}

	return view
}

// copyDistances keeps only the distances belonging to the first n projected
// places, preserving the report's place ordering.
func copyDistances(distances map[string]models.Distance, places []models.Place, n int) map[string]models.Distance {
	out := make(map[string]models.Distance, n)
	for i := 0; i < n && i < len(places); i++ {
		if d, ok := distances[places[i].Name]; ok {
			out[places[i].Name] = d
		}
	}
	return out
}
