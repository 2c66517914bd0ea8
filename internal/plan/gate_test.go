package plan

import (
	"testing"

	"siteintel-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func testReport() models.ScoredReport {
	rating := 4.2
	return models.ScoredReport{
		LocationScore:    4.1,
		GrowthPrediction: 7.5,
		NearbyPlaces: []models.Place{
			{Name: "City Hospital", Categories: []string{"hospital", "health"}, Rating: &rating, DistanceKm: 0.8, DurationMin: 10},
			{Name: "Central School", Categories: []string{"school"}, DistanceKm: 1.1, DurationMin: 14},
			{Name: "Metro Station", Categories: []string{"subway_station", "transit_station"}, DistanceKm: 0.4, DurationMin: 5},
			{Name: "Big Bazaar", Categories: []string{"supermarket", "store"}, DistanceKm: 1.6, DurationMin: 20},
			{Name: "Corner Store", Categories: []string{"convenience_store", "store"}, DistanceKm: 0.2, DurationMin: 3},
		},
		Distances: map[string]models.Distance{
			"City Hospital":  {DistanceKm: 0.8, DurationMin: 10},
			"Central School": {DistanceKm: 1.1, DurationMin: 14},
			"Metro Station":  {DistanceKm: 0.4, DurationMin: 5},
			"Big Bazaar":     {DistanceKm: 1.6, DurationMin: 20},
			"Corner Store":   {DistanceKm: 0.2, DurationMin: 3},
		},
	}
}

func TestProject_FreeTier(t *testing.T) {
	view := Project(testReport(), models.TierFree)

	assert.Equal(t, 4.1, view.LocationScore)
	assert.Nil(t, view.GrowthPrediction, "growth prediction must be absent from the free view")
	assert.Len(t, view.NearbyPlaces, FreePlaceLimit)
	assert.Len(t, view.Distances, FreePlaceLimit)

	// Ordering preserved: the cap keeps the first three places.
	assert.Equal(t, "City Hospital", view.NearbyPlaces[0].Name)
	assert.Equal(t, "Metro Station", view.NearbyPlaces[2].Name)
	_, hasCapped := view.Distances["Big Bazaar"]
	assert.False(t, hasCapped)
}

func TestProject_PaidTier(t *testing.T) {
	view := Project(testReport(), models.TierPaid)

	assert.NotNil(t, view.GrowthPrediction)
	assert.Equal(t, 7.5, *view.GrowthPrediction)
	assert.Len(t, view.NearbyPlaces, 5)
	assert.Len(t, view.Distances, 5)
	assert.Empty(t, view.Recommendations)
}

func TestProject_ProTier(t *testing.T) {
	view := Project(testReport(), models.TierPro)

	assert.NotNil(t, view.GrowthPrediction)
	assert.Len(t, view.NearbyPlaces, 5)
	// Recommendations are attached by get-result after the narrative call;
	// the gate itself never invents them.
	assert.Empty(t, view.Recommendations)
}

func TestProject_Deterministic(t *testing.T) {
	report := testReport()
	for _, tier := range []models.PlanTier{models.TierFree, models.TierPaid, models.TierPro} {
		first := Project(report, tier)
		second := Project(report, tier)
		assert.Equal(t, first, second, "projection must be deterministic for tier %s", tier)
	}
}

func TestProject_DoesNotMutateReport(t *testing.T) {
	report := testReport()
	view := Project(report, models.TierFree)
	view.NearbyPlaces[0].Name = "mutated"
	delete(view.Distances, "Central School")

	assert.Equal(t, "City Hospital", report.NearbyPlaces[0].Name)
	assert.Contains(t, report.Distances, "Central School")
}

func TestProject_FewerPlacesThanCap(t *testing.T) {
	report := testReport()
	report.NearbyPlaces = report.NearbyPlaces[:1]
	view := Project(report, models.TierFree)
	assert.Len(t, view.NearbyPlaces, 1)
	assert.Len(t, view.Distances, 1)
}

func TestBasePrice(t *testing.T) {
	assert.Equal(t, int64(0), BasePrice(models.TierFree))
	assert.Equal(t, int64(199), BasePrice(models.TierPaid))
	assert.Equal(t, int64(499), BasePrice(models.TierPro))
	assert.Equal(t, int64(0), BasePrice(models.PlanTier("enterprise")))
}
