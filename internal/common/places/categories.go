// internal/common/places/categories.go
package places

import "siteintel-workers/internal/models"

// Essential-service domains used for habitability checks and coverage scoring.
const (
	DomainHealth    = "health"
	DomainTransit   = "transit"
	DomainRetail    = "retail"
	DomainEducation = "education"
)

// EssentialDomains lists the domains in a stable order for deterministic output.
var EssentialDomains = []string{DomainHealth, DomainTransit, DomainRetail, DomainEducation}

// canonicalSets maps each domain to the category tags that count as coverage.
// Matching is set intersection: any overlap between a place's tags and the
// canonical set counts, so a place tagged only "clinic" still covers health.
var canonicalSets = map[string]map[string]struct{}{
	DomainHealth: {
		"hospital": {},
		"health":   {},
		"doctor":   {},
		"clinic":   {},
	},
	DomainTransit: {
		"subway_station":     {},
		"bus_station":        {},
		"train_station":      {},
		"transit_station":    {},
		"light_rail_station": {},
	},
	DomainRetail: {
		"shopping_mall":          {},
		"supermarket":            {},
		"grocery_or_supermarket": {},
		"store":                  {},
		"convenience_store":      {},
	},
	DomainEducation: {
		"school": {},
	},
}

// IsEssential reports whether the place covers at least one essential domain.
func IsEssential(place models.Place) bool {
	for _, domain := range EssentialDomains {
		if coversDomain(place, domain) {
			return true
		}
	}
	return false
}

// coversDomain checks tag-set intersection against one domain's canonical set.
func coversDomain(place models.Place, domain string) bool {
	canonical, ok := canonicalSets[domain]
	if !ok {
		return false
	}
	for _, tag := range place.Categories {
		if _, found := canonical[tag]; found {
			return true
		}
	}
	return false
}

// CoveredDomains returns the essential domains covered by the given places,
// in the stable EssentialDomains order.
func CoveredDomains(placeList []models.Place) []string {
	covered := make([]string, 0, len(EssentialDomains))
	for _, domain := range EssentialDomains {
		for _, place := range placeList {
			if coversDomain(place, domain) {
				covered = append(covered, domain)
				break
			}
		}
	}
	return covered
}

// osmTagCategories bridges OpenStreetMap key=value tags to the canonical
// category vocabulary. A single OSM tag may yield several categories so that
// intersection-based classification sees the full synonym set.
var osmTagCategories = map[string][]string{
	"amenity=hospital":      {"hospital", "health"},
	"amenity=clinic":        {"clinic", "health"},
	"amenity=doctors":       {"doctor", "health"},
	"amenity=pharmacy":      {"health", "pharmacy"},
	"amenity=school":        {"school"},
	"amenity=college":       {"school", "college"},
	"amenity=university":    {"school", "university"},
	"amenity=bus_station":   {"bus_station", "transit_station"},
	"amenity=restaurant":    {"restaurant", "food"},
	"amenity=cafe":          {"cafe", "food"},
	"amenity=fast_food":     {"restaurant", "food"},
	"amenity=bank":          {"bank", "finance"},
	"railway=station":       {"train_station", "transit_station"},
	"station=subway":        {"subway_station", "transit_station"},
	"station=light_rail":    {"light_rail_station", "transit_station"},
	"highway=bus_stop":      {"bus_station", "transit_station"},
	"shop=supermarket":      {"supermarket", "grocery_or_supermarket", "store"},
	"shop=convenience":      {"convenience_store", "store"},
	"shop=mall":             {"shopping_mall", "store"},
	"shop=department_store": {"shopping_mall", "store"},
	"shop=grocery":          {"grocery_or_supermarket", "store"},
	"shop=bakery":           {"store", "food"},
	"shop=clothes":          {"store", "clothing_store"},
	"leisure=park":          {"park"},
	"leisure=fitness_centre": {"gym"},
}

// categoriesFromTags converts raw OSM tags into canonical category tags.
// Unmapped shop values still count as generic stores.
func categoriesFromTags(tags map[string]string) []string {
	seen := make(map[string]struct{})
	var categories []string

	add := func(cats []string) {
		for _, cat := range cats {
			if _, dup := seen[cat]; dup {
				continue
			}
			seen[cat] = struct{}{}
			categories = append(categories, cat)
		}
	}

	for _, key := range []string{"amenity", "shop", "railway", "station", "highway", "leisure"} {
		value, ok := tags[key]
		if !ok || value == "" {
			continue
		}
		if cats, mapped := osmTagCategories[key+"="+value]; mapped {
			add(cats)
		} else if key == "shop" {
			add([]string{"store"})
		}
	}
	return categories
}
