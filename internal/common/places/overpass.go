// internal/common/places/overpass.go
package places

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	overpass "github.com/serjvanilla/go-overpass"

	"siteintel-workers/internal/models"
)

// Provider returns points of interest around a coordinate.
type Provider interface {
	Nearby(ctx context.Context, center models.Coordinate, radiusMeters int) ([]models.Place, error)
}

// OverpassProvider queries the OpenStreetMap Overpass API for nearby places.
type OverpassProvider struct {
	client    overpass.Client
	maxPlaces int
	timeout   time.Duration
}

func NewOverpassProvider(endpoint string, maxPlaces int, timeout time.Duration) *OverpassProvider {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)
	return &OverpassProvider{
		client:    client,
		maxPlaces: maxPlaces,
		timeout:   timeout,
	}
}

// Nearby fetches amenities, shops and transit stops within radiusMeters of
// center, ordered by distance. Places are tagged with canonical categories
// so downstream classification can use set intersection.
func (p *OverpassProvider) Nearby(ctx context.Context, center models.Coordinate, radiusMeters int) ([]models.Place, error) {
	around := fmt.Sprintf("around:%d,%f,%f", radiusMeters, center.Lat, center.Lng)
	query := fmt.Sprintf(`
		[out:json];
		(
			node["amenity"](%s);
			way["amenity"](%s);
			node["shop"](%s);
			way["shop"](%s);
			node["railway"="station"](%s);
			node["highway"="bus_stop"](%s);
			node["leisure"](%s);
		);
		out body;
		>;
		out skel qt;
	`, around, around, around, around, around, around, around)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result, err := p.executeQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("overpass query failed: %w", err)
	}

	placeList := p.convertResult(center, result)

	sort.SliceStable(placeList, func(i, j int) bool {
		return placeList[i].DistanceKm < placeList[j].DistanceKm
	})

	if p.maxPlaces > 0 && len(placeList) > p.maxPlaces {
		placeList = placeList[:p.maxPlaces]
	}
	return placeList, nil
}

func (p *OverpassProvider) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	type queryResult struct {
		result overpass.Result
		err    error
	}

	done := make(chan queryResult, 1)
	go func() {
		result, err := p.client.Query(query)
		done <- queryResult{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case qr := <-done:
		if qr.err != nil {
			return nil, qr.err
		}
		return &qr.result, nil
	}
}

func (p *OverpassProvider) convertResult(center models.Coordinate, result *overpass.Result) []models.Place {
	var placeList []models.Place

	for _, node := range result.Nodes {
		if place, ok := buildPlace(center, node.Lat, node.Lon, node.Tags); ok {
			placeList = append(placeList, place)
		}
	}

	for _, way := range result.Ways {
		count := len(way.Nodes)
		if count == 0 {
			continue
		}
		var lat, lon float64
		for _, node := range way.Nodes {
			lat += node.Lat
			lon += node.Lon
		}
		lat /= float64(count)
		lon /= float64(count)

		if place, ok := buildPlace(center, lat, lon, way.Tags); ok {
			placeList = append(placeList, place)
		}
	}

	return placeList
}

// buildPlace maps raw OSM tags onto the Place model. Elements without a name
// or without any recognized category are skipped.
func buildPlace(center models.Coordinate, lat, lon float64, tags map[string]string) (models.Place, bool) {
	name := tags["name"]
	if name == "" {
		return models.Place{}, false
	}

	categories := categoriesFromTags(tags)
	if len(categories) == 0 {
		return models.Place{}, false
	}

	distanceKm := Haversine(center, models.Coordinate{Lat: lat, Lng: lon})

	place := models.Place{
		Name:        name,
		Categories:  categories,
		Vicinity:    vicinityFromTags(tags),
		DistanceKm:  distanceKm,
		DurationMin: WalkingDuration(distanceKm),
	}

	if stars, ok := tags["stars"]; ok {
		if rating, err := strconv.ParseFloat(stars, 64); err == nil && rating >= 0 && rating <= 5 {
			place.Rating = &rating
		}
	}

	return place, true
}

func vicinityFromTags(tags map[string]string) string {
	street := tags["addr:street"]
	city := tags["addr:city"]
	switch {
	case street != "" && city != "":
		return street + ", " + city
	case street != "":
		return street
	case city != "":
		return city
	default:
		return tags["name"]
	}
}
