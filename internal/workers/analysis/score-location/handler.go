// internal/workers/analysis/score-location/handler.go
package scorelocation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	cmnerrors "siteintel-workers/internal/common/errors"
	"siteintel-workers/internal/common/logger"
	"siteintel-workers/internal/common/places"
	"siteintel-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "score-location"

	// Weights of the three scoring components. They sum to 1 so the
	// composite stays on the 0-5 scale.
	coverageWeight  = 0.45
	ratingWeight    = 0.30
	proximityWeight = 0.25

	// Distances at or beyond this get a zero proximity component.
	maxProximityKm = 2.0

	// Growth prediction bounds, in percent.
	growthBase = 2.0
	growthCap  = 25.0
)

type Handler struct {
	config     *Config
	provider   places.Provider
	redis      *redis.Client
	logger     logger.Logger
	errHandler *cmnerrors.ErrorHandler
}

func NewHandler(config *Config, provider places.Provider, redisClient *redis.Client, log logger.Logger) *Handler {
	handlerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		provider:   provider,
		redis:      redisClient,
		logger:     handlerLog,
		errHandler: cmnerrors.NewErrorHandler(handlerLog),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, cmnerrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	coord := models.Coordinate{Lat: input.Latitude, Lng: input.Longitude}
	if !coord.Valid() {
		return nil, cmnerrors.NewInvalidInputError(
			fmt.Sprintf("coordinate out of range: lat=%f lng=%f", input.Latitude, input.Longitude))
	}

	// Pre-fetched places bypass both the cache and the provider: the
	// orchestration already fixed the input set this score must reflect.
	placeList := input.Places
	if len(placeList) == 0 {
		if cached := h.getCached(ctx, coord); cached != nil {
			h.logger.Debug("score cache hit", map[string]interface{}{
				"lat": coord.Lat,
				"lng": coord.Lng,
			})
			return cached, nil
		}

		var err error
		placeList, err = h.provider.Nearby(ctx, coord, h.config.RadiusMeters)
		if err != nil {
			return nil, cmnerrors.NewProviderUnavailableError(err)
		}
	}
	if len(placeList) == 0 {
		return nil, cmnerrors.NewInsufficientDataError(
			fmt.Sprintf("no places within %dm of %f,%f", h.config.RadiusMeters, coord.Lat, coord.Lng))
	}

	output := h.score(placeList)
	if len(input.Places) == 0 {
		h.setCached(ctx, coord, output)
	}

	h.logger.Info("location scored", map[string]interface{}{
		"lat":              coord.Lat,
		"lng":              coord.Lng,
		"locationScore":    output.LocationScore,
		"growthPrediction": output.GrowthPrediction,
		"placeCount":       len(output.NearbyPlaces),
	})

	return output, nil
}

// score computes the composite location score and growth prediction. All
// inputs are deterministic, so the same place list always yields the same
// report, which keeps re-reads idempotent.
func (h *Handler) score(placeList []models.Place) *Output {
	covered := places.CoveredDomains(placeList)

	coverage := float64(len(covered)) / float64(len(places.EssentialDomains)) * 5
	rating := h.ratingComponent(placeList)
	proximity := h.proximityComponent(placeList)

	locationScore := coverageWeight*coverage + ratingWeight*rating + proximityWeight*proximity
	locationScore = math.Round(math.Max(0, math.Min(5, locationScore))*100) / 100

	distances := make(map[string]models.Distance, len(placeList))
	for _, place := range placeList {
		distances[place.Name] = models.Distance{
			DistanceKm:  place.DistanceKm,
			DurationMin: place.DurationMin,
		}
	}

	return &Output{
		LocationScore:    locationScore,
		GrowthPrediction: h.growthPrediction(len(placeList), len(covered)),
		NearbyPlaces:     placeList,
		Distances:        distances,
		CoveredDomains:   covered,
	}
}

// ratingComponent averages ratings over the top-N rated places. Unrated
// areas get a neutral midpoint so missing provider data never zeroes the
// composite score.
func (h *Handler) ratingComponent(placeList []models.Place) float64 {
	var sum float64
	var count int
	for _, place := range placeList {
		if place.Rating == nil {
			continue
		}
		sum += *place.Rating
		count++
		if count >= h.config.TopRatedN {
			break
		}
	}
	if count == 0 {
		return 2.5
	}
	return sum / float64(count)
}

// proximityComponent scores the average distance to essential places on an
// inverse-linear scale: 0 km maps to 5, maxProximityKm or farther maps to 0.
func (h *Handler) proximityComponent(placeList []models.Place) float64 {
	var sum float64
	var count int
	for _, place := range placeList {
		if !places.IsEssential(place) {
			continue
		}
		sum += place.DistanceKm
		count++
	}
	if count == 0 {
		return 0
	}
	avg := sum / float64(count)
	if avg >= maxProximityKm {
		return 0
	}
	return 5 * (1 - avg/maxProximityKm)
}

// growthPrediction estimates area growth in percent from amenity density and
// essential-category diversity.
func (h *Handler) growthPrediction(placeCount, coveredCount int) float64 {
	growth := growthBase + float64(placeCount)*0.4 + float64(coveredCount)*1.5
	growth = math.Min(growthCap, growth)
	return math.Round(growth*10) / 10
}

func (h *Handler) cacheKey(coord models.Coordinate) string {
	return fmt.Sprintf("score:%.4f:%.4f:%d", coord.Lat, coord.Lng, h.config.RadiusMeters)
}

func (h *Handler) getCached(ctx context.Context, coord models.Coordinate) *Output {
	if h.redis == nil {
		return nil
	}
	val, err := h.redis.Get(ctx, h.cacheKey(coord)).Result()
	if err != nil {
		return nil
	}
	var output Output
	if err := json.Unmarshal([]byte(val), &output); err != nil {
		return nil
	}
	return &output
}

func (h *Handler) setCached(ctx context.Context, coord models.Coordinate, output *Output) {
	if h.redis == nil {
		return
	}
	data, err := json.Marshal(output)
	if err != nil {
		return
	}
	h.redis.Set(ctx, h.cacheKey(coord), data, h.config.CacheTTL)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	h.errHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
