// internal/workers/analysis/validate-location/handler.go
package validatelocation

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
	TaskType = "validate-location"

	// A location needs this many essential-service domains covered before
	// it is considered low risk.
	lowRiskDomainCount = 3
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

	if cached := h.getCached(ctx, coord); cached != nil {
		h.logger.Debug("validation cache hit", map[string]interface{}{
			"lat": coord.Lat,
			"lng": coord.Lng,
		})
		return cached, nil
	}

	placeList, err := h.provider.Nearby(ctx, coord, h.config.RadiusMeters)
	if err != nil {
		return nil, cmnerrors.NewProviderUnavailableError(err)
	}

	output := h.assess(placeList)
	h.setCached(ctx, coord, output)

	h.logger.Info("location validated", map[string]interface{}{
		"lat":        coord.Lat,
		"lng":        coord.Lng,
		"riskLevel":  output.RiskLevel,
		"canProceed": output.CanProceed,
		"covered":    output.CoveredDomains,
		"placeCount": output.PlaceCount,
	})

	return output, nil
}

// assess applies the habitability policy: zero essential-service domains is a
// hard block, one domain is a risky proceed-with-acknowledgement, two is
// medium risk, three or more is low risk.
func (h *Handler) assess(placeList []models.Place) *Output {
	covered := places.CoveredDomains(placeList)
	confidence := math.Min(1, float64(len(covered))/float64(len(places.EssentialDomains)))

	output := &Output{
		IsValid:        true,
		Confidence:     confidence,
		CoveredDomains: covered,
		PlaceCount:     len(placeList),
	}

	switch len(covered) {
	case 0:
		output.IsValid = false
		output.CanProceed = false
		output.RiskLevel = models.RiskHigh
		output.Issues = []string{"uninhabitable or remote area: no essential services within radius"}
	case 1:
		output.CanProceed = true
		output.RiskLevel = models.RiskHigh
		output.Issues = []string{fmt.Sprintf("only one essential service category nearby (%s)", covered[0])}
		output.Recommendations = []string{"proceeding is not recommended; confirm the area can support your property type"}
	case 2:
		output.CanProceed = true
		output.RiskLevel = models.RiskMedium
		output.Issues = []string{"limited essential service coverage in the area"}
	default:
		output.CanProceed = true
		output.RiskLevel = models.RiskLow
	}

	return output
}

func (h *Handler) cacheKey(coord models.Coordinate) string {
	return fmt.Sprintf("validate:%.4f:%.4f:%d", coord.Lat, coord.Lng, h.config.RadiusMeters)
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
