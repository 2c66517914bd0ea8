// internal/workers/analysis/geocode-address/handler.go
package geocodeaddress

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	cmnerrors "siteintel-workers/internal/common/errors"
	"siteintel-workers/internal/common/logger"
	"siteintel-workers/internal/common/places"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "geocode-address"
)

type Handler struct {
	config     *Config
	geocoder   places.Geocoder
	redis      *redis.Client
	logger     logger.Logger
	errHandler *cmnerrors.ErrorHandler
}

func NewHandler(config *Config, geocoder places.Geocoder, redisClient *redis.Client, log logger.Logger) *Handler {
	handlerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		geocoder:   geocoder,
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
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, cmnerrors.NewInvalidInputError("address must not be empty")
	}

	if cached := h.getCached(ctx, address); cached != nil {
		return cached, nil
	}

	coord, formatted, err := h.geocoder.Geocode(ctx, address)
	if err != nil {
		if strings.Contains(err.Error(), "no results") {
			return nil, cmnerrors.NewInsufficientDataError(fmt.Sprintf("no geocoding match for %q", address))
		}
		return nil, cmnerrors.NewProviderUnavailableError(err)
	}

	output := &Output{
		Latitude:         coord.Lat,
		Longitude:        coord.Lng,
		FormattedAddress: formatted,
	}
	h.setCached(ctx, address, output)

	h.logger.Info("address geocoded", map[string]interface{}{
		"address": address,
		"lat":     coord.Lat,
		"lng":     coord.Lng,
	})

	return output, nil
}

func (h *Handler) cacheKey(address string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(address)))
	return "geocode:" + hex.EncodeToString(sum[:16])
}

func (h *Handler) getCached(ctx context.Context, address string) *Output {
	if h.redis == nil {
		return nil
	}
	val, err := h.redis.Get(ctx, h.cacheKey(address)).Result()
	if err != nil {
		return nil
	}
	var output Output
	if err := json.Unmarshal([]byte(val), &output); err != nil {
		return nil
	}
	return &output
}

func (h *Handler) setCached(ctx context.Context, address string, output *Output) {
	if h.redis == nil {
		return
	}
	data, err := json.Marshal(output)
	if err != nil {
		return
	}
	h.redis.Set(ctx, h.cacheKey(address), data, h.config.CacheTTL)
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
