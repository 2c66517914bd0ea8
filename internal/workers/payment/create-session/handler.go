// internal/workers/payment/create-session/handler.go
package createsession

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	cmnerrors "siteintel-workers/internal/common/errors"
	"siteintel-workers/internal/common/logger"
	"siteintel-workers/internal/models"
	"siteintel-workers/internal/plan"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/xeipuuv/gojsonschema"
)

const (
	TaskType = "create-session"
)

// inputSchema guards the job variables before any persistence happens.
var inputSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"latitude":  map[string]interface{}{"type": "number", "minimum": -90, "maximum": 90},
		"longitude": map[string]interface{}{"type": "number", "minimum": -180, "maximum": 180},
		"planTier":  map[string]interface{}{"type": "string", "enum": []string{"free", "paid", "pro"}},
		"propertyType": map[string]interface{}{
			"type": "string",
		},
		"locationScore": map[string]interface{}{"type": "number", "minimum": 0, "maximum": 5},
	},
	"required": []string{"latitude", "longitude", "planTier", "locationScore"},
}

type Handler struct {
	config     *Config
	db         *sql.DB
	redis      *redis.Client
	logger     logger.Logger
	errHandler *cmnerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	handlerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
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
	if err := h.validateInput(input); err != nil {
		return nil, err
	}

	tier, ok := models.ParseTier(input.PlanTier)
	if !ok {
		return nil, cmnerrors.NewInvalidInputError(fmt.Sprintf("unknown plan tier %q", input.PlanTier))
	}

	// Blocked locations never get a session: the hard block from validation
	// must stop the pipeline before any money is involved.
	if !input.CanProceed {
		return nil, cmnerrors.NewLocationBlockedError(
			fmt.Sprintf("location %f,%f failed habitability validation", input.Latitude, input.Longitude))
	}

	now := time.Now().UTC()
	session := &models.AnalysisSession{
		ID:           uuid.New().String(),
		Coordinate:   models.Coordinate{Lat: input.Latitude, Lng: input.Longitude},
		Amount:       plan.BasePrice(tier),
		PropertyType: input.PropertyType,
		PlanTier:     tier,
		Status:       models.SessionPending,
		CanProceed:   input.CanProceed,
		RiskLevel:    input.RiskLevel,
		Result: &models.ScoredReport{
			LocationScore:    input.LocationScore,
			GrowthPrediction: input.GrowthPrediction,
			NearbyPlaces:     input.NearbyPlaces,
			Distances:        input.Distances,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.insertSession(ctx, session); err != nil {
		return nil, cmnerrors.NewSessionPersistFailedError(err)
	}

	h.cacheSession(ctx, session)

	h.logger.Info("analysis session created", map[string]interface{}{
		"sessionId": session.ID,
		"planTier":  session.PlanTier,
		"amount":    session.Amount,
		"riskLevel": session.RiskLevel,
	})

	return &Output{
		SessionID: session.ID,
		Amount:    session.Amount,
		PlanTier:  string(session.PlanTier),
		Status:    string(session.Status),
	}, nil
}

func (h *Handler) validateInput(input *Input) error {
	schemaLoader := gojsonschema.NewGoLoader(inputSchema)
	documentLoader := gojsonschema.NewGoLoader(input)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return cmnerrors.NewInvalidInputError(fmt.Sprintf("schema validation error: %v", err))
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return cmnerrors.NewInvalidInputError(strings.Join(details, "; "))
	}
	return nil
}

func (h *Handler) insertSession(ctx context.Context, session *models.AnalysisSession) error {
	resultJSON, err := json.Marshal(session.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO analysis_sessions
			(id, lat, lng, property_type, plan_tier, amount, status, can_proceed, risk_level, result, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		session.ID, session.Coordinate.Lat, session.Coordinate.Lng,
		session.PropertyType, session.PlanTier, session.Amount,
		session.Status, session.CanProceed, session.RiskLevel,
		resultJSON, session.CreatedAt, session.UpdatedAt)
	return err
}

func (h *Handler) cacheSession(ctx context.Context, session *models.AnalysisSession) {
	if h.redis == nil {
		return
	}
	data, err := json.Marshal(session)
	if err != nil {
		return
	}
	h.redis.Set(ctx, "session:"+session.ID, data, h.config.CacheTTL)
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
