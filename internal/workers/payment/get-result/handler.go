// internal/workers/payment/get-result/handler.go
package getresult

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	cmnerrors "siteintel-workers/internal/common/errors"
	"siteintel-workers/internal/common/logger"
	"siteintel-workers/internal/common/narrative"
	"siteintel-workers/internal/common/places"
	"siteintel-workers/internal/models"
	"siteintel-workers/internal/plan"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "get-result"
)

// NarrativeClient generates short recommendation strings from report facts.
type NarrativeClient interface {
	Recommendations(ctx context.Context, facts narrative.Facts) ([]string, error)
}

type Handler struct {
	config     *Config
	db         *sql.DB
	redis      *redis.Client
	narrative  NarrativeClient
	logger     logger.Logger
	errHandler *cmnerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, narrativeClient NarrativeClient, log logger.Logger) *Handler {
	handlerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		redis:      redisClient,
		narrative:  narrativeClient,
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
	if input.SessionID == "" {
		return nil, cmnerrors.NewInvalidInputError("sessionId must not be empty")
	}

	session, err := h.loadSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	// Read gate: free sessions read immediately, everything else only
	// after the payment landed.
	if session.PlanTier != models.TierFree && session.Status != models.SessionPaid {
		return nil, cmnerrors.NewNotPaidError(session.ID)
	}

	if session.Result == nil {
		return nil, cmnerrors.NewInsufficientDataError(
			fmt.Sprintf("session %s has no stored report", session.ID))
	}

	view := plan.Project(*session.Result, session.PlanTier)

	output := &Output{
		SessionID:        session.ID,
		PlanTier:         string(session.PlanTier),
		Status:           string(session.Status),
		LocationScore:    view.LocationScore,
		GrowthPrediction: view.GrowthPrediction,
		NearbyPlaces:     view.NearbyPlaces,
		Distances:        view.Distances,
		Warnings:         view.Warnings,
	}

	if session.PlanTier == models.TierPro {
		h.attachRecommendations(ctx, session, output)
	}

	h.logger.Info("result projected", map[string]interface{}{
		"sessionId": session.ID,
		"planTier":  session.PlanTier,
		"places":    len(output.NearbyPlaces),
	})

	return output, nil
}

// attachRecommendations asks the narrative service for pro-tier text. A
// timeout or failure degrades the report to a warning instead of failing
// the read.
func (h *Handler) attachRecommendations(ctx context.Context, session *models.AnalysisSession, output *Output) {
	if h.narrative == nil {
		return
	}

	facts := narrative.Facts{
		LocationScore:    session.Result.LocationScore,
		GrowthPrediction: session.Result.GrowthPrediction,
		CoveredDomains:   places.CoveredDomains(session.Result.NearbyPlaces),
		PropertyType:     session.PropertyType,
		PlaceCount:       len(session.Result.NearbyPlaces),
	}

	narrCtx, cancel := context.WithTimeout(ctx, h.config.NarrativeTimeout)
	defer cancel()

	recommendations, err := h.narrative.Recommendations(narrCtx, facts)
	if err != nil {
		h.logger.Warn("narrative service unavailable", map[string]interface{}{
			"sessionId": session.ID,
			"error":     err,
		})
		output.Warnings = append(output.Warnings, "recommendations temporarily unavailable")
		return
	}
	output.Recommendations = recommendations
}

func (h *Handler) loadSession(ctx context.Context, sessionID string) (*models.AnalysisSession, error) {
	if h.redis != nil {
		if val, err := h.redis.Get(ctx, "session:"+sessionID).Result(); err == nil {
			var session models.AnalysisSession
			if err := json.Unmarshal([]byte(val), &session); err == nil && session.Result != nil {
				return &session, nil
			}
		}
	}

	row := h.db.QueryRowContext(ctx, `
		SELECT id, plan_tier, amount, status, property_type, result
		FROM analysis_sessions WHERE id = $1`, sessionID)

	var session models.AnalysisSession
	var resultJSON []byte
	err := row.Scan(&session.ID, &session.PlanTier, &session.Amount,
		&session.Status, &session.PropertyType, &resultJSON)
	if err == sql.ErrNoRows {
		return nil, cmnerrors.NewUnknownSessionError(sessionID)
	}
	if err != nil {
		return nil, cmnerrors.NewDatabaseQueryFailedError("load session", err)
	}

	if len(resultJSON) > 0 {
		var report models.ScoredReport
		if err := json.Unmarshal(resultJSON, &report); err == nil {
			session.Result = &report
		}
	}
	return &session, nil
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
