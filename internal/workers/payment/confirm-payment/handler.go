// internal/workers/payment/confirm-payment/handler.go
package confirmpayment

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	cmnerrors "siteintel-workers/internal/common/errors"
	"siteintel-workers/internal/common/logger"
	"siteintel-workers/internal/common/metrics"
	"siteintel-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "confirm-payment"
)

// SignatureVerifier checks gateway payment signatures.
type SignatureVerifier interface {
	VerifySignature(orderID, paymentID, signature string) bool
}

type Handler struct {
	config     *Config
	db         *sql.DB
	redis      *redis.Client
	verifier   SignatureVerifier
	es         *elasticsearch.Client
	logger     logger.Logger
	errHandler *cmnerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, verifier SignatureVerifier, es *elasticsearch.Client, log logger.Logger) *Handler {
	handlerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		redis:      redisClient,
		verifier:   verifier,
		es:         es,
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
	if input.SessionID == "" || input.OrderID == "" || input.PaymentID == "" || input.Signature == "" {
		return nil, cmnerrors.NewInvalidInputError("sessionId, orderId, paymentId and signature are all required")
	}

	session, err := h.loadSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	// Re-confirming a paid session with a valid signature is a no-op: the
	// terminal state and the already-computed report are simply reaffirmed.
	if session.Status == models.SessionPaid {
		if !h.verifier.VerifySignature(input.OrderID, input.PaymentID, input.Signature) {
			return nil, cmnerrors.NewVerificationFailedError(input.OrderID)
		}
		return &Output{
			SessionID: session.ID,
			OrderID:   input.OrderID,
			PaymentID: input.PaymentID,
			Status:    string(models.SessionPaid),
		}, nil
	}
	if session.Status == models.SessionFailed {
		return nil, cmnerrors.NewVerificationFailedError(input.OrderID)
	}

	if !h.verifier.VerifySignature(input.OrderID, input.PaymentID, input.Signature) {
		h.transitionSession(ctx, session.ID, models.SessionFailed)
		h.updateOrderStatus(ctx, input.OrderID, models.OrderFailed)
		h.invalidateCache(ctx, session.ID)
		return nil, cmnerrors.NewVerificationFailedError(input.OrderID)
	}

	moved, err := h.transitionSession(ctx, session.ID, models.SessionPaid)
	if err != nil {
		return nil, cmnerrors.NewDatabaseQueryFailedError("transition session", err)
	}
	if !moved {
		// Lost a race with another confirmation. Terminal states never
		// change, so re-read and report whatever won.
		current, err := h.loadSession(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		if current.Status != models.SessionPaid {
			return nil, cmnerrors.NewVerificationFailedError(input.OrderID)
		}
		session = current
	}

	h.updateOrderStatus(ctx, input.OrderID, models.OrderPaid)
	h.invalidateCache(ctx, session.ID)
	h.indexPaidSession(ctx, session, input)
	metrics.SessionsPaid.WithLabelValues(string(session.PlanTier)).Inc()

	h.logger.Info("payment confirmed", map[string]interface{}{
		"sessionId": session.ID,
		"orderId":   input.OrderID,
		"paymentId": input.PaymentID,
	})

	return &Output{
		SessionID: session.ID,
		OrderID:   input.OrderID,
		PaymentID: input.PaymentID,
		Status:    string(models.SessionPaid),
	}, nil
}

func (h *Handler) loadSession(ctx context.Context, sessionID string) (*models.AnalysisSession, error) {
	row := h.db.QueryRowContext(ctx, `
		SELECT id, plan_tier, amount, status, property_type
		FROM analysis_sessions WHERE id = $1`, sessionID)

	var session models.AnalysisSession
	err := row.Scan(&session.ID, &session.PlanTier, &session.Amount, &session.Status, &session.PropertyType)
	if err == sql.ErrNoRows {
		return nil, cmnerrors.NewUnknownSessionError(sessionID)
	}
	if err != nil {
		return nil, cmnerrors.NewDatabaseQueryFailedError("load session", err)
	}
	return &session, nil
}

// transitionSession moves a pending session to a terminal state. The WHERE
// clause on status makes the transition atomic: only one confirmation can
// ever flip the row.
func (h *Handler) transitionSession(ctx context.Context, sessionID string, target models.SessionStatus) (bool, error) {
	result, err := h.db.ExecContext(ctx, `
		UPDATE analysis_sessions SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`,
		target, time.Now().UTC(), sessionID, models.SessionPending)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (h *Handler) updateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) {
	_, err := h.db.ExecContext(ctx, `
		UPDATE payment_orders SET status = $1 WHERE order_id = $2`, status, orderID)
	if err != nil {
		h.logger.Warn("failed to update order status", map[string]interface{}{
			"orderId": orderID,
			"status":  status,
			"error":   err,
		})
	}
}

func (h *Handler) invalidateCache(ctx context.Context, sessionID string) {
	if h.redis == nil {
		return
	}
	h.redis.Del(ctx, "session:"+sessionID)
}

// indexPaidSession ships a paid-session document to the analytics index.
// Indexing is best effort and never fails the confirmation.
func (h *Handler) indexPaidSession(ctx context.Context, session *models.AnalysisSession, input *Input) {
	if h.es == nil {
		return
	}

	doc := map[string]interface{}{
		"sessionId":    session.ID,
		"orderId":      input.OrderID,
		"paymentId":    input.PaymentID,
		"planTier":     session.PlanTier,
		"amount":       session.Amount,
		"propertyType": session.PropertyType,
		"paidAt":       time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return
	}

	res, err := h.es.Index(
		h.config.AnalyticsIndex,
		bytes.NewReader(body),
		h.es.Index.WithDocumentID(session.ID),
		h.es.Index.WithContext(ctx),
	)
	if err != nil {
		h.logger.Warn("failed to index paid session", map[string]interface{}{
			"sessionId": session.ID,
			"error":     err,
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		h.logger.Warn("analytics index rejected document", map[string]interface{}{
			"sessionId": session.ID,
			"status":    res.Status(),
		})
	}
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
