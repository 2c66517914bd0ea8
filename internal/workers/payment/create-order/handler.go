// internal/workers/payment/create-order/handler.go
package createorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	cmnerrors "siteintel-workers/internal/common/errors"
	"siteintel-workers/internal/common/gateway"
	"siteintel-workers/internal/common/logger"
	"siteintel-workers/internal/common/metrics"
	"siteintel-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "create-order"
)

// GatewayClient is the slice of the payment gateway this worker needs.
type GatewayClient interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*gateway.Order, error)
	KeyID() string
}

type Handler struct {
	config     *Config
	db         *sql.DB
	redis      *redis.Client
	gateway    GatewayClient
	logger     logger.Logger
	errHandler *cmnerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, gw GatewayClient, log logger.Logger) *Handler {
	handlerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		redis:      redisClient,
		gateway:    gw,
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

	if session.PlanTier == models.TierFree {
		return nil, cmnerrors.NewOrderNotRequiredError(session.ID)
	}
	if !session.CanProceed {
		return nil, cmnerrors.NewLocationBlockedError(
			fmt.Sprintf("session %s references a blocked location", session.ID))
	}

	switch session.Status {
	case models.SessionPaid:
		// Idempotent: a paid session re-requesting its order gets the
		// original back instead of a second charge.
		if order := h.latestOrder(ctx, session.ID, models.OrderPaid); order != nil {
			return h.orderOutput(order), nil
		}
		return nil, cmnerrors.NewAlreadyPaidError(session.ID)
	case models.SessionFailed:
		return nil, cmnerrors.NewBusinessRuleError(
			"session is in a terminal failed state",
			fmt.Sprintf("sessionId: %s", session.ID))
	}

	// A live unredeemed order is reused rather than duplicated.
	if order := h.latestOrder(ctx, session.ID, models.OrderCreated); order != nil {
		return h.orderOutput(order), nil
	}

	currency := input.CurrencyCode
	if currency == "" {
		currency = h.config.DefaultCurrency
	}
	amount := input.ConvertedAmount
	if amount <= 0 {
		amount = session.Amount
	}

	// Gateways charge in the smallest currency unit.
	gwOrder, err := h.gateway.CreateOrder(ctx, amount*100, currency, session.ID)
	if err != nil {
		return nil, cmnerrors.NewGatewayError(err)
	}

	order := &models.PaymentOrder{
		OrderID:      gwOrder.ID,
		SessionID:    session.ID,
		Amount:       amount,
		CurrencyCode: currency,
		GatewayKey:   h.gateway.KeyID(),
		Status:       models.OrderCreated,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.insertOrder(ctx, order); err != nil {
		return nil, cmnerrors.NewDatabaseQueryFailedError("insert payment order", err)
	}

	metrics.OrdersCreated.WithLabelValues(order.CurrencyCode).Inc()
	h.logger.Info("payment order created", map[string]interface{}{
		"sessionId": session.ID,
		"orderId":   order.OrderID,
		"amount":    order.Amount,
		"currency":  order.CurrencyCode,
	})

	return h.orderOutput(order), nil
}

func (h *Handler) orderOutput(order *models.PaymentOrder) *Output {
	return &Output{
		OrderID:      order.OrderID,
		SessionID:    order.SessionID,
		Amount:       order.Amount,
		CurrencyCode: order.CurrencyCode,
		GatewayKey:   order.GatewayKey,
	}
}

func (h *Handler) loadSession(ctx context.Context, sessionID string) (*models.AnalysisSession, error) {
	if h.redis != nil {
		if val, err := h.redis.Get(ctx, "session:"+sessionID).Result(); err == nil {
			var session models.AnalysisSession
			if err := json.Unmarshal([]byte(val), &session); err == nil {
				return &session, nil
			}
		}
	}

	row := h.db.QueryRowContext(ctx, `
		SELECT id, lat, lng, property_type, plan_tier, amount, status, can_proceed, risk_level
		FROM analysis_sessions WHERE id = $1`, sessionID)

	var session models.AnalysisSession
	err := row.Scan(&session.ID, &session.Coordinate.Lat, &session.Coordinate.Lng,
		&session.PropertyType, &session.PlanTier, &session.Amount,
		&session.Status, &session.CanProceed, &session.RiskLevel)
	if err == sql.ErrNoRows {
		return nil, cmnerrors.NewUnknownSessionError(sessionID)
	}
	if err != nil {
		return nil, cmnerrors.NewDatabaseQueryFailedError("load session", err)
	}
	return &session, nil
}

func (h *Handler) latestOrder(ctx context.Context, sessionID string, status models.OrderStatus) *models.PaymentOrder {
	row := h.db.QueryRowContext(ctx, `
		SELECT order_id, session_id, amount, currency_code, gateway_key, status
		FROM payment_orders
		WHERE session_id = $1 AND status = $2
		ORDER BY created_at DESC LIMIT 1`, sessionID, status)

	var order models.PaymentOrder
	err := row.Scan(&order.OrderID, &order.SessionID, &order.Amount,
		&order.CurrencyCode, &order.GatewayKey, &order.Status)
	if err != nil {
		return nil
	}
	return &order
}

func (h *Handler) insertOrder(ctx context.Context, order *models.PaymentOrder) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO payment_orders (order_id, session_id, amount, currency_code, gateway_key, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		order.OrderID, order.SessionID, order.Amount, order.CurrencyCode,
		order.GatewayKey, order.Status, order.CreatedAt)
	return err
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
