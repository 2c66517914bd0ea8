// internal/workers/payment/send-receipt/handler.go
package sendreceipt

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	cmnerrors "siteintel-workers/internal/common/errors"
	"siteintel-workers/internal/common/logger"
	"siteintel-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-receipt"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config     *Config
	db         *sql.DB
	logger     logger.Logger
	sesClient  SESService
	snsClient  SNSService
	errHandler *cmnerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) (*Handler, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(config.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	handlerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		logger:     handlerLog,
		sesClient:  ses.NewFromConfig(awsCfg),
		snsClient:  sns.NewFromConfig(awsCfg),
		errHandler: cmnerrors.NewErrorHandler(handlerLog),
	}, nil
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
	if input.SessionID == "" || input.PaymentID == "" {
		return nil, cmnerrors.NewInvalidInputError("sessionId and paymentId are required")
	}

	status, planTier, err := h.sessionStatus(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	// Receipts only go out for settled payments.
	if status != models.SessionPaid {
		return nil, cmnerrors.NewNotPaidError(input.SessionID)
	}

	receiptID := uuid.New().String()
	sentAt := time.Now().UTC().Format(time.RFC3339)

	amountText := input.Formatted
	if amountText == "" {
		currency := input.CurrencyCode
		if currency == "" {
			currency = "INR"
		}
		amountText = fmt.Sprintf("%d %s", input.Amount, currency)
	}

	subject := "Your location analysis receipt"
	body := fmt.Sprintf(
		"Payment received: %s for your %s location analysis.\nSession: %s\nPayment reference: %s\nYour full report is now available.",
		amountText, planTier, input.SessionID, input.PaymentID)

	emailSent := false
	smsSent := false

	if h.config.EmailEnabled && input.Email != "" {
		if err := h.sendEmail(ctx, input.Email, subject, body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error": err,
				"email": input.Email,
			})
			return nil, cmnerrors.NewNotificationSendFailedError("email", err)
		}
		emailSent = true
	}

	if h.config.SMSEnabled && input.Phone != "" {
		if err := h.sendSMS(ctx, input.Phone, body); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error": err,
				"phone": input.Phone,
			})
			return nil, cmnerrors.NewNotificationSendFailedError("sms", err)
		}
		smsSent = true
	}

	deliveryStatus := StatusDisabled
	if emailSent || smsSent {
		deliveryStatus = StatusSent
	}

	h.logger.Info("receipt processed", map[string]interface{}{
		"sessionId": input.SessionID,
		"receiptId": receiptID,
		"emailSent": emailSent,
		"smsSent":   smsSent,
	})

	return &Output{
		ReceiptID: receiptID,
		Status:    deliveryStatus,
		SentAt:    sentAt,
		EmailSent: emailSent,
		SMSSent:   smsSent,
	}, nil
}

func (h *Handler) sessionStatus(ctx context.Context, sessionID string) (models.SessionStatus, models.PlanTier, error) {
	row := h.db.QueryRowContext(ctx, `
		SELECT status, plan_tier FROM analysis_sessions WHERE id = $1`, sessionID)

	var status models.SessionStatus
	var tier models.PlanTier
	err := row.Scan(&status, &tier)
	if err == sql.ErrNoRows {
		return "", "", cmnerrors.NewUnknownSessionError(sessionID)
	}
	if err != nil {
		return "", "", cmnerrors.NewDatabaseQueryFailedError("load session status", err)
	}
	return status, tier, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
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
