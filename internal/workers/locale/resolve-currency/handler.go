// internal/workers/locale/resolve-currency/handler.go
package resolvecurrency

import (
	"context"
	"encoding/json"
	"fmt"

	cmnerrors "siteintel-workers/internal/common/errors"
	"siteintel-workers/internal/common/logger"
	"siteintel-workers/internal/currency"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "resolve-currency"
)

// GeoIPClient resolves a client IP to a country code.
type GeoIPClient interface {
	CountryCode(ctx context.Context, ip string) (string, error)
}

type Handler struct {
	config     *Config
	geoip      GeoIPClient
	redis      *redis.Client
	logger     logger.Logger
	errHandler *cmnerrors.ErrorHandler
}

func NewHandler(config *Config, geoipClient GeoIPClient, redisClient *redis.Client, log logger.Logger) *Handler {
	handlerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		geoip:      geoipClient,
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

// execute walks the resolution chain: timezone, then locale, then geo-IP,
// then the default country. Resolution never fails the job; the worst case
// is default-currency pricing.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.AmountBase < 0 {
		return nil, cmnerrors.NewInvalidInputError("amountBase must not be negative")
	}

	country, source := h.resolveCountry(ctx, input)
	conversion := currency.Convert(input.AmountBase, country)

	h.logger.Info("currency resolved", map[string]interface{}{
		"countryCode":  country,
		"currencyCode": conversion.CurrencyCode,
		"source":       source,
		"amountBase":   input.AmountBase,
		"converted":    conversion.Amount,
	})

	return &Output{
		CountryCode:     country,
		CurrencyCode:    conversion.CurrencyCode,
		ConvertedAmount: conversion.Amount,
		Formatted:       conversion.Formatted,
		Source:          source,
	}, nil
}

func (h *Handler) resolveCountry(ctx context.Context, input *Input) (string, string) {
	if input.Timezone != "" {
		if country, ok := currency.FromTimezone(input.Timezone); ok {
			return country, "timezone"
		}
	}

	if input.Locale != "" {
		if country, ok := currency.FromLocale(input.Locale); ok {
			return country, "locale"
		}
	}

	if input.ClientIP != "" && h.geoip != nil {
		if country, ok := h.lookupGeoIP(ctx, input.ClientIP); ok {
			return country, "geoip"
		}
	}

	return currency.DefaultCountry, "default"
}

// lookupGeoIP is bounded by its own short timeout so a slow lookup service
// degrades to the default currency instead of stalling checkout.
func (h *Handler) lookupGeoIP(ctx context.Context, ip string) (string, bool) {
	cacheKey := "geoip:" + ip
	if h.redis != nil {
		if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil && val != "" {
			return val, true
		}
	}

	geoCtx, cancel := context.WithTimeout(ctx, h.config.GeoIPTimeout)
	defer cancel()

	country, err := h.geoip.CountryCode(geoCtx, ip)
	if err != nil {
		h.logger.Warn("geoip lookup failed", map[string]interface{}{
			"ip":    ip,
			"error": err,
		})
		return "", false
	}
	if !currency.Supported(country) {
		return "", false
	}

	if h.redis != nil {
		h.redis.Set(ctx, cacheKey, country, h.config.CacheTTL)
	}
	return country, true
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
