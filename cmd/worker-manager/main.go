// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"siteintel-workers/internal/common/config"
	"siteintel-workers/internal/common/database"
	"siteintel-workers/internal/common/gateway"
	"siteintel-workers/internal/common/geoip"
	"siteintel-workers/internal/common/logger"
	"siteintel-workers/internal/common/metrics"
	"siteintel-workers/internal/common/narrative"
	"siteintel-workers/internal/common/observability"
	"siteintel-workers/internal/common/places"

	// Analysis Workers (3)
	ga "siteintel-workers/internal/workers/analysis/geocode-address"
	sl "siteintel-workers/internal/workers/analysis/score-location"
	vl "siteintel-workers/internal/workers/analysis/validate-location"

	// Payment Workers (5)
	cp "siteintel-workers/internal/workers/payment/confirm-payment"
	co "siteintel-workers/internal/workers/payment/create-order"
	cs "siteintel-workers/internal/workers/payment/create-session"
	gr "siteintel-workers/internal/workers/payment/get-result"
	sr "siteintel-workers/internal/workers/payment/send-receipt"

	// Locale Workers (1)
	rc "siteintel-workers/internal/workers/locale/resolve-currency"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init External Service Clients ---
	placesTimeout := time.Duration(cfg.Places.Timeout) * time.Millisecond
	overpassProvider := places.NewOverpassProvider(cfg.Places.OverpassEndpoint, cfg.Places.MaxPlaces, placesTimeout)
	geocoder := places.NewNominatimGeocoder(cfg.Places.NominatimBaseURL, placesTimeout)

	gatewayClient := gateway.NewClient(
		cfg.Gateway.BaseURL,
		cfg.Gateway.KeyID,
		cfg.Gateway.KeySecret,
		time.Duration(cfg.Gateway.Timeout)*time.Millisecond,
	)

	narrativeClient := narrative.NewClient(
		cfg.Narrative.BaseURL,
		cfg.Narrative.APIKey,
		time.Duration(cfg.Narrative.Timeout)*time.Millisecond,
	)

	geoipClient := geoip.NewClient(cfg.GeoIP.BaseURL, time.Duration(cfg.GeoIP.Timeout)*time.Millisecond)

	zapLog.Info("All external service clients initialized")

	// --- START: Register ALL 9 Workers ---

	// --- 1. Analysis Workers (3) ---
	if cfg.Workers[vl.TaskType].Enabled {
		handler := vl.NewHandler(
			&vl.Config{
				RadiusMeters: cfg.Places.RadiusMeters,
				CacheTTL:     15 * time.Minute,
				Timeout:      time.Duration(cfg.Workers[vl.TaskType].Timeout) * time.Millisecond,
			},
			overpassProvider, redis.Client, log,
		)
		startWorker(zeebeClient, vl.TaskType, cfg.Workers[vl.TaskType], handler.Handle, obs, zapLog)
	}

	if cfg.Workers[sl.TaskType].Enabled {
		handler := sl.NewHandler(
			&sl.Config{
				RadiusMeters: cfg.Places.RadiusMeters,
				TopRatedN:    10,
				CacheTTL:     15 * time.Minute,
				Timeout:      time.Duration(cfg.Workers[sl.TaskType].Timeout) * time.Millisecond,
			},
			overpassProvider, redis.Client, log,
		)
		startWorker(zeebeClient, sl.TaskType, cfg.Workers[sl.TaskType], handler.Handle, obs, zapLog)
	}

	if cfg.Workers[ga.TaskType].Enabled {
		handler := ga.NewHandler(
			&ga.Config{
				CacheTTL: 24 * time.Hour,
				Timeout:  time.Duration(cfg.Workers[ga.TaskType].Timeout) * time.Millisecond,
			},
			geocoder, redis.Client, log,
		)
		startWorker(zeebeClient, ga.TaskType, cfg.Workers[ga.TaskType], handler.Handle, obs, zapLog)
	}

	// --- 2. Payment Workers (5) ---
	if cfg.Workers[cs.TaskType].Enabled {
		handler := cs.NewHandler(
			&cs.Config{
				CacheTTL: 30 * time.Minute,
				Timeout:  time.Duration(cfg.Workers[cs.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, redis.Client, log,
		)
		startWorker(zeebeClient, cs.TaskType, cfg.Workers[cs.TaskType], handler.Handle, obs, zapLog)
	}

	if cfg.Workers[co.TaskType].Enabled {
		handler := co.NewHandler(
			&co.Config{
				DefaultCurrency: "INR",
				Timeout:         time.Duration(cfg.Workers[co.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, redis.Client, gatewayClient, log,
		)
		startWorker(zeebeClient, co.TaskType, cfg.Workers[co.TaskType], handler.Handle, obs, zapLog)
	}

	if cfg.Workers[cp.TaskType].Enabled {
		handler := cp.NewHandler(
			&cp.Config{
				AnalyticsIndex: "paid-sessions",
				Timeout:        time.Duration(cfg.Workers[cp.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, redis.Client, gatewayClient, esClient.Client, log,
		)
		startWorker(zeebeClient, cp.TaskType, cfg.Workers[cp.TaskType], handler.Handle, obs, zapLog)
	}

	if cfg.Workers[gr.TaskType].Enabled {
		handler := gr.NewHandler(
			&gr.Config{
				NarrativeTimeout: time.Duration(cfg.Narrative.Timeout) * time.Millisecond,
				Timeout:          time.Duration(cfg.Workers[gr.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, redis.Client, narrativeClient, log,
		)
		startWorker(zeebeClient, gr.TaskType, cfg.Workers[gr.TaskType], handler.Handle, obs, zapLog)
	}

	if cfg.Workers[sr.TaskType].Enabled {
		handler, err := sr.NewHandler(
			&sr.Config{
				EmailEnabled: cfg.Notifications.Email.Enabled,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				AWSRegion:    cfg.Notifications.AWS.Region,
				Timeout:      time.Duration(cfg.Workers[sr.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create send-receipt handler", zap.Error(err))
		}
		startWorker(zeebeClient, sr.TaskType, cfg.Workers[sr.TaskType], handler.Handle, obs, zapLog)
	}

	// --- 3. Locale Workers (1) ---
	if cfg.Workers[rc.TaskType].Enabled {
		handler := rc.NewHandler(
			&rc.Config{
				GeoIPTimeout: time.Duration(cfg.GeoIP.Timeout) * time.Millisecond,
				CacheTTL:     12 * time.Hour,
				Timeout:      time.Duration(cfg.Workers[rc.TaskType].Timeout) * time.Millisecond,
			},
			geoipClient, redis.Client, log,
		)
		startWorker(zeebeClient, rc.TaskType, cfg.Workers[rc.TaskType], handler.Handle, obs, zapLog)
	}

	zapLog.Info("All 9 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = shutdownCtx

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), obs *observability.Observability, log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	instrumented := func(jobClient worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		timer := prometheus.NewTimer(metrics.WorkerJobDuration.WithLabelValues(taskType))
		start := time.Now()

		handlerFunc(jobClient, job)

		timer.ObserveDuration()
		metrics.WorkerJobsHandled.WithLabelValues(taskType).Inc()
		obs.RecordJobProcessed(context.Background(), taskType)
		obs.RecordJobDuration(context.Background(), time.Since(start), taskType)
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(instrumented).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
