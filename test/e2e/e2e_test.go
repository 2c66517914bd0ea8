// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteintel-workers/internal/common/camunda"
	"siteintel-workers/internal/common/config"
	"siteintel-workers/internal/common/database"
	"siteintel-workers/internal/common/gateway"
	"siteintel-workers/internal/common/logger"
	"siteintel-workers/internal/common/narrative"
	"siteintel-workers/internal/common/places"

	geocodeaddress "siteintel-workers/internal/workers/analysis/geocode-address"
	scorelocation "siteintel-workers/internal/workers/analysis/score-location"
	validatelocation "siteintel-workers/internal/workers/analysis/validate-location"
	resolvecurrency "siteintel-workers/internal/workers/locale/resolve-currency"
	confirmpayment "siteintel-workers/internal/workers/payment/confirm-payment"
	createorder "siteintel-workers/internal/workers/payment/create-order"
	createsession "siteintel-workers/internal/workers/payment/create-session"
	getresult "siteintel-workers/internal/workers/payment/get-result"
	sendreceipt "siteintel-workers/internal/workers/payment/send-receipt"
)

// The suite runs against real services (Zeebe, Postgres, Redis,
// Elasticsearch, Overpass, Nominatim) and is therefore opt-in:
//
//	RUN_E2E_TESTS=true go test ./test/e2e/...
var (
	cfg           *config.Config
	camundaClient *camunda.Client
	pg            *database.PostgresClient
	redisClient   *database.RedisClient
	esClient      *database.ElasticsearchClient
)

func TestMain(m *testing.M) {
	if os.Getenv("RUN_E2E_TESTS") != "true" {
		fmt.Println("⏭️  Skipping e2e tests (set RUN_E2E_TESTS=true to run)")
		os.Exit(0)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		panic(fmt.Sprintf("❌ Failed to load config: %v", err))
	}

	camundaClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
	if err != nil {
		panic(fmt.Sprintf("❌ Failed to connect to Zeebe: %v", err))
	}

	pg, err = database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		panic(fmt.Sprintf("❌ Failed to connect to Postgres: %v", err))
	}

	redisClient, err = database.NewRedis(cfg.Database.Redis)
	if err != nil {
		panic(fmt.Sprintf("❌ Failed to connect to Redis: %v", err))
	}

	esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		panic(fmt.Sprintf("❌ Failed to connect to Elasticsearch: %v", err))
	}

	createTables()

	code := m.Run()

	camundaClient.Close()
	pg.Close()
	redisClient.Close()
	os.Exit(code)
}

func createTables() {
	ctx := context.Background()
	statements := []string{
		`CREATE TABLE IF NOT EXISTS analysis_sessions (
			id            TEXT PRIMARY KEY,
			lat           DOUBLE PRECISION NOT NULL,
			lng           DOUBLE PRECISION NOT NULL,
			property_type TEXT,
			plan_tier     TEXT NOT NULL,
			amount        BIGINT NOT NULL,
			status        TEXT NOT NULL,
			can_proceed   BOOLEAN NOT NULL,
			risk_level    TEXT,
			result        JSONB,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS payment_orders (
			order_id      TEXT PRIMARY KEY,
			session_id    TEXT NOT NULL REFERENCES analysis_sessions(id),
			amount        BIGINT NOT NULL,
			currency_code TEXT NOT NULL,
			gateway_key   TEXT,
			status        TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := pg.Exec(ctx, stmt); err != nil {
			panic(fmt.Sprintf("❌ Failed to create tables: %v", err))
		}
	}
}

func TestServiceConnectivity(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	assert.NoError(t, camundaClient.HealthCheck(ctx), "Zeebe should be reachable")
	assert.NoError(t, pg.Ping(ctx), "Postgres should be reachable")
	assert.NoError(t, redisClient.Ping(ctx), "Redis should be reachable")
	assert.NoError(t, esClient.Ping(), "Elasticsearch should be reachable")
}

// TestAnalysisPipeline exercises geocode, validate and score against the
// live Overpass and Nominatim APIs for a well-covered urban location.
func TestAnalysisPipeline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log := logger.NewTestLogger(t)
	placesTimeout := config.GetDuration(cfg.Places.Timeout)

	geocoder := places.NewNominatimGeocoder(cfg.Places.NominatimBaseURL, placesTimeout)
	provider := places.NewOverpassProvider(cfg.Places.OverpassEndpoint, cfg.Places.MaxPlaces, placesTimeout)

	// 1. Geocode a real address
	ga := geocodeaddress.NewHandler(geocodeaddress.LoadConfig(), geocoder, redisClient.GetClient(), log)
	geo, err := ga.Execute(ctx, &geocodeaddress.Input{Address: "Connaught Place, New Delhi, India"})
	require.NoError(t, err)
	require.NotZero(t, geo.Latitude)
	require.NotZero(t, geo.Longitude)
	t.Logf("📍 Geocoded to %f,%f (%s)", geo.Latitude, geo.Longitude, geo.FormattedAddress)

	// 2. Validate essential-service coverage
	vl := validatelocation.NewHandler(validatelocation.LoadConfig(), provider, redisClient.GetClient(), log)
	validation, err := vl.Execute(ctx, &validatelocation.Input{
		Latitude:  geo.Latitude,
		Longitude: geo.Longitude,
	})
	require.NoError(t, err)
	assert.Contains(t, []string{"low", "medium", "high"}, validation.RiskLevel)
	t.Logf("✅ Validation: risk=%s domains=%v places=%d",
		validation.RiskLevel, validation.CoveredDomains, validation.PlaceCount)

	// A dense urban centre should never be blocked outright.
	require.True(t, validation.CanProceed)

	// 3. Score the location
	sl := scorelocation.NewHandler(scorelocation.LoadConfig(), provider, redisClient.GetClient(), log)
	score, err := sl.Execute(ctx, &scorelocation.Input{
		Latitude:  geo.Latitude,
		Longitude: geo.Longitude,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score.LocationScore, 0.0)
	assert.LessOrEqual(t, score.LocationScore, 100.0)
	assert.NotEmpty(t, score.NearbyPlaces)
	t.Logf("🏆 Score: %.1f (growth %.1f, %d places)",
		score.LocationScore, score.GrowthPrediction, len(score.NearbyPlaces))
}

// TestFreeTierFlow creates a free session and reads the gated result back
// without any payment involved.
func TestFreeTierFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := logger.NewTestLogger(t)

	cs := createsession.NewHandler(createsession.LoadConfig(), pg.GetDB(), redisClient.GetClient(), log)
	session, err := cs.Execute(ctx, &createsession.Input{
		Latitude:      28.6315,
		Longitude:     77.2167,
		PropertyType:  "retail",
		PlanTier:      "free",
		CanProceed:    true,
		RiskLevel:     "low",
		LocationScore: 78.4,
	})
	require.NoError(t, err)
	require.NotEmpty(t, session.SessionID)
	assert.Equal(t, int64(0), session.Amount, "free tier owes nothing")

	narrativeClient := narrative.NewClient(cfg.Narrative.BaseURL, cfg.Narrative.APIKey,
		config.GetDuration(cfg.Narrative.Timeout))
	gr := getresult.NewHandler(getresult.LoadConfig(), pg.GetDB(), redisClient.GetClient(), narrativeClient, log)

	result, err := gr.Execute(ctx, &getresult.Input{SessionID: session.SessionID})
	require.NoError(t, err)
	assert.Equal(t, "free", result.PlanTier)
	assert.InDelta(t, 78.4, result.LocationScore, 0.01)
	assert.Nil(t, result.GrowthPrediction, "free tier never sees growth prediction")
	assert.Empty(t, result.Recommendations)
}

// TestPaidFlow runs the full monetization path: session, gateway order,
// signature confirmation, result read and receipt. Requires gateway
// credentials, so it skips on unconfigured environments.
func TestPaidFlow(t *testing.T) {
	if cfg.Gateway.KeyID == "" || cfg.Gateway.KeySecret == "" {
		t.Skip("gateway credentials not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log := logger.NewTestLogger(t)
	gatewayClient := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.KeySecret,
		config.GetDuration(cfg.Gateway.Timeout))

	// 1. Paid session
	cs := createsession.NewHandler(createsession.LoadConfig(), pg.GetDB(), redisClient.GetClient(), log)
	session, err := cs.Execute(ctx, &createsession.Input{
		Latitude:      28.6315,
		Longitude:     77.2167,
		PropertyType:  "retail",
		PlanTier:      "pro",
		CanProceed:    true,
		RiskLevel:     "low",
		LocationScore: 81.2,
	})
	require.NoError(t, err)
	require.Greater(t, session.Amount, int64(0))

	// 2. Gateway order
	co := createorder.NewHandler(createorder.LoadConfig(), pg.GetDB(), redisClient.GetClient(), gatewayClient, log)
	order, err := co.Execute(ctx, &createorder.Input{SessionID: session.SessionID})
	require.NoError(t, err)
	require.NotEmpty(t, order.OrderID)
	assert.Equal(t, cfg.Gateway.KeyID, order.GatewayKey)
	t.Logf("💳 Order %s for %d %s", order.OrderID, order.Amount, order.CurrencyCode)

	// Result reads must be rejected until the payment lands.
	narrativeClient := narrative.NewClient(cfg.Narrative.BaseURL, cfg.Narrative.APIKey,
		config.GetDuration(cfg.Narrative.Timeout))
	gr := getresult.NewHandler(getresult.LoadConfig(), pg.GetDB(), redisClient.GetClient(), narrativeClient, log)
	_, err = gr.Execute(ctx, &getresult.Input{SessionID: session.SessionID})
	require.Error(t, err)

	// 3. Confirm with a signature computed the way the gateway does
	paymentID := fmt.Sprintf("pay_e2e_%d", time.Now().UnixNano())
	signature := signPayment(order.OrderID, paymentID, cfg.Gateway.KeySecret)

	cp := confirmpayment.NewHandler(confirmpayment.LoadConfig(), pg.GetDB(), redisClient.GetClient(),
		gatewayClient, esClient.Client, log)
	confirmation, err := cp.Execute(ctx, &confirmpayment.Input{
		SessionID: session.SessionID,
		OrderID:   order.OrderID,
		PaymentID: paymentID,
		Signature: signature,
	})
	require.NoError(t, err)
	assert.Equal(t, "paid", confirmation.Status)

	// A second confirmation with the same signature is a no-op.
	again, err := cp.Execute(ctx, &confirmpayment.Input{
		SessionID: session.SessionID,
		OrderID:   order.OrderID,
		PaymentID: paymentID,
		Signature: signature,
	})
	require.NoError(t, err)
	assert.Equal(t, "paid", again.Status)

	// 4. Full result for the paid session
	result, err := gr.Execute(ctx, &getresult.Input{SessionID: session.SessionID})
	require.NoError(t, err)
	assert.Equal(t, "paid", result.Status)
	assert.NotNil(t, result.GrowthPrediction)

	// 5. Receipt (channels may be disabled in this environment)
	sr, err := sendreceipt.NewHandler(sendreceipt.LoadConfig(), pg.GetDB(), log)
	require.NoError(t, err)
	receipt, err := sr.Execute(ctx, &sendreceipt.Input{
		SessionID: session.SessionID,
		OrderID:   order.OrderID,
		PaymentID: paymentID,
		Amount:    order.Amount,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.Status)
	t.Logf("🧾 Receipt %s (%s)", receipt.ReceiptID, receipt.Status)
}

// TestConfirmRejectsBadSignature makes sure a tampered callback can never
// mark a session paid.
func TestConfirmRejectsBadSignature(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := logger.NewTestLogger(t)
	gatewayClient := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.KeySecret,
		config.GetDuration(cfg.Gateway.Timeout))

	cs := createsession.NewHandler(createsession.LoadConfig(), pg.GetDB(), redisClient.GetClient(), log)
	session, err := cs.Execute(ctx, &createsession.Input{
		Latitude:   28.6315,
		Longitude:  77.2167,
		PlanTier:   "paid",
		CanProceed: true,
		RiskLevel:  "low",
	})
	require.NoError(t, err)

	cp := confirmpayment.NewHandler(confirmpayment.LoadConfig(), pg.GetDB(), redisClient.GetClient(),
		gatewayClient, esClient.Client, log)
	_, err = cp.Execute(ctx, &confirmpayment.Input{
		SessionID: session.SessionID,
		OrderID:   "order_forged",
		PaymentID: "pay_forged",
		Signature: "not-a-real-signature",
	})
	require.Error(t, err)
}

// TestResolveCurrencyOffline uses the timezone signal only, so it needs no
// external GeoIP call.
func TestResolveCurrencyOffline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log := logger.NewTestLogger(t)
	rc := resolvecurrency.NewHandler(resolvecurrency.LoadConfig(), nil, redisClient.GetClient(), log)

	out, err := rc.Execute(ctx, &resolvecurrency.Input{
		Timezone:   "America/New_York",
		AmountBase: 499,
	})
	require.NoError(t, err)
	assert.Equal(t, "US", out.CountryCode)
	assert.Equal(t, "USD", out.CurrencyCode)
	assert.Equal(t, "timezone", out.Source)
	assert.Greater(t, out.ConvertedAmount, int64(0))
	t.Logf("💱 499 INR renders as %s", out.Formatted)
}

func signPayment(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
