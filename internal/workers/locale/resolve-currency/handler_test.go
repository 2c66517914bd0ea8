// internal/workers/locale/resolve-currency/handler_test.go
package resolvecurrency

import (
	"context"
	"errors"
	"testing"
	"time"

	cmnerrors "siteintel-workers/internal/common/errors"
	"siteintel-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

type stubGeoIP struct {
	country string
	err     error
	delay   time.Duration
	calls   int
}

func (s *stubGeoIP) CountryCode(ctx context.Context, ip string) (string, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return s.country, nil
}

func newTestHandler(t *testing.T, geo *stubGeoIP) *Handler {
	return NewHandler(LoadConfig(), geo, nil, &testLogger{t: t})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestExecute_TimezoneWins(t *testing.T) {
	geo := &stubGeoIP{country: "GB"}
	handler := newTestHandler(t, geo)

	output, err := handler.Execute(context.Background(), &Input{
		Timezone:   "America/New_York",
		Locale:     "en-gb",
		ClientIP:   "8.8.8.8",
		AmountBase: 199,
	})
	assert.NoError(t, err)
	assert.Equal(t, "US", output.CountryCode)
	assert.Equal(t, "USD", output.CurrencyCode)
	assert.Equal(t, "timezone", output.Source)
	assert.Zero(t, geo.calls)
}

func TestExecute_USConversion(t *testing.T) {
	handler := newTestHandler(t, nil)

	output, err := handler.Execute(context.Background(), &Input{
		Timezone:   "America/Chicago",
		AmountBase: 199,
	})
	assert.NoError(t, err)
	// 199 INR at 0.012 rounds to $2.
	assert.Equal(t, int64(2), output.ConvertedAmount)
	assert.Equal(t, "USD", output.CurrencyCode)
}

func TestExecute_LocaleFallback(t *testing.T) {
	handler := newTestHandler(t, nil)

	output, err := handler.Execute(context.Background(), &Input{
		Timezone:   "Mars/Olympus",
		Locale:     "en-gb",
		AmountBase: 199,
	})
	assert.NoError(t, err)
	assert.Equal(t, "GB", output.CountryCode)
	assert.Equal(t, "locale", output.Source)
}

func TestExecute_GeoIPFallback(t *testing.T) {
	geo := &stubGeoIP{country: "SG"}
	handler := newTestHandler(t, geo)

	output, err := handler.Execute(context.Background(), &Input{
		ClientIP:   "203.0.113.7",
		AmountBase: 199,
	})
	assert.NoError(t, err)
	assert.Equal(t, "SG", output.CountryCode)
	assert.Equal(t, "geoip", output.Source)
	assert.Equal(t, 1, geo.calls)
}

func TestExecute_GeoIPTimeoutFallsBackToDefault(t *testing.T) {
	geo := &stubGeoIP{country: "US", delay: 5 * time.Second}
	handler := newTestHandler(t, geo)

	output, err := handler.Execute(context.Background(), &Input{
		ClientIP:   "203.0.113.7",
		AmountBase: 199,
	})
	assert.NoError(t, err)
	assert.Equal(t, "IN", output.CountryCode)
	assert.Equal(t, "default", output.Source)
	assert.Equal(t, int64(199), output.ConvertedAmount)
}

func TestExecute_GeoIPErrorFallsBackToDefault(t *testing.T) {
	geo := &stubGeoIP{err: errors.New("lookup failed")}
	handler := newTestHandler(t, geo)

	output, err := handler.Execute(context.Background(), &Input{
		ClientIP:   "203.0.113.7",
		AmountBase: 199,
	})
	assert.NoError(t, err)
	assert.Equal(t, "IN", output.CountryCode)
	assert.Equal(t, "INR", output.CurrencyCode)
}

func TestExecute_NoSignalsDefaults(t *testing.T) {
	handler := newTestHandler(t, nil)

	output, err := handler.Execute(context.Background(), &Input{AmountBase: 499})
	assert.NoError(t, err)
	assert.Equal(t, "IN", output.CountryCode)
	assert.Equal(t, int64(499), output.ConvertedAmount)
	assert.Equal(t, "default", output.Source)
}

func TestExecute_UnsupportedGeoIPCountryIgnored(t *testing.T) {
	geo := &stubGeoIP{country: "ZZ"}
	handler := newTestHandler(t, geo)

	output, err := handler.Execute(context.Background(), &Input{
		ClientIP:   "203.0.113.7",
		AmountBase: 199,
	})
	assert.NoError(t, err)
	assert.Equal(t, "IN", output.CountryCode)
	assert.Equal(t, "default", output.Source)
}

// ==========================
// Error Handling Tests
// ==========================

func TestExecute_NegativeAmountRejected(t *testing.T) {
	handler := newTestHandler(t, nil)

	_, err := handler.Execute(context.Background(), &Input{AmountBase: -1})
	assert.Error(t, err)

	var stdErr *cmnerrors.StandardError
	assert.True(t, errors.As(err, &stdErr))
	assert.Equal(t, cmnerrors.ErrCodeInvalidInput, stdErr.Code)
}
