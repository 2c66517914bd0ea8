// internal/workers/analysis/validate-location/handler_test.go
package validatelocation

import (
	"context"
	"errors"
	"testing"

	"siteintel-workers/internal/common/logger"
	cmnerrors "siteintel-workers/internal/common/errors"
	"siteintel-workers/internal/models"

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

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

type stubProvider struct {
	placeList []models.Place
	err       error
}

func (s *stubProvider) Nearby(ctx context.Context, center models.Coordinate, radiusMeters int) ([]models.Place, error) {
	return s.placeList, s.err
}

func newTestHandler(t *testing.T, provider *stubProvider) *Handler {
	return NewHandler(LoadConfig(), provider, nil, newTestLogger(t))
}

func essentialPlace(name string, categories ...string) models.Place {
	return models.Place{Name: name, Categories: categories, DistanceKm: 0.5, DurationMin: 6}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestExecute_ZeroEssentialCategoriesBlocks(t *testing.T) {
	provider := &stubProvider{placeList: []models.Place{
		essentialPlace("Cafe Blue", "cafe", "food"),
	}}
	handler := newTestHandler(t, provider)

	output, err := handler.Execute(context.Background(), &Input{Latitude: 28.6, Longitude: 77.2})
	assert.NoError(t, err)
	assert.False(t, output.IsValid)
	assert.False(t, output.CanProceed)
	assert.Equal(t, models.RiskHigh, output.RiskLevel)
	assert.NotEmpty(t, output.Issues)
	assert.Zero(t, output.Confidence)
}

func TestExecute_NoPlacesAtAllBlocks(t *testing.T) {
	handler := newTestHandler(t, &stubProvider{})

	output, err := handler.Execute(context.Background(), &Input{Latitude: 28.6, Longitude: 77.2})
	assert.NoError(t, err)
	assert.False(t, output.IsValid)
	assert.False(t, output.CanProceed)
	assert.Equal(t, models.RiskHigh, output.RiskLevel)
}

func TestExecute_SingleCategoryHighRiskButProceeds(t *testing.T) {
	provider := &stubProvider{placeList: []models.Place{
		essentialPlace("City Clinic", "clinic"),
	}}
	handler := newTestHandler(t, provider)

	output, err := handler.Execute(context.Background(), &Input{Latitude: 28.6, Longitude: 77.2})
	assert.NoError(t, err)
	assert.True(t, output.IsValid)
	assert.True(t, output.CanProceed)
	assert.Equal(t, models.RiskHigh, output.RiskLevel)
	assert.NotEmpty(t, output.Issues)
	assert.NotEmpty(t, output.Recommendations)
	assert.InDelta(t, 0.25, output.Confidence, 0.001)
}

func TestExecute_TwoCategoriesMediumRisk(t *testing.T) {
	provider := &stubProvider{placeList: []models.Place{
		essentialPlace("City Clinic", "clinic"),
		essentialPlace("Big Bazaar", "supermarket", "store"),
	}}
	handler := newTestHandler(t, provider)

	output, err := handler.Execute(context.Background(), &Input{Latitude: 28.6, Longitude: 77.2})
	assert.NoError(t, err)
	assert.True(t, output.CanProceed)
	assert.Equal(t, models.RiskMedium, output.RiskLevel)
	assert.InDelta(t, 0.5, output.Confidence, 0.001)
}

func TestExecute_FullCoverageLowRisk(t *testing.T) {
	provider := &stubProvider{placeList: []models.Place{
		essentialPlace("Apollo Hospital", "hospital", "health"),
		essentialPlace("Metro Station", "subway_station", "transit_station"),
		essentialPlace("Big Bazaar", "supermarket", "store"),
		essentialPlace("DAV School", "school"),
	}}
	handler := newTestHandler(t, provider)

	output, err := handler.Execute(context.Background(), &Input{Latitude: 28.6, Longitude: 77.2})
	assert.NoError(t, err)
	assert.True(t, output.CanProceed)
	assert.Equal(t, models.RiskLow, output.RiskLevel)
	assert.Empty(t, output.Issues)
	assert.Equal(t, 1.0, output.Confidence)
	assert.Equal(t, 4, output.PlaceCount)
}

// ==========================
// Error Handling Tests
// ==========================

func TestExecute_InvalidCoordinate(t *testing.T) {
	handler := newTestHandler(t, &stubProvider{})

	_, err := handler.Execute(context.Background(), &Input{Latitude: 123.0, Longitude: 77.2})
	assert.Error(t, err)

	var stdErr *cmnerrors.StandardError
	assert.True(t, errors.As(err, &stdErr))
	assert.Equal(t, cmnerrors.ErrCodeInvalidInput, stdErr.Code)
}

func TestExecute_ProviderUnavailable(t *testing.T) {
	handler := newTestHandler(t, &stubProvider{err: errors.New("connection refused")})

	_, err := handler.Execute(context.Background(), &Input{Latitude: 28.6, Longitude: 77.2})
	assert.Error(t, err)

	var stdErr *cmnerrors.StandardError
	assert.True(t, errors.As(err, &stdErr))
	assert.Equal(t, cmnerrors.ErrCodeProviderUnavailable, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}
