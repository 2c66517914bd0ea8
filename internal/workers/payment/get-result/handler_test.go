// internal/workers/payment/get-result/handler_test.go
package getresult

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	cmnerrors "siteintel-workers/internal/common/errors"
	"siteintel-workers/internal/common/logger"
	"siteintel-workers/internal/common/narrative"
	"siteintel-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
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

type stubNarrative struct {
	recommendations []string
	err             error
	calls           int
}

func (s *stubNarrative) Recommendations(ctx context.Context, facts narrative.Facts) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.recommendations, nil
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

func newTestHandler(t *testing.T, db *sql.DB, narr *stubNarrative) *Handler {
	return NewHandler(LoadConfig(), db, nil, narr, &testLogger{t: t})
}

func testReport(t *testing.T) []byte {
	report := models.ScoredReport{
		LocationScore:    4.1,
		GrowthPrediction: 14.5,
		NearbyPlaces: []models.Place{
			{Name: "Apollo Hospital", Categories: []string{"hospital", "health"}, DistanceKm: 0.4, DurationMin: 4.8},
			{Name: "Metro Station", Categories: []string{"subway_station"}, DistanceKm: 0.6, DurationMin: 7.2},
			{Name: "Big Bazaar", Categories: []string{"supermarket"}, DistanceKm: 0.8, DurationMin: 9.6},
			{Name: "DAV School", Categories: []string{"school"}, DistanceKm: 1.0, DurationMin: 12},
			{Name: "Cafe Blue", Categories: []string{"cafe"}, DistanceKm: 1.2, DurationMin: 14.4},
		},
		Distances: map[string]models.Distance{
			"Apollo Hospital": {DistanceKm: 0.4, DurationMin: 4.8},
			"Metro Station":   {DistanceKm: 0.6, DurationMin: 7.2},
			"Big Bazaar":      {DistanceKm: 0.8, DurationMin: 9.6},
			"DAV School":      {DistanceKm: 1.0, DurationMin: 12},
			"Cafe Blue":       {DistanceKm: 1.2, DurationMin: 14.4},
		},
	}
	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("failed to marshal test report: %v", err)
	}
	return data
}

func sessionColumns() []string {
	return []string{"id", "plan_tier", "amount", "status", "property_type", "result"}
}

func expectSession(t *testing.T, mock sqlmock.Sqlmock, id, tier, status string) {
	mock.ExpectQuery("SELECT id, plan_tier").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(sessionColumns()).
			AddRow(id, tier, 199, status, "retail", testReport(t)))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestExecute_FreeTierReadsImmediately(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	expectSession(t, mock, "sess-free", "free", "pending")

	output, err := newTestHandler(t, db, nil).Execute(context.Background(), &Input{SessionID: "sess-free"})
	assert.NoError(t, err)

	assert.Equal(t, 4.1, output.LocationScore)
	assert.Nil(t, output.GrowthPrediction, "free view must not expose growth prediction")
	assert.LessOrEqual(t, len(output.NearbyPlaces), 3)
	assert.LessOrEqual(t, len(output.Distances), 3)
	assert.Empty(t, output.Recommendations)
}

func TestExecute_PaidTierGetsFullView(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	expectSession(t, mock, "sess-paid", "paid", "paid")

	output, err := newTestHandler(t, db, nil).Execute(context.Background(), &Input{SessionID: "sess-paid"})
	assert.NoError(t, err)

	assert.Equal(t, 4.1, output.LocationScore)
	if assert.NotNil(t, output.GrowthPrediction) {
		assert.Equal(t, 14.5, *output.GrowthPrediction)
	}
	assert.Len(t, output.NearbyPlaces, 5)
	assert.Len(t, output.Distances, 5)
}

func TestExecute_ProTierGetsRecommendations(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	expectSession(t, mock, "sess-pro", "pro", "paid")

	narr := &stubNarrative{recommendations: []string{"strong transit access", "dense retail cluster"}}
	output, err := newTestHandler(t, db, narr).Execute(context.Background(), &Input{SessionID: "sess-pro"})
	assert.NoError(t, err)

	assert.Equal(t, []string{"strong transit access", "dense retail cluster"}, output.Recommendations)
	assert.Equal(t, 1, narr.calls)
	assert.Empty(t, output.Warnings)
}

func TestExecute_NarrativeFailureDegradesGracefully(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	expectSession(t, mock, "sess-pro", "pro", "paid")

	narr := &stubNarrative{err: context.DeadlineExceeded}
	output, err := newTestHandler(t, db, narr).Execute(context.Background(), &Input{SessionID: "sess-pro"})

	// The read still succeeds with score and growth, only recommendations drop.
	assert.NoError(t, err)
	assert.Equal(t, 4.1, output.LocationScore)
	assert.NotNil(t, output.GrowthPrediction)
	assert.Empty(t, output.Recommendations)
	assert.NotEmpty(t, output.Warnings)
}

func TestExecute_PaidTierNarrativeNotCalled(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	expectSession(t, mock, "sess-paid", "paid", "paid")

	narr := &stubNarrative{recommendations: []string{"should not appear"}}
	output, err := newTestHandler(t, db, narr).Execute(context.Background(), &Input{SessionID: "sess-paid"})
	assert.NoError(t, err)
	assert.Empty(t, output.Recommendations)
	assert.Zero(t, narr.calls)
}

// ==========================
// Error Handling Tests
// ==========================

func TestExecute_UnpaidPaidTierBlocked(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	expectSession(t, mock, "sess-paid", "paid", "pending")

	_, err := newTestHandler(t, db, nil).Execute(context.Background(), &Input{SessionID: "sess-paid"})
	assert.Error(t, err)

	var stdErr *cmnerrors.StandardError
	assert.True(t, errors.As(err, &stdErr))
	assert.Equal(t, cmnerrors.ErrCodeNotPaid, stdErr.Code)
}

func TestExecute_UnknownSession(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, plan_tier").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := newTestHandler(t, db, nil).Execute(context.Background(), &Input{SessionID: "missing"})
	assert.Error(t, err)

	var stdErr *cmnerrors.StandardError
	assert.True(t, errors.As(err, &stdErr))
	assert.Equal(t, cmnerrors.ErrCodeUnknownSession, stdErr.Code)
}

func TestExecute_EmptySessionID(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	_, err := newTestHandler(t, db, nil).Execute(context.Background(), &Input{})
	assert.Error(t, err)

	var stdErr *cmnerrors.StandardError
	assert.True(t, errors.As(err, &stdErr))
	assert.Equal(t, cmnerrors.ErrCodeInvalidInput, stdErr.Code)
}
