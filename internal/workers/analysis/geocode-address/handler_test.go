// internal/workers/analysis/geocode-address/handler_test.go
package geocodeaddress

import (
	"context"
	"errors"
	"fmt"
	"testing"

	cmnerrors "siteintel-workers/internal/common/errors"
	"siteintel-workers/internal/common/logger"
	"siteintel-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

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

type stubGeocoder struct {
	coord     models.Coordinate
	formatted string
	err       error
	calls     int
}

func (s *stubGeocoder) Geocode(ctx context.Context, address string) (models.Coordinate, string, error) {
	s.calls++
	if s.err != nil {
		return models.Coordinate{}, "", s.err
	}
	return s.coord, s.formatted, nil
}

func newTestHandler(t *testing.T, geocoder *stubGeocoder) *Handler {
	return NewHandler(LoadConfig(), geocoder, nil, &testLogger{t: t})
}

func TestExecute_ResolvesAddress(t *testing.T) {
	geocoder := &stubGeocoder{
		coord:     models.Coordinate{Lat: 28.6315, Lng: 77.2167},
		formatted: "Connaught Place, New Delhi, Delhi, India",
	}
	handler := newTestHandler(t, geocoder)

	output, err := handler.Execute(context.Background(), &Input{Address: "Connaught Place Delhi"})
	assert.NoError(t, err)
	assert.Equal(t, 28.6315, output.Latitude)
	assert.Equal(t, 77.2167, output.Longitude)
	assert.Equal(t, "Connaught Place, New Delhi, Delhi, India", output.FormattedAddress)
}

func TestExecute_EmptyAddress(t *testing.T) {
	handler := newTestHandler(t, &stubGeocoder{})

	_, err := handler.Execute(context.Background(), &Input{Address: "   "})
	assert.Error(t, err)

	var stdErr *cmnerrors.StandardError
	assert.True(t, errors.As(err, &stdErr))
	assert.Equal(t, cmnerrors.ErrCodeInvalidInput, stdErr.Code)
}

func TestExecute_NoMatch(t *testing.T) {
	geocoder := &stubGeocoder{err: fmt.Errorf("no results for address %q", "xyzzy")}
	handler := newTestHandler(t, geocoder)

	_, err := handler.Execute(context.Background(), &Input{Address: "xyzzy"})
	assert.Error(t, err)

	var stdErr *cmnerrors.StandardError
	assert.True(t, errors.As(err, &stdErr))
	assert.Equal(t, cmnerrors.ErrCodeInsufficientData, stdErr.Code)
}

func TestExecute_CachesResolvedAddress(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	geocoder := &stubGeocoder{
		coord:     models.Coordinate{Lat: 28.6315, Lng: 77.2167},
		formatted: "Connaught Place, New Delhi, Delhi, India",
	}
	handler := NewHandler(LoadConfig(), geocoder, redisClient, &testLogger{t: t})

	first, err := handler.Execute(context.Background(), &Input{Address: "Connaught Place Delhi"})
	assert.NoError(t, err)

	// Case differences must not defeat the cache.
	second, err := handler.Execute(context.Background(), &Input{Address: "CONNAUGHT PLACE DELHI"})
	assert.NoError(t, err)

	assert.Equal(t, 1, geocoder.calls)
	assert.Equal(t, first.FormattedAddress, second.FormattedAddress)
}

func TestExecute_ProviderDown(t *testing.T) {
	geocoder := &stubGeocoder{err: errors.New("connection refused")}
	handler := newTestHandler(t, geocoder)

	_, err := handler.Execute(context.Background(), &Input{Address: "Connaught Place"})
	assert.Error(t, err)

	var stdErr *cmnerrors.StandardError
	assert.True(t, errors.As(err, &stdErr))
	assert.Equal(t, cmnerrors.ErrCodeProviderUnavailable, stdErr.Code)
}
