package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeOTel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	providers, err := InitializeOTel(logger, true)
	require.NoError(t, err)
	require.NotNil(t, providers)
	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.RequestCounter)
	assert.NotNil(t, providers.RequestDuration)

	providers.RecordRequest(context.Background(), http.MethodGet, "/api/healthz", http.StatusOK, 5*time.Millisecond)

	recorder := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	require.NoError(t, providers.Shutdown(context.Background()))
}
