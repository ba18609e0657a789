package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apierrors "icuboard/internal/errors"
	"icuboard/internal/explain"
	"icuboard/internal/services"
)

type fakeExplainService struct {
	err           error
	lastThreshold float64
	lastTop       int
}

func (f *fakeExplainService) GetModelInfo(ctx context.Context) (*services.ModelInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.ModelInfo{Name: "vent-risk", Features: []string{"a", "b"}, Threshold: 0.5, Samples: 4}, nil
}

func (f *fakeExplainService) GetROC(ctx context.Context) (explain.ROCCurve, error) {
	if f.err != nil {
		return explain.ROCCurve{}, f.err
	}
	return explain.ROCCurve{AUC: 0.9, HasData: true, Points: []explain.ROCPoint{}}, nil
}

func (f *fakeExplainService) GetPR(ctx context.Context) (explain.PRCurve, error) {
	if f.err != nil {
		return explain.PRCurve{}, f.err
	}
	return explain.PRCurve{AveragePrecision: 0.8, HasData: true, Points: []explain.PRPoint{}}, nil
}

func (f *fakeExplainService) GetConfusion(ctx context.Context, threshold float64) (explain.ConfusionMatrix, error) {
	if f.err != nil {
		return explain.ConfusionMatrix{}, f.err
	}
	f.lastThreshold = threshold
	return explain.ConfusionMatrix{Threshold: threshold, HasData: true}, nil
}

func (f *fakeExplainService) GetAttributions(ctx context.Context, top int) ([]explain.Attribution, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastTop = top
	return []explain.Attribution{{Feature: "a", Mean: 1}}, nil
}

var _ ExplainServiceInterface = (*fakeExplainService)(nil)

func newExplainServer(svc ExplainServiceInterface) *httptest.Server {
	handler := NewExplainHandler(svc, testLogger(), apierrors.NewErrorHandler(testLogger(), false))
	return httptest.NewServer(handler.Routes())
}

func TestExplainHandler_GetModel(t *testing.T) {
	server := newExplainServer(&fakeExplainService{})
	defer server.Close()

	status, body := getJSON(t, server.URL+"/model")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "vent-risk", body["name"])
	assert.Equal(t, float64(4), body["samples"])
}

func TestExplainHandler_ModelNotLoaded(t *testing.T) {
	server := newExplainServer(&fakeExplainService{err: services.ErrModelNotLoaded})
	defer server.Close()

	for _, path := range []string{"/model", "/roc", "/pr", "/confusion", "/attributions"} {
		status, body := getJSON(t, server.URL+path)
		assert.Equal(t, http.StatusServiceUnavailable, status, path)
		assert.Contains(t, body["type"], "model-not-loaded")
	}
}

func TestExplainHandler_Curves(t *testing.T) {
	server := newExplainServer(&fakeExplainService{})
	defer server.Close()

	status, body := getJSON(t, server.URL+"/roc")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.9, body["auc"])

	status, body = getJSON(t, server.URL+"/pr")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.8, body["average_precision"])
}

func TestExplainHandler_Confusion(t *testing.T) {
	svc := &fakeExplainService{}
	server := newExplainServer(svc)
	defer server.Close()

	status, _ := getJSON(t, server.URL+"/confusion?threshold=0.7")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.7, svc.lastThreshold)

	// No threshold means "use the model's own".
	status, _ = getJSON(t, server.URL+"/confusion")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, svc.lastThreshold)

	for _, bad := range []string{"abc", "0", "1", "-0.5", "2"} {
		status, _ := getJSON(t, server.URL+"/confusion?threshold="+bad)
		assert.Equal(t, http.StatusBadRequest, status, bad)
	}
}

func TestExplainHandler_Attributions(t *testing.T) {
	svc := &fakeExplainService{}
	server := newExplainServer(svc)
	defer server.Close()

	status, body := getJSON(t, server.URL+"/attributions?top=5")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 5, svc.lastTop)
	assert.NotNil(t, body["attributions"])

	status, _ = getJSON(t, server.URL+"/attributions?top=-1")
	assert.Equal(t, http.StatusBadRequest, status)
}
