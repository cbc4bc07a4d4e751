package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"broker-scout/internal/logger"
	"broker-scout/internal/models"
	"broker-scout/mocks"
)

func newTestServer(t *testing.T) (*server, *mocks.MockStatusStore) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	statusStore := mocks.NewMockStatusStore(ctrl)
	return newServer(statusStore, logger.NewNop(), prometheus.NewRegistry()), statusStore
}

func TestHandleRunStatus(t *testing.T) {
	srv, statusStore := newTestServer(t)
	want := models.CrawlStatus{RunID: "r1", Place: "oregon", State: models.RunStateDone, Advertised: 12, Emitted: 11, Failed: 1}
	statusStore.EXPECT().GetStatus(gomock.Any(), "oregon").Return(want, true, nil)

	req := httptest.NewRequest(http.MethodGet, "/runs/oregon", nil)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var got models.CrawlStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, want, got)
}

func TestHandleRunStatusNotFound(t *testing.T) {
	srv, statusStore := newTestServer(t)
	statusStore.EXPECT().GetStatus(gomock.Any(), "utah").Return(models.CrawlStatus{}, false, nil)

	req := httptest.NewRequest(http.MethodGet, "/runs/utah/", nil)
	rec := httptest.NewRecorder()
	srv.handleRunStatus(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRunStatusStoreError(t *testing.T) {
	srv, statusStore := newTestServer(t)
	statusStore.EXPECT().GetStatus(gomock.Any(), gomock.Any()).Return(models.CrawlStatus{}, false, errors.New("redis down"))

	req := httptest.NewRequest(http.MethodGet, "/runs/ohio", nil)
	rec := httptest.NewRecorder()
	srv.handleRunStatus(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleRunStatusMissingPlace(t *testing.T) {
	srv, statusStore := newTestServer(t)
	statusStore.EXPECT().GetStatus(gomock.Any(), gomock.Any()).Times(0)

	req := httptest.NewRequest(http.MethodGet, "/runs/", nil)
	rec := httptest.NewRecorder()
	srv.handleRunStatus(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRunStatusMethodNotAllowed(t *testing.T) {
	srv, statusStore := newTestServer(t)
	statusStore.EXPECT().GetStatus(gomock.Any(), gomock.Any()).Times(0)

	req := httptest.NewRequest(http.MethodPost, "/runs/oregon", nil)
	rec := httptest.NewRecorder()
	srv.handleRunStatus(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleMetrics(t *testing.T) {
	srv, statusStore := newTestServer(t)
	statusStore.EXPECT().GetStatus(gomock.Any(), gomock.Any()).Return(models.CrawlStatus{}, false, nil)
	srv.handleRunStatus(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/runs/x", nil))

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "broker_scout_status_api_up 1")
	assert.Contains(t, body, `broker_scout_status_api_requests_total{code="404"} 1`)
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, serve(ctx, "127.0.0.1:0", http.NotFoundHandler(), logger.NewNop()))
}

func TestRunReturnsListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := apiConfig{RedisAddr: "127.0.0.1:1", Addr: busy.Addr().String(), TTL: time.Hour}
	err = run(context.Background(), cfg, logger.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), busy.Addr().String())
}
