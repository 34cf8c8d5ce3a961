package httphandler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/ericfisherdev/atomicserver/internal/adapter/driving/http"
	"github.com/ericfisherdev/atomicserver/internal/application"
	"github.com/ericfisherdev/atomicserver/internal/domain/model"
)

// --- Mock implementations ---

type mockLink struct {
	ip net.IP
}

func (m *mockLink) LocalIP() (net.IP, bool) { return m.ip, m.ip != nil }

type mockBootStore struct {
	records  []model.BootRecord
	err      error
	gotLimit int
}

func (m *mockBootStore) Record(_ context.Context, rec model.BootRecord) (model.BootRecord, error) {
	return rec, nil
}

func (m *mockBootStore) ListRecent(_ context.Context, limit int) ([]model.BootRecord, error) {
	m.gotLimit = limit
	return m.records, m.err
}

func (m *mockBootStore) Latest(_ context.Context) (*model.BootRecord, error) { return nil, nil }

// --- Test helpers ---

var testTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func setupMux(link *mockLink, store *mockBootStore) http.Handler {
	statusSvc := application.NewStatusService(link, "aria")

	var h *httphandler.Handler
	if store == nil {
		h = httphandler.NewHandler(statusSvc, nil, slog.Default())
	} else {
		h = httphandler.NewHandler(statusSvc, store, slog.Default())
	}

	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, h)
	return httphandler.ApplyMiddleware(mux, slog.Default())
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

// --- Status ---

func TestStatus_Connected(t *testing.T) {
	mux := setupMux(&mockLink{ip: net.ParseIP("192.168.1.42").To4()}, &mockBootStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ip":"192.168.1.42","host":"aria"}`, rec.Body.String())
}

func TestStatus_Disconnected(t *testing.T) {
	mux := setupMux(&mockLink{}, &mockBootStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp httphandler.StatusResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "0.0.0.0", resp.IP)
	assert.Equal(t, "aria", resp.Host)
}

// --- Boots ---

func TestListBoots(t *testing.T) {
	store := &mockBootStore{records: []model.BootRecord{
		{
			ID:         2,
			StartedAt:  testTime.Add(time.Hour),
			FinishedAt: testTime.Add(time.Hour + 1500*time.Millisecond),
			Outcome:    model.BootOutcomeOnline,
			SSID:       "homenet",
			IP:         "192.168.1.42",
			Hostname:   "aria",
			MDNSActive: true,
		},
		{
			ID:         1,
			StartedAt:  testTime,
			FinishedAt: testTime.Add(20 * time.Second),
			Outcome:    model.BootOutcomeOffline,
			SSID:       "homenet",
			Hostname:   "aria",
			Error:      "wifi connect timeout after 20s",
		},
	}}
	mux := setupMux(&mockLink{}, store)

	req := httptest.NewRequest(http.MethodGet, "/api/boots", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, store.gotLimit)

	var resp []httphandler.BootRecordResponse
	decodeJSON(t, rec, &resp)
	require.Len(t, resp, 2)

	assert.Equal(t, int64(2), resp[0].ID)
	assert.Equal(t, "online", resp[0].Outcome)
	assert.Equal(t, int64(1500), resp[0].DurationMS)
	assert.True(t, resp[0].MDNSActive)
	assert.Equal(t, "2026-03-14T10:00:00Z", resp[0].StartedAt)
	assert.Empty(t, resp[0].Error)

	assert.Equal(t, "offline", resp[1].Outcome)
	assert.Equal(t, "wifi connect timeout after 20s", resp[1].Error)
}

func TestListBoots_Limit(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantLimit int
	}{
		{name: "explicit", query: "?limit=5", wantCode: http.StatusOK, wantLimit: 5},
		{name: "clamped", query: "?limit=5000", wantCode: http.StatusOK, wantLimit: 100},
		{name: "zero", query: "?limit=0", wantCode: http.StatusBadRequest},
		{name: "not a number", query: "?limit=many", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockBootStore{}
			mux := setupMux(&mockLink{}, store)

			req := httptest.NewRequest(http.MethodGet, "/api/boots"+tt.query, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantLimit, store.gotLimit)
				assert.JSONEq(t, `[]`, rec.Body.String())
			}
		})
	}
}

func TestListBoots_StoreError(t *testing.T) {
	mux := setupMux(&mockLink{}, &mockBootStore{err: errors.New("database is locked")})

	req := httptest.NewRequest(http.MethodGet, "/api/boots", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestListBoots_NoJournal(t *testing.T) {
	mux := setupMux(&mockLink{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/boots", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// --- Health ---

func TestHealth(t *testing.T) {
	mux := setupMux(&mockLink{}, &mockBootStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp httphandler.HealthResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	_, err := time.Parse(time.RFC3339, resp.Time)
	assert.NoError(t, err)
}

// --- Middleware ---

func TestMiddleware_RecoversPanic(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})
	handler := httphandler.ApplyMiddleware(mux, logger)

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, logs.String(), "panic recovered")
	assert.Contains(t, logs.String(), "kaboom")
	assert.Contains(t, logs.String(), "status=500")
}
