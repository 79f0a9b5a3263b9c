package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eosphase/app"
	"eosphase/domain/core"
	"eosphase/domain/run"
	"eosphase/internal"
	"eosphase/internal/errors"
	"eosphase/internal/features"
	"eosphase/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRuns struct {
	mock.Mock
}

func (m *MockRuns) List(ctx context.Context, limit int) ([]*run.LedgerEntry, error) {
	args := m.Called(ctx, limit)
	entries, _ := args.Get(0).([]*run.LedgerEntry)
	return entries, args.Error(1)
}

func (m *MockRuns) Get(ctx context.Context, id core.RunID) (*run.LedgerEntry, error) {
	args := m.Called(ctx, id)
	entry, _ := args.Get(0).(*run.LedgerEntry)
	return entry, args.Error(1)
}

// trainOnlyModel fits logistic regression on standardized features where the
// quark phase is T above its mean, and attaches statistics centred at T=150.
func trainOnlyModel(t *testing.T) *model.Model {
	t.Helper()
	names := features.Names()
	rng := rand.New(rand.NewSource(1))
	n := 200
	values := make([]float64, n*len(names))
	y := make([]int, n)
	for i := 0; i < n; i++ {
		for j := range names {
			values[i*len(names)+j] = rng.NormFloat64()
		}
		if values[i*len(names)+1] > 0 {
			y[i] = 1
		}
	}
	X, err := features.NewFeatureMatrix(names, n, values)
	require.NoError(t, err)
	m, err := model.Train(X, y, model.KindLogReg)
	require.NoError(t, err)

	st := &features.Stats{}
	for _, name := range features.BaseColumns {
		cs := features.ColumnStats{Name: name, Mean: 0, Std: 1}
		if name == "T" {
			cs = features.ColumnStats{Name: name, Mean: 150, Std: 50}
		}
		st.Columns = append(st.Columns, cs)
	}
	return m.WithStats(features.TrainOnly, st)
}

func newTestServer(t *testing.T, runs *MockRuns) *Server {
	t.Helper()
	logger := internal.NewLoggerTo(&bytes.Buffer{}, internal.LogLevelError, "api")
	if runs == nil {
		return NewServer(app.NewPredictor(trainOnlyModel(t)), nil, logger)
	}
	return NewServer(app.NewPredictor(trainOnlyModel(t)), runs, logger)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","model":"logreg"}`, rec.Body.String())
}

func TestPredict(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
		phase  string
	}{
		{"hot", `{"YQ":0.1,"T":260,"muB_H":0,"muB_Q":0,"muQ_H":0,"muQ_Q":0}`, http.StatusOK, "quark"},
		{"cold", `{"YQ":0.1,"T":40,"muB_H":0,"muB_Q":0,"muQ_H":0,"muQ_Q":0}`, http.StatusOK, "hadron"},
		{"bad json", `{"YQ":`, http.StatusBadRequest, ""},
		{"missing field", `{"YQ":0.1,"T":40}`, http.StatusBadRequest, ""},
		{"wrong type", `{"YQ":"a","T":40,"muB_H":0,"muB_Q":0,"muQ_H":0,"muQ_Q":0}`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(tt.body))
			srv.Handler().ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			if tt.status != http.StatusOK {
				assert.Contains(t, resp, "error")
				return
			}
			assert.Equal(t, tt.phase, resp["phase"])
			want := 0.0
			if tt.phase == "quark" {
				want = 1
			}
			assert.Equal(t, want, resp["phase_pred"])
		})
	}
}

func TestRunsRoutes(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	runs := &MockRuns{}
	id := core.NewRunID()
	entry := &run.LedgerEntry{Manifest: run.RunManifest{RunID: id}, Metrics: json.RawMessage(`{}`)}
	runs.On("List", mock.Anything, 5).Return([]*run.LedgerEntry{entry}, nil)
	runs.On("Get", mock.Anything, id).Return(entry, nil)
	missing := core.NewRunID()
	runs.On("Get", mock.Anything, missing).Return(nil, errors.NotFound("run"))
	srv := newTestServer(t, runs)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs?limit=5", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id.String())

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+id.String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+missing.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	runs.AssertExpectations(t)
}
