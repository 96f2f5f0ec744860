package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gosprt/internal/config"
	"gosprt/internal/errors"
	"gosprt/internal/testkit"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	kit := testkit.NewTestKit()
	defaults := config.SimulationConfig{Trials: 20, Workers: 4, Seed: 42, Alpha: 0.05, MaxTrials: 100, MaxN: 10000}
	return NewRouter(NewHandler(kit.SimulationRunner(), defaults, kit.Logger()))
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestComputeRatios_WorkedScenarios(t *testing.T) {
	router := newTestRouter(t)

	for _, sc := range testkit.WorkedScenarios() {
		t.Run(sc.Name, func(t *testing.T) {
			w := postJSON(t, router, "/api/v1/ratios", RatiosRequest{
				Outcomes: sc.Outcomes, N: sc.Hypotheses.N, P0: sc.Hypotheses.P0, P1: sc.Hypotheses.P1,
			})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp struct {
				Ratios   []float64 `json:"ratios"`
				Evidence string    `json:"evidence"`
				Decision *struct{} `json:"decision"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Len(t, resp.Ratios, len(sc.Want))
			for i := range sc.Want {
				assert.InDelta(t, sc.Want[i], resp.Ratios[i], 1e-12)
			}
			assert.Equal(t, "finite", resp.Evidence)
			assert.Nil(t, resp.Decision)
		})
	}
}

func TestComputeRatios_EncodesNonFinite(t *testing.T) {
	router := newTestRouter(t)
	alpha := 0.05

	w := postJSON(t, router, "/api/v1/ratios", RatiosRequest{
		Outcomes: []int{1, 1, 1, 0, 0, 0}, N: 10, P0: 0.2, P1: 0.8, Alpha: &alpha,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Ratios   []json.RawMessage `json:"ratios"`
		Evidence string            `json:"evidence"`
		Decision struct {
			Rejected   bool   `json:"rejected"`
			Draws      int    `json:"draws"`
			FinalRatio string `json:"final_ratio"`
		} `json:"decision"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, `4`, string(resp.Ratios[0]))
	assert.Equal(t, `"+Inf"`, string(resp.Ratios[2]))
	assert.Equal(t, `"indeterminate"`, string(resp.Ratios[5]))
	assert.Equal(t, "indeterminate", resp.Evidence)
	assert.True(t, resp.Decision.Rejected)
	assert.Equal(t, 2, resp.Decision.Draws)
	assert.Equal(t, "indeterminate", resp.Decision.FinalRatio)
}

func TestComputeRatios_Rejections(t *testing.T) {
	router := newTestRouter(t)
	badAlpha := 2.0

	tests := []struct {
		name string
		body interface{}
	}{
		{"too many draws", RatiosRequest{Outcomes: []int{1, 0, 1}, N: 2, P0: 0.2, P1: 0.5}},
		{"reversed hypotheses", RatiosRequest{Outcomes: []int{1}, N: 2, P0: 0.6, P1: 0.5}},
		{"non binary", RatiosRequest{Outcomes: []int{3}, N: 2, P0: 0.2, P1: 0.5}},
		{"bad alpha", RatiosRequest{Outcomes: []int{1}, N: 2, P0: 0.2, P1: 0.5, Alpha: &badAlpha}},
		{"malformed", "not an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/v1/ratios", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, errors.CodeInvalidInput, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRunSimulation(t *testing.T) {
	router := newTestRouter(t)
	seed := uint64(3)

	w := postJSON(t, router, "/api/v1/simulations", SimulationRequest{
		N: 100, P: 0.7, P0: 0.5, P1: 0.7, Trials: 10, Seed: &seed,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		RunID  string `json:"run_id"`
		Config struct {
			Alpha   float64 `json:"alpha"`
			Trials  int     `json:"trials"`
			Seed    uint64  `json:"seed"`
			Workers int     `json:"workers"`
		} `json:"config"`
		Trials  []map[string]interface{} `json:"trials"`
		Summary struct {
			Trials        int     `json:"trials"`
			RejectionRate float64 `json:"rejection_rate"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, 0.05, resp.Config.Alpha)
	assert.Equal(t, 10, resp.Config.Trials)
	assert.Equal(t, uint64(3), resp.Config.Seed)
	assert.Equal(t, 4, resp.Config.Workers)
	assert.Len(t, resp.Trials, 10)
	assert.Equal(t, 10, resp.Summary.Trials)
	assert.Equal(t, 1.0, resp.Summary.RejectionRate)
}

func TestRunSimulation_NoOnesPopulation(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/simulations", SimulationRequest{
		N: 50, P: 0, P0: 0.5, P1: 0.7, Trials: 5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Trials []struct {
			Rejected bool `json:"rejected"`
			Draws    int  `json:"draws"`
		} `json:"trials"`
		Summary struct {
			RejectionRate float64 `json:"rejection_rate"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Trials, 5)
	for _, trial := range resp.Trials {
		assert.False(t, trial.Rejected)
		assert.Equal(t, 50, trial.Draws)
	}
	assert.Equal(t, 0.0, resp.Summary.RejectionRate)
}

func TestRunSimulation_Rejections(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body SimulationRequest
	}{
		{"over trial limit", SimulationRequest{N: 100, P: 0.7, P0: 0.5, P1: 0.7, Trials: 1000}},
		{"bad fraction", SimulationRequest{N: 100, P: 1.7, P0: 0.5, P1: 0.7}},
		{"bad population", SimulationRequest{N: 0, P: 0.7, P0: 0.5, P1: 0.7}},
		{"over population limit", SimulationRequest{N: 2000000000, P: 0.7, P0: 0.5, P1: 0.7, Trials: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/v1/simulations", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestExportSimulation(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/simulations/workbook", SimulationRequest{
		N: 50, P: 0.7, P0: 0.5, P1: 0.7, Trials: 5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Trials")
	require.NoError(t, err)
	assert.Len(t, rows, 6)
}

func TestRatioMarshalJSON(t *testing.T) {
	out, err := json.Marshal([]Ratio{1.5, 0, Ratio(math.Inf(1)), Ratio(math.NaN())})
	require.NoError(t, err)
	assert.Equal(t, `[1.5,0,"+Inf","indeterminate"]`, string(out))
}
