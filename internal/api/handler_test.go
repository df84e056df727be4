package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oraclesim/domain/oracle"
	"oraclesim/domain/run"
	"oraclesim/internal/errors"
	"oraclesim/internal/testkit"
)

func newTestRouter() http.Handler {
	kit := testkit.NewTestKit()
	handler := NewSimulationHandler(kit.MonteCarloService(2), kit.Logger(), 42)
	return NewRouter(handler, time.Minute)
}

func post(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, testkit.TestCodeVersion, body["code_version"])
}

func TestHandleSimulations(t *testing.T) {
	router := newTestRouter()
	rec := post(t, router, "/api/simulations", `{"config":{"num_jurors":5,"attack":true,"payoff_type":"Symbiotic"},"runs":30,"seed":9}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result oracle.AggregateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 30, result.TotalRuns)
	assert.Equal(t, int64(9), result.Seed)
	assert.Equal(t, 5, result.Config.NumJurors)
	assert.Equal(t, oracle.PayoffSymbiotic, result.Config.PayoffType)
	assert.Equal(t, 0.7, result.Config.Honesty)
	assert.NotNil(t, result.AttackSuccessRate)
	assert.Len(t, result.History, 30)

	again := post(t, router, "/api/simulations?history=false", `{"config":{"num_jurors":5,"attack":true,"payoff_type":"Symbiotic"},"runs":30,"seed":9}`)
	require.Equal(t, http.StatusOK, again.Code)
	var trimmed oracle.AggregateResult
	require.NoError(t, json.Unmarshal(again.Body.Bytes(), &trimmed))
	assert.Empty(t, trimmed.History)
	assert.Equal(t, result.OutcomeCounts, trimmed.OutcomeCounts)
}

func TestHandleSimulations_EmptyBodyUsesDefaults(t *testing.T) {
	rec := post(t, newTestRouter(), "/api/simulations?history=false", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result oracle.AggregateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1000, result.TotalRuns)
	assert.Equal(t, int64(42), result.Seed)
	assert.Equal(t, 11, result.Config.NumJurors)
}

func TestHandleSimulations_BadRequests(t *testing.T) {
	router := newTestRouter()
	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"config":`, errors.CodeInvalidInput},
		{"unknown field", `{"jurors":3}`, errors.CodeInvalidInput},
		{"zero jurors", `{"config":{"num_jurors":0},"runs":5}`, errors.CodeInvalidInput},
		{"unknown payoff", `{"config":{"payoff_type":"quadratic"},"runs":5}`, errors.CodeInvalidInput},
		{"honesty out of range", `{"config":{"honesty":1.5},"runs":5}`, errors.CodeInvalidInput},
		{"zero runs", `{"runs":0}`, errors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, router, "/api/simulations", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHandleAppeals(t *testing.T) {
	rec := post(t, newTestRouter(), "/api/appeals",
		`{"config":{"num_jurors":3,"attack":true},"appeal":{"appeal_prob":1,"max_appeals":2},"runs":10,"seed":1,"record_all_levels":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result oracle.AppealAggregateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, []int{3, 7, 15}, result.NumJurorsByLevel())
	assert.Len(t, result.Records, 30)
	assert.NotNil(t, result.MeanAttackEffect)
	assert.Contains(t, rec.Body.String(), `"num_jurors_by_level":[3,7,15]`)
	assert.Contains(t, rec.Body.String(), `"avg_votes_x_by_level"`)
}

func TestHandleAppeals_InvalidAppeal(t *testing.T) {
	rec := post(t, newTestRouter(), "/api/appeals", `{"appeal":{"appeal_prob":2,"max_appeals":1},"runs":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	deep := post(t, newTestRouter(), "/api/appeals", `{"appeal":{"appeal_prob":0,"max_appeals":9223372036854775807},"runs":5}`)
	assert.Equal(t, http.StatusBadRequest, deep.Code)

	wide := post(t, newTestRouter(), "/api/payoffs/matrix", `{"config":{"num_jurors":100000000}}`)
	assert.Equal(t, http.StatusBadRequest, wide.Code)
}

func TestHandleFingerprint(t *testing.T) {
	router := newTestRouter()

	rounds := post(t, router, "/api/fingerprint", `{"runs":100,"seed":7}`)
	require.Equal(t, http.StatusOK, rounds.Code, rounds.Body.String())
	var a FingerprintResponse
	require.NoError(t, json.Unmarshal(rounds.Body.Bytes(), &a))
	assert.Equal(t, run.KindRounds, a.Kind)
	assert.Equal(t, int64(7), a.Fingerprint.Seed)
	assert.Empty(t, a.Fingerprint.AppealHash)

	appeals := post(t, router, "/api/fingerprint", `{"runs":100,"seed":7,"appeal":{"appeal_prob":0.5,"max_appeals":2}}`)
	require.Equal(t, http.StatusOK, appeals.Code)
	var b FingerprintResponse
	require.NoError(t, json.Unmarshal(appeals.Body.Bytes(), &b))
	assert.Equal(t, run.KindAppeals, b.Kind)
	assert.False(t, a.Fingerprint.Matches(b.Fingerprint))
	assert.Equal(t, a.Fingerprint.ConfigHash, b.Fingerprint.ConfigHash)

	allLevels := post(t, router, "/api/fingerprint",
		`{"runs":100,"seed":7,"appeal":{"appeal_prob":0.5,"max_appeals":2},"record_all_levels":true}`)
	require.Equal(t, http.StatusOK, allLevels.Code)
	var c FingerprintResponse
	require.NoError(t, json.Unmarshal(allLevels.Body.Bytes(), &c))
	assert.False(t, b.Fingerprint.Matches(c.Fingerprint))
	assert.NotEqual(t, b.Fingerprint.AppealHash, c.Fingerprint.AppealHash)
}

func TestHandlePayoffMatrix(t *testing.T) {
	rec := post(t, newTestRouter(), "/api/payoffs/matrix", `{"config":{"num_jurors":3,"p":1,"d":1,"attack":true,"epsilon":0.5}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PayoffMatrixResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 3)
	assert.Equal(t, 1.5, resp.Compensation)
	for othersX, row := range resp.Rows {
		assert.Equal(t, othersX, row.OthersX)
		assert.Equal(t, 2.0, row.VoteXWinsX)
		assert.Equal(t, 0.0, row.VoteXWinsY)
		assert.Equal(t, 1.5, row.VoteYWinsX)
		assert.Equal(t, 2.0, row.VoteYWinsY)
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(errors.CodeConfigInvalid))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(errors.CodeCancelled))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.CodeExportFailed))
	assert.Equal(t, http.StatusInternalServerError, statusFor("UNKNOWN"))
}
