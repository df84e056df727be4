package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"oraclesim/domain/oracle"
	"oraclesim/domain/run"
	"oraclesim/internal"
	"oraclesim/internal/config"
	"oraclesim/internal/errors"
	"oraclesim/internal/testkit"
)

func testDeps(exporter *testkit.MockExporter) *deps {
	return &deps{
		appConfig: &config.Config{Simulation: config.SimulationConfig{
			Seed:        42,
			Workers:     2,
			MaxRuns:     10000,
			CodeVersion: testkit.TestCodeVersion,
		}},
		logger:   internal.NewNopLogger(),
		exporter: exporter,
	}
}

func execute(t *testing.T, d *deps, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(d)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand_Summary(t *testing.T) {
	out, err := execute(t, testDeps(nil), "run", "--runs", "50", "--jurors", "7", "--attack", "--show-matrix")
	require.NoError(t, err)

	assert.Contains(t, out, "Payoff matrix")
	assert.Contains(t, out, "Round simulation")
	assert.Contains(t, out, "jurors=7")
	assert.Contains(t, out, "Attack success rate")
}

func TestRunCommand_JSONIsDeterministic(t *testing.T) {
	args := []string{"run", "--runs", "40", "--seed", "5", "--payoff", "redistributive", "--json"}

	first, err := execute(t, testDeps(nil), args...)
	require.NoError(t, err)
	second, err := execute(t, testDeps(nil), append(args, "--workers", "1")...)
	require.NoError(t, err)

	var a, b oracle.AggregateResult
	require.NoError(t, json.Unmarshal([]byte(first), &a))
	require.NoError(t, json.Unmarshal([]byte(second), &b))
	assert.Equal(t, a.History, b.History)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.Equal(t, oracle.PayoffRedistributive, a.Config.PayoffType)
	assert.Nil(t, a.AttackSuccessRate)
}

func TestRunCommand_Export(t *testing.T) {
	exporter := &testkit.MockExporter{}
	exporter.On("ExportRounds", mock.Anything, mock.MatchedBy(func(r *oracle.AggregateResult) bool {
		return r.TotalRuns == 25
	}), "out.xlsx").Return(nil).Once()

	out, err := execute(t, testDeps(exporter), "run", "--runs", "25", "--export", "out.xlsx")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 25 rounds to out.xlsx")
	exporter.AssertExpectations(t)
}

func TestRunCommand_ExportFailure(t *testing.T) {
	exporter := &testkit.MockExporter{}
	exporter.On("ExportRounds", mock.Anything, mock.Anything, "bad.xlsx").
		Return(errors.ExportFailed("bad.xlsx", os.ErrPermission))

	_, err := execute(t, testDeps(exporter), "run", "--runs", "5", "--export", "bad.xlsx")
	assert.Equal(t, errors.CodeExportFailed, errors.GetCode(err))
}

func TestRunCommand_RejectsInvalidConfig(t *testing.T) {
	_, err := execute(t, testDeps(nil), "run", "--jurors", "0")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = execute(t, testDeps(nil), "run", "--payoff", "lottery")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestRunCommand_Scenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: small-attack
runs: 30
seed: 11
oracle:
  num_jurors: 5
  payoff_type: symbiotic
  attack: true
  bribery_policy: full_panel
`), 0o644))

	out, err := execute(t, testDeps(nil), "run", "--scenario", path, "--json")
	require.NoError(t, err)

	var result oracle.AggregateResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 30, result.TotalRuns)
	assert.Equal(t, int64(11), result.Seed)
	assert.Equal(t, oracle.BriberyFullPanel, result.Config.BriberyPolicy)
	require.NotNil(t, result.AttackSuccessRate)
	assert.Equal(t, 1.0, *result.AttackSuccessRate)

	out, err = execute(t, testDeps(nil), "run", "--scenario", path, "--runs", "12", "--seed", "3", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 12, result.TotalRuns)
	assert.Equal(t, int64(3), result.Seed)
}

func TestAppealsCommand(t *testing.T) {
	exporter := &testkit.MockExporter{}
	exporter.On("ExportAppeals", mock.Anything, mock.Anything, "appeals.csv").Return(nil).Once()

	out, err := execute(t, testDeps(exporter), "appeals", "--runs", "20", "--jurors", "3", "--attack",
		"--appeal-prob", "1", "--max-appeals", "2", "--all-levels", "--export", "appeals.csv")
	require.NoError(t, err)

	assert.Contains(t, out, "Appeal simulation")
	assert.Contains(t, out, "Mean attack effect")
	assert.Contains(t, out, "Exported 60 records to appeals.csv")
	exporter.AssertExpectations(t)
}

func TestAppealsCommand_RejectsBadAppeal(t *testing.T) {
	_, err := execute(t, testDeps(nil), "appeals", "--appeal-prob", "1.5")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestFingerprintCommand(t *testing.T) {
	out, err := execute(t, testDeps(nil), "fingerprint", "--runs", "100", "--seed", "9")
	require.NoError(t, err)

	var fp run.RunFingerprint
	require.NoError(t, json.Unmarshal([]byte(out), &fp))
	expected := run.NewRunFingerprint(oracle.DefaultConfig(), nil, 100, 9, testkit.TestCodeVersion)
	assert.True(t, expected.Matches(fp))

	out, err = execute(t, testDeps(nil), "fingerprint", "--runs", "100", "--seed", "9", "--appeals")
	require.NoError(t, err)
	var withAppeals run.RunFingerprint
	require.NoError(t, json.Unmarshal([]byte(out), &withAppeals))
	assert.False(t, fp.Matches(withAppeals))

	out, err = execute(t, testDeps(nil), "fingerprint", "--runs", "100", "--seed", "9", "--appeals", "--all-levels")
	require.NoError(t, err)
	var allLevels run.RunFingerprint
	require.NoError(t, json.Unmarshal([]byte(out), &allLevels))
	assert.False(t, withAppeals.Matches(allLevels))
}

func TestVerifyCommand(t *testing.T) {
	out, err := execute(t, testDeps(nil), "verify", "--runs", "60", "--attack", "--workers", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Deterministic across 4 workers")
}
