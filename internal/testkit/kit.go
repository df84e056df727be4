package testkit

import (
	"context"
	"math/rand/v2"

	"github.com/stretchr/testify/mock"

	"oraclesim/adapters/rng"
	"oraclesim/app"
	"oraclesim/domain/oracle"
	"oraclesim/internal"
	"oraclesim/ports"
)

// TestCodeVersion is stamped into fingerprints produced by the kit
const TestCodeVersion = "test"

// TestKit provides testing utilities and fixtures
type TestKit struct {
	rngAdapter *rng.StreamAdapter
	logger     *internal.Logger
}

// NewTestKit creates a new test kit with a silent logger
func NewTestKit() *TestKit {
	return &TestKit{
		rngAdapter: rng.NewStreamAdapter(),
		logger:     internal.NewNopLogger(),
	}
}

// RNGAdapter returns the production stream adapter
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return t.rngAdapter
}

// RNG returns a deterministic generator for a single test
func (t *TestKit) RNG(seed int64) *rand.Rand {
	r, _ := t.rngAdapter.SeededStream(context.Background(), "testkit", seed)
	return r
}

// Logger returns the kit's silent logger
func (t *TestKit) Logger() *internal.Logger {
	return t.logger
}

// MonteCarloService returns a service with the given concurrency
func (t *TestKit) MonteCarloService(workers int) *app.MonteCarloService {
	svc := app.NewMonteCarloService(t.RNGAdapter(), t.logger, TestCodeVersion)
	svc.SetWorkers(workers)
	return svc
}

// UnanimousHonestPanel is a panel where every juror believes and votes X
func UnanimousHonestPanel(numJurors int) oracle.Config {
	cfg := oracle.DefaultConfig().WithJurors(numJurors)
	cfg.P = 1.0
	cfg.Honesty = 1.0
	cfg.Attack = false
	return cfg
}

// AttackedPanel is a noisy panel under a fraction-sampled p+epsilon attack
func AttackedPanel(numJurors int, payoffType oracle.PayoffType, bribedFraction float64) oracle.Config {
	cfg := oracle.DefaultConfig().WithJurors(numJurors)
	cfg.PayoffType = payoffType
	cfg.Attack = true
	cfg.BribedFraction = bribedFraction
	return cfg
}

// MockExporter is a testify mock of ports.ResultExporter
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) ExportRounds(ctx context.Context, result *oracle.AggregateResult, path string) error {
	args := m.Called(ctx, result, path)
	return args.Error(0)
}

func (m *MockExporter) ExportAppeals(ctx context.Context, result *oracle.AppealAggregateResult, path string) error {
	args := m.Called(ctx, result, path)
	return args.Error(0)
}

var _ ports.ResultExporter = (*MockExporter)(nil)
