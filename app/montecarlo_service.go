package app

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"oraclesim/domain/core"
	"oraclesim/domain/oracle"
	"oraclesim/domain/run"
	"oraclesim/internal"
	"oraclesim/internal/appeal"
	"oraclesim/internal/round"
	"oraclesim/ports"
)

// simulationStream names the RNG stream family; simulation i draws from key i
const simulationStream = "simulation"

// DefaultMaxRuns caps a single request
const DefaultMaxRuns = 100000

// MonteCarloService runs many independent rounds or appeal chains and folds the results
type MonteCarloService struct {
	rngPort     ports.RNGPort
	logger      *internal.Logger
	codeVersion string
	workers     int
	maxRuns     int
}

// SimulationRequest defines the inputs for a batch of plain rounds
type SimulationRequest struct {
	Config oracle.Config `json:"config"`
	Runs   int           `json:"runs"`
	Seed   int64         `json:"seed"`
}

// AppealRequest defines the inputs for a batch of appeal chains
type AppealRequest struct {
	Config          oracle.Config       `json:"config"`
	Appeal          oracle.AppealConfig `json:"appeal"`
	Runs            int                 `json:"runs"`
	Seed            int64               `json:"seed"`
	RecordAllLevels bool                `json:"record_all_levels"`
}

// NewMonteCarloService creates a Monte Carlo service
func NewMonteCarloService(rngPort ports.RNGPort, logger *internal.Logger, codeVersion string) *MonteCarloService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MonteCarloService{
		rngPort:     rngPort,
		logger:      logger,
		codeVersion: codeVersion,
		workers:     runtime.GOMAXPROCS(0),
		maxRuns:     DefaultMaxRuns,
	}
}

// SetWorkers sets the number of concurrent simulations. Results do not depend on it.
func (s *MonteCarloService) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	s.workers = n
}

// SetMaxRuns sets the largest accepted run count
func (s *MonteCarloService) SetMaxRuns(n int) {
	if n < 1 {
		n = 1
	}
	s.maxRuns = n
}

// Workers returns the configured concurrency
func (s *MonteCarloService) Workers() int {
	return s.workers
}

// CodeVersion returns the version stamped into fingerprints
func (s *MonteCarloService) CodeVersion() string {
	return s.codeVersion
}

// RunSimulations executes req.Runs independent rounds and aggregates them
func (s *MonteCarloService) RunSimulations(ctx context.Context, req SimulationRequest) (*oracle.AggregateResult, error) {
	startTime := time.Now()

	cfg := req.Config.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateRuns(req.Runs); err != nil {
		return nil, err
	}

	manifest := run.NewRunManifest(cfg, nil, req.Runs, req.Seed, s.workers, s.codeVersion)
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	s.logger.Info("[MonteCarlo] Starting run %s: %d rounds, %d jurors, payoff=%s attack=%v seed=%d (fingerprint %s)",
		manifest.RunID, req.Runs, cfg.NumJurors, cfg.PayoffType, cfg.Attack, req.Seed, manifest.Fingerprint.Fingerprint.Short())

	rounds := make([]oracle.RoundResult, req.Runs)
	err := s.fanOut(ctx, req.Runs, func(ctx context.Context, i int) error {
		rng, err := s.rngPort.Stream(ctx, simulationStream, strconv.Itoa(i), req.Seed)
		if err != nil {
			return err
		}
		sim, err := round.NewSimulator(cfg, rng)
		if err != nil {
			return err
		}
		rounds[i] = sim.SimulateOnce()
		s.logger.Trace("[MonteCarlo] Round %d: outcome=%s X=%d Y=%d bribed=%d",
			i, rounds[i].Outcome, rounds[i].VotesX, rounds[i].VotesY, rounds[i].Bribed)
		return nil
	})
	if err != nil {
		s.logger.Warn("[MonteCarlo] Run %s stopped: %v", manifest.RunID, err)
		return nil, err
	}

	result := aggregateRounds(cfg, rounds)
	result.RunID = manifest.RunID
	result.Fingerprint = manifest.Fingerprint.Fingerprint
	result.Seed = req.Seed

	s.logger.Info("[MonteCarlo] Run %s complete in %v: X=%d Y=%d avg votes X=%.2f Y=%.2f",
		manifest.RunID, time.Since(startTime), result.OutcomeCounts.X, result.OutcomeCounts.Y,
		result.AverageVotesX, result.AverageVotesY)
	return result, nil
}

// RunSimulationsWithAppeals executes req.Runs independent appeal chains and aggregates them by level
func (s *MonteCarloService) RunSimulationsWithAppeals(ctx context.Context, req AppealRequest) (*oracle.AppealAggregateResult, error) {
	startTime := time.Now()

	cfg := req.Config.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := req.Appeal.ValidateFor(cfg.NumJurors); err != nil {
		return nil, err
	}
	if err := s.validateRuns(req.Runs); err != nil {
		return nil, err
	}

	plan := &run.AppealPlan{AppealConfig: req.Appeal, RecordAllLevels: req.RecordAllLevels}
	manifest := run.NewRunManifest(cfg, plan, req.Runs, req.Seed, s.workers, s.codeVersion)
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	s.logger.Info("[MonteCarlo] Starting appeal run %s: %d chains, %d jurors, appeal_prob=%.2f max_appeals=%d attack=%v (fingerprint %s)",
		manifest.RunID, req.Runs, cfg.NumJurors, req.Appeal.AppealProb, req.Appeal.MaxAppeals, cfg.Attack,
		manifest.Fingerprint.Fingerprint.Short())

	chains := make([][]oracle.LevelResult, req.Runs)
	err := s.fanOut(ctx, req.Runs, func(ctx context.Context, i int) error {
		rng, err := s.rngPort.Stream(ctx, simulationStream, strconv.Itoa(i), req.Seed)
		if err != nil {
			return err
		}
		chain, err := appeal.NewChain(cfg, req.Appeal, rng)
		if err != nil {
			return err
		}
		levels, err := chain.Simulate(ctx)
		if err != nil {
			return err
		}
		chains[i] = levels
		final := levels[len(levels)-1]
		s.logger.Trace("[MonteCarlo] Chain %d: %d levels, final outcome=%s with %d jurors",
			i, len(levels), final.Round.Outcome, final.NumJurors)
		return nil
	})
	if err != nil {
		s.logger.Warn("[MonteCarlo] Appeal run %s stopped: %v", manifest.RunID, err)
		return nil, err
	}

	result := aggregateAppeals(cfg, req.Appeal, chains, req.RecordAllLevels)
	result.RunID = manifest.RunID
	result.Fingerprint = manifest.Fingerprint.Fingerprint
	result.Seed = req.Seed

	s.logger.Info("[MonteCarlo] Appeal run %s complete in %v: final X=%d Y=%d, level counts %v",
		manifest.RunID, time.Since(startTime), result.FinalOutcomeCounts.X, result.FinalOutcomeCounts.Y,
		result.LevelCounts())
	return result, nil
}

// VerifyDeterminism runs req on the configured workers and again sequentially,
// and fails with core.ErrNonDeterministic if the histories differ
func (s *MonteCarloService) VerifyDeterminism(ctx context.Context, req SimulationRequest) (run.RunFingerprint, error) {
	parallel, err := s.RunSimulations(ctx, req)
	if err != nil {
		return run.RunFingerprint{}, err
	}

	sequential := *s
	sequential.workers = 1
	replay, err := sequential.RunSimulations(ctx, req)
	if err != nil {
		return run.RunFingerprint{}, err
	}

	fp := run.NewRunFingerprint(req.Config.Normalize(), nil, req.Runs, req.Seed, s.codeVersion)
	if !parallel.Fingerprint.Equals(replay.Fingerprint) {
		return fp, fmt.Errorf("%w: fingerprints %s and %s", core.ErrNonDeterministic,
			parallel.Fingerprint.Short(), replay.Fingerprint.Short())
	}
	if idx := firstDifference(parallel.History, replay.History); idx >= 0 {
		return fp, fmt.Errorf("%w: round %d differs between %d workers and 1 worker",
			core.ErrNonDeterministic, idx, s.workers)
	}

	s.logger.Info("[MonteCarlo] Determinism verified for fingerprint %s (%d rounds)", fp.Fingerprint.Short(), req.Runs)
	return fp, nil
}

// fanOut runs work for every index with at most s.workers in flight.
// No new simulation starts once ctx is done.
func (s *MonteCarloService) fanOut(ctx context.Context, runs int, work func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := 0; i < runs; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return work(gctx, i)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *MonteCarloService) validateRuns(runs int) error {
	if runs < 1 || runs > s.maxRuns {
		return fmt.Errorf("%w: runs must be in [1,%d], got %d", core.ErrInvalidRunCount, s.maxRuns, runs)
	}
	return nil
}

func firstDifference(a, b []oracle.RoundRecord) int {
	if len(a) != len(b) {
		return min(len(a), len(b))
	}
	return slices.IndexFunc(a, func(r oracle.RoundRecord) bool {
		return r != b[r.Round]
	})
}
