package round

import (
	"errors"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/sampleuv"

	"oraclesim/domain/juror"
	"oraclesim/domain/oracle"
	"oraclesim/domain/payoff"
	"oraclesim/internal/estimator"
)

// ErrNilRandomSource is returned when a simulator is built without a generator
var ErrNilRandomSource = errors.New("round simulator requires a random source")

// Simulator runs single voting rounds for one immutable configuration.
// It owns its generator and must not be shared between goroutines.
type Simulator struct {
	cfg       oracle.Config
	traits    juror.Traits
	scheme    payoff.Scheme
	estimator *estimator.Estimator
	rng       *rand.Rand
}

// NewSimulator validates cfg and builds a simulator drawing from rng
func NewSimulator(cfg oracle.Config, rng *rand.Rand) (*Simulator, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, ErrNilRandomSource
	}

	scheme, err := payoff.NewScheme(cfg)
	if err != nil {
		return nil, err
	}

	return &Simulator{
		cfg:       cfg,
		traits:    juror.TraitsFromConfig(cfg),
		scheme:    scheme,
		estimator: estimator.New(cfg, scheme),
		rng:       rng,
	}, nil
}

// Config returns the normalized configuration
func (s *Simulator) Config() oracle.Config {
	return s.cfg
}

// Scheme returns the payoff scheme in effect
func (s *Simulator) Scheme() payoff.Scheme {
	return s.scheme
}

// SimulateOnce seats a fresh panel, collects votes, resolves the outcome and pays jurors
func (s *Simulator) SimulateOnce() oracle.RoundResult {
	panel := s.seatPanel()

	votes := make([]oracle.Outcome, len(panel))
	var votesX, votesY, bribed int
	for i, j := range panel {
		exp := s.estimator.ExpectedPayoffs(s.rng)
		votes[i] = j.DecideVote(s.rng, exp.X, exp.Y)
		if votes[i] == oracle.OutcomeX {
			votesX++
		} else {
			votesY++
		}
		if j.Bribed {
			bribed++
		}
	}

	outcome := oracle.OutcomeX
	if votesX < votesY {
		outcome = oracle.OutcomeY
	}

	var sumX, sumY float64
	for _, v := range votes {
		p := s.scheme.Realized(v, outcome, votesX, votesY)
		if v == oracle.OutcomeX {
			sumX += p
		} else {
			sumY += p
		}
	}

	return oracle.RoundResult{
		Outcome:         outcome,
		VotesX:          votesX,
		VotesY:          votesY,
		AvgPayoffX:      average(sumX, votesX),
		AvgPayoffY:      average(sumY, votesY),
		NumJurors:       s.cfg.NumJurors,
		Bribed:          bribed,
		AttackSucceeded: s.cfg.Attack && outcome == oracle.AttackTarget,
	}
}

// seatPanel draws every juror's belief, then marks bribed jurors
func (s *Simulator) seatPanel() []juror.Juror {
	n := s.cfg.NumJurors
	beliefX := s.cfg.BeliefProbability()

	panel := make([]juror.Juror, n)
	for i := range panel {
		belief := oracle.OutcomeY
		if s.rng.Float64() < beliefX {
			belief = oracle.OutcomeX
		}
		panel[i] = juror.New(s.traits, belief, false)
	}

	if !s.cfg.Attack {
		return panel
	}
	for _, idx := range s.bribedIndices() {
		panel[idx].Bribed = true
	}
	return panel
}

// bribedIndices selects the jurors controlled by the attacker under the active policy
func (s *Simulator) bribedIndices() []int {
	n := s.cfg.NumJurors

	if s.cfg.BriberyPolicy == oracle.BriberyFullPanel {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}

	count := BribeCount(s.cfg.BribedFraction, n)
	if count == 0 {
		return nil
	}
	idx := make([]int, count)
	sampleuv.WithoutReplacement(idx, n, s.rng)
	return idx
}

// BribeCount is round-half-even(fraction*n), capped at n
func BribeCount(fraction float64, n int) int {
	count := int(math.RoundToEven(fraction * float64(n)))
	if count > n {
		return n
	}
	if count < 0 {
		return 0
	}
	return count
}

func average(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
