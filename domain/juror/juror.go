package juror

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"oraclesim/domain/oracle"
)

// TieTolerance is the perceived payoff gap below which a juror falls back to its belief
const TieTolerance = 1e-9

// Traits are the behavioural parameters shared by every juror on a panel
type Traits struct {
	Honesty     float64
	Rationality float64
	Noise       float64
}

// TraitsFromConfig extracts juror traits from a simulator configuration
func TraitsFromConfig(cfg oracle.Config) Traits {
	return Traits{
		Honesty:     cfg.Honesty,
		Rationality: cfg.Rationality,
		Noise:       cfg.Noise,
	}
}

// Juror is one panel member for a single round. A new value is built every round.
type Juror struct {
	Traits
	Belief oracle.Outcome
	Bribed bool
}

// New seats a juror with the given belief
func New(traits Traits, belief oracle.Outcome, bribed bool) Juror {
	return Juror{Traits: traits, Belief: belief, Bribed: bribed}
}

// DecideVote maps the expected payoff of each vote to a vote.
// Bribed jurors consume no randomness.
func (j Juror) DecideVote(rng *rand.Rand, expectedX, expectedY float64) oracle.Outcome {
	if j.Bribed {
		return oracle.AttackTarget
	}

	if rng.Float64() < j.Honesty {
		return j.Belief
	}

	perceivedX := expectedX + j.perceptionNoise(rng)
	perceivedY := expectedY + j.perceptionNoise(rng)

	best := j.Belief
	switch {
	case math.Abs(perceivedX-perceivedY) < TieTolerance:
	case perceivedX > perceivedY:
		best = oracle.OutcomeX
	default:
		best = oracle.OutcomeY
	}

	if rng.Float64() < j.Rationality {
		return best
	}
	return best.Opposite()
}

// perceptionNoise draws the misperception of one expected payoff
func (j Juror) perceptionNoise(rng *rand.Rand) float64 {
	if j.Noise == 0 {
		return 0
	}
	return distuv.Normal{Mu: 0, Sigma: j.Noise, Src: rng}.Rand()
}
