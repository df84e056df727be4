package estimator

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"oraclesim/domain/oracle"
)

// PeerProbability supplies q, a juror's belief that any single peer votes X
type PeerProbability interface {
	Q(rng *rand.Rand) float64
	// Fixed reports whether Q returns the same value on every call without drawing
	Fixed() bool
}

// BeliefDriven derives q from the belief rate p and the attacker's reach
type BeliefDriven struct {
	q float64
}

// NewBeliefDriven computes the fixed q for a configuration
func NewBeliefDriven(cfg oracle.Config) BeliefDriven {
	q := cfg.BeliefProbability()
	if cfg.Attack {
		if cfg.BriberyPolicy == oracle.BriberyFullPanel {
			q = 0
		} else {
			q *= 1 - cfg.BribedFraction
		}
	}
	return BeliefDriven{q: q}
}

// Q returns the fixed belief-driven probability. No randomness is consumed.
func (b BeliefDriven) Q(*rand.Rand) float64 {
	return b.q
}

func (b BeliefDriven) Fixed() bool {
	return true
}

// NoiseDriven samples q from a symmetric Normal(0.5, sigma) prior clamped to [0,1]
type NoiseDriven struct {
	Sigma float64
}

// Q draws a fresh q. With sigma 0 the prior collapses to 0.5 and nothing is drawn.
func (n NoiseDriven) Q(rng *rand.Rand) float64 {
	if n.Sigma == 0 {
		return 0.5
	}
	return oracle.Clamp01(distuv.Normal{Mu: 0.5, Sigma: n.Sigma, Src: rng}.Rand())
}

func (n NoiseDriven) Fixed() bool {
	return n.Sigma == 0
}

// NewPeerProbability builds the estimator strategy selected by cfg
func NewPeerProbability(cfg oracle.Config) PeerProbability {
	if cfg.ResolvedEstimator() == oracle.EstimatorNoise {
		return NoiseDriven{Sigma: cfg.XGuessNoise}
	}
	return NewBeliefDriven(cfg)
}
