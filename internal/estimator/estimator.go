package estimator

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/combin"

	"oraclesim/domain/oracle"
	"oraclesim/domain/payoff"
)

// Expectation is a juror's expected payoff for each vote
type Expectation struct {
	X float64
	Y float64
	Q float64
}

// Estimator computes expected payoffs by marginalizing over the votes of the other N-1 jurors.
// It is owned by one simulator and is not safe for concurrent use.
type Estimator struct {
	numJurors int
	majority  int
	scheme    payoff.Scheme
	peers     PeerProbability

	// set after the first call when q cannot vary between jurors
	cached *Expectation
}

// New creates an estimator for a validated configuration
func New(cfg oracle.Config, scheme payoff.Scheme) *Estimator {
	return &Estimator{
		numJurors: cfg.NumJurors,
		majority:  cfg.MajorityNeeded(),
		scheme:    scheme,
		peers:     NewPeerProbability(cfg),
	}
}

// ExpectedPayoffs returns E[payoff | vote X] and E[payoff | vote Y] for one juror.
// Noise-driven estimators draw a fresh q on every call. A fixed q is evaluated once.
func (e *Estimator) ExpectedPayoffs(rng *rand.Rand) Expectation {
	if e.cached != nil {
		return *e.cached
	}

	q := 0.0
	if e.numJurors > 1 {
		q = e.peers.Q(rng)
	}
	x, y := e.ExpectationAt(q)
	exp := Expectation{X: x, Y: y, Q: q}

	if e.numJurors == 1 || e.peers.Fixed() {
		e.cached = &exp
	}
	return exp
}

// ExpectationAt evaluates both expectations for a fixed peer probability q
func (e *Estimator) ExpectationAt(q float64) (float64, float64) {
	others := e.numJurors - 1
	var expX, expY float64

	for k := 0; k <= others; k++ {
		weight := BinomialPMF(others, k, q)
		if weight == 0 {
			continue
		}

		// juror votes X: k+1 X votes against others-k
		xVotes, yVotes := k+1, others-k
		var payX float64
		if xVotes >= e.majority {
			payX = e.scheme.Payoff(oracle.OutcomeX, oracle.OutcomeX, xVotes, yVotes)
		} else {
			payX = e.scheme.Payoff(oracle.OutcomeX, oracle.OutcomeY, yVotes, xVotes)
		}

		// juror votes Y: k X votes against others-k+1
		xVotes, yVotes = k, others-k+1
		var payY float64
		if yVotes >= e.majority {
			payY = e.scheme.Payoff(oracle.OutcomeY, oracle.OutcomeY, yVotes, xVotes)
		} else {
			payY = e.scheme.Payoff(oracle.OutcomeY, oracle.OutcomeX, xVotes, yVotes)
		}

		expX += weight * payX
		expY += weight * payY
	}
	return expX, expY
}

// BinomialPMF returns P(K=k) for K ~ Binomial(n, q), exact at q=0 and q=1
func BinomialPMF(n, k int, q float64) float64 {
	if k < 0 || k > n {
		return 0
	}
	switch q {
	case 0:
		if k == 0 {
			return 1
		}
		return 0
	case 1:
		if k == n {
			return 1
		}
		return 0
	}
	logP := combin.LogGeneralizedBinomial(float64(n), float64(k)) +
		float64(k)*math.Log(q) + float64(n-k)*math.Log1p(-q)
	return math.Exp(logP)
}
