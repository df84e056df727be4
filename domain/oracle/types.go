package oracle

import (
	"fmt"
	"strings"

	"oraclesim/domain/core"
)

// Outcome is one of the two mutually exclusive dispute outcomes
type Outcome string

const (
	OutcomeX Outcome = "X"
	OutcomeY Outcome = "Y"
)

// AttackTarget is the outcome a p+epsilon attacker pays jurors to vote for
const AttackTarget = OutcomeY

// Opposite returns the other outcome
func (o Outcome) Opposite() Outcome {
	if o == OutcomeX {
		return OutcomeY
	}
	return OutcomeX
}

// String returns the outcome label
func (o Outcome) String() string {
	return string(o)
}

// PayoffType selects the reward mechanism for a simulator
type PayoffType string

const (
	PayoffBasic          PayoffType = "basic"
	PayoffRedistributive PayoffType = "redistributive"
	PayoffSymbiotic      PayoffType = "symbiotic"
)

// ParsePayoffType parses a mechanism name, case-insensitively
func ParsePayoffType(s string) (PayoffType, error) {
	switch t := PayoffType(normalizeName(s)); t {
	case PayoffBasic, PayoffRedistributive, PayoffSymbiotic:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnknownPayoffType, s)
	}
}

// BriberyPolicy decides which jurors an active attacker controls
type BriberyPolicy string

const (
	// BriberyFractionSampled bribes round(bribed_fraction*N) jurors sampled without replacement
	BriberyFractionSampled BriberyPolicy = "fraction_sampled"
	// BriberyFullPanel bribes every juror and ignores bribed_fraction
	BriberyFullPanel BriberyPolicy = "full_panel"
)

// ParseBriberyPolicy parses a bribery policy name. Empty selects the default.
func ParseBriberyPolicy(s string) (BriberyPolicy, error) {
	switch p := BriberyPolicy(normalizeName(s)); p {
	case "":
		return BriberyFractionSampled, nil
	case BriberyFractionSampled, BriberyFullPanel:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnknownBriberyPolicy, s)
	}
}

// PeerEstimator selects how a juror forms q, its belief that a peer votes X
type PeerEstimator string

const (
	// EstimatorAuto uses belief for Basic and noise for Redistributive and Symbiotic
	EstimatorAuto PeerEstimator = "auto"
	// EstimatorBelief derives q from p, discounted by the bribed share under attack
	EstimatorBelief PeerEstimator = "belief"
	// EstimatorNoise samples q from Normal(0.5, x_guess_noise) clamped to [0,1]
	EstimatorNoise PeerEstimator = "noise"
)

// ParsePeerEstimator parses an estimator name. Empty selects auto.
func ParsePeerEstimator(s string) (PeerEstimator, error) {
	switch e := PeerEstimator(normalizeName(s)); e {
	case "":
		return EstimatorAuto, nil
	case EstimatorAuto, EstimatorBelief, EstimatorNoise:
		return e, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnknownPeerEstimator, s)
	}
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "-", "_")
}
