package oracle

import (
	"fmt"
	"math"

	"oraclesim/domain/core"
)

// DefaultBeta is the share of a loser's deposit redistributed under Symbiotic
const DefaultBeta = 0.5

// MaxPanelSize caps the juror count of any round, appeal levels included.
// Estimating payoffs costs O(N) per juror, so a round is O(N^2) in the worst case.
const MaxPanelSize = 1<<14 - 1

// MaxAppeals caps max_appeals. A one-juror panel reaches MaxPanelSize at this depth.
const MaxAppeals = 13

// Config is the immutable parameter set of one round simulator.
// Decode user input on top of DefaultConfig so omitted fields keep their defaults.
type Config struct {
	NumJurors      int           `json:"num_jurors" yaml:"num_jurors"`
	Honesty        float64       `json:"honesty" yaml:"honesty"`
	Rationality    float64       `json:"rationality" yaml:"rationality"`
	Noise          float64       `json:"noise" yaml:"noise"`
	P              float64       `json:"p" yaml:"p"`
	D              float64       `json:"d" yaml:"d"`
	Epsilon        float64       `json:"epsilon" yaml:"epsilon"`
	BribedFraction float64       `json:"bribed_fraction" yaml:"bribed_fraction"`
	PayoffType     PayoffType    `json:"payoff_type" yaml:"payoff_type"`
	Attack         bool          `json:"attack" yaml:"attack"`
	XGuessNoise    float64       `json:"x_guess_noise" yaml:"x_guess_noise"`
	Beta           float64       `json:"beta" yaml:"beta"`
	BriberyPolicy  BriberyPolicy `json:"bribery_policy" yaml:"bribery_policy"`
	PeerEstimator  PeerEstimator `json:"peer_estimator" yaml:"peer_estimator"`
}

// DefaultConfig returns the baseline panel used by the CLI and API
func DefaultConfig() Config {
	return Config{
		NumJurors:      11,
		Honesty:        0.7,
		Rationality:    0.8,
		Noise:          0.1,
		P:              0.6,
		D:              1.0,
		Epsilon:        0.1,
		BribedFraction: 0.3,
		PayoffType:     PayoffBasic,
		XGuessNoise:    0.1,
		Beta:           DefaultBeta,
		BriberyPolicy:  BriberyFractionSampled,
		PeerEstimator:  EstimatorAuto,
	}
}

// Normalize canonicalizes the enum fields. Unknown names are left for Validate to reject.
func (c Config) Normalize() Config {
	if t, err := ParsePayoffType(string(c.PayoffType)); err == nil {
		c.PayoffType = t
	}
	if p, err := ParseBriberyPolicy(string(c.BriberyPolicy)); err == nil {
		c.BriberyPolicy = p
	}
	if e, err := ParsePeerEstimator(string(c.PeerEstimator)); err == nil {
		c.PeerEstimator = e
	}
	return c
}

// Validate rejects configurations the engine cannot run
func (c Config) Validate() error {
	if c.NumJurors < 1 || c.NumJurors > MaxPanelSize {
		return core.NewValidationError("num_jurors", fmt.Sprintf("must be in [1,%d], got %d", MaxPanelSize, c.NumJurors))
	}

	probabilities := []struct {
		name  string
		value float64
	}{
		{"honesty", c.Honesty},
		{"rationality", c.Rationality},
		{"bribed_fraction", c.BribedFraction},
		{"beta", c.Beta},
	}
	for _, prob := range probabilities {
		if !inUnitInterval(prob.value) {
			return core.NewValidationError(prob.name, fmt.Sprintf("must be in [0,1], got %v", prob.value))
		}
	}

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"noise", c.Noise},
		{"x_guess_noise", c.XGuessNoise},
		{"p", c.P},
		{"d", c.D},
		{"epsilon", c.Epsilon},
	}
	for _, field := range nonNegative {
		if math.IsNaN(field.value) || math.IsInf(field.value, 0) || field.value < 0 {
			return core.NewValidationError(field.name, fmt.Sprintf("must be finite and >= 0, got %v", field.value))
		}
	}

	if _, err := ParsePayoffType(string(c.PayoffType)); err != nil {
		return err
	}
	if _, err := ParseBriberyPolicy(string(c.BriberyPolicy)); err != nil {
		return err
	}
	if _, err := ParsePeerEstimator(string(c.PeerEstimator)); err != nil {
		return err
	}
	return nil
}

// MajorityNeeded is floor(N/2)+1
func (c Config) MajorityNeeded() int {
	return c.NumJurors/2 + 1
}

// BeliefProbability is p clamped to [0,1], the chance a juror believes X
func (c Config) BeliefProbability() float64 {
	return Clamp01(c.P)
}

// ResolvedEstimator resolves auto into a concrete estimator for the payoff type
func (c Config) ResolvedEstimator() PeerEstimator {
	e, _ := ParsePeerEstimator(string(c.PeerEstimator))
	if e != EstimatorAuto {
		return e
	}
	if t, _ := ParsePayoffType(string(c.PayoffType)); t == PayoffBasic {
		return EstimatorBelief
	}
	return EstimatorNoise
}

// WithJurors returns a copy with a different panel size
func (c Config) WithJurors(n int) Config {
	c.NumJurors = n
	return c
}

// WithAttack returns a copy with the attack switched on or off
func (c Config) WithAttack(attack bool) Config {
	c.Attack = attack
	return c
}

// Params returns the canonical parameter set used for fingerprinting
func (c Config) Params() map[string]interface{} {
	c = c.Normalize()
	return map[string]interface{}{
		"num_jurors":      c.NumJurors,
		"honesty":         c.Honesty,
		"rationality":     c.Rationality,
		"noise":           c.Noise,
		"p":               c.P,
		"d":               c.D,
		"epsilon":         c.Epsilon,
		"bribed_fraction": c.BribedFraction,
		"payoff_type":     string(c.PayoffType),
		"attack":          c.Attack,
		"x_guess_noise":   c.XGuessNoise,
		"beta":            c.Beta,
		"bribery_policy":  string(c.BriberyPolicy),
		"peer_estimator":  string(c.PeerEstimator),
	}
}

// AppealConfig controls escalation of a dispute through appeal levels
type AppealConfig struct {
	AppealProb float64 `json:"appeal_prob" yaml:"appeal_prob"`
	MaxAppeals int     `json:"max_appeals" yaml:"max_appeals"`
}

// Validate rejects unusable appeal settings
func (a AppealConfig) Validate() error {
	if !inUnitInterval(a.AppealProb) {
		return fmt.Errorf("%w: appeal_prob must be in [0,1], got %v", core.ErrInvalidAppealSettings, a.AppealProb)
	}
	if a.MaxAppeals < 0 || a.MaxAppeals > MaxAppeals {
		return fmt.Errorf("%w: max_appeals must be in [0,%d], got %d", core.ErrInvalidAppealSettings, MaxAppeals, a.MaxAppeals)
	}
	return nil
}

// ValidateFor also rejects chains whose deepest level would exceed MaxPanelSize
// when level 0 seats numJurors
func (a AppealConfig) ValidateFor(numJurors int) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if numJurors < 1 || numJurors > MaxPanelSize {
		return core.NewValidationError("num_jurors", fmt.Sprintf("must be in [1,%d], got %d", MaxPanelSize, numJurors))
	}
	if deepest := PanelSizeAt(numJurors, a.MaxAppeals); deepest > MaxPanelSize {
		return fmt.Errorf("%w: max_appeals=%d grows %d jurors to %d at the last level, above %d",
			core.ErrInvalidAppealSettings, a.MaxAppeals, numJurors, deepest, MaxPanelSize)
	}
	return nil
}

// Levels is the largest possible chain length
func (a AppealConfig) Levels() int {
	return a.MaxAppeals + 1
}

// NextPanelSize returns the juror count of the next appeal level
func NextPanelSize(n int) int {
	return 2*n + 1
}

// PanelSizeAt returns the juror count at level when level 0 seats n, (n+1)*2^level - 1.
// Callers keep n <= MaxPanelSize and level <= MaxAppeals so the result fits an int.
func PanelSizeAt(n, level int) int {
	return (n+1)<<level - 1
}

// Clamp01 clamps v into [0,1]
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func inUnitInterval(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
