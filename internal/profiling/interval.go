package profiling

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"oraclesim/domain/oracle"
)

// DefaultConfidence is the level reported for attack success rates
const DefaultConfidence = 0.95

// WilsonInterval is the Wilson score interval for successes out of n Bernoulli trials.
// It stays inside [0,1] and is defined at 0 and n successes.
func WilsonInterval(successes, n int, confidence float64) (oracle.Interval, error) {
	if n < 1 || successes < 0 || successes > n {
		return oracle.Interval{}, fmt.Errorf("wilson interval needs 0 <= successes <= n and n >= 1, got %d/%d", successes, n)
	}
	if !(confidence > 0 && confidence < 1) {
		return oracle.Interval{}, fmt.Errorf("confidence must be in (0,1), got %v", confidence)
	}

	z := distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
	nf := float64(n)
	phat := float64(successes) / nf
	z2 := z * z

	denom := 1 + z2/nf
	center := (phat + z2/(2*nf)) / denom
	half := z * math.Sqrt(phat*(1-phat)/nf+z2/(4*nf*nf)) / denom

	ci := oracle.Interval{
		Lower:      math.Max(0, center-half),
		Upper:      math.Min(1, center+half),
		Confidence: confidence,
	}
	// the closed form only reaches the bounds up to rounding
	if successes == 0 {
		ci.Lower = 0
	}
	if successes == n {
		ci.Upper = 1
	}
	return ci, nil
}
