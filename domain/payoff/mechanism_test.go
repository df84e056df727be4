package payoff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oraclesim/domain/core"
	"oraclesim/domain/oracle"
)

func configFor(t oracle.PayoffType, attack bool) oracle.Config {
	cfg := oracle.DefaultConfig()
	cfg.PayoffType = t
	cfg.Attack = attack
	cfg.P = 0.6
	cfg.D = 2.0
	cfg.Epsilon = 0.25
	return cfg
}

func TestBasic_WinnerAndLoserIgnoreTally(t *testing.T) {
	m := Basic{P: 0.6, D: 2.0}

	for winners := 1; winners <= 10; winners++ {
		for losers := 0; losers <= 10; losers++ {
			assert.InDelta(t, 2.0+0.6*2.0, m.Winner(winners, losers), 1e-12)
		}
	}
	assert.Equal(t, 0.0, m.Loser())
}

func TestRedistributive_ConservesLoserDeposits(t *testing.T) {
	m := Redistributive{D: 1.5}

	for winners := 1; winners <= 12; winners++ {
		for losers := 1; losers <= 12; losers++ {
			extra := float64(winners) * (m.Winner(winners, losers) - m.D)
			assert.InDelta(t, float64(losers)*m.D, extra, 1e-9, "winners=%d losers=%d", winners, losers)
		}
	}
}

func TestRedistributive_ShortCircuitsEmptySides(t *testing.T) {
	m := Redistributive{D: 1.5}

	assert.Equal(t, 1.5, m.Winner(5, 0))
	assert.Equal(t, 1.5, m.Winner(0, 5))
	assert.Equal(t, 0.0, m.Loser())
}

func TestSymbiotic_Formulas(t *testing.T) {
	m := Symbiotic{P: 0.5, D: 2.0, Beta: 0.5}

	assert.InDelta(t, 2.0+1.0, m.Winner(4, 0), 1e-12)
	assert.InDelta(t, 2.0+2*0.5*2.0/4+1.0, m.Winner(4, 2), 1e-12)
	assert.InDelta(t, 1.0, m.Loser(), 1e-12)
}

func TestSymbiotic_WinningSidePayoutGrowsWithWinners(t *testing.T) {
	m := Symbiotic{P: 0.3, D: 1.0, Beta: oracle.DefaultBeta}

	for losers := 0; losers <= 8; losers++ {
		for winners := 1; winners < 20; winners++ {
			cur := float64(winners) * m.Winner(winners, losers)
			next := float64(winners+1) * m.Winner(winners+1, losers)
			assert.GreaterOrEqual(t, next, cur, "winners=%d losers=%d", winners, losers)
			assert.GreaterOrEqual(t, m.Winner(winners, losers), m.D+m.ExternalReward())
		}
	}
}

func TestNewMechanism(t *testing.T) {
	tests := []struct {
		payoffType oracle.PayoffType
		want       oracle.PayoffType
	}{
		{"Basic", oracle.PayoffBasic},
		{"redistributive", oracle.PayoffRedistributive},
		{" SYMBIOTIC ", oracle.PayoffSymbiotic},
	}

	for _, tt := range tests {
		t.Run(string(tt.payoffType), func(t *testing.T) {
			m, err := NewMechanism(configFor(tt.payoffType, false))
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Type())
		})
	}

	_, err := NewMechanism(configFor("quadratic", false))
	assert.ErrorIs(t, err, core.ErrUnknownPayoffType)
	assert.True(t, core.IsValidationError(err))
}
