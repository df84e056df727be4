package round

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oraclesim/domain/core"
	"oraclesim/domain/oracle"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0xabcdef))
}

func mustSimulator(t *testing.T, cfg oracle.Config, seed uint64) *Simulator {
	t.Helper()
	sim, err := NewSimulator(cfg, seeded(seed))
	require.NoError(t, err)
	return sim
}

func TestNewSimulator_RejectsInvalidConfig(t *testing.T) {
	cfg := oracle.DefaultConfig()
	cfg.NumJurors = 0

	_, err := NewSimulator(cfg, seeded(1))
	assert.True(t, core.IsValidationError(err))

	_, err = NewSimulator(oracle.DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrNilRandomSource)
}

func TestSimulateOnce_VotesSumToPanel(t *testing.T) {
	for _, pt := range []oracle.PayoffType{oracle.PayoffBasic, oracle.PayoffRedistributive, oracle.PayoffSymbiotic} {
		for _, attack := range []bool{false, true} {
			cfg := oracle.DefaultConfig()
			cfg.PayoffType = pt
			cfg.Attack = attack
			sim := mustSimulator(t, cfg, 17)

			for i := 0; i < 200; i++ {
				res := sim.SimulateOnce()
				require.Equal(t, cfg.NumJurors, res.VotesX+res.VotesY)
				require.Equal(t, cfg.NumJurors, res.NumJurors)
			}
		}
	}
}

func TestSimulateOnce_TieGoesToX(t *testing.T) {
	cfg := oracle.DefaultConfig().WithJurors(4)
	cfg.Honesty = 0.5
	cfg.P = 0.5
	sim := mustSimulator(t, cfg, 23)

	ties := 0
	for i := 0; i < 2000; i++ {
		res := sim.SimulateOnce()
		if res.VotesX == res.VotesY {
			ties++
			assert.Equal(t, oracle.OutcomeX, res.Outcome)
		}
	}
	assert.Positive(t, ties)
}

func TestSimulateOnce_Deterministic(t *testing.T) {
	cfg := oracle.DefaultConfig()
	cfg.Attack = true
	cfg.PayoffType = oracle.PayoffSymbiotic

	a := mustSimulator(t, cfg, 99)
	b := mustSimulator(t, cfg, 99)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.SimulateOnce(), b.SimulateOnce())
	}
}

func TestSimulateOnce_UnanimousHonestPanel(t *testing.T) {
	cfg := oracle.DefaultConfig().WithJurors(11)
	cfg.P = 1.0
	cfg.D = 2.0
	cfg.Honesty = 1.0
	cfg.Attack = false
	sim := mustSimulator(t, cfg, 5)

	res := sim.SimulateOnce()

	assert.Equal(t, 11, res.VotesX)
	assert.Equal(t, 0, res.VotesY)
	assert.Equal(t, oracle.OutcomeX, res.Outcome)
	assert.InDelta(t, 2.0+1.0*2.0, res.AvgPayoffX, 1e-12)
	assert.Equal(t, 0.0, res.AvgPayoffY)
	assert.False(t, res.AttackSucceeded)
}

func TestSimulateOnce_SingleJuror(t *testing.T) {
	cfg := oracle.DefaultConfig().WithJurors(1)
	sim := mustSimulator(t, cfg, 8)

	for i := 0; i < 100; i++ {
		res := sim.SimulateOnce()
		require.Equal(t, 1, res.VotesX+res.VotesY)
		if res.VotesX == 1 {
			assert.Equal(t, oracle.OutcomeX, res.Outcome)
		} else {
			assert.Equal(t, oracle.OutcomeY, res.Outcome)
		}
	}
}

func TestSimulateOnce_BasicPaysWinnersOnly(t *testing.T) {
	cfg := oracle.DefaultConfig()
	cfg.Honesty = 0.4
	cfg.P = 0.55
	cfg.D = 1.0
	sim := mustSimulator(t, cfg, 31)

	for i := 0; i < 300; i++ {
		res := sim.SimulateOnce()
		win, lose := res.AvgPayoffX, res.AvgPayoffY
		winVotes, loseVotes := res.VotesX, res.VotesY
		if res.Outcome == oracle.OutcomeY {
			win, lose = lose, win
			winVotes, loseVotes = loseVotes, winVotes
		}
		if winVotes > 0 {
			assert.InDelta(t, 1.55, win, 1e-12)
		}
		if loseVotes > 0 {
			assert.Equal(t, 0.0, lose)
		}
	}
}

func TestSimulateOnce_AttackCompensatesLosingTargetVoters(t *testing.T) {
	cfg := oracle.DefaultConfig().WithJurors(11)
	cfg.P = 1.0
	cfg.Honesty = 1.0
	cfg.D = 1.0
	cfg.Epsilon = 0.3
	cfg.Attack = true
	cfg.BribedFraction = 0.2
	sim := mustSimulator(t, cfg, 12)

	res := sim.SimulateOnce()

	// round-half-even(2.2) = 2 bribed jurors vote Y, the honest rest vote their X belief
	assert.Equal(t, 2, res.Bribed)
	assert.Equal(t, 2, res.VotesY)
	assert.Equal(t, oracle.OutcomeX, res.Outcome)
	assert.InDelta(t, 1.3, res.AvgPayoffY, 1e-12)
	assert.False(t, res.AttackSucceeded)
}

func TestSimulateOnce_FullPanelAttackAlwaysSucceeds(t *testing.T) {
	cfg := oracle.DefaultConfig()
	cfg.Attack = true
	cfg.BriberyPolicy = oracle.BriberyFullPanel
	sim := mustSimulator(t, cfg, 3)

	for i := 0; i < 20; i++ {
		res := sim.SimulateOnce()
		assert.Equal(t, cfg.NumJurors, res.Bribed)
		assert.Equal(t, cfg.NumJurors, res.VotesY)
		assert.True(t, res.AttackSucceeded)
	}
}

func TestSimulateOnce_RedistributiveConservation(t *testing.T) {
	cfg := oracle.DefaultConfig()
	cfg.PayoffType = oracle.PayoffRedistributive
	cfg.Honesty = 0.3
	cfg.P = 0.5
	cfg.D = 1.0
	sim := mustSimulator(t, cfg, 41)

	for i := 0; i < 300; i++ {
		res := sim.SimulateOnce()
		winners, losers, avg := res.VotesX, res.VotesY, res.AvgPayoffX
		if res.Outcome == oracle.OutcomeY {
			winners, losers, avg = res.VotesY, res.VotesX, res.AvgPayoffY
		}
		if winners == 0 || losers == 0 {
			continue
		}
		redistributed := float64(winners) * (avg - cfg.D)
		assert.InDelta(t, float64(losers)*cfg.D, redistributed, 1e-9)
	}
}

func TestBribeCount(t *testing.T) {
	tests := []struct {
		fraction float64
		n        int
		want     int
	}{
		{0, 11, 0},
		{0.2, 11, 2},
		{0.5, 5, 2}, // 2.5 rounds to even
		{0.5, 7, 4}, // 3.5 rounds to even
		{0.3, 10, 3},
		{1, 7, 7},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BribeCount(tt.fraction, tt.n), "fraction=%v n=%d", tt.fraction, tt.n)
	}
}
