package appeal

import (
	"context"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"oraclesim/domain/oracle"
	"oraclesim/internal/round"
)

// Chain escalates a dispute through appeal levels with a growing panel
type Chain struct {
	base   oracle.Config
	appeal oracle.AppealConfig
	rng    *rand.Rand
}

// NewChain validates both configurations. The chain takes ownership of rng.
func NewChain(base oracle.Config, appeal oracle.AppealConfig, rng *rand.Rand) (*Chain, error) {
	base = base.Normalize()
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if err := appeal.ValidateFor(base.NumJurors); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, round.ErrNilRandomSource
	}
	return &Chain{base: base, appeal: appeal, rng: rng}, nil
}

// Simulate runs level 0 and keeps appealing while the continuation draw succeeds
// and max_appeals has not been reached. Cancellation is checked between levels.
func (c *Chain) Simulate(ctx context.Context) ([]oracle.LevelResult, error) {
	var levels []oracle.LevelResult
	jurors := c.base.NumJurors

	for level := 0; ; level++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := c.simulateLevel(level, jurors)
		if err != nil {
			return nil, err
		}
		levels = append(levels, result)

		if !c.continues() || level >= c.appeal.MaxAppeals {
			break
		}
		jurors = oracle.NextPanelSize(jurors)
	}
	return levels, nil
}

// simulateLevel runs one level on a freshly built simulator, plus the attack-free replay under attack
func (c *Chain) simulateLevel(level, jurors int) (oracle.LevelResult, error) {
	cfg := c.base.WithJurors(jurors)

	sim, err := round.NewSimulator(cfg, c.rng)
	if err != nil {
		return oracle.LevelResult{}, err
	}
	res := sim.SimulateOnce()

	result := oracle.LevelResult{
		Level:     level,
		NumJurors: jurors,
		Round:     res,
	}
	if !cfg.Attack {
		return result, nil
	}

	replay, err := round.NewSimulator(cfg.WithAttack(false), substream(c.rng))
	if err != nil {
		return oracle.LevelResult{}, err
	}
	replayRes := replay.SimulateOnce()

	replayY := replayRes.VotesY
	delta := float64(res.VotesY-replayY) / float64(jurors) * 100
	result.ReplayVotesY = &replayY
	result.DeltaY = &delta
	return result, nil
}

// continues draws the Bernoulli(appeal_prob) continuation
func (c *Chain) continues() bool {
	return distuv.Bernoulli{P: c.appeal.AppealProb, Src: c.rng}.Rand() == 1
}

// substream derives an independent generator, advancing parent by two draws
func substream(parent *rand.Rand) *rand.Rand {
	return rand.New(rand.NewPCG(parent.Uint64(), parent.Uint64()))
}
