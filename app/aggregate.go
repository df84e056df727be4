package app

import (
	"github.com/montanaflynn/stats"

	"oraclesim/domain/oracle"
	"oraclesim/internal/profiling"
)

// aggregateRounds folds independent round results in simulation order
func aggregateRounds(cfg oracle.Config, rounds []oracle.RoundResult) *oracle.AggregateResult {
	n := len(rounds)
	result := &oracle.AggregateResult{
		Config:    cfg,
		TotalRuns: n,
		History:   make([]oracle.RoundRecord, n),
	}

	votesX := make(stats.Float64Data, n)
	votesY := make(stats.Float64Data, n)
	payoffX := make(stats.Float64Data, n)
	payoffY := make(stats.Float64Data, n)

	for i, r := range rounds {
		result.OutcomeCounts.Add(r.Outcome)
		result.History[i] = oracle.RoundRecord{
			Round:           i,
			VotesX:          r.VotesX,
			VotesY:          r.VotesY,
			AvgPayoffX:      r.AvgPayoffX,
			AvgPayoffY:      r.AvgPayoffY,
			Outcome:         r.Outcome,
			AttackSucceeded: r.AttackSucceeded,
		}
		votesX[i] = float64(r.VotesX)
		votesY[i] = float64(r.VotesY)
		payoffX[i] = r.AvgPayoffX
		payoffY[i] = r.AvgPayoffY
	}

	result.AverageVotesX = mean(votesX)
	result.AverageVotesY = mean(votesY)
	result.AveragePayoffX = mean(payoffX)
	result.AveragePayoffY = mean(payoffY)
	result.VotesXSummary = summarize(votesX)
	result.VotesYSummary = summarize(votesY)

	if cfg.Attack && n > 0 {
		result.AttackSuccessRate, result.AttackSuccessCI = successRate(result.OutcomeCounts)
	}
	return result
}

// levelAccumulator sums one appeal level across chains
type levelAccumulator struct {
	numJurors int
	count     int
	votesX    float64
	votesY    float64
	payoffX   float64
	payoffY   float64
	outcomes  oracle.OutcomeCounts
}

func (a *levelAccumulator) add(l oracle.LevelResult) {
	if a.count == 0 {
		a.numJurors = l.NumJurors
	}
	a.count++
	a.votesX += float64(l.Round.VotesX)
	a.votesY += float64(l.Round.VotesY)
	a.payoffX += l.Round.AvgPayoffX
	a.payoffY += l.Round.AvgPayoffY
	a.outcomes.Add(l.Round.Outcome)
}

func (a *levelAccumulator) levelStats(level int) oracle.LevelStats {
	s := oracle.LevelStats{Level: level, NumJurors: a.numJurors, Count: a.count}
	if a.count == 0 {
		return s
	}
	c := float64(a.count)
	s.AvgVotesX = a.votesX / c
	s.AvgVotesY = a.votesY / c
	s.AvgPayoffX = a.payoffX / c
	s.AvgPayoffY = a.payoffY / c
	s.OutcomeShareX = a.outcomes.Share(oracle.OutcomeX)
	s.OutcomeShareY = a.outcomes.Share(oracle.OutcomeY)
	return s
}

// aggregateAppeals folds independent appeal chains in simulation order
func aggregateAppeals(cfg oracle.Config, appeal oracle.AppealConfig, chains [][]oracle.LevelResult, recordAllLevels bool) *oracle.AppealAggregateResult {
	result := &oracle.AppealAggregateResult{
		Config:    cfg,
		Appeal:    appeal,
		TotalRuns: len(chains),
	}

	acc := make([]levelAccumulator, appeal.Levels())
	var deltas stats.Float64Data

	for sim, chain := range chains {
		if len(chain) == 0 {
			continue
		}
		final := chain[len(chain)-1]
		result.FinalOutcomeCounts.Add(final.Round.Outcome)
		if final.DeltaY != nil {
			deltas = append(deltas, *final.DeltaY)
		}

		for _, l := range chain {
			acc[l.Level].add(l)
			isFinal := l.Level == final.Level
			if recordAllLevels || isFinal {
				result.Records = append(result.Records, newAppealRecord(sim, l, isFinal))
			}
		}

		if first := chain[0]; first.ReplayVotesY != nil {
			result.VotesXNoAttackLevel0 = append(result.VotesXNoAttackLevel0, first.NumJurors-*first.ReplayVotesY)
			result.VotesYNoAttackLevel0 = append(result.VotesYNoAttackLevel0, *first.ReplayVotesY)
		}
	}

	result.Levels = make([]oracle.LevelStats, len(acc))
	for level := range acc {
		result.Levels[level] = acc[level].levelStats(level)
	}

	if cfg.Attack && result.FinalOutcomeCounts.Total() > 0 {
		result.AttackSuccessRate, result.AttackSuccessCI = successRate(result.FinalOutcomeCounts)
	}
	if cfg.Attack && len(deltas) > 0 {
		effect := mean(deltas)
		summary := summarize(deltas)
		result.MeanAttackEffect = &effect
		result.AttackEffectSummary = &summary
	}
	return result
}

func newAppealRecord(sim int, l oracle.LevelResult, final bool) oracle.AppealRecord {
	rec := oracle.AppealRecord{
		Simulation: sim,
		Level:      l.Level,
		NumJurors:  l.NumJurors,
		VotesX:     l.Round.VotesX,
		VotesY:     l.Round.VotesY,
		AvgPayoffX: l.Round.AvgPayoffX,
		AvgPayoffY: l.Round.AvgPayoffY,
		Outcome:    l.Round.Outcome,
		Final:      final,
	}
	if l.ReplayVotesY != nil {
		replayY := *l.ReplayVotesY
		replayX := l.NumJurors - replayY
		deltaVotes := l.Round.VotesY - replayY
		rec.VotesXNoAttack = &replayX
		rec.VotesYNoAttack = &replayY
		rec.DeltaYVotes = &deltaVotes
		rec.DeltaYPoints = l.DeltaY
	}
	return rec
}

// mean returns 0 for an empty sample
func mean(data stats.Float64Data) float64 {
	m, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return m
}

// summarize describes a sample; an empty sample yields the zero Summary
func summarize(data stats.Float64Data) oracle.Summary {
	s, err := profiling.Describe(data)
	if err != nil {
		return oracle.Summary{}
	}
	return s
}

// successRate is the share of attacker-target outcomes with its Wilson interval
func successRate(counts oracle.OutcomeCounts) (*float64, *oracle.Interval) {
	rate := counts.Share(oracle.AttackTarget)
	ci, err := profiling.WilsonInterval(counts.Y, counts.Total(), profiling.DefaultConfidence)
	if err != nil {
		return &rate, nil
	}
	return &rate, &ci
}
