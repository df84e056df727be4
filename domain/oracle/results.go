package oracle

import (
	"encoding/json"

	"oraclesim/domain/core"
)

// RoundResult is the outcome of one simulated voting round
type RoundResult struct {
	Outcome         Outcome `json:"outcome"`
	VotesX          int     `json:"votes_x"`
	VotesY          int     `json:"votes_y"`
	AvgPayoffX      float64 `json:"avg_payoff_x"`
	AvgPayoffY      float64 `json:"avg_payoff_y"`
	NumJurors       int     `json:"num_jurors"`
	Bribed          int     `json:"bribed"`
	AttackSucceeded bool    `json:"attack_succeeded"`
}

// LevelResult is one appeal level of a chain. Replay fields are set only under attack.
type LevelResult struct {
	Level        int         `json:"level"`
	NumJurors    int         `json:"num_jurors"`
	Round        RoundResult `json:"round"`
	ReplayVotesY *int        `json:"replay_votes_y,omitempty"`
	DeltaY       *float64    `json:"delta_y,omitempty"`
}

// OutcomeCounts tallies how often each outcome won
type OutcomeCounts struct {
	X int `json:"X"`
	Y int `json:"Y"`
}

// Add counts one win for o
func (c *OutcomeCounts) Add(o Outcome) {
	if o == OutcomeX {
		c.X++
		return
	}
	c.Y++
}

// Total returns the number of counted outcomes
func (c OutcomeCounts) Total() int {
	return c.X + c.Y
}

// Share returns the fraction of wins for o, 0 when nothing was counted
func (c OutcomeCounts) Share(o Outcome) float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	if o == OutcomeX {
		return float64(c.X) / float64(total)
	}
	return float64(c.Y) / float64(total)
}

// Summary describes the distribution of a sample. Kurtosis is excess kurtosis.
type Summary struct {
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	P5       float64 `json:"p5"`
	P95      float64 `json:"p95"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
}

// Interval is a two-sided confidence interval
type Interval struct {
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Confidence float64 `json:"confidence"`
}

// RoundRecord is one row of the per-round history
type RoundRecord struct {
	Round           int     `json:"round"`
	VotesX          int     `json:"votes_x"`
	VotesY          int     `json:"votes_y"`
	AvgPayoffX      float64 `json:"avg_payoff_x"`
	AvgPayoffY      float64 `json:"avg_payoff_y"`
	Outcome         Outcome `json:"outcome"`
	AttackSucceeded bool    `json:"attack_succeeded"`
}

// AggregateResult is the fold of many independent rounds
type AggregateResult struct {
	RunID             core.RunID    `json:"run_id"`
	Fingerprint       core.Hash     `json:"fingerprint"`
	Config            Config        `json:"config"`
	Seed              int64         `json:"seed"`
	TotalRuns         int           `json:"total_runs"`
	OutcomeCounts     OutcomeCounts `json:"outcome_counts"`
	AttackSuccessRate *float64      `json:"attack_success_rate"`
	AttackSuccessCI   *Interval     `json:"attack_success_ci,omitempty"`
	AverageVotesX     float64       `json:"average_votes_x"`
	AverageVotesY     float64       `json:"average_votes_y"`
	AveragePayoffX    float64       `json:"average_payoff_x"`
	AveragePayoffY    float64       `json:"average_payoff_y"`
	VotesXSummary     Summary       `json:"votes_x_summary"`
	VotesYSummary     Summary       `json:"votes_y_summary"`
	History           []RoundRecord `json:"history"`
}

// HistoryX returns the X vote count of every round in order
func (r *AggregateResult) HistoryX() []int {
	out := make([]int, len(r.History))
	for i, rec := range r.History {
		out[i] = rec.VotesX
	}
	return out
}

// HistoryY returns the Y vote count of every round in order
func (r *AggregateResult) HistoryY() []int {
	out := make([]int, len(r.History))
	for i, rec := range r.History {
		out[i] = rec.VotesY
	}
	return out
}

// AppealRecord is one tabular row of an appeal run
type AppealRecord struct {
	Simulation     int      `json:"simulation"`
	Level          int      `json:"level"`
	NumJurors      int      `json:"num_jurors"`
	VotesX         int      `json:"votes_x"`
	VotesY         int      `json:"votes_y"`
	AvgPayoffX     float64  `json:"avg_payoff_x"`
	AvgPayoffY     float64  `json:"avg_payoff_y"`
	Outcome        Outcome  `json:"outcome"`
	Final          bool     `json:"final"`
	VotesXNoAttack *int     `json:"votes_x_no_attack,omitempty"`
	VotesYNoAttack *int     `json:"votes_y_no_attack,omitempty"`
	DeltaYVotes    *int     `json:"delta_y_votes,omitempty"`
	DeltaYPoints   *float64 `json:"delta_y_points,omitempty"`
}

// LevelStats are the per-level aggregates of an appeal run
type LevelStats struct {
	Level         int     `json:"level"`
	NumJurors     int     `json:"num_jurors"`
	Count         int     `json:"count"`
	AvgVotesX     float64 `json:"avg_votes_x"`
	AvgVotesY     float64 `json:"avg_votes_y"`
	AvgPayoffX    float64 `json:"avg_payoff_x"`
	AvgPayoffY    float64 `json:"avg_payoff_y"`
	OutcomeShareX float64 `json:"outcome_share_x"`
	OutcomeShareY float64 `json:"outcome_share_y"`
}

// AppealAggregateResult is the fold of many independent appeal chains
type AppealAggregateResult struct {
	RunID                core.RunID     `json:"run_id"`
	Fingerprint          core.Hash      `json:"fingerprint"`
	Config               Config         `json:"config"`
	Appeal               AppealConfig   `json:"appeal"`
	Seed                 int64          `json:"seed"`
	TotalRuns            int            `json:"total_runs"`
	FinalOutcomeCounts   OutcomeCounts  `json:"final_outcome_counts"`
	AttackSuccessRate    *float64       `json:"attack_success_rate"`
	AttackSuccessCI      *Interval      `json:"attack_success_ci,omitempty"`
	MeanAttackEffect     *float64       `json:"mean_attack_effect"`
	AttackEffectSummary  *Summary       `json:"attack_effect_summary,omitempty"`
	Levels               []LevelStats   `json:"levels"`
	Records              []AppealRecord `json:"records"`
	VotesXNoAttackLevel0 []int          `json:"votes_x_no_attack_level_0,omitempty"`
	VotesYNoAttackLevel0 []int          `json:"votes_y_no_attack_level_0,omitempty"`
}

// MarshalJSON adds the per-level arrays, each of length max_appeals+1, beside the level table
func (r AppealAggregateResult) MarshalJSON() ([]byte, error) {
	type plain AppealAggregateResult
	return json.Marshal(struct {
		plain
		AvgVotesXByLevel  []float64 `json:"avg_votes_x_by_level"`
		AvgVotesYByLevel  []float64 `json:"avg_votes_y_by_level"`
		AvgPayoffXByLevel []float64 `json:"avg_payoff_x_by_level"`
		AvgPayoffYByLevel []float64 `json:"avg_payoff_y_by_level"`
		NumJurorsByLevel  []int     `json:"num_jurors_by_level"`
	}{
		plain:             plain(r),
		AvgVotesXByLevel:  r.AvgVotesXByLevel(),
		AvgVotesYByLevel:  r.AvgVotesYByLevel(),
		AvgPayoffXByLevel: r.AvgPayoffXByLevel(),
		AvgPayoffYByLevel: r.AvgPayoffYByLevel(),
		NumJurorsByLevel:  r.NumJurorsByLevel(),
	})
}

// AvgVotesXByLevel returns the per-level X vote averages, zero for unreached levels
func (r *AppealAggregateResult) AvgVotesXByLevel() []float64 {
	return r.levelValues(func(l LevelStats) float64 { return l.AvgVotesX })
}

// AvgVotesYByLevel returns the per-level Y vote averages, zero for unreached levels
func (r *AppealAggregateResult) AvgVotesYByLevel() []float64 {
	return r.levelValues(func(l LevelStats) float64 { return l.AvgVotesY })
}

// AvgPayoffXByLevel returns the per-level X payoff averages
func (r *AppealAggregateResult) AvgPayoffXByLevel() []float64 {
	return r.levelValues(func(l LevelStats) float64 { return l.AvgPayoffX })
}

// AvgPayoffYByLevel returns the per-level Y payoff averages
func (r *AppealAggregateResult) AvgPayoffYByLevel() []float64 {
	return r.levelValues(func(l LevelStats) float64 { return l.AvgPayoffY })
}

// NumJurorsByLevel returns the panel size of each level, zero for unreached levels
func (r *AppealAggregateResult) NumJurorsByLevel() []int {
	out := make([]int, len(r.Levels))
	for i, l := range r.Levels {
		out[i] = l.NumJurors
	}
	return out
}

// LevelCounts returns how many chains reached each level
func (r *AppealAggregateResult) LevelCounts() []int {
	out := make([]int, len(r.Levels))
	for i, l := range r.Levels {
		out[i] = l.Count
	}
	return out
}

// HistoryX flattens the X votes of all records in chronological order
func (r *AppealAggregateResult) HistoryX() []int {
	out := make([]int, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.VotesX
	}
	return out
}

// HistoryY flattens the Y votes of all records in chronological order
func (r *AppealAggregateResult) HistoryY() []int {
	out := make([]int, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.VotesY
	}
	return out
}

func (r *AppealAggregateResult) levelValues(pick func(LevelStats) float64) []float64 {
	out := make([]float64, len(r.Levels))
	for i, l := range r.Levels {
		out[i] = pick(l)
	}
	return out
}
