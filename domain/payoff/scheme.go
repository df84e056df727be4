package payoff

import "oraclesim/domain/oracle"

// Scheme is a mechanism together with the attacker's compensation promise.
// Under attack every losing voter of the attack target is paid d+epsilon instead.
type Scheme struct {
	Mechanism
	Attack  bool
	D       float64
	Epsilon float64
}

// NewScheme builds the payoff scheme for a simulator configuration
func NewScheme(cfg oracle.Config) (Scheme, error) {
	m, err := NewMechanism(cfg)
	if err != nil {
		return Scheme{}, err
	}
	return Scheme{Mechanism: m, Attack: cfg.Attack, D: cfg.D, Epsilon: cfg.Epsilon}, nil
}

// Compensation is what the attacker pays a target voter on the losing side
func (s Scheme) Compensation() float64 {
	return s.D + s.Epsilon
}

// Payoff returns the payoff of a juror who voted vote when winner won with the given sides
func (s Scheme) Payoff(vote, winner oracle.Outcome, winners, losers int) float64 {
	if vote == winner {
		return s.Mechanism.Winner(winners, losers)
	}
	if s.Attack && vote == oracle.AttackTarget {
		return s.Compensation()
	}
	return s.Mechanism.Loser()
}

// Realized returns a juror's payoff given the actual round tally
func (s Scheme) Realized(vote, outcome oracle.Outcome, votesX, votesY int) float64 {
	winners, losers := votesX, votesY
	if outcome == oracle.OutcomeY {
		winners, losers = votesY, votesX
	}
	return s.Payoff(vote, outcome, winners, losers)
}

// Matrix is the 2x2 payoff table of one juror facing a fixed set of peer votes
type Matrix struct {
	NumJurors  int     `json:"num_jurors"`
	OthersX    int     `json:"others_x"`
	VoteXWinsX float64 `json:"vote_x_wins_x"`
	VoteXWinsY float64 `json:"vote_x_wins_y"`
	VoteYWinsX float64 `json:"vote_y_wins_x"`
	VoteYWinsY float64 `json:"vote_y_wins_y"`
}

// Table renders the payoff matrix for a juror on a panel of numJurors when othersX peers vote X.
// The winner column is imposed, so the juror's own vote is counted on the side it chose.
func (s Scheme) Table(numJurors, othersX int) Matrix {
	others := numJurors - 1
	if othersX < 0 {
		othersX = 0
	}
	if othersX > others {
		othersX = others
	}
	othersY := others - othersX

	return Matrix{
		NumJurors:  numJurors,
		OthersX:    othersX,
		VoteXWinsX: s.Payoff(oracle.OutcomeX, oracle.OutcomeX, othersX+1, othersY),
		VoteXWinsY: s.Payoff(oracle.OutcomeX, oracle.OutcomeY, othersY, othersX+1),
		VoteYWinsX: s.Payoff(oracle.OutcomeY, oracle.OutcomeX, othersX, othersY+1),
		VoteYWinsY: s.Payoff(oracle.OutcomeY, oracle.OutcomeY, othersY+1, othersX),
	}
}
