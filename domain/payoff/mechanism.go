package payoff

import (
	"fmt"

	"oraclesim/domain/core"
	"oraclesim/domain/oracle"
)

// Mechanism computes what a juror is paid once an outcome is known
type Mechanism interface {
	Type() oracle.PayoffType
	// Winner is the payoff of a juror on the winning side
	Winner(winners, losers int) float64
	// Loser is the payoff of a juror on the losing side
	Loser() float64
}

// Basic returns the deposit plus a p*d reward to winners. Losers forfeit the deposit.
type Basic struct {
	P float64
	D float64
}

func (Basic) Type() oracle.PayoffType { return oracle.PayoffBasic }

func (m Basic) Winner(winners, losers int) float64 {
	return m.D + m.P*m.D
}

func (Basic) Loser() float64 { return 0 }

// Redistributive splits the losers' deposits equally among the winners
type Redistributive struct {
	D float64
}

func (Redistributive) Type() oracle.PayoffType { return oracle.PayoffRedistributive }

func (m Redistributive) Winner(winners, losers int) float64 {
	if winners == 0 || losers == 0 {
		return m.D
	}
	return m.D + float64(losers)*m.D/float64(winners)
}

func (Redistributive) Loser() float64 { return 0 }

// Symbiotic redistributes a beta share of each loser's deposit and adds an external p*d reward
type Symbiotic struct {
	P    float64
	D    float64
	Beta float64
}

func (Symbiotic) Type() oracle.PayoffType { return oracle.PayoffSymbiotic }

// ExternalReward is the fixed p*d paid to every winner
func (m Symbiotic) ExternalReward() float64 {
	return m.P * m.D
}

func (m Symbiotic) Winner(winners, losers int) float64 {
	if winners == 0 || losers == 0 {
		return m.D + m.ExternalReward()
	}
	return m.D + float64(losers)*m.Beta*m.D/float64(winners) + m.ExternalReward()
}

func (m Symbiotic) Loser() float64 {
	return (1 - m.Beta) * m.D
}

// NewMechanism builds the mechanism selected by cfg.PayoffType
func NewMechanism(cfg oracle.Config) (Mechanism, error) {
	t, err := oracle.ParsePayoffType(string(cfg.PayoffType))
	if err != nil {
		return nil, err
	}
	switch t {
	case oracle.PayoffBasic:
		return Basic{P: cfg.P, D: cfg.D}, nil
	case oracle.PayoffRedistributive:
		return Redistributive{D: cfg.D}, nil
	case oracle.PayoffSymbiotic:
		return Symbiotic{P: cfg.P, D: cfg.D, Beta: cfg.Beta}, nil
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnknownPayoffType, cfg.PayoffType)
}
