package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"oraclesim/domain/oracle"
	"oraclesim/domain/payoff"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printConfig(w io.Writer, cfg oracle.Config) {
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf(
		"jurors=%d payoff=%s attack=%v bribery=%s bribed_fraction=%.2f estimator=%s honesty=%.2f rationality=%.2f noise=%.2f p=%.2f d=%.2f epsilon=%.2f",
		cfg.NumJurors, cfg.PayoffType, cfg.Attack, cfg.BriberyPolicy, cfg.BribedFraction, cfg.ResolvedEstimator(),
		cfg.Honesty, cfg.Rationality, cfg.Noise, cfg.P, cfg.D, cfg.Epsilon)))
}

func printRoundSummary(w io.Writer, name string, result *oracle.AggregateResult) {
	title := "Round simulation"
	if name != "" {
		title += ": " + name
	}
	fmt.Fprintln(w, titleStyle.Render(title))
	printConfig(w, result.Config)
	fmt.Fprintf(w, "run %s  seed %d  fingerprint %s\n\n", result.RunID, result.Seed, result.Fingerprint.Short())

	t := newTable("", "X", "Y")
	t.Row("outcomes", strconv.Itoa(result.OutcomeCounts.X), strconv.Itoa(result.OutcomeCounts.Y))
	t.Row("outcome share", pct(result.OutcomeCounts.Share(oracle.OutcomeX)), pct(result.OutcomeCounts.Share(oracle.OutcomeY)))
	t.Row("avg votes", f2(result.AverageVotesX), f2(result.AverageVotesY))
	t.Row("avg payoff", f3(result.AveragePayoffX), f3(result.AveragePayoffY))
	t.Row("votes p5..p95",
		fmt.Sprintf("%.0f..%.0f", result.VotesXSummary.P5, result.VotesXSummary.P95),
		fmt.Sprintf("%.0f..%.0f", result.VotesYSummary.P5, result.VotesYSummary.P95))
	fmt.Fprintln(w, t.Render())

	printAttackRate(w, result.AttackSuccessRate, result.AttackSuccessCI)
}

func printAppealSummary(w io.Writer, name string, result *oracle.AppealAggregateResult) {
	title := "Appeal simulation"
	if name != "" {
		title += ": " + name
	}
	fmt.Fprintln(w, titleStyle.Render(title))
	printConfig(w, result.Config)
	fmt.Fprintf(w, "appeal_prob=%.2f max_appeals=%d  run %s  seed %d  fingerprint %s\n\n",
		result.Appeal.AppealProb, result.Appeal.MaxAppeals, result.RunID, result.Seed, result.Fingerprint.Short())

	t := newTable("level", "jurors", "reached", "avg votes X", "avg votes Y", "avg payoff X", "avg payoff Y", "X won", "Y won")
	for _, l := range result.Levels {
		t.Row(strconv.Itoa(l.Level), strconv.Itoa(l.NumJurors), strconv.Itoa(l.Count),
			f2(l.AvgVotesX), f2(l.AvgVotesY), f3(l.AvgPayoffX), f3(l.AvgPayoffY),
			pct(l.OutcomeShareX), pct(l.OutcomeShareY))
	}
	fmt.Fprintln(w, t.Render())

	fmt.Fprintf(w, "Final outcomes: X=%d Y=%d\n", result.FinalOutcomeCounts.X, result.FinalOutcomeCounts.Y)
	printAttackRate(w, result.AttackSuccessRate, result.AttackSuccessCI)
	if result.MeanAttackEffect != nil {
		fmt.Fprintf(w, "Mean attack effect: %+.2f percentage points of Y votes\n", *result.MeanAttackEffect)
	}
}

func printAttackRate(w io.Writer, rate *float64, ci *oracle.Interval) {
	if rate == nil {
		return
	}
	if ci == nil {
		fmt.Fprintf(w, "Attack success rate: %s\n", pct(*rate))
		return
	}
	fmt.Fprintf(w, "Attack success rate: %s (%.0f%% CI %s..%s)\n",
		pct(*rate), ci.Confidence*100, pct(ci.Lower), pct(ci.Upper))
}

// printPayoffMatrix prints what one juror earns for each vote/outcome pair,
// for every possible count of X-voting peers
func printPayoffMatrix(w io.Writer, cfg oracle.Config) error {
	scheme, err := payoff.NewScheme(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Payoff matrix (%s, attack=%v)", cfg.PayoffType, cfg.Attack)))
	t := newTable("peers voting X", "vote X, X wins", "vote X, Y wins", "vote Y, X wins", "vote Y, Y wins")
	for othersX := 0; othersX < cfg.NumJurors; othersX++ {
		m := scheme.Table(cfg.NumJurors, othersX)
		t.Row(strconv.Itoa(m.OthersX), f3(m.VoteXWinsX), f3(m.VoteXWinsY), f3(m.VoteYWinsX), f3(m.VoteYWinsY))
	}
	fmt.Fprintln(w, t.Render())
	if cfg.Attack {
		fmt.Fprintf(w, "Compensation to losing Y voters: %s\n", f3(scheme.Compensation()))
	}
	fmt.Fprintln(w)
	return nil
}

func f2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
func f3(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }
func pct(v float64) string { return strconv.FormatFloat(v*100, 'f', 1, 64) + "%" }
