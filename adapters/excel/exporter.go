package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"oraclesim/domain/oracle"
	"oraclesim/internal"
	"oraclesim/internal/errors"
	"oraclesim/ports"
)

// Exporter writes aggregate results as xlsx workbooks, or as a single csv
// table when the path ends in .csv
type Exporter struct {
	logger *internal.Logger
}

var _ ports.ResultExporter = (*Exporter)(nil)

// NewExporter creates an exporter
func NewExporter(logger *internal.Logger) *Exporter {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Exporter{logger: logger}
}

// ExportRounds writes one row per round plus a summary sheet
func (e *Exporter) ExportRounds(ctx context.Context, result *oracle.AggregateResult, path string) error {
	if result == nil {
		return errors.InvalidInput("no result to export")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := make([][]interface{}, len(result.History))
	for i, rec := range result.History {
		rows[i] = []interface{}{
			rec.Round, rec.VotesX, rec.VotesY, rec.AvgPayoffX, rec.AvgPayoffY,
			rec.Outcome.String(), rec.AttackSucceeded,
		}
	}

	summary := [][]interface{}{
		{"run_id", result.RunID.String()},
		{"fingerprint", result.Fingerprint.String()},
		{"seed", result.Seed},
		{"total_runs", result.TotalRuns},
		{"outcome_x", result.OutcomeCounts.X},
		{"outcome_y", result.OutcomeCounts.Y},
		{"attack_success_rate", optionalFloat(result.AttackSuccessRate)},
		{"average_votes_x", result.AverageVotesX},
		{"average_votes_y", result.AverageVotesY},
		{"average_payoff_x", result.AveragePayoffX},
		{"average_payoff_y", result.AveragePayoffY},
		{"votes_y_p5", result.VotesYSummary.P5},
		{"votes_y_p95", result.VotesYSummary.P95},
	}
	summary = append(summary, configRows(result.Config)...)

	return e.write(path, workbook{
		rounds:  table{headers: roundHeaders, rows: rows},
		summary: summary,
	})
}

// ExportAppeals writes the flattened appeal records, per-level statistics and a summary sheet
func (e *Exporter) ExportAppeals(ctx context.Context, result *oracle.AppealAggregateResult, path string) error {
	if result == nil {
		return errors.InvalidInput("no result to export")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := make([][]interface{}, len(result.Records))
	for i, rec := range result.Records {
		rows[i] = []interface{}{
			rec.Simulation, rec.Level, rec.NumJurors, rec.VotesX, rec.VotesY, rec.AvgPayoffX, rec.AvgPayoffY,
			rec.Outcome.String(), rec.Final, optionalInt(rec.VotesXNoAttack), optionalInt(rec.VotesYNoAttack),
			optionalInt(rec.DeltaYVotes), optionalFloat(rec.DeltaYPoints),
		}
	}

	levels := make([][]interface{}, len(result.Levels))
	for i, l := range result.Levels {
		levels[i] = []interface{}{
			l.Level, l.NumJurors, l.Count, l.AvgVotesX, l.AvgVotesY, l.AvgPayoffX, l.AvgPayoffY,
			l.OutcomeShareX, l.OutcomeShareY,
		}
	}

	summary := [][]interface{}{
		{"run_id", result.RunID.String()},
		{"fingerprint", result.Fingerprint.String()},
		{"seed", result.Seed},
		{"total_runs", result.TotalRuns},
		{"final_outcome_x", result.FinalOutcomeCounts.X},
		{"final_outcome_y", result.FinalOutcomeCounts.Y},
		{"attack_success_rate", optionalFloat(result.AttackSuccessRate)},
		{"mean_attack_effect", optionalFloat(result.MeanAttackEffect)},
		{"appeal_prob", result.Appeal.AppealProb},
		{"max_appeals", result.Appeal.MaxAppeals},
	}
	summary = append(summary, configRows(result.Config)...)

	return e.write(path, workbook{
		rounds:  table{headers: recordHeaders, rows: rows},
		levels:  &table{headers: levelHeaders, rows: levels},
		summary: summary,
	})
}

type table struct {
	headers []string
	rows    [][]interface{}
}

type workbook struct {
	rounds  table
	levels  *table
	summary [][]interface{}
}

func (e *Exporter) write(path string, wb workbook) error {
	startTime := time.Now()

	var err error
	if fileTypeOf(path) == "csv" {
		err = writeCSV(path, wb.rounds)
	} else {
		err = writeXLSX(path, wb)
	}
	if err != nil {
		e.logger.Error("[Exporter] Failed to write %s: %v", path, err)
		return errors.ExportFailed(path, err)
	}

	e.logger.Info("[Exporter] Wrote %d rows to %s in %v", len(wb.rounds.rows), path, time.Since(startTime))
	return nil
}

func writeXLSX(path string, wb workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRounds); err != nil {
		return err
	}
	if err := writeTable(f, SheetRounds, wb.rounds); err != nil {
		return err
	}

	if wb.levels != nil {
		if _, err := f.NewSheet(SheetLevels); err != nil {
			return err
		}
		if err := writeTable(f, SheetLevels, *wb.levels); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	summary := table{headers: []string{"key", "value"}, rows: wb.summary}
	if err := writeTable(f, SheetSummary, summary); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func writeTable(f *excelize.File, sheet string, t table) error {
	header := make([]interface{}, len(t.headers))
	for i, h := range t.headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, row := range t.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func writeCSV(path string, t table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(t.headers); err != nil {
		return err
	}
	for _, row := range t.rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = cellText(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

func configRows(cfg oracle.Config) [][]interface{} {
	return [][]interface{}{
		{"num_jurors", cfg.NumJurors},
		{"payoff_type", string(cfg.PayoffType)},
		{"attack", cfg.Attack},
		{"bribery_policy", string(cfg.BriberyPolicy)},
		{"bribed_fraction", cfg.BribedFraction},
		{"peer_estimator", string(cfg.ResolvedEstimator())},
		{"honesty", cfg.Honesty},
		{"rationality", cfg.Rationality},
		{"noise", cfg.Noise},
		{"p", cfg.P},
		{"d", cfg.D},
		{"epsilon", cfg.Epsilon},
		{"x_guess_noise", cfg.XGuessNoise},
		{"beta", cfg.Beta},
	}
}

// optionalInt and optionalFloat leave the cell empty for nil
func optionalInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optionalFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func cellText(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
