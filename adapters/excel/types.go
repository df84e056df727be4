package excel

// Sheet names written by the exporter
const (
	SheetRounds  = "Rounds"
	SheetLevels  = "Levels"
	SheetSummary = "Summary"
)

// RawRowData represents a row of a sheet as header -> cell text
type RawRowData map[string]string

// SheetData represents one sheet read back from an export
type SheetData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Column returns every row's value for header, in row order
func (d *SheetData) Column(header string) []string {
	values := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		values[i] = row[header]
	}
	return values
}

var roundHeaders = []string{
	"round", "votes_x", "votes_y", "avg_payoff_x", "avg_payoff_y", "outcome", "attack_succeeded",
}

var recordHeaders = []string{
	"simulation", "level", "num_jurors", "votes_x", "votes_y", "avg_payoff_x", "avg_payoff_y",
	"outcome", "final", "votes_x_no_attack", "votes_y_no_attack", "delta_y_votes", "delta_y_points",
}

var levelHeaders = []string{
	"level", "num_jurors", "count", "avg_votes_x", "avg_votes_y", "avg_payoff_x", "avg_payoff_y",
	"outcome_share_x", "outcome_share_y",
}
