package ports

import (
	"context"

	"oraclesim/domain/oracle"
)

// ResultExporter writes aggregate results to a tabular file
type ResultExporter interface {
	ExportRounds(ctx context.Context, result *oracle.AggregateResult, path string) error
	ExportAppeals(ctx context.Context, result *oracle.AppealAggregateResult, path string) error
}
