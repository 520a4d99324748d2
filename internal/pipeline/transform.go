package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/water-testing-etl/internal/domain"
)

// ResultTransformer implements Transformer by parsing a lab result record and
// deriving its water chemistry.
type ResultTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a ResultTransformer.
func NewTransformer(logger *slog.Logger) *ResultTransformer {
	return &ResultTransformer{logger: logger}
}

func (t *ResultTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.TestResult, error) {
	result, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.TestResult{}, err
	}

	result, err = domain.EnrichTestResult(result)
	if err != nil {
		return domain.TestResult{}, err
	}

	if len(result.Flags) > 0 {
		t.logger.Debug("implausible chemistry",
			"id", result.ID,
			"source", result.Source.Name,
			"flags", result.Flags,
		)
	}

	return result, nil
}
