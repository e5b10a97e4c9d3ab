package auditobs

import (
	"context"
	"time"

	"tradelog-audit/internal/interfaces"
	"tradelog-audit/internal/logger"
	"tradelog-audit/internal/report"
	"tradelog-audit/internal/trace"
)

type observableAuditor struct {
	auditor interfaces.Auditor
}

var _ interfaces.Auditor = (*observableAuditor)(nil)

func Wrap(a interfaces.Auditor) interfaces.Auditor {
	return &observableAuditor{auditor: a}
}

func (oa *observableAuditor) Run(ctx context.Context) (*report.Outcome, error) {
	ctx, span := trace.StartSpan(ctx, "audit.Run")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting validation run")

	outcome, err := oa.auditor.Run(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Validation run failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	fields := []any{
		"checks", len(outcome.Results),
		"infos", len(outcome.Infos),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if outcome.Report != nil {
		fields = append(fields,
			"errors", outcome.Report.Errors,
			"warnings", outcome.Report.Warnings,
		)
	}
	logger.InfoSkip(ctx, 1, "Validation run completed", fields...)

	return outcome, nil
}
