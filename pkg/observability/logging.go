package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/bifrost/pkg/domain"
)

// LogHooks returns hooks that log evaluation events with logger.
// Phase transitions are logged at debug level.
func LogHooks(logger *slog.Logger) domain.EvaluationHooks {
	return domain.EvaluationHooks{
		OnEvaluationStart: func(ctx context.Context, e *domain.EvaluationEvent) {
			logger.InfoContext(ctx, "evaluation_start", "channel", e.Channel, "expression", e.Expression)
		},
		OnPhase: func(ctx context.Context, e *domain.EvaluationEvent) {
			logger.DebugContext(ctx, "evaluation_phase", "channel", e.Channel, "phase", e.Phase)
		},
		OnEvaluationEnd: func(ctx context.Context, e *domain.EvaluationEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "evaluation_end",
					"channel", e.Channel,
					"kind", domain.ErrorKind(e.Err),
					"duration", e.Duration,
					"err", e.Err,
				)
				return
			}
			logger.InfoContext(ctx, "evaluation_end",
				"channel", e.Channel,
				"result", e.Result,
				"duration", e.Duration,
			)
		},
	}
}
