package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/parley/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one structured record per event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn_start",
				"session_id", e.SessionID,
				"model", e.Model,
				"messages", e.Messages,
			)
		},
		OnTurnComplete: func(ctx context.Context, e *domain.TurnEvent) {
			attrs := []any{
				"session_id", e.SessionID,
				"model", e.Model,
				"messages", e.Messages,
				"source", e.Source,
				"duration", e.Duration,
			}
			if e.Usage != nil {
				attrs = append(attrs, "total_tokens", e.Usage.TotalTokens)
			}
			logger.InfoContext(ctx, "turn_complete", attrs...)
		},
		OnTurnFailed: func(ctx context.Context, e *domain.TurnEvent) {
			logger.WarnContext(ctx, "turn_failed",
				"session_id", e.SessionID,
				"model", e.Model,
				"messages", e.Messages,
				"err", e.Err,
			)
		},
		OnClear: func(ctx context.Context, e *domain.TurnEvent) {
			logger.InfoContext(ctx, "clear", "session_id", e.SessionID)
		},
	}
}
