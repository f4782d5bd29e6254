package bootprobe

import (
	"context"

	"github.com/asynkron/termbench/internal/applog"
)

// BuildAugmentation runs the boot probe suite for the provided context and
// returns the structured result, the formatted summary, and the combined
// augmentation string that should be forwarded to the agent's system prompt.
// An optional logger records what was detected at debug level; callers that
// don't pass one get a no-op logger, so existing call sites keep compiling.
func BuildAugmentation(ctx *Context, userAugment string, logger ...applog.Logger) (Result, string, string) {
	log := resolveLogger(logger)
	ctx.WithLogger(log)

	result := Run(ctx)
	summary := FormatSummary(result)
	combined := CombineAugmentation(summary, userAugment)

	if result.HasCapabilities() {
		log.Debug(context.Background(), "bootprobe: detected project tooling", applog.F("summary", summary))
	} else {
		log.Debug(context.Background(), "bootprobe: no project tooling detected")
	}

	return result, summary, combined
}

func resolveLogger(loggers []applog.Logger) applog.Logger {
	for _, l := range loggers {
		if l != nil {
			return l
		}
	}
	return &applog.NoOpLogger{}
}
