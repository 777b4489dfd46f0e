package zap

import (
	"context"
	"os"
	"strings"

	"github.com/theory-cloud/sitetheory/pkg/observability"
)

// ConfigFromEnvironment reads SITETHEORY_LOG_LEVEL and SITETHEORY_LOG_FORMAT.
func ConfigFromEnvironment() observability.LoggerConfig {
	return observability.LoggerConfig{
		Level:        strings.TrimSpace(os.Getenv("SITETHEORY_LOG_LEVEL")),
		Format:       strings.TrimSpace(os.Getenv("SITETHEORY_LOG_FORMAT")),
		EnableCaller: os.Getenv("SITETHEORY_LOG_CALLER") == "true",
	}
}

// NewFromEnvironment builds the process logger: environment-driven config plus optional SNS
// error notifications.
func NewFromEnvironment(ctx context.Context, options ...Option) (observability.StructuredLogger, error) {
	opts := append([]Option{WithEnvironmentErrorNotifications(ctx, DefaultEnvironmentErrorNotifications())}, options...)
	return NewZapLogger(ConfigFromEnvironment(), opts...)
}
