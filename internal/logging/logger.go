package logging

import (
	"go.uber.org/zap"
)

// NewLogger builds a production ready structured logger.
func NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	return cfg.Build()
}

// WithOperation enriches the logger with the operation name and the source
// object key being processed.
func WithOperation(logger *zap.Logger, operation, key string) *zap.Logger {
	fields := []zap.Field{zap.String("operation", operation)}
	if key != "" {
		fields = append(fields, zap.String("s3_key", key))
	}
	return logger.With(fields...)
}
