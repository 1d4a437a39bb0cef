package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldJobID         = "job_id"
	FieldApplicationID = "application_id"
	FieldRequestID     = "request_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the key/value pairs into zap fields.
// Keys and values are trimmed; pairs with an empty side are dropped.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to the logger. A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// MatchFields identifies a job and, optionally, one of its applications.
func MatchFields(jobID, applicationID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldJobID, Value: jobID},
		StringField{Key: FieldApplicationID, Value: applicationID},
	)
}

func RequestFields(requestID string) []zap.Field {
	return StringFields(StringField{Key: FieldRequestID, Value: requestID})
}

// ForJob returns a logger scoped to a job.
func ForJob(logger *zap.Logger, jobID string) *zap.Logger {
	return WithFields(logger, MatchFields(jobID, "")...)
}
