package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldEndpoint is the structured log field key for the analysis endpoint URL.
	FieldEndpoint = "endpoint"
	// FieldRequestID is the structured log field key for the per-submission request id.
	FieldRequestID = "request_id"
	// FieldResume is the structured log field key for the selected resume file name.
	FieldResume = "resume"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger is replaced with a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// RequestFields returns the fields describing a single analysis submission.
// Empty values are skipped.
func RequestFields(endpoint, requestID, resume string) []zap.Field {
	return StringFields(
		StringField{Key: FieldEndpoint, Value: endpoint},
		StringField{Key: FieldRequestID, Value: requestID},
		StringField{Key: FieldResume, Value: resume},
	)
}

// WithRequestFields attaches the submission fields to the provided logger.
func WithRequestFields(logger *zap.Logger, endpoint, requestID, resume string) *zap.Logger {
	return WithFields(logger, RequestFields(endpoint, requestID, resume)...)
}
