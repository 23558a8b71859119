package logging

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are added to every record logged with a context carrying them.
type LogFields struct {
	ConversationID string
	UserID         string
	Role           string
	SessionID      string
}

// WithLogFields merges fields into ctx. Non-empty values win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := GetLogFields(ctx)
	if fields.ConversationID != "" {
		merged.ConversationID = fields.ConversationID
	}
	if fields.UserID != "" {
		merged.UserID = fields.UserID
	}
	if fields.Role != "" {
		merged.Role = fields.Role
	}
	if fields.SessionID != "" {
		merged.SessionID = fields.SessionID
	}
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields returns the fields stored in ctx, or the zero value.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}
