package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names so log lines from handlers, services and the hub line up.
const (
	FieldUserID        = "user_id"
	FieldApplicationID = "application_id"
	FieldChannelID     = "channel_id"
	FieldMessageID     = "message_id"
	FieldScheduleID    = "schedule_id"
	FieldStatus        = "status"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldVersion       = "version"
)

// Logger is the process-wide logger. It is a no-op until Initialize is called.
var Logger = zap.NewNop().Sugar()

// New builds a JSON production logger or a human-readable console logger.
func New(jsonOutput bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if jsonOutput {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Initialize replaces the global Logger.
func Initialize(jsonOutput bool) error {
	l, err := New(jsonOutput)
	if err != nil {
		return err
	}
	Logger = l
	return nil
}
