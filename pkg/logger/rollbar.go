package logger

import (
	"github.com/rollbar/rollbar-go"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/skillhub-api/pkg/config"
)

func configureRollbar(cfg config.RollbarConfig) {
	rollbar.SetToken(cfg.Token)
	rollbar.SetEnvironment(cfg.Environment)
	rollbar.SetCodeVersion(cfg.CodeVersion)
	rollbar.SetServerRoot("github.com/noah-isme/skillhub-api")
}

type reportFunc func(level zapcore.Level, msg string, extras map[string]interface{})

// RollbarCore is a zap core that forwards entries at or above a level to Rollbar.
type RollbarCore struct {
	zapcore.LevelEnabler
	fields []zapcore.Field
	report reportFunc
}

// NewRollbarCore builds a core reporting entries at or above min.
func NewRollbarCore(min zapcore.Level) *RollbarCore {
	return &RollbarCore{LevelEnabler: min, report: sendToRollbar}
}

// With returns a child core carrying additional context fields.
func (c *RollbarCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field{}, c.fields...), fields...)
	return &clone
}

// Check registers the core when the entry level is enabled.
func (c *RollbarCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write encodes fields into Rollbar extras and reports the entry.
func (c *RollbarCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	extras := enc.Fields
	if ent.LoggerName != "" {
		extras["logger"] = ent.LoggerName
	}
	if ent.Caller.Defined {
		extras["caller"] = ent.Caller.TrimmedPath()
	}
	c.report(ent.Level, ent.Message, extras)
	return nil
}

// Sync blocks until queued Rollbar items are sent.
func (c *RollbarCore) Sync() error {
	rollbar.Wait()
	return nil
}

func sendToRollbar(level zapcore.Level, msg string, extras map[string]interface{}) {
	if level >= zapcore.DPanicLevel {
		rollbar.Critical(msg, extras)
		return
	}
	rollbar.Error(msg, extras)
}
