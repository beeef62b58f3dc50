package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// nopLogger discards everything. Used as the default in tests and as a
// safe fallback when a component is constructed without a logger.
type nopLogger struct{}

// NewNopLogger returns a Logger that discards all output.
func NewNopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(string) {}
func (nopLogger) Info(string)  {}
func (nopLogger) Warn(string)  {}
func (nopLogger) Error(string) {}
func (nopLogger) Fatal(string) {}

func (n nopLogger) WithField(string, interface{}) Logger       { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger   { return n }
func (n nopLogger) WithError(error) Logger                     { return n }
func (n nopLogger) WithContext(context.Context) Logger         { return n }
func (nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (nopLogger) InfoWithFields(string, map[string]interface{})  {}
func (nopLogger) WarnWithFields(string, map[string]interface{})  {}
func (nopLogger) ErrorWithFields(string, map[string]interface{}) {}
func (nopLogger) FatalWithFields(string, map[string]interface{}) {}

func (nopLogger) GetZerolog() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// LogRequest logs an outbound platform request at debug level.
func LogRequest(log Logger, platform, identifier, url string) {
	log.DebugWithFields("platform request", map[string]interface{}{
		"platform":   platform,
		"identifier": identifier,
		"url":        url,
	})
}

// LogRateLimit logs a rate limit encounter and the wait before retry.
func LogRateLimit(log Logger, platform, identifier string, attempt int, wait time.Duration) {
	log.WarnWithFields("rate limited, backing off", map[string]interface{}{
		"platform":   platform,
		"identifier": identifier,
		"attempt":    attempt,
		"wait":       wait,
	})
}

// LogRetry logs a transient failure that will be retried.
func LogRetry(log Logger, platform, identifier string, attempt int, err error) {
	log.WarnWithFields("transient failure, retrying", map[string]interface{}{
		"platform":   platform,
		"identifier": identifier,
		"attempt":    attempt,
		"error":      err,
	})
}

// LogDroppedPost logs a post excluded during normalization.
func LogDroppedPost(log Logger, identifier, postID, reason string) {
	log.WarnWithFields("post dropped", map[string]interface{}{
		"identifier": identifier,
		"post_id":    postID,
		"reason":     reason,
	})
}
