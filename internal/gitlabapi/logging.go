package gitlabapi

import "go.uber.org/zap"

// Error codes attached to request failure log entries.
const (
	CodeRequestWarning = 3141
	CodeRequestError   = 3131
)

// LogRequestError logs a failed GitLab request. Absorbed failures are logged
// as warnings without the raw error chain; escalated ones at error level.
func LogRequestError(logger *zap.SugaredLogger, err error, action string, escalate bool, keysAndValues ...interface{}) {
	fields := append([]interface{}{
		"action", action,
		"error_kind", ErrorKind(err),
	}, keysAndValues...)
	if code := StatusCode(err); code != 0 {
		fields = append(fields, "response_code", code)
	}

	if escalate {
		fields = append(fields, "error_code", CodeRequestError, "error", err)
		logger.Errorw("GitLab request failed", fields...)
		return
	}

	fields = append(fields, "error_code", CodeRequestWarning, "reason", err.Error())
	logger.Warnw("GitLab request failed, using default", fields...)
}
