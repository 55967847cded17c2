package publishers

import "github.com/samvad-hq/samvad-request/internal/logger"

// Logger is the structured logger sinks report through.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger {
	if log == nil {
		return logger.NopLogger()
	}
	return log
}
