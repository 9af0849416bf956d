package ftp

import (
	"github.com/Kevinjil/stack-share-to-ftp/internal/logger"
)

// engineLogger routes the engine's protocol trace to the process logger
// at debug level. Passwords never reach the log.
type engineLogger struct{}

func (engineLogger) Print(sessionID string, message any) {
	logger.Debug("ftp[%s] %v", sessionID, message)
}

func (engineLogger) Printf(sessionID string, format string, v ...any) {
	args := append([]any{sessionID}, v...)
	logger.Debug("ftp[%s] "+format, args...)
}

func (engineLogger) PrintCommand(sessionID string, command string, params string) {
	if command == "PASS" {
		logger.Debug("ftp[%s] > PASS ****", sessionID)
		return
	}
	logger.Debug("ftp[%s] > %s %s", sessionID, command, params)
}

func (engineLogger) PrintResponse(sessionID string, code int, message string) {
	logger.Debug("ftp[%s] < %d %s", sessionID, code, message)
}
