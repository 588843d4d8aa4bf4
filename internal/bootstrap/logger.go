package bootstrap

import (
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/logging"
)

// NewLogger builds the process logger and installs it as zap's global.
func NewLogger(env, level string) (*zap.Logger, error) {
	logger, err := logging.New(env, level)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
