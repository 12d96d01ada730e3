package postgres

import (
	"log/slog"

	"github.com/phrazzld/smartmark/internal/platform/logger"
)

func newTestLogger() (*slog.Logger, *logger.TestLogBuffer) {
	return logger.NewTestLogger()
}
