package logger

import (
	"go.uber.org/zap"
)

// Log starts as a no-op logger so packages can log before Init runs (and in tests).
var Log = zap.NewNop().Sugar()

func Init() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}
