package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger
)

// Init builds the process-wide logger. Level "debug" selects the
// development config with colored output; anything else is production JSON.
func Init(level string) error {
	var cfg zap.Config
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
		if lvl, err := zapcore.ParseLevel(level); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	Logger = logger
	Sugar = logger.Sugar()
	return nil
}

func InitSilent() {
	Logger = zap.NewNop()
	Sugar = Logger.Sugar()
}

func Sync() {
	if Logger != nil {
		Logger.Sync()
	}
}
