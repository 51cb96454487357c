package logger

import (
	"context"

	"go-dashboard/internal/config"
	"go-dashboard/internal/database"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewLogger builds the application logger. With the mongo store enabled,
// warn-and-above entries are also persisted to the logs collection.
func NewLogger(lc fx.Lifecycle, cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Important: Enable Caller to get Function Name
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	if !mongodb.Enabled() {
		return baseLogger, nil
	}

	dbWriter := NewDBLogWriter(mongodb, cfg)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return dbWriter.Close(ctx)
		},
	})

	finalCore := NewDBCore(baseLogger.Core(), dbWriter)
	return zap.New(finalCore, zap.AddCaller()), nil
}
