package db

import (
	"time"

	"github.com/cosmicdev/devspace/pkg/logger"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// WithLogger routes GORM logging through the application logger.
func WithLogger(l *logger.Logger) DBOptions {
	return func(db *gorm.DB) error {
		db.Config.Logger = gormLogger.New(
			l.Log,
			gormLogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  true,
			},
		)
		return nil
	}
}
