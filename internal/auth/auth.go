// Package auth issues and verifies identity tokens and resolves the opaque
// caller identity consumed by the engagement and listing code.
package auth

import (
	"github.com/cosmicdev/devspace/pkg/logger"
	"gorm.io/gorm"

	storage "github.com/cosmicdev/devspace/pkg/redis"
)

type Options struct {
	DB      *gorm.DB
	Rclient *storage.RedisClient
	Logger  *logger.Logger
}
