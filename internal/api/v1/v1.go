package v1

import (
	"time"

	"github.com/cosmicdev/devspace/internal/ratelimit"
	"github.com/cosmicdev/devspace/pkg/logger"
	"github.com/cosmicdev/devspace/pkg/utils"
	"gorm.io/gorm"

	storage "github.com/cosmicdev/devspace/pkg/redis"
)

// Guestbook submissions are capped per identity per rolling hour.
const (
	GuestbookSubmitLimit  = 5
	GuestbookSubmitWindow = time.Hour
)

var (
	DB               *gorm.DB
	Redis            *storage.RedisClient
	Logger           *logger.Logger
	Validator        = utils.NewValidator()
	GuestbookLimiter *ratelimit.Limiter
)

// Init wires the handler package to its collaborators.
func Init(db *gorm.DB, rclient *storage.RedisClient, log *logger.Logger) {
	DB = db
	Redis = rclient
	Logger = log
	GuestbookLimiter = ratelimit.New(
		&ratelimit.RedisStore{Client: rclient},
		GuestbookSubmitLimit,
		GuestbookSubmitWindow,
		"ratelimit:guestbook",
	)
}
