package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/cosmicdev/devspace/internal/auth"
	"github.com/cosmicdev/devspace/internal/config"
	"github.com/cosmicdev/devspace/pkg/logger"

	v1 "github.com/cosmicdev/devspace/internal/api/v1"
	storage "github.com/cosmicdev/devspace/pkg/redis"
)

// NewRoutes installs the middleware stack and registers every route.
func NewRoutes(ctx context.Context, app *fiber.App, cfg *config.Config, db *gorm.DB, log *logger.Logger, rclient *storage.RedisClient) {
	app.Use(
		logger.SetupLogger(log),
		recover.New(),
		cors.New(
			cors.Config{
				AllowOrigins:     cfg.CORSOrigin,
				AllowCredentials: true,
				AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
			},
		),
		compress.New(
			compress.Config{
				Level: compress.LevelBestSpeed,
			},
		),
		limiter.New(
			limiter.Config{
				Expiration: 1 * time.Minute,
				Max:        120,
				KeyGenerator: func(c *fiber.Ctx) string {
					return c.IP()
				},
			},
		),
	)
	app.Use(log.Middleware())

	opt := auth.Options{DB: db, Rclient: rclient, Logger: log}

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	users := api.Group("/auth")
	users.Post("/register", v1.Register)
	users.Post("/login", v1.Login)
	users.Post("/logout", auth.Required(opt), v1.Logout)
	users.Post("/refresh", v1.Refresh)
	users.Get("/me", auth.Required(opt), v1.Me)
	users.Patch("/me", auth.Required(opt), v1.UpdateProfile)

	gb := api.Group("/guestbook")
	gb.Get("/", auth.Optional(opt), v1.ListGuestbookEntries)
	gb.Post("/", auth.Optional(opt), v1.CreateGuestbookEntry)
	gb.Post("/:id/like", auth.Optional(opt), v1.ToggleGuestbookLike)
	gb.Post("/:id/replies", auth.Optional(opt), v1.AddGuestbookReply)
	gb.Post("/:id/flag", auth.Optional(opt), v1.FlagGuestbookEntry)
	gb.Patch("/:id/status", auth.Required(opt), auth.RequireRole("moderator", "admin"), v1.UpdateGuestbookStatus)
	gb.Delete("/:id", auth.Required(opt), auth.RequireRole("admin"), v1.DeleteGuestbookEntry)

	pf := api.Group("/portfolio")
	pf.Get("/", auth.Optional(opt), v1.ListPortfolioItems)
	pf.Post("/", auth.Required(opt), v1.CreatePortfolioItem)
	pf.Get("/:id", auth.Optional(opt), v1.GetPortfolioItem)
	pf.Put("/:id", auth.Required(opt), v1.UpdatePortfolioItem)
	pf.Patch("/:id", auth.Required(opt), v1.UpdatePortfolioItem)
	pf.Delete("/:id", auth.Required(opt), v1.DeletePortfolioItem)
	pf.Post("/:id/like", auth.Optional(opt), v1.TogglePortfolioLike)
	pf.Post("/:id/view", v1.RecordPortfolioView)
	pf.Post("/:id/metrics", v1.RecordPortfolioMetric)
	pf.Post("/:id/comments", auth.Optional(opt), v1.AddPortfolioComment)

	bl := api.Group("/blog")
	bl.Get("/", auth.Optional(opt), v1.ListBlogPosts)
	bl.Post("/", auth.Required(opt), v1.CreateBlogPost)
	bl.Get("/:slug", v1.GetBlogPost)
	bl.Delete("/:id", auth.Required(opt), v1.DeleteBlogPost)
	bl.Post("/:slug/comments", auth.Optional(opt), v1.AddBlogComment)

	api.Get("/analytics/summary", auth.Required(opt), auth.RequireRole("admin"), v1.GetAnalyticsSummary)

	go func() {
		<-ctx.Done()
		rclient.Close(log)
		log.Close()
	}()
}
