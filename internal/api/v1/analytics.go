package v1

import (
	"github.com/cosmicdev/devspace/internal/models/analytics"
	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// GetAnalyticsSummary returns the aggregated dashboard counters.
func GetAnalyticsSummary(c *fiber.Ctx) error {
	summary, err := analytics.GetSummary(c.UserContext(), Redis, DB)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"summary": summary})
}
