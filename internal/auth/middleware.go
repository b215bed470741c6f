package auth

import (
	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// extractToken pulls the access token from the Authorization header or the
// access_token cookie.
func extractToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && header[:7] == "Bearer " {
		return header[7:]
	}
	return c.Cookies("access_token")
}

// blacklisted reports whether the token was invalidated at logout.
func blacklisted(c *fiber.Ctx, opt Options, token string) bool {
	if token == "" || opt.Rclient == nil {
		return false
	}
	return opt.Rclient.Exists(c.Context(), "blacklist:access:"+token).Val() > 0
}

// Required rejects requests without a valid access token. On success the
// user id and role are stored in locals.
func Required(opt Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return utils.HandleError(c, utils.NewError(utils.ErrUnauthorized.Code, "Missing access token"))
		}
		if blacklisted(c, opt, token) {
			opt.Logger.Warn(c.UserContext()).Logs("Attempted use of blacklisted access token")
			return utils.HandleError(c, utils.NewError(utils.ErrUnauthorized.Code, "Access token has been invalidated"))
		}

		claims, err := VerifyToken(token)
		if err != nil {
			opt.Logger.Warn(c.UserContext()).WithFields("error", err).Logs("Invalid access token")
			return utils.HandleError(c, utils.NewError(utils.ErrUnauthorized.Code, "Invalid access token"))
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("role", claims.Role)
		c.Locals("access_token", token)
		return c.Next()
	}
}

// Optional resolves the caller identity when a valid token is present but
// lets anonymous requests through. Anonymous engagement (guestbook likes,
// flags) is keyed by client IP instead.
func Optional(opt Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c)
		if token != "" && !blacklisted(c, opt, token) {
			if claims, err := VerifyToken(token); err == nil {
				c.Locals("user_id", claims.UserID)
				c.Locals("role", claims.Role)
			}
		}
		return c.Next()
	}
}

// RequireRole allows only callers whose role is listed. Must run after
// Required.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if !utils.Contains(roles, role) {
			return utils.HandleError(c, utils.NewError(utils.ErrForbidden.Code, "Insufficient permissions"))
		}
		return c.Next()
	}
}

// Identity resolves the opaque caller identity: the authenticated user id,
// or the client IP for anonymous callers.
func Identity(c *fiber.Ctx) string {
	if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
		return userID
	}
	return c.IP()
}

// UserID returns the authenticated user id, empty when anonymous.
func UserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

// Token returns the access token the middleware verified for this request,
// whether it arrived in the Authorization header or the cookie.
func Token(c *fiber.Ctx) string {
	if token, ok := c.Locals("access_token").(string); ok && token != "" {
		return token
	}
	return extractToken(c)
}
