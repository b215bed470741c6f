package v1

import (
	"fmt"
	"strings"
	"time"

	"github.com/cosmicdev/devspace/internal/auth"
	"github.com/cosmicdev/devspace/internal/models/user"
	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Register creates a new account.
func Register(c *fiber.Ctx) error {
	type UserInput struct {
		Username  string `json:"username" validate:"required,min=3,max=50,alphanum"`
		Email     string `json:"email" validate:"required,email,max=100"`
		Password  string `json:"password" validate:"required,min=6"`
		Name      string `json:"name" validate:"omitempty,max=100"`
		AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
	}
	ui := new(UserInput)
	if err := utils.StrictBodyParser(c, ui); err != nil {
		Logger.Warn(c.UserContext()).WithFields("error", err).Logs("Failed to parse register body")
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	if verr := Validator.Validate(ui); verr != nil {
		return utils.HandleError(c, verr.AsError())
	}

	hashed, err := utils.HashPassword(ui.Password)
	if err != nil {
		Logger.Error(c.UserContext()).WithFields("error", err).Logs("Failed to hash password")
		return utils.HandleError(c, utils.ErrInternalServerError)
	}

	u, err := user.NewUser(c.UserContext(), Redis, DB, ui.Username, ui.Email, hashed,
		user.WithName(ui.Name), user.WithAvatarURL(ui.AvatarURL))
	if err != nil {
		return utils.HandleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": u})
}

// Login verifies credentials and issues access/refresh tokens.
func Login(c *fiber.Ctx) error {
	type LoginInput struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	li := new(LoginInput)
	if err := utils.StrictBodyParser(c, li); err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	if verr := Validator.Validate(li); verr != nil {
		return utils.HandleError(c, verr.AsError())
	}

	u, err := user.GetUserBy(c.UserContext(), Redis, DB, "email = ?", []interface{}{strings.ToLower(strings.TrimSpace(li.Email))})
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrUnauthorized.Code, "Invalid email or password"))
	}
	if err := utils.ComparePasswords(u.Password, li.Password); err != nil {
		Logger.Warn(c.UserContext()).WithMeta(utils.Map{"email": li.Email}).Logs("Failed login attempt")
		return utils.HandleError(c, utils.NewError(utils.ErrUnauthorized.Code, "Invalid email or password"))
	}

	access, err := auth.GenerateAccessToken(u.ID.String(), u.Role)
	if err != nil {
		Logger.Error(c.UserContext()).WithFields("error", err).Logs("Failed to sign access token")
		return utils.HandleError(c, utils.ErrInternalServerError)
	}
	refresh := auth.GenerateRefreshToken()
	Redis.Set(c.Context(), "refresh:"+refresh, u.ID.String(), 7*24*time.Hour)

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    access,
		HTTPOnly: true,
		SameSite: "Lax",
		Expires:  time.Now().Add(15 * time.Minute),
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refresh,
		HTTPOnly: true,
		SameSite: "Lax",
		Expires:  time.Now().Add(7 * 24 * time.Hour),
	})

	user.TouchLastSeen(c.UserContext(), DB, u.ID)

	return utils.SendSuccess(c, fiber.Map{
		"user":         u,
		"access_token": access,
	})
}

// Logout blacklists the current access token and drops the refresh token.
func Logout(c *fiber.Ctx) error {
	if token := auth.Token(c); token != "" {
		Redis.Set(c.Context(), "blacklist:access:"+token, "1", 15*time.Minute)
	}
	if refresh := c.Cookies("refresh_token"); refresh != "" {
		Redis.Del(c.Context(), "refresh:"+refresh)
	}
	c.ClearCookie("access_token")
	c.ClearCookie("refresh_token")
	return utils.SendSuccess(c, fiber.Map{"logged_out": true})
}

// Refresh exchanges a refresh token for a new access token.
func Refresh(c *fiber.Ctx) error {
	refresh := c.Cookies("refresh_token")
	if refresh == "" {
		return utils.HandleError(c, utils.NewError(utils.ErrUnauthorized.Code, "Missing refresh token"))
	}

	userID, err := Redis.Get(c.Context(), "refresh:"+refresh).Result()
	if err != nil || userID == "" {
		return utils.HandleError(c, utils.NewError(utils.ErrUnauthorized.Code, "Invalid refresh token"))
	}

	u, err := user.GetUserBy(c.UserContext(), Redis, DB, "id = ?", []interface{}{userID})
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrUnauthorized.Code, "User not found"))
	}

	access, err := auth.GenerateAccessToken(u.ID.String(), u.Role)
	if err != nil {
		return utils.HandleError(c, utils.ErrInternalServerError)
	}
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    access,
		HTTPOnly: true,
		SameSite: "Lax",
		Expires:  time.Now().Add(15 * time.Minute),
	})

	return utils.SendSuccess(c, fiber.Map{"access_token": access})
}

// Me returns the authenticated user's account.
func Me(c *fiber.Ctx) error {
	id, err := uuid.Parse(auth.UserID(c))
	if err != nil {
		return utils.HandleError(c, utils.ErrUnauthorized)
	}

	u, err := user.GetUserBy(c.UserContext(), Redis, DB, "id = ?", []interface{}{id})
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"user": u})
}

// UpdateProfile applies profile edits for the authenticated user.
func UpdateProfile(c *fiber.Ctx) error {
	type ProfileInput struct {
		Name      *string `json:"name" validate:"omitempty,max=100"`
		Bio       *string `json:"bio" validate:"omitempty,max=255"`
		AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
		Location  *string `json:"location" validate:"omitempty,max=100"`
		Website   *string `json:"website" validate:"omitempty,url"`
	}
	pi := new(ProfileInput)
	if err := utils.StrictBodyParser(c, pi); err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	if verr := Validator.Validate(pi); verr != nil {
		return utils.HandleError(c, verr.AsError())
	}

	id, err := uuid.Parse(auth.UserID(c))
	if err != nil {
		return utils.HandleError(c, utils.ErrUnauthorized)
	}

	var opts []user.UserOption
	if pi.Name != nil {
		opts = append(opts, user.WithName(*pi.Name))
	}
	if pi.Bio != nil {
		opts = append(opts, user.WithBio(*pi.Bio))
	}
	if pi.AvatarURL != nil {
		opts = append(opts, user.WithAvatarURL(*pi.AvatarURL))
	}
	if pi.Location != nil {
		opts = append(opts, user.WithLocation(*pi.Location))
	}
	if pi.Website != nil {
		opts = append(opts, user.WithWebsite(*pi.Website))
	}

	u, err := user.UpdateUser(c.UserContext(), Redis, DB, id, opts...)
	if err != nil {
		return utils.HandleError(c, err)
	}

	Logger.Info(c.UserContext()).WithMeta(utils.Map{"user_id": fmt.Sprint(u.ID)}).Logs("Profile updated")
	return utils.SendSuccess(c, fiber.Map{"user": u})
}
