package v1

import (
	"strconv"

	"github.com/cosmicdev/devspace/internal/auth"
	"github.com/cosmicdev/devspace/internal/models/guestbook"
	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CreateGuestbookEntry submits a new entry through the rate limiter and the
// spam pipeline.
func CreateGuestbookEntry(c *fiber.Ctx) error {
	type EntryInput struct {
		Name      string `json:"name" validate:"required,min=2,max=100"`
		Email     string `json:"email" validate:"omitempty,email,max=100"`
		AvatarURL string `json:"avatar_url" validate:"omitempty,url,max=500"`
		Message   string `json:"message" validate:"required,min=10,max=240"`
		ProjectID string `json:"project_id" validate:"omitempty,uuid4"`
	}
	in := new(EntryInput)
	if err := utils.StrictBodyParser(c, in); err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	if verr := Validator.Validate(in); verr != nil {
		return utils.HandleError(c, verr.AsError())
	}

	identity := auth.Identity(c)
	if err := GuestbookLimiter.Allow(c.UserContext(), identity); err != nil {
		Logger.Warn(c.UserContext()).WithMeta(utils.Map{"identity": identity}).Logs("Guestbook submission rate limited")
		return utils.HandleError(c, err)
	}

	opts := []guestbook.EntryOption{}
	if in.Email != "" {
		opts = append(opts, guestbook.WithEmail(in.Email))
	}
	if in.AvatarURL != "" {
		opts = append(opts, guestbook.WithAvatarURL(in.AvatarURL))
	}
	if in.ProjectID != "" {
		pid, err := uuid.Parse(in.ProjectID)
		if err != nil {
			return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid project id"))
		}
		opts = append(opts, guestbook.WithProject(pid))
	}

	entry, err := guestbook.NewEntry(c.UserContext(), Redis, DB, in.Name, in.Message, opts...)
	if err != nil {
		return utils.HandleError(c, err)
	}

	if entry.IsSpam {
		Logger.Warn(c.UserContext()).WithMeta(utils.Map{
			"entry_id": entry.ID.String(),
			"score":    strconv.Itoa(entry.SpamScore),
		}).Logs("Spam-scored guestbook entry")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entry": entry})
}

// ListGuestbookEntries returns entries, newest first. Anonymous listings see
// approved entries only; moderators may request any status.
func ListGuestbookEntries(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	status := c.Query("status", guestbook.StatusApproved)

	role, _ := c.Locals("role").(string)
	if role != "moderator" && role != "admin" {
		status = guestbook.StatusApproved
	}

	var projectID *uuid.UUID
	if pid := c.Query("project_id"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid project id"))
		}
		projectID = &id
	}

	entries, total, err := guestbook.ListEntries(c.UserContext(), Redis, DB, page, limit, status, projectID)
	if err != nil {
		return utils.HandleError(c, err)
	}

	return utils.SendSuccess(c, fiber.Map{
		"entries": entries,
		"total":   total,
	})
}

// ToggleGuestbookLike toggles the caller's like on an entry.
func ToggleGuestbookLike(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid entry id"))
	}

	result, err := guestbook.ToggleLike(c.UserContext(), Redis, DB, id, auth.Identity(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, result)
}

// AddGuestbookReply appends a reply to an entry.
func AddGuestbookReply(c *fiber.Ctx) error {
	type ReplyInput struct {
		Author  string `json:"author" validate:"required,min=2,max=100"`
		Message string `json:"message" validate:"required,min=1,max=500"`
	}
	in := new(ReplyInput)
	if err := utils.StrictBodyParser(c, in); err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	if verr := Validator.Validate(in); verr != nil {
		return utils.HandleError(c, verr.AsError())
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid entry id"))
	}

	reply, err := guestbook.AddReply(c.UserContext(), Redis, DB, id, in.Author, in.Message)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"reply": reply})
}

// FlagGuestbookEntry records an abuse report. A duplicate report by the same
// identity is a no-op.
func FlagGuestbookEntry(c *fiber.Ctx) error {
	type FlagInput struct {
		Reason      string `json:"reason" validate:"required,oneof=spam inappropriate harassment other"`
		Description string `json:"description" validate:"omitempty,max=500"`
	}
	in := new(FlagInput)
	if err := utils.StrictBodyParser(c, in); err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	if verr := Validator.Validate(in); verr != nil {
		return utils.HandleError(c, verr.AsError())
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid entry id"))
	}

	flagged, err := guestbook.Flag(c.UserContext(), Redis, DB, id, auth.Identity(c), in.Reason, in.Description)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"flagged": flagged})
}

// UpdateGuestbookStatus applies a moderator status change.
func UpdateGuestbookStatus(c *fiber.Ctx) error {
	type StatusInput struct {
		Status string `json:"status" validate:"required,oneof=pending approved rejected flagged hidden"`
		Reason string `json:"reason" validate:"omitempty,max=255"`
	}
	in := new(StatusInput)
	if err := utils.StrictBodyParser(c, in); err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	if verr := Validator.Validate(in); verr != nil {
		return utils.HandleError(c, verr.AsError())
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid entry id"))
	}

	entry, err := guestbook.UpdateStatus(c.UserContext(), Redis, DB, id, in.Status, in.Reason)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"entry": entry})
}

// DeleteGuestbookEntry hard-deletes an entry. Admin only.
func DeleteGuestbookEntry(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid entry id"))
	}

	if err := guestbook.DeleteEntry(c.UserContext(), Redis, DB, id); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"deleted": true})
}
