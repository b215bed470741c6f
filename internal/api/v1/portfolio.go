package v1

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/cosmicdev/devspace/internal/auth"
	"github.com/cosmicdev/devspace/internal/models/portfolio"
	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ListPortfolioItems returns a filtered, sorted page of items. Filters
// compose: category, featured, status, search and my_items can all be set at
// once and each narrows the result.
func ListPortfolioItems(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	params := portfolio.ListParams{
		Page:     page,
		Limit:    limit,
		Sort:     c.Query("sort", "newest"),
		Category: c.Query("category"),
		Featured: c.Query("featured"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		MyItems:  c.Query("my_items"),
		Identity: auth.UserID(c),
	}

	items, total, err := portfolio.ListItems(c.UserContext(), Redis, DB, params)
	if err != nil {
		return utils.HandleError(c, err)
	}

	return utils.SendSuccess(c, fiber.Map{
		"items": items,
		"total": total,
	})
}

// CreatePortfolioItem stores a new item with its kind-specific payload. The
// details block is decoded against the declared item_type, so a payload of
// the wrong shape is rejected before anything is written.
func CreatePortfolioItem(c *fiber.Ctx) error {
	type ItemInput struct {
		ItemType         string          `json:"item_type" validate:"required,oneof=project certification achievement"`
		Title            string          `json:"title" validate:"required,min=2,max=200"`
		ShortDescription string          `json:"short_description" validate:"omitempty,max=300"`
		Category         string          `json:"category" validate:"omitempty,max=100"`
		Tags             []string        `json:"tags" validate:"max=20"`
		Keywords         []string        `json:"keywords" validate:"max=20"`
		Status           string          `json:"status" validate:"omitempty,oneof=draft published archived"`
		Visibility       string          `json:"visibility" validate:"omitempty,oneof=public private unlisted"`
		Featured         bool            `json:"featured"`
		Details          json.RawMessage `json:"details" validate:"required"`
	}
	in := new(ItemInput)
	if err := utils.StrictBodyParser(c, in); err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	if verr := Validator.Validate(in); verr != nil {
		return utils.HandleError(c, verr.AsError())
	}

	creatorID, err := uuid.Parse(auth.UserID(c))
	if err != nil {
		return utils.HandleError(c, utils.ErrUnauthorized)
	}

	details, err := decodeDetails(in.ItemType, in.Details)
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid details payload", err.Error()))
	}

	item := &portfolio.Item{
		ItemType:         in.ItemType,
		CreatorID:        creatorID,
		Title:            in.Title,
		ShortDescription: in.ShortDescription,
		Category:         in.Category,
		Status:           in.Status,
		Visibility:       in.Visibility,
		Featured:         in.Featured,
	}
	if len(in.Tags) > 0 {
		raw, _ := json.Marshal(in.Tags)
		item.Tags = raw
	}
	if len(in.Keywords) > 0 {
		raw, _ := json.Marshal(in.Keywords)
		item.Keywords = raw
	}

	created, err := portfolio.NewItem(c.UserContext(), Redis, DB, Validator, item, details)
	if err != nil {
		return utils.HandleError(c, err)
	}

	Logger.Info(c.UserContext()).WithMeta(utils.Map{
		"item_id":   created.ID.String(),
		"item_type": created.ItemType,
	}).Logs("Portfolio item created")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"item": created})
}

func decodeDetails(itemType string, raw json.RawMessage) (portfolio.Details, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	switch itemType {
	case portfolio.TypeProject:
		d := &portfolio.ProjectDetails{}
		if err := dec.Decode(d); err != nil {
			return nil, err
		}
		return d, nil
	case portfolio.TypeCertification:
		d := &portfolio.CertificationDetails{}
		if err := dec.Decode(d); err != nil {
			return nil, err
		}
		return d, nil
	default:
		d := &portfolio.AchievementDetails{}
		if err := dec.Decode(d); err != nil {
			return nil, err
		}
		return d, nil
	}
}

// GetPortfolioItem returns one item with its comments. Private items are
// visible to their creator and admins only.
func GetPortfolioItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid item id"))
	}

	item, err := portfolio.GetItemBy(c.UserContext(), Redis, DB, "id = ?", []interface{}{id}, "Comments")
	if err != nil {
		return utils.HandleError(c, err)
	}

	if item.Visibility == portfolio.VisibilityPrivate && !canManageItem(c, item) {
		return utils.HandleError(c, utils.ErrNotFound)
	}

	return utils.SendSuccess(c, fiber.Map{"item": item})
}

// UpdatePortfolioItem applies partial updates. Creator or admin only.
func UpdatePortfolioItem(c *fiber.Ctx) error {
	type UpdateInput struct {
		Title            *string  `json:"title" validate:"omitempty,min=2,max=200"`
		ShortDescription *string  `json:"short_description" validate:"omitempty,max=300"`
		Description      *string  `json:"description"`
		Category         *string  `json:"category" validate:"omitempty,max=100"`
		Tags             []string `json:"tags" validate:"omitempty,max=20"`
		Keywords         []string `json:"keywords" validate:"omitempty,max=20"`
		Status           *string  `json:"status" validate:"omitempty,oneof=draft published archived"`
		Visibility       *string  `json:"visibility" validate:"omitempty,oneof=public private unlisted"`
		Featured         *bool    `json:"featured"`
	}
	in := new(UpdateInput)
	if err := utils.StrictBodyParser(c, in); err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	if verr := Validator.Validate(in); verr != nil {
		return utils.HandleError(c, verr.AsError())
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid item id"))
	}

	item, err := portfolio.GetItemBy(c.UserContext(), Redis, DB, "id = ?", []interface{}{id})
	if err != nil {
		return utils.HandleError(c, err)
	}
	if !canManageItem(c, item) {
		return utils.HandleError(c, utils.ErrForbidden)
	}

	opts := []portfolio.ItemOption{}
	if in.Title != nil {
		opts = append(opts, portfolio.WithTitle(*in.Title))
	}
	if in.ShortDescription != nil {
		opts = append(opts, portfolio.WithShortDescription(*in.ShortDescription))
	}
	if in.Description != nil {
		opts = append(opts, portfolio.WithDescription(*in.Description))
	}
	if in.Category != nil {
		opts = append(opts, portfolio.WithCategory(*in.Category))
	}
	if in.Tags != nil {
		opts = append(opts, portfolio.WithTags(in.Tags))
	}
	if in.Keywords != nil {
		opts = append(opts, portfolio.WithKeywords(in.Keywords))
	}
	if in.Status != nil {
		opts = append(opts, portfolio.WithStatus(*in.Status))
	}
	if in.Visibility != nil {
		opts = append(opts, portfolio.WithVisibility(*in.Visibility))
	}
	if in.Featured != nil {
		opts = append(opts, portfolio.WithFeatured(*in.Featured))
	}

	updated, err := portfolio.UpdateItem(c.UserContext(), Redis, DB, Validator, id, opts...)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"item": updated})
}

// DeletePortfolioItem removes an item and its likes and comments, and detaches
// any guestbook entries that pointed at it. Creator or admin only.
func DeletePortfolioItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid item id"))
	}

	item, err := portfolio.GetItemBy(c.UserContext(), Redis, DB, "id = ?", []interface{}{id})
	if err != nil {
		return utils.HandleError(c, err)
	}
	if !canManageItem(c, item) {
		return utils.HandleError(c, utils.ErrForbidden)
	}

	if err := portfolio.DeleteItem(c.UserContext(), Redis, DB, id); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"deleted": true})
}

// TogglePortfolioLike toggles the caller's like on an item.
func TogglePortfolioLike(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid item id"))
	}

	result, err := portfolio.ToggleLike(c.UserContext(), Redis, DB, id, auth.Identity(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, result)
}

// RecordPortfolioView counts a gallery view for an item.
func RecordPortfolioView(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid item id"))
	}
	if err := portfolio.IncrementMetric(c.UserContext(), Redis, DB, id, "views"); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"recorded": true})
}

// RecordPortfolioMetric bumps one of the item's engagement counters.
func RecordPortfolioMetric(c *fiber.Ctx) error {
	type MetricInput struct {
		Metric string `json:"metric" validate:"required,oneof=views shares downloads stars"`
	}
	in := new(MetricInput)
	if err := utils.StrictBodyParser(c, in); err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	if verr := Validator.Validate(in); verr != nil {
		return utils.HandleError(c, verr.AsError())
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid item id"))
	}

	if err := portfolio.IncrementMetric(c.UserContext(), Redis, DB, id, in.Metric); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"recorded": true})
}

// AddPortfolioComment appends a comment to an item.
func AddPortfolioComment(c *fiber.Ctx) error {
	type CommentInput struct {
		Author  string `json:"author" validate:"required,min=2,max=100"`
		Content string `json:"content" validate:"required,min=1,max=1000"`
	}
	in := new(CommentInput)
	if err := utils.StrictBodyParser(c, in); err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	if verr := Validator.Validate(in); verr != nil {
		return utils.HandleError(c, verr.AsError())
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid item id"))
	}

	comment, err := portfolio.AddComment(c.UserContext(), Redis, DB, id, in.Author, in.Content)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"comment": comment})
}

func canManageItem(c *fiber.Ctx, item *portfolio.Item) bool {
	role, _ := c.Locals("role").(string)
	if role == "admin" {
		return true
	}
	return auth.UserID(c) == item.CreatorID.String()
}
