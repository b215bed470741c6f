package v1

import (
	"strconv"

	"github.com/cosmicdev/devspace/internal/auth"
	"github.com/cosmicdev/devspace/internal/models/blog"
	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CreateBlogPost publishes a new post for the authenticated author.
func CreateBlogPost(c *fiber.Ctx) error {
	type PostInput struct {
		Title     string   `json:"title" validate:"required,min=3,max=200"`
		Content   string   `json:"content" validate:"required,min=10"`
		Excerpt   string   `json:"excerpt" validate:"omitempty,max=500"`
		Tags      []string `json:"tags" validate:"max=10"`
		Published *bool    `json:"published"`
	}
	in := new(PostInput)
	if err := utils.StrictBodyParser(c, in); err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	if verr := Validator.Validate(in); verr != nil {
		return utils.HandleError(c, verr.AsError())
	}

	authorID, err := uuid.Parse(auth.UserID(c))
	if err != nil {
		return utils.HandleError(c, utils.ErrUnauthorized)
	}

	opts := []blog.PostOption{}
	if in.Excerpt != "" {
		opts = append(opts, blog.WithExcerpt(in.Excerpt))
	}
	if len(in.Tags) > 0 {
		opts = append(opts, blog.WithTags(in.Tags))
	}
	if in.Published != nil {
		opts = append(opts, blog.WithPublished(*in.Published))
	}

	post, err := blog.NewPost(c.UserContext(), Redis, DB, authorID, in.Title, in.Content, opts...)
	if err != nil {
		return utils.HandleError(c, err)
	}

	Logger.Info(c.UserContext()).WithMeta(utils.Map{
		"post_id": post.ID.String(),
		"slug":    post.Slug,
	}).Logs("Blog post created")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": post})
}

// ListBlogPosts returns published posts, newest first. Authors with moderator
// or admin role may include drafts.
func ListBlogPosts(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	role, _ := c.Locals("role").(string)
	includeDrafts := c.Query("drafts") == "true" && (role == "moderator" || role == "admin")

	posts, total, err := blog.ListPosts(c.UserContext(), Redis, DB, page, limit, includeDrafts)
	if err != nil {
		return utils.HandleError(c, err)
	}

	return utils.SendSuccess(c, fiber.Map{
		"posts": posts,
		"total": total,
	})
}

// GetBlogPost fetches one post by slug and counts the view.
func GetBlogPost(c *fiber.Ctx) error {
	post, err := blog.GetPostBySlug(c.UserContext(), Redis, DB, c.Params("slug"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"post": post})
}

// DeleteBlogPost removes a post and its comments. Author or admin only.
func DeleteBlogPost(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.HandleError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid post id"))
	}

	post := new(blog.Post)
	if err := DB.WithContext(c.UserContext()).First(post, "id = ?", id).Error; err != nil {
		return utils.HandleError(c, utils.ErrNotFound)
	}
	role, _ := c.Locals("role").(string)
	if role != "admin" && auth.UserID(c) != post.AuthorID.String() {
		return utils.HandleError(c, utils.ErrForbidden)
	}

	if err := blog.DeletePost(c.UserContext(), Redis, DB, id); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"deleted": true})
}

// AddBlogComment appends a comment to a post.
func AddBlogComment(c *fiber.Ctx) error {
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

	post := new(blog.Post)
	if err := DB.WithContext(c.UserContext()).Select("id").First(post, "slug = ?", c.Params("slug")).Error; err != nil {
		return utils.HandleError(c, utils.ErrNotFound)
	}

	comment, err := blog.AddComment(c.UserContext(), Redis, DB, post.ID, in.Author, in.Content)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"comment": comment})
}
