package models

import (
	"github.com/cosmicdev/devspace/internal/models/blog"
	"github.com/cosmicdev/devspace/internal/models/guestbook"
	"github.com/cosmicdev/devspace/internal/models/portfolio"
	"github.com/cosmicdev/devspace/internal/models/user"
)

// RegisterModels lists every model migrated at startup.
func RegisterModels() []interface{} {
	return []interface{}{
		&user.User{},
		&guestbook.Entry{},
		&guestbook.EntryLike{},
		&guestbook.EntryReply{},
		&guestbook.EntryFlag{},
		&portfolio.Item{},
		&portfolio.ItemLike{},
		&portfolio.ItemComment{},
		&blog.Post{},
		&blog.Comment{},
	}
}
