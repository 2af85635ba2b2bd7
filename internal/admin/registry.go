package admin

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"yatube/internal/media"
	"yatube/internal/models"
)

const emptyValue = "-empty-"

func registry(files *media.Storage, log *logrus.Logger) []modelSite {
	return []modelSite{groupAdmin(), postAdmin(files, log), commentAdmin(), followAdmin()}
}

func groupAdmin() *ModelAdmin[models.Group] {
	return &ModelAdmin[models.Group]{
		Name:    "groups",
		Verbose: "Group",
		ListDisplay: []Column[models.Group]{
			{"ID", func(g *models.Group) any { return g.ID }},
			{"Title", func(g *models.Group) any { return g.Title }},
			{"Slug", func(g *models.Group) any { return g.Slug }},
			{"Description", func(g *models.Group) any { return g.Description }},
		},
		SearchFields:      []SearchField{{Column: "slug"}},
		EmptyValueDisplay: emptyValue,
		Order:             "title",
		Fields: []Field[models.Group]{
			{
				Name: "title", Label: "Title", Kind: KindText, Required: true, MaxLength: 200, Column: "title",
				Get: func(g *models.Group) string { return g.Title },
				Set: func(g *models.Group, v string) error { g.Title = v; return nil },
			},
			{
				Name: "slug", Label: "Slug", Kind: KindText, Required: true, MaxLength: 50, Column: "slug",
				Get: func(g *models.Group) string { return g.Slug },
				Set: func(g *models.Group, v string) error { g.Slug = v; return nil },
			},
			{
				Name: "description", Label: "Description", Kind: KindTextArea, Required: true, Column: "description",
				Get: func(g *models.Group) string { return g.Description },
				Set: func(g *models.Group, v string) error { g.Description = v; return nil },
			},
		},
		Prepopulated: map[string]string{"slug": "title"},
		PK:           func(g *models.Group) uint { return g.ID },
	}
}

func postAdmin(files *media.Storage, log *logrus.Logger) *ModelAdmin[models.Post] {
	discard := func(rel string) {
		if files == nil || rel == "" {
			return
		}
		if err := files.Delete(rel); err != nil {
			log.WithError(err).WithField("image", rel).Warn("Failed to remove image")
		}
	}

	return &ModelAdmin[models.Post]{
		Name:    "posts",
		Verbose: "Post",
		ListDisplay: []Column[models.Post]{
			{"ID", func(p *models.Post) any { return p.ID }},
			{"Text", func(p *models.Post) any { return p.Text }},
			{"Pub date", func(p *models.Post) any { return p.PubDate }},
			{"Author", func(p *models.Post) any { return p.Author }},
			{"Group", func(p *models.Post) any { return p.Group }},
		},
		SearchFields:      []SearchField{{Column: "text"}},
		ListFilter:        []DateFilter{{Column: "pub_date", Label: "By pub date"}},
		EmptyValueDisplay: emptyValue,
		Order:             "pub_date DESC, post_id DESC",
		Preload:           []string{"Author", "Group"},
		Fields: []Field[models.Post]{
			{
				Name: "text", Label: "Text", Kind: KindTextArea, Required: true, Column: "text",
				Get: func(p *models.Post) string { return p.Text },
				Set: func(p *models.Post, v string) error { p.Text = v; return nil },
			},
			{
				Name: "author", Label: "Author", Kind: KindSelect, Required: true, Column: "author_id",
				Choices: userChoices,
				Get:     func(p *models.Post) string { return formatID(p.AuthorID) },
				Set:     func(p *models.Post, v string) error { return setID(&p.AuthorID, v) },
			},
			{
				Name: "group", Label: "Group", Kind: KindSelect, Column: "group_id",
				Choices: groupChoices,
				Get: func(p *models.Post) string {
					if p.GroupID == nil {
						return ""
					}
					return formatID(*p.GroupID)
				},
				Set: func(p *models.Post, v string) error { return setOptionalID(&p.GroupID, v) },
			},
			{
				Name: "image-clear", Label: "Clear image", Kind: KindCheckbox, Column: "image",
				Get: func(*models.Post) string { return "" },
				Set: func(p *models.Post, v string) error {
					if v != "" {
						p.Image = ""
					}
					return nil
				},
			},
		},
		PK: func(p *models.Post) uint { return p.ID },
		AfterSave: func(before models.Post, after *models.Post) {
			if before.Image != after.Image {
				discard(before.Image)
			}
		},
		AfterDelete: func(p *models.Post) { discard(p.Image) },
	}
}

func commentAdmin() *ModelAdmin[models.Comment] {
	return &ModelAdmin[models.Comment]{
		Name:    "comments",
		Verbose: "Comment",
		ListDisplay: []Column[models.Comment]{
			{"ID", func(c *models.Comment) any { return c.ID }},
			{"Text", func(c *models.Comment) any { return c.Text }},
			{"Created", func(c *models.Comment) any { return c.Created }},
			{"Author", func(c *models.Comment) any { return c.Author }},
		},
		SearchFields:      []SearchField{{Column: "text"}},
		EmptyValueDisplay: emptyValue,
		Order:             "created DESC, comment_id DESC",
		Preload:           []string{"Author"},
		Fields: []Field[models.Comment]{
			{
				Name: "post", Label: "Post", Kind: KindSelect, Required: true, Column: "post_id",
				Choices: postChoices,
				Get:     func(c *models.Comment) string { return formatID(c.PostID) },
				Set:     func(c *models.Comment, v string) error { return setID(&c.PostID, v) },
			},
			{
				Name: "author", Label: "Author", Kind: KindSelect, Required: true, Column: "author_id",
				Choices: userChoices,
				Get:     func(c *models.Comment) string { return formatID(c.AuthorID) },
				Set:     func(c *models.Comment, v string) error { return setID(&c.AuthorID, v) },
			},
			{
				Name: "text", Label: "Text", Kind: KindTextArea, Required: true,
				MaxLength: models.CommentMaxLength, Column: "text",
				Get: func(c *models.Comment) string { return c.Text },
				Set: func(c *models.Comment, v string) error { c.Text = v; return nil },
			},
		},
		PK: func(c *models.Comment) uint { return c.ID },
	}
}

func followAdmin() *ModelAdmin[models.Follow] {
	return &ModelAdmin[models.Follow]{
		Name:    "follows",
		Verbose: "Follow",
		ListDisplay: []Column[models.Follow]{
			{"ID", func(f *models.Follow) any { return f.ID }},
			{"Author", func(f *models.Follow) any { return f.Author }},
			{"User", func(f *models.Follow) any { return f.User }},
		},
		SearchFields: []SearchField{
			{Column: "username", Via: "author_id", Table: "users", Key: "user_id"},
		},
		EmptyValueDisplay: emptyValue,
		Order:             "follow_id DESC",
		Preload:           []string{"Author", "User"},
		Fields: []Field[models.Follow]{
			{
				Name: "user", Label: "User", Kind: KindSelect, Required: true, Column: "user_id",
				Choices: userChoices,
				Get:     func(f *models.Follow) string { return formatID(f.UserID) },
				Set:     func(f *models.Follow, v string) error { return setID(&f.UserID, v) },
			},
			{
				Name: "author", Label: "Author", Kind: KindSelect, Required: true, Column: "author_id",
				Choices: userChoices,
				Get:     func(f *models.Follow) string { return formatID(f.AuthorID) },
				Set:     func(f *models.Follow, v string) error { return setID(&f.AuthorID, v) },
			},
		},
		PK: func(f *models.Follow) uint { return f.ID },
	}
}

func setID(dst *uint, v string) error {
	id, err := parseID(v)
	if err != nil {
		return errors.New("Select a valid choice.")
	}
	*dst = id
	return nil
}

func setOptionalID(dst **uint, v string) error {
	if v == "" {
		*dst = nil
		return nil
	}
	id, err := parseID(v)
	if err != nil {
		return errors.New("Select a valid choice.")
	}
	*dst = &id
	return nil
}

func userChoices(db *gorm.DB) ([]Choice, error) {
	var users []models.User
	if err := db.Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	choices := make([]Choice, 0, len(users))
	for _, u := range users {
		choices = append(choices, Choice{Value: formatID(u.ID), Label: u.Username})
	}
	return choices, nil
}

func groupChoices(db *gorm.DB) ([]Choice, error) {
	var groups []models.Group
	if err := db.Order("title").Find(&groups).Error; err != nil {
		return nil, err
	}
	choices := make([]Choice, 0, len(groups))
	for _, g := range groups {
		choices = append(choices, Choice{Value: formatID(g.ID), Label: g.Title})
	}
	return choices, nil
}

func postChoices(db *gorm.DB) ([]Choice, error) {
	var posts []models.Post
	if err := db.Order("post_id DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	choices := make([]Choice, 0, len(posts))
	for _, p := range posts {
		text := []rune(p.Text)
		if len(text) > 40 {
			text = text[:40]
		}
		choices = append(choices, Choice{
			Value: strconv.FormatUint(uint64(p.ID), 10),
			Label: fmt.Sprintf("#%d %s", p.ID, string(text)),
		})
	}
	return choices, nil
}
