// Package models declares the relational schema of the blog.
package models

import (
	"fmt"
	"time"
)

type User struct {
	ID         uint      `gorm:"column:user_id;primaryKey"`
	Username   string    `gorm:"size:150;uniqueIndex;not null"`
	Email      string    `gorm:"size:254"`
	PWHash     string    `gorm:"not null"`
	IsStaff    bool      `gorm:"default:false"`
	DateJoined time.Time `gorm:"autoCreateTime"`
}

func (u User) String() string {
	return u.Username
}

type Group struct {
	ID          uint   `gorm:"column:group_id;primaryKey"`
	Title       string `gorm:"size:200;not null"`
	Slug        string `gorm:"size:50;uniqueIndex;not null"`
	Description string `gorm:"type:text"`
}

func (g Group) String() string {
	return g.Title
}

func (g Group) URL() string {
	return "/group/" + g.Slug + "/"
}

// Post is removed with its author; a deleted group leaves its posts groupless.
type Post struct {
	ID       uint      `gorm:"column:post_id;primaryKey"`
	Text     string    `gorm:"type:text;not null"`
	PubDate  time.Time `gorm:"autoCreateTime;index"`
	AuthorID uint      `gorm:"not null;index"`
	Author   User      `gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:CASCADE;"`
	GroupID  *uint     `gorm:"index"`
	Group    *Group    `gorm:"foreignKey:GroupID;references:ID;constraint:OnDelete:SET NULL;"`
	Image    string    `gorm:"size:255"`
}

func (p Post) URL() string {
	return fmt.Sprintf("/%s/%d/", p.Author.Username, p.ID)
}

func (p Post) EditURL() string {
	return fmt.Sprintf("/%s/%d/edit/", p.Author.Username, p.ID)
}

func (p Post) CommentURL() string {
	return fmt.Sprintf("/%s/%d/comment/", p.Author.Username, p.ID)
}

func (p Post) ProfileURL() string {
	return "/" + p.Author.Username + "/"
}

func (p Post) ImageURL() string {
	if p.Image == "" {
		return ""
	}
	return "/media/" + p.Image
}

func (p Post) String() string {
	group := "-"
	if p.Group != nil {
		group = p.Group.Title
	}
	text := []rune(p.Text)
	if len(text) > 70 {
		text = text[:70]
	}
	return fmt.Sprintf("user: %s, group: %s, date: %s, post: %s...",
		p.Author.Username, group, p.PubDate.Format("02/01/2006"), string(text))
}

const CommentMaxLength = 280

type Comment struct {
	ID        uint      `gorm:"column:comment_id;primaryKey"`
	PostID    uint      `gorm:"not null;index"`
	Post      Post      `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE;"`
	AuthorID  uint      `gorm:"not null;index"`
	Author    User      `gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:CASCADE;"`
	Text      string    `gorm:"size:280;not null"`
	Created   time.Time `gorm:"autoCreateTime;index"`
}

func (c Comment) String() string {
	return c.Text
}

// Follow is a directed edge: User follows Author.
type Follow struct {
	ID       uint `gorm:"column:follow_id;primaryKey"`
	UserID   uint `gorm:"not null;uniqueIndex:idx_follow_user_author"`
	User     User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;"`
	AuthorID uint `gorm:"not null;uniqueIndex:idx_follow_user_author;index"`
	Author   User `gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:CASCADE;"`
}

func (f Follow) String() string {
	return fmt.Sprintf("%s follows %s", f.User.Username, f.Author.Username)
}

// All lists the models in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Group{}, &Post{}, &Comment{}, &Follow{}}
}
