package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yatube/internal/models"
)

var ErrPostNotFound = errors.New("post not found")

type PostService struct {
	db *gorm.DB
}

// feedOrder loads what a feed renders: author, group, newest first.
func feedOrder(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Group").Order("pub_date DESC").Order("post_id DESC")
}

func (s *PostService) posts() *gorm.DB {
	return s.db.Model(&models.Post{})
}

func (s *PostService) List(page string) (*Page[models.Post], error) {
	return Paginate[models.Post](s.posts(), page, PostsPerPage, feedOrder)
}

func (s *PostService) ListByGroup(groupID uint, page string) (*Page[models.Post], error) {
	return Paginate[models.Post](s.posts().Where("group_id = ?", groupID), page, PostsPerPage, feedOrder)
}

func (s *PostService) ListByAuthor(authorID uint, page string) (*Page[models.Post], error) {
	return Paginate[models.Post](s.posts().Where("author_id = ?", authorID), page, PostsPerPage, feedOrder)
}

// ListFollowed returns the posts of every author userID follows.
func (s *PostService) ListFollowed(userID uint, page string) (*Page[models.Post], error) {
	followed := s.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", userID)
	return Paginate[models.Post](s.posts().Where("author_id IN (?)", followed), page, PostsPerPage, feedOrder)
}

func (s *PostService) CountByAuthor(authorID uint) (int64, error) {
	var count int64
	err := s.posts().Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

func (s *PostService) ByID(id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.Preload("Author").Preload("Group").First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ByAuthor resolves a post only when it belongs to authorID.
func (s *PostService) ByAuthor(authorID, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.Preload("Author").Preload("Group").
		Where("author_id = ?", authorID).
		First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *PostService) Create(post *models.Post) error {
	if err := s.db.Omit(clause.Associations).Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// Update writes the editable fields. PubDate and the author never change.
func (s *PostService) Update(post *models.Post) error {
	err := s.db.Model(post).
		Omit(clause.Associations).
		Select("Text", "GroupID", "Image").
		Updates(post).Error
	if err != nil {
		return fmt.Errorf("update post %d: %w", post.ID, err)
	}
	return nil
}

func (s *PostService) Delete(id uint) error {
	return s.db.Delete(&models.Post{}, id).Error
}
