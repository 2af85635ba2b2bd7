package store

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yatube/internal/models"
)

type CommentService struct {
	db *gorm.DB
}

// ForPost returns every comment of the post, newest first.
func (s *CommentService) ForPost(postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.Preload("Author").
		Where("post_id = ?", postID).
		Order("created DESC").Order("comment_id DESC").
		Find(&comments).Error
	return comments, err
}

func (s *CommentService) Create(comment *models.Comment) error {
	if err := s.db.Omit(clause.Associations).Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}
