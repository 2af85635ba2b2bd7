package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yatube/internal/models"
)

var ErrFollowNotFound = errors.New("follow not found")

type FollowService struct {
	db *gorm.DB
}

func (s *FollowService) IsFollowing(userID, authorID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	return count > 0, err
}

// Follow creates the edge unless it already exists and reports whether a
// row was written. Self-follow is the caller's concern.
func (s *FollowService) Follow(userID, authorID uint) (bool, error) {
	exists, err := s.IsFollowing(userID, authorID)
	if err != nil || exists {
		return false, err
	}
	err = s.db.Omit(clause.Associations).
		Create(&models.Follow{UserID: userID, AuthorID: authorID}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost a race against a concurrent follow of the same author
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("follow: %w", err)
	}
	return true, nil
}

// Unfollow deletes the edge, failing with ErrFollowNotFound when there is
// none.
func (s *FollowService) Unfollow(userID, authorID uint) error {
	res := s.db.Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&models.Follow{})
	if res.Error != nil {
		return fmt.Errorf("unfollow: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrFollowNotFound
	}
	return nil
}

func (s *FollowService) FollowerCount(authorID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Follow{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

func (s *FollowService) FollowingCount(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Follow{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
