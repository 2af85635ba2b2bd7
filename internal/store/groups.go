package store

import (
	"errors"

	"gorm.io/gorm"

	"yatube/internal/models"
)

var ErrGroupNotFound = errors.New("group not found")

type GroupService struct {
	db *gorm.DB
}

func (s *GroupService) BySlug(slug string) (*models.Group, error) {
	var group models.Group
	err := s.db.Where("slug = ?", slug).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *GroupService) ByID(id uint) (*models.Group, error) {
	var group models.Group
	err := s.db.First(&group, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// All returns every group ordered by title, for selection widgets.
func (s *GroupService) All() ([]models.Group, error) {
	var groups []models.Group
	err := s.db.Order("title").Find(&groups).Error
	return groups, err
}

func (s *GroupService) Create(group *models.Group) error {
	return s.db.Create(group).Error
}

func (s *GroupService) Delete(id uint) error {
	return s.db.Delete(&models.Group{}, id).Error
}
