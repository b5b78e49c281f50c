package services

import (
	"context"
	"errors"

	"github.com/imageshare/backend/internal/models"
	"gorm.io/gorm"
)

type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

// Tags returns every tag ordered by id.
func (s *TagService) Tags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.WithContext(ctx).Order("id ASC").Find(&tags).Error
	return tags, err
}

// FindTag retrieves a tag by ID
func (s *TagService) FindTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// FindTagByName retrieves a tag by its exact name
func (s *TagService) FindTagByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// EnsureTag inserts the tag unless one with the same name exists.
// It reports whether a row was inserted.
func (s *TagService) EnsureTag(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Tag{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if err := s.db.WithContext(ctx).Create(&models.Tag{Name: name}).Error; err != nil {
		return false, err
	}
	return true, nil
}
