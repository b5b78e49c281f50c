package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/imageshare/backend/internal/models"
	"gorm.io/gorm"
)

type ImageService struct {
	db             *gorm.DB
	tagService     *TagService
	userService    *UserService
	storageService *StorageService
	s3Service      *S3Service
}

// NewImageService wires the image store. s3Service may be nil when no mirror is configured.
func NewImageService(db *gorm.DB, tagService *TagService, userService *UserService, storageService *StorageService, s3Service *S3Service) *ImageService {
	return &ImageService{
		db:             db,
		tagService:     tagService,
		userService:    userService,
		storageService: storageService,
		s3Service:      s3Service,
	}
}

// ImageInput carries the user-editable fields of an image.
type ImageInput struct {
	Caption     string
	Description string
	DateTaken   time.Time
	TagID       uint
}

// Approved restricts a query to images that may be listed publicly.
func Approved(db *gorm.DB) *gorm.DB {
	return db.Where("valid = ? AND approved = ?", true, true)
}

// IsOwner compares usernames case-sensitively. A missing user or an empty
// username on either side never matches.
func IsOwner(image *models.Image, user *models.User) bool {
	if image == nil || image.User == nil || user == nil {
		return false
	}
	if image.User.Username == "" || user.Username == "" {
		return false
	}
	return image.User.Username == user.Username
}

// UploadImage creates the image row, marked valid and approved, then streams
// the file to data/images/img-<id>.jpg. The row is removed again when the
// file cannot be written.
func (s *ImageService) UploadImage(ctx context.Context, owner *models.User, in ImageInput, file io.Reader) (*models.Image, error) {
	if owner == nil {
		return nil, ErrNotAuthorized
	}
	if _, err := s.tagService.FindTag(ctx, in.TagID); err != nil {
		return nil, err
	}

	log.Printf("[Images] saving image metadata for user %s", owner.Username)
	image := &models.Image{
		Caption:     in.Caption,
		Description: in.Description,
		DateTaken:   in.DateTaken,
		UserID:      owner.ID,
		TagID:       in.TagID,
		Valid:       true,
		Approved:    true,
	}
	if err := s.db.WithContext(ctx).Create(image).Error; err != nil {
		return nil, fmt.Errorf("failed to create image record: %w", err)
	}

	log.Printf("[Images] saving image file on disk: %s", image.ContextPath())
	absPath, size, checksum, err := s.storageService.SaveStream(ctx, image.ContextPath(), file)
	if err != nil {
		s.db.WithContext(ctx).Delete(&models.Image{}, image.ID)
		return nil, fmt.Errorf("failed to store image file: %w", err)
	}
	log.Printf("[Images] stored %s (%d bytes, sha256 %s)", absPath, size, checksum)

	s.mirror(ctx, image.ContextPath())
	return image, nil
}

// mirror copies a stored file to S3. Local disk stays the source of truth,
// so failures are only logged.
func (s *ImageService) mirror(ctx context.Context, key string) {
	if s.s3Service == nil {
		return
	}
	f, err := s.storageService.Open(key)
	if err != nil {
		log.Printf("[Images] WARN: cannot reopen %s for S3 mirror: %v", key, err)
		return
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		log.Printf("[Images] WARN: cannot rewind %s: %v", key, err)
		return
	}
	ctype := http.DetectContentType(head[:n])
	if err := s.s3Service.UploadImage(ctx, key, f, ctype); err != nil {
		log.Printf("[Images] WARN: S3 mirror upload failed for %s: %v", key, err)
	}
}

// FindImage loads an image without relations.
func (s *ImageService) FindImage(ctx context.Context, id uint) (*models.Image, error) {
	return s.findImage(ctx, id)
}

// FindImageWithOwner loads an image together with its owner.
func (s *ImageService) FindImageWithOwner(ctx context.Context, id uint) (*models.Image, error) {
	return s.findImage(ctx, id, "User")
}

// FindImageWithRelations loads an image together with its owner and tag.
func (s *ImageService) FindImageWithRelations(ctx context.Context, id uint) (*models.Image, error) {
	return s.findImage(ctx, id, "User", "Tag")
}

func (s *ImageService) findImage(ctx context.Context, id uint, preload ...string) (*models.Image, error) {
	q := s.db.WithContext(ctx)
	for _, p := range preload {
		q = q.Preload(p)
	}
	var image models.Image
	if err := q.First(&image, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return &image, nil
}

// OwnedImage loads an image with its owner and tag and checks that user owns it.
// It returns ErrImageNotFound or ErrNotAuthorized.
func (s *ImageService) OwnedImage(ctx context.Context, id uint, user *models.User) (*models.Image, error) {
	image, err := s.FindImageWithRelations(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsOwner(image, user) {
		return nil, ErrNotAuthorized
	}
	return image, nil
}

// UpdateImage persists new field values on an image owned by user.
// Concurrent edits are last-writer-wins.
func (s *ImageService) UpdateImage(ctx context.Context, id uint, user *models.User, in ImageInput) (*models.Image, error) {
	image, err := s.OwnedImage(ctx, id, user)
	if err != nil {
		return nil, err
	}
	if _, err := s.tagService.FindTag(ctx, in.TagID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"caption":     in.Caption,
		"description": in.Description,
		"date_taken":  in.DateTaken,
		"tag_id":      in.TagID,
	}
	if err := s.db.WithContext(ctx).Model(&models.Image{}).Where("id = ?", image.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update image: %w", err)
	}
	return s.FindImageWithRelations(ctx, id)
}

// DeleteImage removes an image owned by user: the row first, then the file
// on disk and its S3 mirror.
func (s *ImageService) DeleteImage(ctx context.Context, id uint, user *models.User) error {
	image, err := s.OwnedImage(ctx, id, user)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Image{}, image.ID).Error; err != nil {
		return fmt.Errorf("failed to delete image record: %w", err)
	}

	key := image.ContextPath()
	if err := s.storageService.Remove(key); err != nil {
		log.Printf("[Images] WARN: failed to remove %s: %v", key, err)
	}
	if s.s3Service != nil {
		if err := s.s3Service.DeleteImage(ctx, key); err != nil {
			log.Printf("[Images] WARN: failed to remove S3 mirror %s: %v", key, err)
		}
	}
	return nil
}

// ApprovedImages returns every listed image with owner and tag resolved.
func (s *ImageService) ApprovedImages(ctx context.Context) ([]models.Image, error) {
	var images []models.Image
	err := s.db.WithContext(ctx).Scopes(Approved).
		Preload("User").Preload("Tag").
		Order("id DESC").Find(&images).Error
	return images, err
}

// ApprovedImagesByUser returns the listed images of one user.
func (s *ImageService) ApprovedImagesByUser(ctx context.Context, userID uuid.UUID) (*models.User, []models.Image, error) {
	user, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	var images []models.Image
	err = s.db.WithContext(ctx).Scopes(Approved).
		Where("user_id = ?", user.ID).
		Preload("Tag").
		Order("id DESC").Find(&images).Error
	if err != nil {
		return nil, nil, err
	}
	for i := range images {
		images[i].User = user
	}
	return user, images, nil
}

// ApprovedImagesByTag returns the listed images of one tag with owners resolved.
func (s *ImageService) ApprovedImagesByTag(ctx context.Context, tagID uint) (*models.Tag, []models.Image, error) {
	tag, err := s.tagService.FindTag(ctx, tagID)
	if err != nil {
		return nil, nil, err
	}

	var images []models.Image
	err = s.db.WithContext(ctx).Scopes(Approved).
		Where("tag_id = ?", tag.ID).
		Preload("User").
		Order("id DESC").Find(&images).Error
	if err != nil {
		return nil, nil, err
	}
	for i := range images {
		images[i].Tag = tag
	}
	return tag, images, nil
}

// ReadImageFile returns the stored bytes of an image.
func (s *ImageService) ReadImageFile(image *models.Image) ([]byte, error) {
	f, err := s.storageService.Open(image.ContextPath())
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
