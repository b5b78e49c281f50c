package models

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ImagesDir is the directory below the static content root holding image files.
const ImagesDir = "data/images"

// Image is an uploaded picture with its metadata.
// Only images that are both Valid and Approved show up in listings.
type Image struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Caption     string    `gorm:"size:40;not null" json:"caption"`
	Description string    `gorm:"size:200" json:"description"`
	DateTaken   time.Time `json:"date_taken"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	TagID       uint      `gorm:"not null;index" json:"tag_id"`
	Valid       bool      `gorm:"not null" json:"valid"`
	Approved    bool      `gorm:"not null" json:"approved"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Tag  *Tag  `gorm:"foreignKey:TagID" json:"tag,omitempty"`
}

// ImageContextPath returns the public, root-relative path of an image file.
// It depends on the id only, so no lookup is needed to build a URL.
func ImageContextPath(id uint) string {
	return fmt.Sprintf("%s/img-%d.jpg", ImagesDir, id)
}

// ImageDataFile returns the on-disk location of an image file below webRoot.
func ImageDataFile(webRoot string, id uint) string {
	return filepath.Join(webRoot, filepath.FromSlash(ImageContextPath(id)))
}

// ContextPath is ImageContextPath for this image.
func (i *Image) ContextPath() string {
	return ImageContextPath(i.ID)
}

// Listed reports whether the image may appear in public listings.
func (i *Image) Listed() bool {
	return i.Valid && i.Approved
}
