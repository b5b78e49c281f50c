package models

// Tag is a named image category. Tags are created by the seeder only.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;uniqueIndex;not null" json:"name"`

	Images []Image `gorm:"foreignKey:TagID" json:"images,omitempty"`
}
