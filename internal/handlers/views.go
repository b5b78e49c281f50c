package handlers

import (
	"fmt"
	"strconv"

	"github.com/imageshare/backend/internal/models"
	"github.com/imageshare/backend/pkg/validation"
)

// The template layer is not part of this service: handlers answer with the
// view models below, serialized as JSON, and the view name they belong to.

// SelectItem is one entry of a drop-down list.
type SelectItem struct {
	Value    string `json:"value"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

// ImageView backs the Upload, Details, Edit and Delete views.
type ImageView struct {
	View        string       `json:"view"`
	IsADA       bool         `json:"is_ada"`
	Message     string       `json:"message"`
	ID          uint         `json:"id,omitempty"`
	Caption     string       `json:"caption"`
	Description string       `json:"description"`
	DateTaken   string       `json:"date_taken"`
	TagID       uint         `json:"tag_id,omitempty"`
	TagName     string       `json:"tag_name,omitempty"`
	Username    string       `json:"username,omitempty"`
	ImageURL    string       `json:"image_url,omitempty"`
	Tags        []SelectItem `json:"tags,omitempty"`
}

// ImageSummary is one row of a listing.
type ImageSummary struct {
	ID        uint   `json:"id"`
	Caption   string `json:"caption"`
	DateTaken string `json:"date_taken"`
	TagID     uint   `json:"tag_id"`
	TagName   string `json:"tag_name"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	ImageURL  string `json:"image_url"`
}

// ListView backs the ListAll view, which all three listings share.
type ListView struct {
	View   string         `json:"view"`
	IsADA  bool           `json:"is_ada"`
	UserID string         `json:"user_id"`
	Title  string         `json:"title,omitempty"`
	Images []ImageSummary `json:"images"`
}

// SelectView backs the ListByUser and ListByTag selection forms.
type SelectView struct {
	View    string       `json:"view"`
	IsADA   bool         `json:"is_ada"`
	Message string       `json:"message"`
	Choices []SelectItem `json:"choices"`
}

// ImageURL returns the root-relative public URL of an image file.
func ImageURL(id uint) string {
	return "/" + models.ImageContextPath(id)
}

func tagChoices(tags []models.Tag, selected uint) []SelectItem {
	items := make([]SelectItem, len(tags))
	for i, t := range tags {
		items[i] = SelectItem{
			Value:    strconv.FormatUint(uint64(t.ID), 10),
			Text:     t.Name,
			Selected: t.ID == selected,
		}
	}
	return items
}

func userChoices(users []models.User, selected string) []SelectItem {
	items := make([]SelectItem, len(users))
	for i, u := range users {
		items[i] = SelectItem{
			Value:    u.ID.String(),
			Text:     u.Username,
			Selected: u.ID.String() == selected,
		}
	}
	return items
}

func formatDate(image *models.Image) string {
	if image.DateTaken.IsZero() {
		return ""
	}
	return image.DateTaken.Format(validation.DateLayout)
}

func newImageView(view string, image *models.Image) ImageView {
	v := ImageView{
		View:        view,
		ID:          image.ID,
		Caption:     image.Caption,
		Description: image.Description,
		DateTaken:   formatDate(image),
		TagID:       image.TagID,
		ImageURL:    ImageURL(image.ID),
	}
	if image.Tag != nil {
		v.TagName = image.Tag.Name
	}
	if image.User != nil {
		v.Username = image.User.Username
	}
	return v
}

func summarize(images []models.Image) []ImageSummary {
	out := make([]ImageSummary, 0, len(images))
	for i := range images {
		img := &images[i]
		s := ImageSummary{
			ID:        img.ID,
			Caption:   img.Caption,
			DateTaken: formatDate(img),
			TagID:     img.TagID,
			UserID:    img.UserID.String(),
			ImageURL:  ImageURL(img.ID),
		}
		if img.Tag != nil {
			s.TagName = img.Tag.Name
		}
		if img.User != nil {
			s.Username = img.User.Username
		}
		out = append(out, s)
	}
	return out
}

// errorRedirect is the target of every Not Found / Not Authorized outcome.
func errorRedirect(errID string) string {
	return fmt.Sprintf("/Home/Error?ErrId=%s", errID)
}
