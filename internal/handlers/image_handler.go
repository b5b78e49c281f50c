package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/imageshare/backend/internal/config"
	"github.com/imageshare/backend/internal/models"
	"github.com/imageshare/backend/internal/services"
	"github.com/imageshare/backend/pkg/validation"
)

const (
	msgFormErrors   = "Please correct the errors in the form!"
	msgPageErrors   = "Please correct the errors on the page"
	msgNoImageFile  = "No image file specified!"
	msgFileTooLarge = "Image file is too large!"

	defaultTagID uint = 1
)

type ImageHandler struct {
	cfg              *config.Config
	imageService     *services.ImageService
	tagService       *services.TagService
	userService      *services.UserService
	shareCardService *services.ShareCardService
}

func NewImageHandler(cfg *config.Config, imageService *services.ImageService, tagService *services.TagService, userService *services.UserService, shareCardService *services.ShareCardService) *ImageHandler {
	return &ImageHandler{
		cfg:              cfg,
		imageService:     imageService,
		tagService:       tagService,
		userService:      userService,
		shareCardService: shareCardService,
	}
}

// imageForm is the Upload and Edit form.
type imageForm struct {
	Caption     string `form:"Caption" binding:"required,max=40"`
	Description string `form:"Description" binding:"max=200"`
	DateTaken   string `form:"DateTaken" binding:"required"`
	TagID       uint   `form:"TagId" binding:"required"`
}

// bind reads and validates the form. The form keeps whatever was submitted
// so that it can be redisplayed.
func (f *imageForm) bind(c *gin.Context) (services.ImageInput, bool) {
	if err := c.ShouldBind(f); err != nil {
		return services.ImageInput{}, false
	}
	f.Caption = validation.SanitizeString(f.Caption)
	f.Description = validation.SanitizeString(f.Description)
	if f.Caption == "" {
		return services.ImageInput{}, false
	}
	date, ok := validation.ParseDate(f.DateTaken)
	if !ok {
		return services.ImageInput{}, false
	}
	return services.ImageInput{
		Caption:     f.Caption,
		Description: f.Description,
		DateTaken:   date,
		TagID:       f.TagID,
	}, true
}

func (f *imageForm) view(view string, id uint) ImageView {
	return ImageView{
		View:        view,
		ID:          id,
		Caption:     f.Caption,
		Description: f.Description,
		DateTaken:   f.DateTaken,
		TagID:       f.TagID,
	}
}

// parseID reads the :id path parameter.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// lookupFailed answers a failed image lookup. Not found and not authorized
// produce the same redirect; only the log tells them apart.
func lookupFailed(c *gin.Context, errID string, id uint, err error) {
	if errors.Is(err, services.ErrImageNotFound) || errors.Is(err, services.ErrNotAuthorized) {
		log.Printf("[Images] %s %d: %v", errID, id, err)
		c.Redirect(http.StatusSeeOther, errorRedirect(errID))
		return
	}
	log.Printf("[Images] %s %d failed: %v", errID, id, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load image"})
}

func (h *ImageHandler) renderForm(c *gin.Context, rc RequestContext, v ImageView, message string) {
	tags, err := h.tagService.Tags(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tags"})
		return
	}
	selected := v.TagID
	if selected == 0 {
		selected = defaultTagID
	}
	v.IsADA = rc.IsADA
	v.Message = message
	v.Tags = tagChoices(tags, selected)
	c.JSON(http.StatusOK, v)
}

// Upload renders the empty upload form
// GET /Images/Upload
func (h *ImageHandler) Upload(c *gin.Context) {
	h.renderForm(c, requestContext(c), ImageView{View: "Upload"}, "")
}

// DoUpload stores a new image and forwards to its details page
// POST /Images/Upload
// Multipart form: Caption, Description, DateTaken, TagId, ImageFile
func (h *ImageHandler) DoUpload(c *gin.Context) {
	rc := requestContext(c)
	log.Println("[Images] Processing the upload of an image....")

	var form imageForm
	in, ok := form.bind(c)
	if !ok {
		h.renderForm(c, rc, form.view("Upload", 0), msgFormErrors)
		return
	}

	fileHeader, err := c.FormFile("ImageFile")
	if err != nil || fileHeader.Size <= 0 {
		h.renderForm(c, rc, form.view("Upload", 0), msgNoImageFile)
		return
	}
	if fileHeader.Size > h.cfg.UploadMaxImageSize {
		h.renderForm(c, rc, form.view("Upload", 0), msgFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.renderForm(c, rc, form.view("Upload", 0), msgNoImageFile)
		return
	}
	defer file.Close()

	image, err := h.imageService.UploadImage(c.Request.Context(), rc.User, in, file)
	if errors.Is(err, services.ErrTagNotFound) {
		h.renderForm(c, rc, form.view("Upload", 0), msgFormErrors)
		return
	}
	if err != nil {
		log.Printf("[Images] upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload image"})
		return
	}

	log.Printf("[Images] ...forwarding to the details page, image id = %d", image.ID)
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/Images/Details/%d", image.ID))
}

// Query renders the (empty) query page
// GET /Images/Query
func (h *ImageHandler) Query(c *gin.Context) {
	rc := requestContext(c)
	c.JSON(http.StatusOK, ImageView{View: "Query", IsADA: rc.IsADA})
}

// Details renders image metadata with tag and owner resolved
// GET /Images/Details/:id
func (h *ImageHandler) Details(c *gin.Context) {
	rc := requestContext(c)
	id, ok := parseID(c)
	if !ok {
		lookupFailed(c, "Details", id, services.ErrImageNotFound)
		return
	}

	image, err := h.imageService.FindImageWithRelations(c.Request.Context(), id)
	if err != nil {
		lookupFailed(c, "Details", id, err)
		return
	}

	v := newImageView("Details", image)
	v.IsADA = rc.IsADA
	c.JSON(http.StatusOK, v)
}

// Edit renders the edit form for the image owner
// GET /Images/Edit/:id
func (h *ImageHandler) Edit(c *gin.Context) {
	rc := requestContext(c)
	id, ok := parseID(c)
	if !ok {
		lookupFailed(c, "Edit", id, services.ErrImageNotFound)
		return
	}

	image, err := h.imageService.OwnedImage(c.Request.Context(), id, rc.User)
	if err != nil {
		lookupFailed(c, "Edit", id, err)
		return
	}

	h.renderForm(c, rc, newImageView("Edit", image), "")
}

// DoEdit saves changes made by the image owner
// POST /Images/DoEdit/:id
func (h *ImageHandler) DoEdit(c *gin.Context) {
	rc := requestContext(c)
	id, ok := parseID(c)
	if !ok {
		lookupFailed(c, "Edit", id, services.ErrImageNotFound)
		return
	}

	// Ownership is settled before the form is looked at, so a foreign or
	// missing image never gets the form back.
	if _, err := h.imageService.OwnedImage(c.Request.Context(), id, rc.User); err != nil {
		lookupFailed(c, "Edit", id, err)
		return
	}

	var form imageForm
	in, ok := form.bind(c)
	if !ok {
		h.renderForm(c, rc, form.view("Edit", id), msgPageErrors)
		return
	}

	log.Printf("[Images] Saving changes to image %d", id)
	_, err := h.imageService.UpdateImage(c.Request.Context(), id, rc.User, in)
	if errors.Is(err, services.ErrTagNotFound) {
		h.renderForm(c, rc, form.view("Edit", id), msgPageErrors)
		return
	}
	if err != nil {
		lookupFailed(c, "Edit", id, err)
		return
	}

	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/Images/Details/%d", id))
}

// Delete renders the delete confirmation for the image owner
// GET /Images/Delete/:id
func (h *ImageHandler) Delete(c *gin.Context) {
	rc := requestContext(c)
	id, ok := parseID(c)
	if !ok {
		lookupFailed(c, "Delete", id, services.ErrImageNotFound)
		return
	}

	image, err := h.imageService.OwnedImage(c.Request.Context(), id, rc.User)
	if err != nil {
		lookupFailed(c, "Delete", id, err)
		return
	}

	v := newImageView("Delete", image)
	v.IsADA = rc.IsADA
	c.JSON(http.StatusOK, v)
}

// DoDelete removes an image owned by the current user
// POST /Images/DoDelete/:id
func (h *ImageHandler) DoDelete(c *gin.Context) {
	rc := requestContext(c)
	id, ok := parseID(c)
	if !ok {
		lookupFailed(c, "Delete", id, services.ErrImageNotFound)
		return
	}

	if err := h.imageService.DeleteImage(c.Request.Context(), id, rc.User); err != nil {
		lookupFailed(c, "Delete", id, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// ListAll lists every approved image
// GET /Images/ListAll
func (h *ImageHandler) ListAll(c *gin.Context) {
	rc := requestContext(c)
	images, err := h.imageService.ApprovedImages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve images"})
		return
	}
	h.renderList(c, rc, "", images)
}

func (h *ImageHandler) renderList(c *gin.Context, rc RequestContext, title string, images []models.Image) {
	c.JSON(http.StatusOK, ListView{
		View:   "ListAll",
		IsADA:  rc.IsADA,
		UserID: rc.UserID(),
		Title:  title,
		Images: summarize(images),
	})
}

// ListByUser renders the user picker, defaulting to the current user
// GET /Images/ListByUser
func (h *ImageHandler) ListByUser(c *gin.Context) {
	rc := requestContext(c)
	users, err := h.userService.ActiveUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve users"})
		return
	}
	c.JSON(http.StatusOK, SelectView{
		View:    "ListByUser",
		IsADA:   rc.IsADA,
		Choices: userChoices(users, rc.UserID()),
	})
}

type listForm struct {
	ID string `form:"Id"`
}

// DoListByUser lists the approved images of the selected user
// POST /Images/ListByUser
func (h *ImageHandler) DoListByUser(c *gin.Context) {
	rc := requestContext(c)
	var form listForm
	_ = c.ShouldBind(&form)

	userID, err := uuid.Parse(form.ID)
	if err != nil {
		log.Printf("[Images] ListByUser: invalid user id %q", form.ID)
		c.Redirect(http.StatusSeeOther, errorRedirect("ListByUser"))
		return
	}

	user, images, err := h.imageService.ApprovedImagesByUser(c.Request.Context(), userID)
	if errors.Is(err, services.ErrUserNotFound) {
		log.Printf("[Images] ListByUser: %v", err)
		c.Redirect(http.StatusSeeOther, errorRedirect("ListByUser"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve images"})
		return
	}
	h.renderList(c, rc, user.Username, images)
}

// ListByTag renders the tag picker
// GET /Images/ListByTag
func (h *ImageHandler) ListByTag(c *gin.Context) {
	rc := requestContext(c)
	tags, err := h.tagService.Tags(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tags"})
		return
	}
	c.JSON(http.StatusOK, SelectView{
		View:    "ListByTag",
		IsADA:   rc.IsADA,
		Choices: tagChoices(tags, defaultTagID),
	})
}

// DoListByTag lists the approved images of the selected tag
// GET /Images/DoListByTag?Id=, POST /Images/ListByTag
func (h *ImageHandler) DoListByTag(c *gin.Context) {
	rc := requestContext(c)
	var form listForm
	_ = c.ShouldBind(&form)

	tagID, err := strconv.ParseUint(form.ID, 10, 64)
	if err != nil {
		log.Printf("[Images] ListByTag: invalid tag id %q", form.ID)
		c.Redirect(http.StatusSeeOther, errorRedirect("ListByTag"))
		return
	}

	tag, images, err := h.imageService.ApprovedImagesByTag(c.Request.Context(), uint(tagID))
	if errors.Is(err, services.ErrTagNotFound) {
		log.Printf("[Images] ListByTag: %v", err)
		c.Redirect(http.StatusSeeOther, errorRedirect("ListByTag"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve images"})
		return
	}
	h.renderList(c, rc, tag.Name, images)
}

// ShareCard renders a printable PDF for a listed image or one of the user's own
// GET /Images/ShareCard/:id
func (h *ImageHandler) ShareCard(c *gin.Context) {
	rc := requestContext(c)
	id, ok := parseID(c)
	if !ok {
		lookupFailed(c, "ShareCard", id, services.ErrImageNotFound)
		return
	}

	image, err := h.imageService.FindImageWithRelations(c.Request.Context(), id)
	if err == nil && !image.Listed() && !services.IsOwner(image, rc.User) {
		err = services.ErrNotAuthorized
	}
	if err != nil {
		lookupFailed(c, "ShareCard", id, err)
		return
	}

	data, err := h.imageService.ReadImageFile(image)
	if err != nil {
		log.Printf("[Images] ShareCard %d: image file unavailable: %v", id, err)
		data = nil
	}

	pdf, err := h.shareCardService.Render(image, data)
	if err != nil {
		log.Printf("[Images] ShareCard %d failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render share card"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"img-%d.pdf\"", id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
