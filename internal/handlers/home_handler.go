package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imageshare/backend/internal/middleware"
)

type HomeHandler struct{}

func NewHomeHandler() *HomeHandler { return &HomeHandler{} }

// HomeView backs the Index and Error views.
type HomeView struct {
	View     string `json:"view"`
	IsADA    bool   `json:"is_ada"`
	Username string `json:"username,omitempty"`
	ErrID    string `json:"err_id,omitempty"`
}

// Index renders the landing page
// GET /
func (h *HomeHandler) Index(c *gin.Context) {
	rc := requestContext(c)
	c.JSON(http.StatusOK, HomeView{View: "Index", IsADA: rc.IsADA, Username: rc.Username()})
}

// Error renders the generic error page
// GET /Home/Error?ErrId=
func (h *HomeHandler) Error(c *gin.Context) {
	rc := requestContext(c)
	c.JSON(http.StatusOK, HomeView{View: "Error", IsADA: rc.IsADA, Username: rc.Username(), ErrID: c.Query("ErrId")})
}

// SetADA stores the accessibility preference in the ADA cookie
// POST /Home/ADA (form: ADA=true|false, ReturnUrl)
func (h *HomeHandler) SetADA(c *gin.Context) {
	value := "false"
	if c.PostForm("ADA") == "true" {
		value = "true"
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.ADACookie, value, 86400*365, "/", "", false, false)
	RedirectToLocal(c, c.PostForm("ReturnUrl"))
}
