package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/imageshare/backend/internal/config"
	"github.com/imageshare/backend/internal/middleware"
	"github.com/imageshare/backend/internal/services"
	"github.com/imageshare/backend/pkg/validation"
)

type AccountHandler struct {
	cfg         *config.Config
	authService *services.AuthService
}

func NewAccountHandler(cfg *config.Config, authService *services.AuthService) *AccountHandler {
	return &AccountHandler{cfg: cfg, authService: authService}
}

// AccountView backs the Login and Register views.
type AccountView struct {
	View      string `json:"view"`
	IsADA     bool   `json:"is_ada"`
	Message   string `json:"message"`
	Username  string `json:"username,omitempty"`
	ReturnURL string `json:"return_url,omitempty"`
}

// IsLocalURL accepts root-relative paths only, rejecting "//host" and "/\host".
func IsLocalURL(u string) bool {
	if u == "" || u[0] != '/' {
		return false
	}
	if len(u) > 1 && (u[1] == '/' || u[1] == '\\') {
		return false
	}
	return !strings.ContainsAny(u, "\r\n")
}

// RedirectToLocal follows returnURL when it is local, otherwise goes home.
func RedirectToLocal(c *gin.Context, returnURL string) {
	if IsLocalURL(returnURL) {
		c.Redirect(http.StatusSeeOther, returnURL)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *AccountHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.SessionCookie, token, int(h.cfg.SessionDuration.Seconds()), "/", "", h.cfg.CookieSecure, true)
}

// Login renders the login form
// GET /Account/Login
func (h *AccountHandler) Login(c *gin.Context) {
	c.JSON(http.StatusOK, AccountView{
		View:      "Login",
		IsADA:     middleware.ADAFrom(c),
		ReturnURL: c.Query("returnUrl"),
	})
}

type loginForm struct {
	Username  string `form:"Username" binding:"required"`
	Password  string `form:"Password" binding:"required"`
	ReturnURL string `form:"ReturnUrl"`
}

// DoLogin signs the user in and sets the session cookie
// POST /Account/Login
func (h *AccountHandler) DoLogin(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderLogin(c, form, "Please correct the errors in the form!")
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), strings.TrimSpace(form.Username), form.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrAccountInactive) {
			h.renderLogin(c, form, "Invalid login attempt.")
			return
		}
		log.Printf("[Auth] login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	log.Printf("[Auth] %s signed in", user.Username)
	h.setSessionCookie(c, token)
	RedirectToLocal(c, form.ReturnURL)
}

func (h *AccountHandler) renderLogin(c *gin.Context, form loginForm, message string) {
	c.JSON(http.StatusOK, AccountView{
		View:      "Login",
		IsADA:     middleware.ADAFrom(c),
		Message:   message,
		Username:  form.Username,
		ReturnURL: form.ReturnURL,
	})
}

// Logout revokes the session and clears the cookie
// POST /Account/Logout
func (h *AccountHandler) Logout(c *gin.Context) {
	if token := middleware.SessionToken(c, h.cfg.SessionCookie); token != "" {
		if err := h.authService.Logout(c.Request.Context(), token); err != nil {
			log.Printf("[Auth] WARN: failed to revoke session: %v", err)
		}
	}
	c.SetCookie(h.cfg.SessionCookie, "", -1, "/", "", h.cfg.CookieSecure, true)
	c.Redirect(http.StatusSeeOther, "/")
}

// Register renders the registration form
// GET /Account/Register
func (h *AccountHandler) Register(c *gin.Context) {
	c.JSON(http.StatusOK, AccountView{View: "Register", IsADA: middleware.ADAFrom(c)})
}

type registerForm struct {
	Email           string `form:"Email" binding:"required"`
	Password        string `form:"Password" binding:"required"`
	ConfirmPassword string `form:"ConfirmPassword" binding:"required"`
}

// DoRegister creates an account in the User role and signs it in
// POST /Account/Register
func (h *AccountHandler) DoRegister(c *gin.Context) {
	var form registerForm
	render := func(message string) {
		c.JSON(http.StatusOK, AccountView{
			View:     "Register",
			IsADA:    middleware.ADAFrom(c),
			Message:  message,
			Username: form.Email,
		})
	}

	if err := c.ShouldBind(&form); err != nil {
		render("Please correct the errors in the form!")
		return
	}
	form.Email = strings.TrimSpace(form.Email)
	if !validation.ValidateEmail(form.Email) {
		render("Invalid email format")
		return
	}
	if !validation.ValidatePassword(form.Password) {
		render("The password must be at least 4 characters long.")
		return
	}
	if form.Password != form.ConfirmPassword {
		render("The password and confirmation password do not match.")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), form.Email, form.Password)
	if errors.Is(err, services.ErrUsernameTaken) {
		render("Username is already taken.")
		return
	}
	if err != nil {
		log.Printf("[Auth] registration failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	h.setSessionCookie(c, token)
	c.Redirect(http.StatusSeeOther, "/")
}
