package server

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/imageshare/backend/internal/config"
	"github.com/imageshare/backend/internal/handlers"
	"github.com/imageshare/backend/internal/middleware"
	"github.com/imageshare/backend/internal/models"
	"github.com/imageshare/backend/internal/services"
	"github.com/redis/go-redis/v9"
)

// Deps carries everything the router needs. Redis may be nil.
type Deps struct {
	Redis            *redis.Client
	AuthService      *services.AuthService
	UserService      *services.UserService
	TagService       *services.TagService
	ImageService     *services.ImageService
	ShareCardService *services.ShareCardService
}

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RateLimiter(deps.Redis, cfg))
	router.Use(middleware.SameOrigin(cfg.AppURL))
	router.Use(middleware.Session(deps.AuthService, cfg.SessionCookie))
	router.Use(middleware.Accessibility())

	homeHandler := handlers.NewHomeHandler()
	accountHandler := handlers.NewAccountHandler(cfg, deps.AuthService)
	imageHandler := handlers.NewImageHandler(cfg, deps.ImageService, deps.TagService, deps.UserService, deps.ShareCardService)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Image files are served at their storage path relative to the web root.
	router.Static("/"+models.ImagesDir, filepath.Join(cfg.WebRoot, filepath.FromSlash(models.ImagesDir)))

	router.GET("/", homeHandler.Index)
	home := router.Group("/Home")
	{
		home.GET("/Index", homeHandler.Index)
		home.GET("/Error", homeHandler.Error)
		home.POST("/ADA", homeHandler.SetADA)
	}

	account := router.Group("/Account")
	{
		account.GET("/Login", accountHandler.Login)
		account.POST("/Login", accountHandler.DoLogin)
		account.GET("/Register", accountHandler.Register)
		account.POST("/Register", accountHandler.DoRegister)
		account.POST("/Logout", accountHandler.Logout)
	}

	images := router.Group("/Images")
	images.Use(middleware.RequireLogin())
	{
		images.GET("/Upload", imageHandler.Upload)
		images.POST("/Upload", middleware.UploadRateLimit(deps.Redis, cfg.UploadsPerDay), imageHandler.DoUpload)
		images.GET("/Query", imageHandler.Query)
		images.GET("/Details/:id", imageHandler.Details)
		images.GET("/Edit/:id", imageHandler.Edit)
		images.POST("/DoEdit/:id", imageHandler.DoEdit)
		images.GET("/Delete/:id", imageHandler.Delete)
		images.POST("/DoDelete/:id", imageHandler.DoDelete)
		images.GET("/ListAll", imageHandler.ListAll)
		images.GET("/ListByUser", imageHandler.ListByUser)
		images.POST("/ListByUser", imageHandler.DoListByUser)
		images.POST("/DoListByUser", imageHandler.DoListByUser)
		images.GET("/ListByTag", imageHandler.ListByTag)
		images.POST("/ListByTag", imageHandler.DoListByTag)
		images.GET("/DoListByTag", imageHandler.DoListByTag)
		images.GET("/ShareCard/:id", imageHandler.ShareCard)
	}

	return router
}
