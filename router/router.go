package router

import (
	"StudyVault/internal/handler"
	"StudyVault/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InitRouter builds API routes.
func InitRouter(h *handler.Handler, tokens *utils.TokenIssuer, origins []string, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.Default()
	r.Use(utils.CORSMiddleware(origins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.GET("/activate", h.Activate)

		auth := api.Group("")
		auth.Use(utils.AuthMiddleware(tokens))

		subjects := auth.Group("/subjects")
		{
			subjects.POST("", h.CreateSubject)
			subjects.GET("", h.ListSubjects)
			subjects.PATCH("/:id", h.UpdateSubject)
			subjects.DELETE("/:id", h.PurgeSubject)
			subjects.GET("/:id/files", h.ListSubjectFiles)
			subjects.POST("/:id/files", h.UploadFile)
			subjects.POST("/:id/trash", h.TrashSubject)
			subjects.POST("/:id/restore", h.RestoreSubject)
		}

		files := auth.Group("/files")
		{
			files.GET("/favorites", h.ListFavorites)
			files.GET("/search", h.SearchFiles)
			files.DELETE("/:id", h.PurgeFile)
			files.POST("/:id/trash", h.TrashFile)
			files.POST("/:id/restore", h.RestoreFile)
			files.POST("/:id/favorite", h.ToggleFavorite)
			files.POST("/:id/share", h.ShareFile)
			files.GET("/:id/url", h.FileURL)
		}

		trash := auth.Group("/trash")
		{
			trash.GET("/subjects", h.ListTrashedSubjects)
			trash.GET("/files", h.ListTrashedFiles)
		}

		auth.GET("/shared", h.ListShared)
		auth.GET("/usage", h.Usage)
	}
	return r
}
