package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/psds-microservice/helpy/paths"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/psds-microservice/complaint-service/api"
	"github.com/psds-microservice/complaint-service/internal/handler"
	"github.com/psds-microservice/complaint-service/internal/middleware"
)

// Handlers: обработчики всех маршрутов.
type Handlers struct {
	Health      *handler.HealthHandler
	Categories  *handler.CategoryHandler
	Complaints  *handler.ComplaintHandler
	Comments    *handler.CommentHandler
	Attachments *handler.AttachmentHandler
}

// Options: общая обвязка маршрутов.
type Options struct {
	Tokens middleware.TokenParser
	Logger *slog.Logger
}

func New(h Handlers, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Metrics(), middleware.Logger(opts.Logger))

	r.GET(paths.PathHealth, h.Health.Health)
	r.GET(paths.PathReady, h.Health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET(paths.PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, paths.PathSwagger+"/") })
	r.GET(paths.PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = paths.PathSwagger + "/index.html"
			c.Request.RequestURI = paths.PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(paths.PathSwagger+"/openapi.json"))(c)
	})

	v1 := r.Group("/api/v1", middleware.Authenticate(opts.Tokens))
	{
		v1.GET("/categories", h.Categories.List)
		v1.POST("/categories", h.Categories.Create)
		v1.GET("/categories/:id", h.Categories.Get)
		v1.PUT("/categories/:id", h.Categories.Update)
		v1.PATCH("/categories/:id", h.Categories.Update)
		v1.DELETE("/categories/:id", h.Categories.Delete)

		v1.GET("/complaints", h.Complaints.List)
		v1.POST("/complaints", h.Complaints.Create)
		v1.GET("/complaints/:id", h.Complaints.Get)
		v1.PUT("/complaints/:id", h.Complaints.Update)
		v1.PATCH("/complaints/:id", h.Complaints.Update)
		v1.DELETE("/complaints/:id", h.Complaints.Delete)

		v1.GET("/complaints/:id/comments", h.Comments.List)
		v1.POST("/complaints/:id/comments", h.Comments.Create)
		v1.GET("/complaints/:id/comments/:comment_id", h.Comments.Get)
		v1.PUT("/complaints/:id/comments/:comment_id", h.Comments.Update)
		v1.PATCH("/complaints/:id/comments/:comment_id", h.Comments.Update)
		v1.DELETE("/complaints/:id/comments/:comment_id", h.Comments.Delete)

		v1.GET("/complaints/:id/attachments", h.Attachments.List)
		v1.POST("/complaints/:id/attachments", h.Attachments.Create)
		v1.DELETE("/complaints/:id/attachments/:attachment_id", h.Attachments.Delete)
		v1.GET("/complaints/:id/attachments/:attachment_id/file", h.Attachments.Download)
	}

	return r
}
