package router

import (
	"github.com/srseducares/educares-backend/handler"
	"github.com/srseducares/educares-backend/middleware"
	ginMetrics "github.com/srseducares/educares-backend/pkg/metrics/gin"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(
	authn *middleware.Authenticator,
	authHandler *handler.AuthHandler,
	materialHandler *handler.MaterialHandler,
	studentHandler *handler.StudentMaterialHandler,
) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())
	r.Use(ginMetrics.PrometheusMiddleware("educares-backend"))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"success": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/student/login", authHandler.StudentLogin)
	}

	admin := r.Group("/materials", authn.RequireAdmin())
	{
		admin.POST("/upload", materialHandler.Upload)
		admin.GET("", materialHandler.List)
		admin.GET("/stats", materialHandler.Stats)
		admin.GET("/:id", materialHandler.GetByID)
		admin.PUT("/:id", materialHandler.Update)
		admin.DELETE("/:id", materialHandler.Delete)
	}

	student := r.Group("/student/materials", authn.RequireStudent())
	{
		student.GET("", studentHandler.List)
		student.GET("/download/:id", studentHandler.Download)
		student.GET("/view/:id", studentHandler.View)
	}

	return r
}
