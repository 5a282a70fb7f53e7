package transport

import (
	"net/http"
	"time"

	"github.com/ds124wfegd/pfpframe/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func InitRoutes(composites *CompositeHandler, publish *PublishHandler, requestTimeout time.Duration) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(requestTimeout))

	api := router.Group("/api/v1")
	{
		api.GET("/filters", composites.ListFilters)

		c := api.Group("/composites")
		{
			c.POST("", composites.Render)
			c.GET("/:id", composites.Get)
			c.GET("/:id/download", composites.Download)
			c.DELETE("/:id", composites.Delete)
			c.POST("/:id/upload", publish.Upload)
		}

		api.GET("/sessions/:session/latest", composites.Latest)

		pfp := api.Group("/pfp")
		{
			pfp.POST("", publish.SetProfilePicture)
			pfp.GET("/jobs/:id", publish.GetJob)
			pfp.GET("/jobs/:id/qr", publish.JobQR)
		}

		api.DELETE("/credentials/:fid", publish.SignOut)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "pfpframe",
		})
	})

	return router
}
