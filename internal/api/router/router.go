package router

import (
	"github.com/cuongbtq/jobry/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	healthHandler := handler.NewHealthHandler(deps)
	r.GET("/health", healthHandler.Health)

	jobHandler := handler.NewJobHandler(deps)

	// GET /jobs?search=&page= - deduplicated feed of the latest scrape run
	r.GET("/jobs", jobHandler.ListJobs)

	// same feed under the prefix the web frontend proxies
	api := r.Group("/api")
	{
		api.GET("/jobs", jobHandler.ListJobs)
	}

	return r
}
