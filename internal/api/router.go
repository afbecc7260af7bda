package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tandt53/apilot/internal/events"
	"github.com/tandt53/apilot/internal/stats"
	"github.com/tandt53/apilot/internal/storage"
)

// Router handles HTTP routing
type Router struct {
	engine       *gin.Engine
	store        storage.Storage
	eventService *events.Service
	handler      *Handler
}

// NewRouter creates a new router
func NewRouter(store storage.Storage, statsCollector *stats.Collector, eventService *events.Service) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine:       gin.New(),
		store:        store,
		eventService: eventService,
	}

	r.handler = NewHandler(store, statsCollector, eventService)

	r.engine.Use(gin.Recovery())
	r.engine.Use(corsMiddleware())
	r.engine.Use(gin.Logger())

	r.setupRoutes()

	return r
}

// setupRoutes configures all routes
func (r *Router) setupRoutes() {
	api := r.engine.Group("/_api")
	{
		// Specs
		api.GET("/specs", r.handler.ListSpecs)
		api.POST("/specs", r.handler.CreateSpec)
		api.GET("/specs/:id", r.handler.GetSpec)
		api.PUT("/specs/:id", r.handler.UpdateSpec)
		api.DELETE("/specs/:id", r.handler.DeleteSpec)
		api.GET("/specs/:id/endpoints", r.handler.ListEndpoints)

		// Import reconciliation
		api.POST("/specs/:id/analyze", r.handler.AnalyzeImport)
		api.POST("/specs/:id/import", r.handler.ApplyImport)
		api.POST("/specs/:id/versions", r.handler.ImportAsNewVersion)

		// Endpoints
		api.GET("/endpoints/:id", r.handler.GetEndpoint)
		api.PUT("/endpoints/:id", r.handler.UpdateEndpoint)
		api.DELETE("/endpoints/:id", r.handler.DeleteEndpoint)
		api.GET("/endpoints/:id/completeness", r.handler.GetCompleteness)
		api.GET("/endpoints/:id/enriched", r.handler.GetEnrichedEndpoint)
		api.GET("/endpoints/:id/sample-body", r.handler.GetSampleBody)
		api.GET("/endpoints/:id/testcases", r.handler.ListTestCasesByEndpoint)

		// Test cases
		api.POST("/testcases", r.handler.CreateTestCase)
		api.GET("/testcases/:id", r.handler.GetTestCase)
		api.PUT("/testcases/:id", r.handler.UpdateTestCase)
		api.DELETE("/testcases/:id", r.handler.DeleteTestCase)

		// Import events
		api.GET("/events", r.handler.ListEvents)
		api.GET("/events/:id", r.handler.GetEvent)
		api.DELETE("/events", r.handler.ClearEvents)

		// Statistics
		api.GET("/stats", r.handler.GetGlobalStats)
		api.GET("/stats/specs/:id", r.handler.GetSpecStats)
		api.POST("/stats/reset", r.handler.ResetStats)

		// Health
		api.GET("/health", r.handler.HealthCheck)
	}

	// WebSocket for live import events
	wsHandler := events.NewWebSocketHandler(r.eventService)
	r.engine.GET("/_api/events/stream", gin.WrapH(wsHandler))
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
