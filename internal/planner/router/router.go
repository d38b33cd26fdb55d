// Package router provides trip planner service routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/tripplanner/internal/planner/handler"
)

// Register registers the planner routes on engine.
func Register(engine *gin.Engine, h *handler.PlannerHandler) {
	logger.Info("Registering planner routes...")

	engine.GET("/healthz", h.Health)

	v1 := engine.Group("/v1")
	{
		v1.POST("/plans", h.Plan)

		jobs := v1.Group("/jobs")
		{
			jobs.POST("", h.SubmitJob)
			jobs.GET("/:id", h.GetJob)
		}
	}

	logger.Info("HTTP routes registered")
}
