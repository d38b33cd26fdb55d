// Package handler provides HTTP handlers for the trip planner service.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/kart-io/version"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/internal/planner/biz"
	apierrors "github.com/kart-io/tripplanner/pkg/utils/errors"
	"github.com/kart-io/tripplanner/pkg/utils/response"
	"github.com/kart-io/tripplanner/pkg/utils/validator"
)

// PlannerHandler handles planning HTTP requests.
type PlannerHandler struct {
	service biz.Service
}

// NewPlannerHandler creates a new PlannerHandler.
func NewPlannerHandler(service biz.Service) *PlannerHandler {
	return &PlannerHandler{service: service}
}

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Plan runs the planning pipeline and returns the final state.
func (h *PlannerHandler) Plan(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}

	state, err := h.service.Plan(c.Request.Context(), req)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.OK(c, state)
}

// SubmitJob queues a planning job and answers 202 with its id.
func (h *PlannerHandler) SubmitJob(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}

	job, err := h.service.SubmitJob(c.Request.Context(), req)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.Accepted(c, gin.H{"id": job.ID, "status": job.Status})
}

// GetJob returns a planning job.
func (h *PlannerHandler) GetJob(c *gin.Context) {
	job, err := h.service.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	response.OK(c, job)
}

// Health reports liveness.
func (h *PlannerHandler) Health(c *gin.Context) {
	response.OK(c, HealthResponse{Status: "ok", Version: version.Get().GitVersion})
}

func bindRequest(c *gin.Context) (model.PlanRequest, bool) {
	var req model.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Debugw("malformed plan request", "error", err.Error())
		response.Fail(c, apierrors.ErrInvalidParam.WithMessage(err.Error()))
		return req, false
	}
	if errs := validator.StructWithLang(req, c.GetHeader("Accept-Language")); errs.HasErrors() {
		logger.Debugw("invalid plan request", "errors", errs.Messages())
		response.Fail(c, apierrors.ErrInvalidParam.WithMessage(errs.First()))
		return req, false
	}
	return req, true
}
