package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/internal/planner/handler"
	apierrors "github.com/kart-io/tripplanner/pkg/utils/errors"
)

type nopService struct{}

func (nopService) Plan(context.Context, model.PlanRequest) (*model.PlanningState, error) {
	return nil, apierrors.ErrPlanFailed
}

func (nopService) SubmitJob(context.Context, model.PlanRequest) (*model.Job, error) {
	return nil, apierrors.ErrJobQueueFull
}

func (nopService) GetJob(context.Context, string) (*model.Job, error) {
	return nil, apierrors.ErrJobNotFound
}

func TestRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	Register(engine, handler.NewPlannerHandler(nopService{}))

	routes := map[string]bool{}
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	assert.True(t, routes["GET /healthz"])
	assert.True(t, routes["POST /v1/plans"])
	assert.True(t, routes["POST /v1/jobs"])
	assert.True(t, routes["GET /v1/jobs/:id"])

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/jobs/abc", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
