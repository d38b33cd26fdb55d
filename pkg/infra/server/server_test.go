package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/tripplanner/pkg/infra/middleware"
	httpopts "github.com/kart-io/tripplanner/pkg/options/http"
	apierrors "github.com/kart-io/tripplanner/pkg/utils/errors"
	"github.com/kart-io/tripplanner/pkg/utils/json"
)

func testOptions() *httpopts.Options {
	opts := httpopts.NewOptions()
	opts.Addr = "127.0.0.1:0"
	opts.Mode = gin.TestMode
	return opts
}

func TestNoRouteReturnsJSON404(t *testing.T) {
	s := NewServer(testOptions())

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, apierrors.ErrRouteNotFound.Code, body["code"])
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
}

func TestStartServeStop(t *testing.T) {
	s := NewServer(testOptions())
	s.Engine().GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	require.NoError(t, s.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, s.Stop(ctx))
	}()

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestStartFailsOnBusyAddress(t *testing.T) {
	first := NewServer(testOptions())
	require.NoError(t, first.Start(context.Background()))
	defer func() { _ = first.Stop(context.Background()) }()

	opts := testOptions()
	opts.Addr = first.Addr()
	assert.Error(t, NewServer(opts).Start(context.Background()))
}

func TestStopBeforeStart(t *testing.T) {
	assert.NoError(t, NewServer(testOptions()).Stop(context.Background()))
}
