package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	require.NotNil(t, doc.Info)
	assert.NotEmpty(t, doc.Info.Version)
}

func TestEveryRouteIsDocumented(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)

	f := newFixture(t, WithMetrics(prometheus.NewRegistry()))
	routes, ok := f.handler.(chi.Routes)
	require.True(t, ok, "handler must be a chi router")

	walked := 0
	err = chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		route = strings.ReplaceAll(route, "/*/", "/")
		route = strings.TrimSuffix(route, "/")
		walked++

		item := doc.Paths.Value(route)
		if assert.NotNil(t, item, "route %s is not documented", route) {
			assert.NotNil(t, item.GetOperation(method), "%s %s is not documented", method, route)
		}
		return nil
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, walked, 11)
}

func TestGetInfo(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "continuum-http", resp["app"])
	assert.NotEmpty(t, resp["version"])
	assert.Equal(t, "0.1.0", resp["api_version"])
}

func TestGetOpenAPI(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/yaml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "openapi: 3.0.3")
}
