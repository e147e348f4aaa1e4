package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"forum_search_backend/internal/search/ports"
	"forum_search_backend/internal/search/transport"
	"forum_search_backend/platform/apperr"
	"forum_search_backend/platform/httpkit"
	"forum_search_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	caller  ports.Identity
	req     transport.SearchRequest
	called  bool
	err     error
	infoErr error
}

func (f *fakeService) Search(_ context.Context, caller ports.Identity, req transport.SearchRequest) (*transport.SearchResponse, error) {
	f.called = true
	f.caller = caller
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	snippet := "say hello"
	return &transport.SearchResponse{
		Results:     []transport.SearchResult{{PID: 10, TID: 1, Title: "Welcome", Snippet: &snippet}},
		MatchCount:  1,
		SearchedFor: req.Term,
	}, nil
}

func (f *fakeService) Info(_ context.Context, caller ports.Identity) (*transport.InfoResponse, error) {
	f.caller = caller
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return &transport.InfoResponse{
		TotalTopics:  2,
		SampleTitles: []transport.SampleTitle{{TID: 1, Title: "Welcome", CID: 1}},
		Note:         "pick a title",
	}, nil
}

func newRouter(svc SearchService, uid int64, roles ...string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid > 0 {
			c.Set(httpkit.ContextUserIDKey, uid)
			c.Set(httpkit.ContextRolesKey, roles)
		}
		c.Next()
	})
	New(svc, validator.New()).RegisterRoutes(r.Group("/api/v1/search"))
	return r
}

func do(r *gin.Engine, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSearchReturnsResults(t *testing.T) {
	svc := &fakeService{}
	rec := do(newRouter(svc, 0), "/api/v1/search?term=hello&in=category:2")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.called)
	assert.Equal(t, ports.Guest(), svc.caller)
	assert.Equal(t, "hello", svc.req.Term)
	assert.Equal(t, "category:2", svc.req.In)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "hello", body["searchedFor"])
	assert.EqualValues(t, 1, body["matchCount"])
	results := body["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "say hello", results[0].(map[string]any)["snippet"])
}

func TestSearchPassesCallerIdentity(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  ports.Identity
	}{
		{name: "member", roles: []string{"user"}, want: ports.Identity{UID: 7}},
		{name: "admin", roles: []string{httpkit.RoleAdmin}, want: ports.Identity{UID: 7, Privileged: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := do(newRouter(svc, 7, tt.roles...), "/api/v1/search?term=hello")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, svc.caller)
		})
	}
}

func TestSearchRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		message string
	}{
		{name: "missing term", target: "/api/v1/search", message: "Search term is required"},
		{name: "blank term", target: "/api/v1/search?term=%20%20", message: "Search term is required"},
		{name: "term too long", target: "/api/v1/search?term=" + strings.Repeat("a", 201), message: "Search term is too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := do(newRouter(svc, 0), tt.target)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, svc.called)

			var body httpkit.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Error)
			assert.NotNil(t, body.Details)
		})
	}
}

func TestSearchAcceptsUnknownScope(t *testing.T) {
	for _, in := range []string{"everywhere", "titlesposts", "categories"} {
		t.Run(in, func(t *testing.T) {
			svc := &fakeService{}
			rec := do(newRouter(svc, 0), "/api/v1/search?term=hello&in="+in)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, svc.called)
			assert.Equal(t, in, svc.req.In)
		})
	}
}

func TestSearchMapsServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{name: "unavailable", err: apperr.Unavailable("failed to list topics", errors.New("dial tcp: refused")), status: http.StatusServiceUnavailable, msg: "failed to list topics"},
		{name: "validation", err: apperr.Validation("Search term is required"), status: http.StatusBadRequest, msg: "Search term is required"},
		{name: "untyped", err: errors.New("boom"), status: http.StatusInternalServerError, msg: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(newRouter(&fakeService{err: tt.err}, 0), "/api/v1/search?term=hello")

			require.Equal(t, tt.status, rec.Code)
			var body httpkit.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body.Error)
			assert.NotContains(t, rec.Body.String(), "dial tcp")
		})
	}
}

func TestInfo(t *testing.T) {
	svc := &fakeService{}
	rec := do(newRouter(svc, 3, httpkit.RoleAdmin), "/api/v1/search/info")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ports.Identity{UID: 3, Privileged: true}, svc.caller)

	var body transport.InfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 2, body.TotalTopics)
	require.Len(t, body.SampleTitles, 1)
	assert.Equal(t, "Welcome", body.SampleTitles[0].Title)
}

func TestInfoUnavailable(t *testing.T) {
	svc := &fakeService{infoErr: apperr.Unavailable("failed to count topics", errors.New("timeout"))}
	rec := do(newRouter(svc, 0), "/api/v1/search/info")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
