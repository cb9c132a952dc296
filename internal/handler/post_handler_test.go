package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulink-id/parent-portal-api/internal/middleware"
	"github.com/edulink-id/parent-portal-api/internal/models"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
)

type fakePostSrv struct {
	posts     []models.Post
	likeErr   error
	commented []string
	lastLike  string
}

func (f *fakePostSrv) List(context.Context) []models.Post { return f.posts }

func (f *fakePostSrv) Comments(context.Context, string) []models.Comment { return nil }

func (f *fakePostSrv) Author(context.Context, string) *models.Teacher { return nil }

func (f *fakePostSrv) ToggleLike(_ context.Context, postID, userID string) error {
	f.lastLike = postID + ":" + userID
	return f.likeErr
}

func (f *fakePostSrv) AddComment(_ context.Context, postID, authorID, text string) (string, error) {
	f.commented = append(f.commented, text)
	return "c1", nil
}

func authedContext(t *testing.T, rec *httptest.ResponseRecorder, method, target string, body string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "parent-1"})
	return c
}

func TestPostHandlerListRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPostHandler(&fakePostSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/posts", nil)

	handler.List(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPostHandlerListReturnsPosts(t *testing.T) {
	handler := NewPostHandler(&fakePostSrv{posts: []models.Post{{ID: "p1", Title: "Trip"}}})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodGet, "/posts", "")

	handler.List(c)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []models.Post `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "p1", envelope.Data[0].ID)
}

func TestPostHandlerToggleLikeUsesSessionIdentity(t *testing.T) {
	srv := &fakePostSrv{}
	handler := NewPostHandler(srv)

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodPost, "/posts/p1/like", "")
	c.Params = gin.Params{{Key: "id", Value: "p1"}}

	handler.ToggleLike(c)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "p1:parent-1", srv.lastLike)
}

func TestPostHandlerToggleLikePropagatesError(t *testing.T) {
	handler := NewPostHandler(&fakePostSrv{likeErr: appErrors.ErrNotFound})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodPost, "/posts/p404/like", "")
	c.Params = gin.Params{{Key: "id", Value: "p404"}}

	handler.ToggleLike(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostHandlerAddCommentValidatesBody(t *testing.T) {
	srv := &fakePostSrv{}
	handler := NewPostHandler(srv)

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodPost, "/posts/p1/comments", `{"text":"nice trip"}`)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}
	c.Request.Header.Set("Content-Type", "application/json")

	handler.AddComment(c)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"nice trip"}, srv.commented)

	rec = httptest.NewRecorder()
	c = authedContext(t, rec, http.MethodPost, "/posts/p1/comments", `not-json`)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}
	c.Request.Header.Set("Content-Type", "application/json")

	handler.AddComment(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
