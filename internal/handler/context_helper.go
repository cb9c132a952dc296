package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/edulink-id/parent-portal-api/internal/middleware"
	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/store"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
	"github.com/edulink-id/parent-portal-api/pkg/response"
)

type studentResolver interface {
	Resolve(ctx context.Context, identity string) (*models.Student, error)
}

// currentClaims pulls the validated JWT claims off the request context.
func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims := middleware.CurrentClaims(c)
	if claims == nil || claims.UserID == "" {
		return nil, false
	}
	return claims, true
}

// resolveStudent maps the session identity to its child record, writing the
// error response itself when resolution fails.
func resolveStudent(c *gin.Context, students studentResolver) (*models.Student, bool) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	student, err := students.Resolve(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no student linked to this account"))
			return nil, false
		}
		response.Error(c, err)
		return nil, false
	}
	return student, true
}
