package dto

import (
	"time"

	"github.com/edulink-id/parent-portal-api/internal/models"
)

// FeedPost is a gallery post merged with its live comment thread.
type FeedPost struct {
	models.Post
	Comments []models.Comment `json:"comments"`
}

// FeedSnapshot is one full state of the gallery feed as emitted to
// subscribers. Snapshots replace each other; they are never patched.
type FeedSnapshot struct {
	Posts       []FeedPost `json:"posts"`
	GeneratedAt time.Time  `json:"generatedAt"`
}

// AddCommentRequest carries a new comment body.
type AddCommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}
