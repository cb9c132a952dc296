package models

import "time"

// MediaKind distinguishes gallery media entries.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaItem is one image or video attached to a post.
type MediaItem struct {
	Kind MediaKind `json:"kind"`
	URL  string    `json:"url"`
}

// Post is a gallery feed entry authored by a teacher. Likes is a set keyed by
// user identity; LikeCount is recomputed from it on every read or rebuild.
type Post struct {
	ID          string          `json:"id"`
	TeacherID   string          `json:"teacher_id"`
	Title       string          `json:"title"`
	Text        string          `json:"text"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Media       []MediaItem     `json:"media"`
	Likes       map[string]bool `json:"likes"`
	LikeCount   int             `json:"like_count"`
}

// LikedBy reports set membership for the given user.
func (p Post) LikedBy(userID string) bool {
	return p.Likes[userID]
}

// Comment belongs to exactly one post's comment sub-collection and is
// append-only from this client.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
