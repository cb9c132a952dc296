package repository

import (
	"context"
	"sort"

	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/store"
)

const (
	postsCollection    = "posts"
	commentsCollection = "comments"
	teachersCollection = "teachers"
)

// PostRepository reads and mutates the gallery feed collections.
type PostRepository struct {
	store store.Store
}

// NewPostRepository creates the repository.
func NewPostRepository(s store.Store) *PostRepository {
	return &PostRepository{store: s}
}

// List returns all posts in the store's natural document order.
func (r *PostRepository) List(ctx context.Context) ([]models.Post, error) {
	docs, err := r.store.List(ctx, postsCollection)
	if err != nil {
		return nil, err
	}
	posts := make([]models.Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, ParsePost(doc))
	}
	return posts, nil
}

// Get returns one post by id.
func (r *PostRepository) Get(ctx context.Context, id string) (*models.Post, error) {
	doc, err := r.store.Get(ctx, postsCollection, id)
	if err != nil {
		return nil, err
	}
	post := ParsePost(*doc)
	return &post, nil
}

// ToggleLike flips the user's membership in the post's like set. The flip
// runs inside Store.Apply so two concurrent toggles serialize instead of the
// later write silently dropping the earlier one. Toggling twice restores the
// original membership.
func (r *PostRepository) ToggleLike(ctx context.Context, postID, userID string) error {
	return r.store.Apply(ctx, postsCollection, postID, func(data map[string]interface{}) (map[string]interface{}, error) {
		if data == nil {
			return nil, store.ErrNotFound
		}
		likes, _ := data["likes"].(map[string]interface{})
		if likes == nil {
			likes = map[string]interface{}{}
		}
		if _, liked := likes[userID]; liked {
			delete(likes, userID)
		} else {
			likes[userID] = true
		}
		data["likes"] = likes
		return data, nil
	})
}

// AddComment appends a comment to the post's sub-collection. The creation
// timestamp is assigned by the store.
func (r *PostRepository) AddComment(ctx context.Context, postID, authorID, text string) (string, error) {
	return r.store.Add(ctx, store.ChildCollection(postsCollection, postID, commentsCollection), map[string]interface{}{
		"authorId": authorID,
		"text":     text,
	})
}

// ListComments returns the post's comments in append order.
func (r *PostRepository) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	docs, err := r.store.List(ctx, store.ChildCollection(postsCollection, postID, commentsCollection))
	if err != nil {
		return nil, err
	}
	comments := make([]models.Comment, 0, len(docs))
	for _, doc := range docs {
		comments = append(comments, ParseComment(postID, doc))
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

// ParsePost converts a post document, recomputing the like count from the
// like set.
func ParsePost(doc store.Document) models.Post {
	post := models.Post{
		ID:          doc.ID,
		TeacherID:   doc.String("teacherId"),
		Title:       doc.String("title"),
		Text:        doc.String("text"),
		Description: doc.String("description"),
		CreatedAt:   doc.CreatedAt,
		Likes:       map[string]bool{},
	}
	if likes, ok := doc.Data["likes"].(map[string]interface{}); ok {
		for user := range likes {
			post.Likes[user] = true
		}
	}
	post.LikeCount = len(post.Likes)
	if media, ok := doc.Data["media"].([]interface{}); ok {
		for _, raw := range media {
			entry, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			kind, _ := entry["kind"].(string)
			url, _ := entry["url"].(string)
			post.Media = append(post.Media, models.MediaItem{Kind: models.MediaKind(kind), URL: url})
		}
	}
	return post
}

// ParseComment converts a comment document.
func ParseComment(postID string, doc store.Document) models.Comment {
	return models.Comment{
		ID:        doc.ID,
		PostID:    postID,
		AuthorID:  doc.String("authorId"),
		Text:      doc.String("text"),
		CreatedAt: doc.CreatedAt,
	}
}

// TeacherRepository resolves post authors.
type TeacherRepository struct {
	store store.Store
}

// NewTeacherRepository creates the repository.
func NewTeacherRepository(s store.Store) *TeacherRepository {
	return &TeacherRepository{store: s}
}

// Get returns the teacher by id, or store.ErrNotFound.
func (r *TeacherRepository) Get(ctx context.Context, id string) (*models.Teacher, error) {
	doc, err := r.store.Get(ctx, teachersCollection, id)
	if err != nil {
		return nil, err
	}
	return &models.Teacher{
		ID:      doc.ID,
		Name:    doc.String("name"),
		Subject: doc.String("subject"),
	}, nil
}
