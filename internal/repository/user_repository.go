package repository

import (
	"context"

	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/store"
)

const usersCollection = "users"

// UserRepository reads parent accounts from the identity collection.
type UserRepository struct {
	store store.Store
}

// NewUserRepository creates the repository.
func NewUserRepository(s store.Store) *UserRepository {
	return &UserRepository{store: s}
}

// FindByEmail returns the account registered under the email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	docs, err := r.store.Query(ctx, usersCollection, store.Query{
		Filters: []store.Filter{{Field: "email", Value: email}},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	return parseUser(docs[0]), nil
}

// FindByID returns the account stored under the identity key.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	doc, err := r.store.Get(ctx, usersCollection, id)
	if err != nil {
		return nil, err
	}
	return parseUser(*doc), nil
}

func parseUser(doc store.Document) *models.User {
	return &models.User{
		ID:           doc.ID,
		Email:        doc.String("email"),
		PasswordHash: doc.String("passwordHash"),
		FullName:     doc.String("fullName"),
		Active:       doc.Bool("active"),
		CreatedAt:    doc.CreatedAt,
	}
}
