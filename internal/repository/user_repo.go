package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parisxmas/OxiDB/OxiWL/internal/db"
	"github.com/parisxmas/OxiDB/OxiWL/internal/models"
)

const UsersCollection = "_wl_users"

type UserRepo struct {
	pool *db.Pool
}

func NewUserRepo(pool *db.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	c := r.pool.Get()
	return c.CreateUniqueIndex(ctx, UsersCollection, "email")
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	c := r.pool.Get()
	doc, err := c.FindOne(ctx, UsersCollection, map[string]any{"email": email})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return docToUser(doc)
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	c := r.pool.Get()
	doc, err := c.FindOne(ctx, UsersCollection, map[string]any{"_id": toNumericID(id)})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return docToUser(doc)
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) (string, error) {
	c := r.pool.Get()
	doc := map[string]any{
		"email":        user.Email,
		"passwordHash": user.PasswordHash,
		"name":         user.Name,
		"role":         user.Role,
		"createdAt":    user.CreatedAt,
	}
	result, err := c.Insert(ctx, UsersCollection, doc)
	if err != nil {
		return "", err
	}
	return extractID(result), nil
}

// Users keep their "_id" tag, so they decode without renaming.
func docToUser(doc map[string]any) (*models.User, error) {
	normalizeID(doc)
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal user doc: %w", err)
	}
	var u models.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}
