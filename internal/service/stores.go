package service

import (
	"context"

	"github.com/parisxmas/OxiDB/OxiWL/internal/models"
	"github.com/parisxmas/OxiDB/OxiWL/internal/repository"
)

// The stores are satisfied by the OxiDB repositories.

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (string, error)
}

type IPStore interface {
	Create(ctx context.Context, e *models.IPEntry) (string, error)
	FindByID(ctx context.Context, id string) (*models.IPEntry, error)
	FindByIP(ctx context.Context, ip string) (*models.IPEntry, error)
	Update(ctx context.Context, id string, e *models.IPEntry) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, p repository.ListParams) ([]models.IPEntry, int, error)
}

type AuditStore interface {
	Create(ctx context.Context, e *models.AuditEntry) (string, error)
	List(ctx context.Context, p repository.ListParams) ([]models.AuditEntry, int, error)
}

var (
	_ UserStore  = (*repository.UserRepo)(nil)
	_ IPStore    = (*repository.IPRepo)(nil)
	_ AuditStore = (*repository.AuditRepo)(nil)
)
