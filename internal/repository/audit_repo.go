package repository

import (
	"context"

	"github.com/parisxmas/OxiDB/OxiWL/internal/db"
	"github.com/parisxmas/OxiDB/OxiWL/internal/models"
	"github.com/parisxmas/OxiDB/OxiWL/internal/oxidb"
)

const AuditCollection = "_wl_audit"

type AuditRepo struct {
	pool *db.Pool
}

func NewAuditRepo(pool *db.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) EnsureIndexes(ctx context.Context) error {
	c := r.pool.Get()
	if err := c.CreateIndex(ctx, AuditCollection, "entryId"); err != nil {
		return err
	}
	return c.CreateIndex(ctx, AuditCollection, "createdAt")
}

func (r *AuditRepo) Create(ctx context.Context, e *models.AuditEntry) (string, error) {
	c := r.pool.Get()
	result, err := c.Insert(ctx, AuditCollection, toDoc(e))
	if err != nil {
		return "", err
	}
	return extractID(result), nil
}

func (r *AuditRepo) List(ctx context.Context, p ListParams) ([]models.AuditEntry, int, error) {
	c := r.pool.Get()
	query := map[string]any{}

	total, err := c.Count(ctx, AuditCollection, query)
	if err != nil {
		return nil, 0, err
	}
	docs, err := c.Find(ctx, AuditCollection, query, &oxidb.FindOptions{
		Sort:  p.sort(),
		Skip:  &p.Skip,
		Limit: &p.Limit,
	})
	if err != nil {
		return nil, 0, err
	}
	return decodeAll[models.AuditEntry](docs, "audit entry"), total, nil
}
