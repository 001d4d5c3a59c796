package repository

import (
	"context"

	"github.com/parisxmas/OxiDB/OxiWL/internal/db"
	"github.com/parisxmas/OxiDB/OxiWL/internal/models"
	"github.com/parisxmas/OxiDB/OxiWL/internal/oxidb"
)

const IPsCollection = "_wl_ips"

type IPRepo struct {
	pool *db.Pool
}

func NewIPRepo(pool *db.Pool) *IPRepo {
	return &IPRepo{pool: pool}
}

func (r *IPRepo) EnsureIndexes(ctx context.Context) error {
	c := r.pool.Get()
	if err := c.CreateUniqueIndex(ctx, IPsCollection, "ip"); err != nil {
		return err
	}
	return c.CreateIndex(ctx, IPsCollection, "createdAt")
}

func (r *IPRepo) Create(ctx context.Context, e *models.IPEntry) (string, error) {
	c := r.pool.Get()
	result, err := c.Insert(ctx, IPsCollection, toDoc(e))
	if err != nil {
		return "", err
	}
	return extractID(result), nil
}

func (r *IPRepo) FindByID(ctx context.Context, id string) (*models.IPEntry, error) {
	return r.findOne(ctx, map[string]any{"_id": toNumericID(id)})
}

func (r *IPRepo) FindByIP(ctx context.Context, ip string) (*models.IPEntry, error) {
	return r.findOne(ctx, map[string]any{"ip": ip})
}

func (r *IPRepo) findOne(ctx context.Context, query map[string]any) (*models.IPEntry, error) {
	c := r.pool.Get()
	doc, err := c.FindOne(ctx, IPsCollection, query)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return fromDoc[models.IPEntry](doc, "ip entry")
}

func (r *IPRepo) Update(ctx context.Context, id string, e *models.IPEntry) error {
	c := r.pool.Get()
	_, err := c.UpdateOne(ctx, IPsCollection, map[string]any{"_id": toNumericID(id)}, map[string]any{"$set": toDoc(e)})
	return err
}

func (r *IPRepo) Delete(ctx context.Context, id string) error {
	c := r.pool.Get()
	_, err := c.DeleteOne(ctx, IPsCollection, map[string]any{"_id": toNumericID(id)})
	return err
}

// List returns one window of entries and the total number of entries.
func (r *IPRepo) List(ctx context.Context, p ListParams) ([]models.IPEntry, int, error) {
	c := r.pool.Get()
	query := map[string]any{}

	total, err := c.Count(ctx, IPsCollection, query)
	if err != nil {
		return nil, 0, err
	}

	docs, err := c.Find(ctx, IPsCollection, query, &oxidb.FindOptions{
		Sort:  p.sort(),
		Skip:  &p.Skip,
		Limit: &p.Limit,
	})
	if err != nil {
		return nil, 0, err
	}
	return decodeAll[models.IPEntry](docs, "ip entry"), total, nil
}
