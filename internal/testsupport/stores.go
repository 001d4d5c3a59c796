// Package testsupport provides in-memory stores for tests.
package testsupport

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/parisxmas/OxiDB/OxiWL/internal/models"
	"github.com/parisxmas/OxiDB/OxiWL/internal/repository"
)

type MemIPs struct {
	mu      sync.Mutex
	next    int
	entries map[string]models.IPEntry
	listErr error
}

func NewMemIPs() *MemIPs {
	return &MemIPs{entries: map[string]models.IPEntry{}}
}

// FailList makes every following List return err. A nil err restores
// normal behaviour.
func (m *MemIPs) FailList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

func (m *MemIPs) Create(ctx context.Context, e *models.IPEntry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	id := strconv.Itoa(m.next)
	c := *e
	c.ID = id
	m.entries[id] = c
	return id, nil
}

func (m *MemIPs) FindByID(ctx context.Context, id string) (*models.IPEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *MemIPs) FindByIP(ctx context.Context, ip string) (*models.IPEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.IP == ip {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}

func (m *MemIPs) Update(ctx context.Context, id string, e *models.IPEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *e
	c.ID = id
	m.entries[id] = c
	return nil
}

func (m *MemIPs) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// List sorts by numeric id only, which is all the tests need.
func (m *MemIPs) List(ctx context.Context, p repository.ListParams) ([]models.IPEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	all := make([]models.IPEntry, 0, len(m.entries))
	for _, e := range m.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		a, _ := strconv.Atoi(all[i].ID)
		b, _ := strconv.Atoi(all[j].ID)
		if p.Desc {
			return a > b
		}
		return a < b
	})
	return window(all, p), len(all), nil
}

// MemAudit fails every Create while Fail is set and remembers the last
// list parameters.
type MemAudit struct {
	mu      sync.Mutex
	Entries []models.AuditEntry
	Fail    bool
	Last    repository.ListParams
}

func (m *MemAudit) Create(ctx context.Context, e *models.AuditEntry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return "", errors.New("store down")
	}
	c := *e
	c.ID = strconv.Itoa(len(m.Entries) + 1)
	m.Entries = append(m.Entries, c)
	return c.ID, nil
}

func (m *MemAudit) List(ctx context.Context, p repository.ListParams) ([]models.AuditEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Last = p
	all := append([]models.AuditEntry(nil), m.Entries...)
	if p.Desc {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}
	return window(all, p), len(all), nil
}

type MemUsers struct {
	mu    sync.Mutex
	Users []models.User
}

func (m *MemUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *MemUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *MemUsers) Create(ctx context.Context, u *models.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *u
	c.ID = strconv.Itoa(len(m.Users) + 1)
	m.Users = append(m.Users, c)
	return c.ID, nil
}

func window[T any](all []T, p repository.ListParams) []T {
	if p.Skip >= len(all) {
		return []T{}
	}
	end := len(all)
	if p.Limit > 0 && p.Skip+p.Limit < end {
		end = p.Skip + p.Limit
	}
	return all[p.Skip:end]
}
