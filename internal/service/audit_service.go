package service

import (
	"context"
	"log"
	"time"

	"github.com/parisxmas/OxiDB/OxiWL/internal/models"
	"github.com/parisxmas/OxiDB/OxiWL/internal/pager"
)

var auditSortable = map[string]string{
	"id":         "_id",
	"action":     "action",
	"actorEmail": "actorEmail",
	"createdAt":  "createdAt",
}

// Actor identifies who performed a change.
type Actor struct {
	UserID    string
	Email     string
	RequestID string
}

type AuditService struct {
	audit AuditStore
	now   func() time.Time
}

func NewAuditService(audit AuditStore) *AuditService {
	return &AuditService{audit: audit, now: time.Now}
}

// Record stores an audit entry. A failure is logged, never returned: the
// audited change has already been applied.
func (s *AuditService) Record(ctx context.Context, actor Actor, action, entryID string, before, after *models.AuditChange) {
	e := &models.AuditEntry{
		Action:     action,
		EntryID:    entryID,
		Before:     before,
		After:      after,
		ActorID:    actor.UserID,
		ActorEmail: actor.Email,
		RequestID:  actor.RequestID,
		CreatedAt:  s.now().UTC().Format(time.RFC3339),
	}
	if _, err := s.audit.Create(ctx, e); err != nil {
		log.Printf("Warning: audit: record %s of entry %s by %s failed: %v", action, entryID, actor.Email, err)
	}
}

func (s *AuditService) List(ctx context.Context, q pager.Query) (pager.Envelope[models.AuditEntry], error) {
	q, p := listWindow(q, auditSortable)
	entries, total, err := s.audit.List(ctx, p)
	if err != nil {
		return pager.Envelope[models.AuditEntry]{}, err
	}
	return pager.Envelope[models.AuditEntry]{Data: entries, Meta: pageMeta(q, total, len(entries))}, nil
}
