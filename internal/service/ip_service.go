package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/parisxmas/OxiDB/OxiWL/internal/models"
	"github.com/parisxmas/OxiDB/OxiWL/internal/oxidb"
	"github.com/parisxmas/OxiDB/OxiWL/internal/pager"
)

var ipSortable = map[string]string{
	"id":        "_id",
	"ip":        "ip",
	"label":     "label",
	"createdAt": "createdAt",
	"updatedAt": "updatedAt",
}

// IPInput is the writable part of a whitelist entry.
type IPInput struct {
	IP    string `json:"ip" validate:"required,ip"`
	Label string `json:"label" validate:"required,max=255"`
}

type IPService struct {
	ips    IPStore
	audit  *AuditService
	policy *bluemonday.Policy
	now    func() time.Time
}

func NewIPService(ips IPStore, audit *AuditService) *IPService {
	return &IPService{
		ips:    ips,
		audit:  audit,
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
	}
}

// clean trims in and strips markup from the label, then validates it.
// Labels are stored as plain text.
func (s *IPService) clean(in IPInput) (IPInput, error) {
	in.IP = strings.TrimSpace(in.IP)
	in.Label = strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in.Label)))
	if err := Validate(in); err != nil {
		return in, err
	}
	return in, nil
}

func (s *IPService) List(ctx context.Context, q pager.Query) (pager.Envelope[models.IPEntry], error) {
	q, p := listWindow(q, ipSortable)
	entries, total, err := s.ips.List(ctx, p)
	if err != nil {
		return pager.Envelope[models.IPEntry]{}, err
	}
	return pager.Envelope[models.IPEntry]{Data: entries, Meta: pageMeta(q, total, len(entries))}, nil
}

func (s *IPService) Get(ctx context.Context, id string) (*models.IPEntry, error) {
	e, err := s.ips.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("ip entry %s: %w", id, ErrNotFound)
	}
	return e, nil
}

func (s *IPService) Create(ctx context.Context, actor Actor, in IPInput) (*models.IPEntry, error) {
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}
	if existing, _ := s.ips.FindByIP(ctx, in.IP); existing != nil {
		return nil, ErrDuplicateIP
	}

	now := s.now().UTC().Format(time.RFC3339)
	e := &models.IPEntry{
		IP:        in.IP,
		Label:     in.Label,
		CreatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := s.ips.Create(ctx, e)
	if err != nil {
		return nil, storeErr(err)
	}
	e.ID = id

	s.audit.Record(ctx, actor, models.ActionCreated, id, nil, &models.AuditChange{IP: e.IP, Label: e.Label})
	return e, nil
}

func (s *IPService) Update(ctx context.Context, actor Actor, id string, in IPInput) (*models.IPEntry, error) {
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.IP != e.IP {
		if existing, _ := s.ips.FindByIP(ctx, in.IP); existing != nil && existing.ID != id {
			return nil, ErrDuplicateIP
		}
	}

	before := &models.AuditChange{IP: e.IP, Label: e.Label}
	e.IP = in.IP
	e.Label = in.Label
	e.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	if err := s.ips.Update(ctx, id, e); err != nil {
		return nil, storeErr(err)
	}

	s.audit.Record(ctx, actor, models.ActionUpdated, id, before, &models.AuditChange{IP: e.IP, Label: e.Label})
	return e, nil
}

func (s *IPService) Delete(ctx context.Context, actor Actor, id string) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ips.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, models.ActionDeleted, id, &models.AuditChange{IP: e.IP, Label: e.Label}, nil)
	return nil
}

// storeErr maps a unique index violation onto ErrDuplicateIP.
func storeErr(err error) error {
	var dup *oxidb.DuplicateKeyError
	if errors.As(err, &dup) {
		return ErrDuplicateIP
	}
	return err
}
