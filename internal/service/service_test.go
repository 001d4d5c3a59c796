package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/parisxmas/OxiDB/OxiWL/internal/auth"
	"github.com/parisxmas/OxiDB/OxiWL/internal/models"
	"github.com/parisxmas/OxiDB/OxiWL/internal/pager"
	"github.com/parisxmas/OxiDB/OxiWL/internal/repository"
	"github.com/parisxmas/OxiDB/OxiWL/internal/service"
	"github.com/parisxmas/OxiDB/OxiWL/internal/testsupport"
)

var actor = service.Actor{UserID: "1", Email: "admin@oxiwl.dev", RequestID: "req-1"}

func newIPService() (*service.IPService, *testsupport.MemIPs, *testsupport.MemAudit) {
	ips := testsupport.NewMemIPs()
	audit := &testsupport.MemAudit{}
	return service.NewIPService(ips, service.NewAuditService(audit)), ips, audit
}

func seed(t *testing.T, svc *service.IPService, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		in := service.IPInput{IP: fmt.Sprintf("10.0.%d.%d", i/256, i%256), Label: fmt.Sprintf("host %d", i)}
		if _, err := svc.Create(context.Background(), actor, in); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
}

func TestListMeta(t *testing.T) {
	svc, _, _ := newIPService()
	seed(t, svc, 45)

	env, err := svc.List(context.Background(), pager.Query{SortBy: "id", OrderBy: pager.Desc, PageSize: 10, Page: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := pager.Meta{From: 11, To: 20, Total: 45, CurrentPage: 2, PerPage: 10, LastPage: 5}
	if diff := cmp.Diff(want, env.Meta); diff != "" {
		t.Fatalf("meta mismatch (-want +got):\n%s", diff)
	}
	if len(env.Data) != 10 || env.Data[0].ID != "35" {
		t.Fatalf("unexpected page: %d items, first %s", len(env.Data), env.Data[0].ID)
	}
}

func TestListLastAndOutOfRangePages(t *testing.T) {
	svc, _, _ := newIPService()
	seed(t, svc, 45)

	env, _ := svc.List(context.Background(), pager.Query{SortBy: "id", OrderBy: pager.Asc, PageSize: 10, Page: 5})
	if env.Meta.From != 41 || env.Meta.To != 45 || len(env.Data) != 5 {
		t.Fatalf("unexpected last page meta %+v with %d items", env.Meta, len(env.Data))
	}

	env, _ = svc.List(context.Background(), pager.Query{SortBy: "id", OrderBy: pager.Asc, PageSize: 10, Page: 9})
	if len(env.Data) != 0 || env.Meta.From != 0 || env.Meta.To != 0 || env.Meta.CurrentPage != 9 {
		t.Fatalf("out-of-range page should be empty: %+v", env.Meta)
	}
}

func TestListEmpty(t *testing.T) {
	svc, _, _ := newIPService()
	env, err := svc.List(context.Background(), pager.DefaultQuery(10))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := pager.Meta{Total: 0, CurrentPage: 1, PerPage: 10, LastPage: 1}
	if diff := cmp.Diff(want, env.Meta); diff != "" {
		t.Fatalf("meta mismatch (-want +got):\n%s", diff)
	}
}

func TestAuditListClampsQuery(t *testing.T) {
	audit := &testsupport.MemAudit{}
	svc := service.NewAuditService(audit)
	env, err := svc.List(context.Background(), pager.Query{SortBy: "password", OrderBy: "sideways", PageSize: 5000, Page: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := repository.ListParams{SortField: "_id", Desc: true, Skip: service.MaxPageSize, Limit: service.MaxPageSize}
	if diff := cmp.Diff(want, audit.Last); diff != "" {
		t.Fatalf("list params (-want +got):\n%s", diff)
	}
	if env.Meta.PerPage != service.MaxPageSize {
		t.Fatalf("per_page not capped: %d", env.Meta.PerPage)
	}
}

func TestCreateValidates(t *testing.T) {
	svc, _, _ := newIPService()
	cases := map[string]service.IPInput{
		"ip must be a valid IP address": {IP: "172.0.0", Label: "x"},
		"ip is required":                {IP: "", Label: "x"},
		"label is required":             {IP: "10.0.0.1", Label: "   "},
	}
	for want, in := range cases {
		_, err := svc.Create(context.Background(), actor, in)
		var verr *service.ValidationError
		if !errors.As(err, &verr) || verr.Msg != want {
			t.Fatalf("input %+v: expected %q, got %v", in, want, err)
		}
	}
}

func TestCreateSanitizesLabel(t *testing.T) {
	svc, _, _ := newIPService()
	e, err := svc.Create(context.Background(), actor, service.IPInput{IP: " 172.0.0.1 ", Label: `<script>alert(1)</script><b>BC2 server</b>`})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.IP != "172.0.0.1" || e.Label != "BC2 server" {
		t.Fatalf("entry not cleaned: %+v", e)
	}

	_, err = svc.Create(context.Background(), actor, service.IPInput{IP: "10.0.0.1", Label: "<img src=x>"})
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("label that sanitizes to nothing should be rejected, got %v", err)
	}
}

func TestCreateDuplicate(t *testing.T) {
	svc, _, _ := newIPService()
	in := service.IPInput{IP: "10.0.0.1", Label: "a"}
	if _, err := svc.Create(context.Background(), actor, in); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), actor, in); !errors.Is(err, service.ErrDuplicateIP) {
		t.Fatalf("expected ErrDuplicateIP, got %v", err)
	}
}

func TestChangesAreAudited(t *testing.T) {
	svc, _, audit := newIPService()
	ctx := context.Background()
	e, _ := svc.Create(ctx, actor, service.IPInput{IP: "10.0.0.1", Label: "old"})
	if _, err := svc.Update(ctx, actor, e.ID, service.IPInput{IP: "10.0.0.2", Label: "new"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, actor, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	type row struct {
		Action        string
		Before, After *models.AuditChange
		Actor, Req    string
	}
	var got []row
	for _, a := range audit.Entries {
		got = append(got, row{a.Action, a.Before, a.After, a.ActorEmail, a.RequestID})
		if a.EntryID != e.ID || a.CreatedAt == "" {
			t.Fatalf("incomplete audit entry %+v", a)
		}
	}
	want := []row{
		{models.ActionCreated, nil, &models.AuditChange{IP: "10.0.0.1", Label: "old"}, actor.Email, "req-1"},
		{models.ActionUpdated, &models.AuditChange{IP: "10.0.0.1", Label: "old"}, &models.AuditChange{IP: "10.0.0.2", Label: "new"}, actor.Email, "req-1"},
		{models.ActionDeleted, &models.AuditChange{IP: "10.0.0.2", Label: "new"}, nil, actor.Email, "req-1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("audit trail (-want +got):\n%s", diff)
	}
}

func TestAuditFailureDoesNotFailWrite(t *testing.T) {
	svc, ips, audit := newIPService()
	audit.Fail = true
	e, err := svc.Create(context.Background(), actor, service.IPInput{IP: "10.0.0.1", Label: "a"})
	if err != nil {
		t.Fatalf("create failed because of audit: %v", err)
	}
	if got, _ := ips.FindByID(context.Background(), e.ID); got == nil {
		t.Fatal("entry not stored")
	}
}

func TestUpdateToExistingIP(t *testing.T) {
	svc, _, _ := newIPService()
	ctx := context.Background()
	svc.Create(ctx, actor, service.IPInput{IP: "10.0.0.1", Label: "a"})
	b, _ := svc.Create(ctx, actor, service.IPInput{IP: "10.0.0.2", Label: "b"})
	if _, err := svc.Update(ctx, actor, b.ID, service.IPInput{IP: "10.0.0.1", Label: "b"}); !errors.Is(err, service.ErrDuplicateIP) {
		t.Fatalf("expected ErrDuplicateIP, got %v", err)
	}
	if _, err := svc.Update(ctx, actor, b.ID, service.IPInput{IP: "10.0.0.2", Label: "renamed"}); err != nil {
		t.Fatalf("label-only update rejected: %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	svc, _, _ := newIPService()
	if _, err := svc.Get(context.Background(), "404"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), actor, "404"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestAuthService(t *testing.T) {
	users := &testsupport.MemUsers{}
	svc := service.NewAuthService(users, "secret", time.Hour)
	ctx := context.Background()

	if err := svc.SeedAdmin(ctx, "admin@oxiwl.dev", "admin123"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := svc.SeedAdmin(ctx, "admin@oxiwl.dev", "other"); err != nil || len(users.Users) != 1 {
		t.Fatalf("second seed should be a no-op: %v, %d users", err, len(users.Users))
	}

	res, err := svc.Login(ctx, "Admin@OxiWL.dev", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := auth.ValidateToken("secret", res.Token)
	if err != nil || claims.Role != "admin" {
		t.Fatalf("bad token: %v %+v", err, claims)
	}
	if _, err := svc.Login(ctx, "admin@oxiwl.dev", "wrong"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@oxiwl.dev", "admin123"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	if _, err := svc.Register(ctx, "admin@oxiwl.dev", "secret1", "Dup"); !errors.Is(err, service.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	reg, err := svc.Register(ctx, "op@oxiwl.dev", "secret1", "Operator")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	me, err := svc.Me(ctx, reg.User.ID)
	if err != nil || me.Email != "op@oxiwl.dev" || me.Role != "user" {
		t.Fatalf("me: %v %+v", err, me)
	}
	if _, err := svc.Me(ctx, "99"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
