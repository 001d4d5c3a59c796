package testsupport

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/parisxmas/OxiDB/OxiWL/internal/handler"
	"github.com/parisxmas/OxiDB/OxiWL/internal/router"
	"github.com/parisxmas/OxiDB/OxiWL/internal/service"
)

const (
	JWTSecret     = "test-secret"
	AdminEmail    = "admin@oxiwl.dev"
	AdminPassword = "admin123"
)

// API is a whitelist API server backed by in-memory stores.
type API struct {
	Server *httptest.Server
	IPs    *MemIPs
	Audit  *MemAudit
	Users  *MemUsers
	Auth   *service.AuthService
	IP     *service.IPService
}

type pingOK struct{}

func (pingOK) Ping(context.Context) error { return nil }

// NewAPI starts the full API router with a seeded admin account. The server
// is closed when the test ends.
func NewAPI(t testing.TB) *API {
	t.Helper()
	a := &API{IPs: NewMemIPs(), Audit: &MemAudit{}, Users: &MemUsers{}}
	auditSvc := service.NewAuditService(a.Audit)
	a.Auth = service.NewAuthService(a.Users, JWTSecret, time.Hour)
	a.IP = service.NewIPService(a.IPs, auditSvc)
	if err := a.Auth.SeedAdmin(context.Background(), AdminEmail, AdminPassword); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	r := router.New(JWTSecret, []string{"*"},
		handler.NewAuthHandler(a.Auth),
		handler.NewIPHandler(a.IP),
		handler.NewAuditHandler(auditSvc),
		handler.NewHealthHandler(pingOK{}),
	)
	a.Server = httptest.NewServer(r)
	t.Cleanup(a.Server.Close)
	return a
}

// Token logs the admin in and returns a bearer token.
func (a *API) Token(t testing.TB) string {
	t.Helper()
	res, err := a.Auth.Login(context.Background(), AdminEmail, AdminPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return res.Token
}

// Seed stores n entries through the service so each is audited.
func (a *API) Seed(t testing.TB, n int) {
	t.Helper()
	actor := service.Actor{UserID: "1", Email: AdminEmail}
	for i := 1; i <= n; i++ {
		in := service.IPInput{IP: fmt.Sprintf("10.0.%d.%d", i/256, i%256), Label: fmt.Sprintf("host %d", i)}
		if _, err := a.IP.Create(context.Background(), actor, in); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
}
