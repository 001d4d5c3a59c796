package console_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/parisxmas/OxiDB/OxiWL/internal/apiclient"
	"github.com/parisxmas/OxiDB/OxiWL/internal/console"
	"github.com/parisxmas/OxiDB/OxiWL/internal/models"
	"github.com/parisxmas/OxiDB/OxiWL/internal/notify"
	"github.com/parisxmas/OxiDB/OxiWL/internal/pager"
	"github.com/parisxmas/OxiDB/OxiWL/internal/session"
	"github.com/parisxmas/OxiDB/OxiWL/internal/testsupport"
)

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newConsole(t *testing.T, cfg console.Config) (*browser, *testsupport.API) {
	t.Helper()
	api := testsupport.NewAPI(t)
	h := console.New(
		apiclient.New(apiclient.Config{BaseURL: api.Server.URL}),
		session.NewStore(session.Config{}),
		cfg,
	)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	jar, _ := cookiejar.New(nil)
	return &browser{
		t:    t,
		base: srv.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, api
}

func (b *browser) do(method, path string, body, out any) *http.Response {
	b.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, b.base+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusSeeOther {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			b.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp
}

func (b *browser) input(path, field, value string) console.LoginView {
	b.t.Helper()
	var v console.LoginView
	resp := b.do("POST", path, map[string]string{"field": field, "value": value}, &v)
	if resp.StatusCode != http.StatusOK {
		b.t.Fatalf("input %s=%q: status %d", field, value, resp.StatusCode)
	}
	return v
}

func (b *browser) signIn() {
	b.t.Helper()
	b.input("/login/input", "email", testsupport.AdminEmail)
	b.input("/login/input", "password", testsupport.AdminPassword)
	resp := b.do("POST", "/login", nil, nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/dashboard" {
		b.t.Fatalf("sign in: status %d, location %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func entryIDs(v console.DashboardView) []string {
	out := []string{}
	for _, e := range v.List.Items {
		out = append(out, e.ID)
	}
	return out
}

func TestPagesRequireSignIn(t *testing.T) {
	b, _ := newConsole(t, console.DefaultConfig())
	for _, path := range []string{"/dashboard", "/audit-log"} {
		resp := b.do("GET", path, nil, nil)
		if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
			t.Fatalf("%s: expected redirect to /login, got %d %q", path, resp.StatusCode, resp.Header.Get("Location"))
		}
	}
}

func TestLoginFormValidation(t *testing.T) {
	b, _ := newConsole(t, console.DefaultConfig())

	var v console.LoginView
	b.do("GET", "/login", nil, &v)
	if v.Form.Submittable || len(v.Form.Fields) != 2 || v.Form.Fields[0].Error != "" {
		t.Fatalf("fresh form: %+v", v.Form)
	}
	if resp := b.do("POST", "/login", nil, nil); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("empty form submitted: %d", resp.StatusCode)
	}

	v = b.input("/login/input", "email", "not-an-email")
	if v.Form.Fields[0].Error != "Invalid email address" {
		t.Fatalf("expected email error, got %+v", v.Form.Fields[0])
	}
	b.input("/login/input", "email", testsupport.AdminEmail)
	v = b.input("/login/input", "password", "12345")
	if v.Form.Submittable || v.Form.Fields[1].Error != "Password is required (min. length is 6)" {
		t.Fatalf("short password accepted: %+v", v.Form)
	}
	v = b.input("/login/input", "password", "123456")
	if !v.Form.Submittable {
		t.Fatalf("valid form not submittable: %+v", v.Form)
	}
	if v.Form.Fields[1].Value != "" {
		t.Fatal("password echoed back")
	}

	if resp := b.do("POST", "/login/input", map[string]string{"field": "username", "value": "x"}, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field accepted: %d", resp.StatusCode)
	}
}

func TestRejectedLoginKeepsForm(t *testing.T) {
	b, _ := newConsole(t, console.DefaultConfig())
	b.input("/login/input", "email", testsupport.AdminEmail)
	b.input("/login/input", "password", "wrong-password")

	var v console.LoginView
	resp := b.do("POST", "/login", nil, &v)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	want := []notify.Toast{{Level: notify.LevelError, Message: "invalid credentials"}}
	if diff := cmp.Diff(want, v.Toasts); diff != "" {
		t.Fatalf("toasts (-want +got):\n%s", diff)
	}
	if v.Form.Fields[0].Value != testsupport.AdminEmail || !v.Form.Submittable {
		t.Fatalf("form not kept: %+v", v.Form)
	}
}

func TestDashboardPagination(t *testing.T) {
	b, api := newConsole(t, console.DefaultConfig())
	api.Seed(t, 5)
	b.signIn()

	var v console.DashboardView
	resp := b.do("GET", "/dashboard?page=2&orderBy=desc", nil, &v)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard: %d", resp.StatusCode)
	}
	wantLoc := "/dashboard?page=2&pageOffset=2&sortBy=id&orderBy=DESC"
	if v.Location != wantLoc || resp.Header.Get(console.ReplaceURLHeader) != wantLoc {
		t.Fatalf("location %q, header %q", v.Location, resp.Header.Get(console.ReplaceURLHeader))
	}
	if v.User.Email != testsupport.AdminEmail {
		t.Fatalf("user missing: %+v", v.User)
	}
	if len(v.Toasts) != 1 || v.Toasts[0].Level != notify.LevelSuccess {
		t.Fatalf("expected sign-in toast, got %+v", v.Toasts)
	}
	if diff := cmp.Diff([]string{"3", "2"}, entryIDs(v)); diff != "" {
		t.Fatalf("page 2 ids (-want +got):\n%s", diff)
	}
	if v.List.State != pager.Loaded || v.List.From != 3 || v.List.To != 4 || v.List.LastPage != 3 {
		t.Fatalf("list info: %+v", v.List)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, v.List.Pages); diff != "" {
		t.Fatalf("page window (-want +got):\n%s", diff)
	}

	v = console.DashboardView{}
	b.do("POST", "/dashboard/page", map[string]int{"page": 3}, &v)
	if diff := cmp.Diff([]string{"1"}, entryIDs(v)); diff != "" {
		t.Fatalf("page 3 ids (-want +got):\n%s", diff)
	}
	if v.Location != "/dashboard?page=3&pageOffset=2&sortBy=id&orderBy=DESC" {
		t.Fatalf("location after paging: %q", v.Location)
	}

	if resp := b.do("POST", "/dashboard/page", map[string]int{"page": 0}, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("page 0 accepted: %d", resp.StatusCode)
	}
}

func TestListSortAndSize(t *testing.T) {
	b, api := newConsole(t, console.DefaultConfig())
	api.Seed(t, 5)
	b.signIn()
	b.do("GET", "/dashboard?page=3", nil, nil)

	var v console.DashboardView
	resp := b.do("POST", "/dashboard/query", map[string]any{"sortBy": "ip", "orderBy": "asc", "pageOffset": 3}, &v)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("query: %d", resp.StatusCode)
	}
	wantQ := pager.Query{SortBy: "ip", OrderBy: pager.Asc, PageSize: 3, Page: 1}
	if diff := cmp.Diff(wantQ, v.List.Query); diff != "" {
		t.Fatalf("query (-want +got):\n%s", diff)
	}
	if v.Location != "/dashboard?page=1&pageOffset=3&sortBy=ip&orderBy=ASC" {
		t.Fatalf("location %q", v.Location)
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, entryIDs(v)); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}

	// Only the page size changes; the sort is kept.
	v = console.DashboardView{}
	b.do("POST", "/dashboard/query", map[string]any{"pageOffset": 4}, &v)
	if v.Location != "/dashboard?page=1&pageOffset=4&sortBy=ip&orderBy=ASC" || len(v.List.Items) != 4 {
		t.Fatalf("resize: location %q, %d items", v.Location, len(v.List.Items))
	}

	for _, bad := range []map[string]any{{"orderBy": "sideways"}, {"pageOffset": -1}} {
		if resp := b.do("POST", "/dashboard/query", bad, nil); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%v accepted: %d", bad, resp.StatusCode)
		}
	}

	var a console.AuditLogView
	b.do("POST", "/audit-log/query", map[string]any{"pageOffset": 2, "orderBy": "ASC"}, &a)
	if a.Location != "/audit-log?page=1&pageOffset=2&sortBy=id&orderBy=ASC" || len(a.List.Items) != 2 {
		t.Fatalf("audit query: location %q, list %+v", a.Location, a.List)
	}
	if a.List.Items[0].Action != models.ActionCreated {
		t.Fatalf("oldest audit entry first: %+v", a.List.Items[0])
	}
}

func TestDeleteEntry(t *testing.T) {
	b, api := newConsole(t, console.DefaultConfig())
	api.Seed(t, 3)
	b.signIn()
	b.do("GET", "/dashboard", nil, nil)
	b.do("GET", "/dashboard/ips/3/edit", nil, nil)

	var v console.DashboardView
	resp := b.do("POST", "/dashboard/ips/3/delete", nil, &v)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: %d", resp.StatusCode)
	}
	if diff := cmp.Diff([]string{"2", "1"}, entryIDs(v)); diff != "" {
		t.Fatalf("ids after delete (-want +got):\n%s", diff)
	}
	if v.List.Total != 2 || v.Editing != "" || v.Form.Fields[0].Value != "" {
		t.Fatalf("after delete: total %d editing %q form %+v", v.List.Total, v.Editing, v.Form)
	}
	if len(v.Toasts) == 0 || v.Toasts[len(v.Toasts)-1].Message != "IP address removed" {
		t.Fatalf("expected removal toast, got %+v", v.Toasts)
	}
	if e, _ := api.IPs.FindByID(context.Background(), "3"); e != nil {
		t.Fatalf("entry still stored: %+v", e)
	}

	v = console.DashboardView{}
	resp = b.do("POST", "/dashboard/ips/999/delete", nil, &v)
	if resp.StatusCode != http.StatusNotFound || len(v.List.Items) != 2 {
		t.Fatalf("missing entry: %d, list %+v", resp.StatusCode, v.List)
	}
}

func TestListFailure(t *testing.T) {
	b, api := newConsole(t, console.DefaultConfig())
	api.Seed(t, 3)
	b.signIn()

	var v console.DashboardView
	b.do("GET", "/dashboard", nil, &v)
	loc := v.Location

	api.IPs.FailList(errors.New("store down"))
	v = console.DashboardView{}
	b.do("POST", "/dashboard/page", map[string]int{"page": 2}, &v)
	if v.List.State != pager.Failed || len(v.List.Items) != 0 || v.List.Error != "internal server error" {
		t.Fatalf("failed list view: %+v", v.List)
	}
	if len(v.Toasts) != 0 {
		t.Fatalf("dashboard failures are not toasted: %+v", v.Toasts)
	}
	if v.Location != loc {
		t.Fatalf("failed fetch moved the location to %q", v.Location)
	}

	api.IPs.FailList(nil)
	v = console.DashboardView{}
	b.do("POST", "/dashboard/page", map[string]int{"page": 2}, &v)
	if v.List.State != pager.Loaded || len(v.List.Items) != 1 {
		t.Fatalf("list did not recover: %+v", v.List)
	}
}

func TestAuditLogToastsFailures(t *testing.T) {
	b, api := newConsole(t, console.DefaultConfig())
	api.Seed(t, 12)
	b.signIn()

	var v console.AuditLogView
	b.do("GET", "/audit-log", nil, &v)
	if v.List.Total != 12 || len(v.List.Items) != 10 || v.List.PerPage != 10 {
		t.Fatalf("audit page: %+v", v.List)
	}
	if v.Location != "/audit-log?page=1&pageOffset=10&sortBy=id&orderBy=DESC" {
		t.Fatalf("location %q", v.Location)
	}

	v = console.AuditLogView{}
	b.do("POST", "/audit-log/page", map[string]int{"page": 2}, &v)
	if len(v.List.Items) != 2 || v.List.From != 11 {
		t.Fatalf("audit page 2: %+v", v.List)
	}
}

func TestPageBeyondEndIsEmpty(t *testing.T) {
	b, _ := newConsole(t, console.DefaultConfig())
	b.signIn()
	var v console.DashboardView
	b.do("GET", "/dashboard?page=7", nil, &v)
	if v.List.State != pager.Loaded || len(v.List.Items) != 0 || len(v.List.Pages) != 0 {
		t.Fatalf("empty page view: %+v", v.List)
	}
	if v.List.CurrentPage != 7 || v.Location != "/dashboard?page=7&pageOffset=2&sortBy=id&orderBy=DESC" {
		t.Fatalf("empty page location %q info %+v", v.Location, v.List)
	}
}

func TestNotifyingPageToastsServerMessage(t *testing.T) {
	b, api := newConsole(t, console.Config{Dashboard: console.PageOptions{PageSize: 2, Notify: true, ShowLoading: true}})
	b.signIn()
	api.IPs.FailList(errors.New("store down"))

	var v console.DashboardView
	b.do("GET", "/dashboard", nil, &v)
	var errs []notify.Toast
	for _, toast := range v.Toasts {
		if toast.Level == notify.LevelError {
			errs = append(errs, toast)
		}
	}
	want := []notify.Toast{{Level: notify.LevelError, Message: "internal server error"}}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("error toasts (-want +got):\n%s", diff)
	}
	if v.List.Loading {
		t.Fatal("finished fetch still reported as loading")
	}
}

func TestSaveEntry(t *testing.T) {
	b, api := newConsole(t, console.DefaultConfig())
	b.signIn()
	b.do("GET", "/dashboard", nil, nil)

	var v console.DashboardView
	b.do("POST", "/dashboard/form/input", map[string]string{"field": "ip", "value": "172.0.0"}, &v)
	if v.Form.Fields[0].Error != "Invalid IP address" {
		t.Fatalf("expected ip error, got %+v", v.Form.Fields[0])
	}
	if resp := b.do("POST", "/dashboard/ips", nil, nil); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid entry submitted: %d", resp.StatusCode)
	}

	b.do("POST", "/dashboard/form/input", map[string]string{"field": "ip", "value": "172.0.0.1"}, nil)
	b.do("POST", "/dashboard/form/input", map[string]string{"field": "label", "value": "BC2 server"}, nil)
	v = console.DashboardView{}
	resp := b.do("POST", "/dashboard/ips", nil, &v)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save: %d", resp.StatusCode)
	}
	if v.List.Total != 1 || v.Form.Submittable || v.Form.Fields[0].Value != "" {
		t.Fatalf("after save: list %+v form %+v", v.List, v.Form)
	}
	if len(v.Toasts) == 0 || v.Toasts[len(v.Toasts)-1].Message != "IP address added" {
		t.Fatalf("expected success toast, got %+v", v.Toasts)
	}

	b.do("POST", "/dashboard/form/input", map[string]string{"field": "ip", "value": "172.0.0.1"}, nil)
	b.do("POST", "/dashboard/form/input", map[string]string{"field": "label", "value": "again"}, nil)
	v = console.DashboardView{}
	resp = b.do("POST", "/dashboard/ips", nil, &v)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate: %d", resp.StatusCode)
	}
	want := []notify.Toast{{Level: notify.LevelError, Message: "ip address is already whitelisted"}}
	if diff := cmp.Diff(want, v.Toasts); diff != "" {
		t.Fatalf("toasts (-want +got):\n%s", diff)
	}
	if v.Form.Fields[1].Value != "again" {
		t.Fatalf("form not kept after failed write: %+v", v.Form)
	}

	e, _ := api.IPs.FindByIP(context.Background(), "172.0.0.1")
	id := e.ID
	v = console.DashboardView{}
	b.do("GET", "/dashboard/ips/"+id+"/edit", nil, &v)
	if v.Editing != id || v.Form.Fields[1].Value != "BC2 server" || !v.Form.Submittable {
		t.Fatalf("edit view: editing %q form %+v", v.Editing, v.Form)
	}
	b.do("POST", "/dashboard/form/input", map[string]string{"field": "label", "value": "renamed"}, nil)
	v = console.DashboardView{}
	b.do("POST", "/dashboard/ips", nil, &v)
	if v.Editing != "" || v.List.Items[0].Label != "renamed" {
		t.Fatalf("after update: editing %q items %+v", v.Editing, v.List.Items)
	}

	if resp := b.do("GET", "/dashboard/ips/999/edit", nil, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing entry: %d", resp.StatusCode)
	}
}

func TestLogout(t *testing.T) {
	b, _ := newConsole(t, console.DefaultConfig())
	b.signIn()
	if resp := b.do("GET", "/login", nil, nil); resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("signed-in login page should redirect, got %d", resp.StatusCode)
	}
	resp := b.do("POST", "/logout", nil, nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("logout: %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if resp := b.do("GET", "/dashboard", nil, nil); resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("dashboard after logout: %d", resp.StatusCode)
	}
	var v console.LoginView
	b.do("GET", "/login", nil, &v)
	if v.Form.Fields[0].Value != "" {
		t.Fatal("login form survived sign out")
	}
}
