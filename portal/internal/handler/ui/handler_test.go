package ui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"guest-portal/portal/internal/infra"
	"guest-portal/portal/internal/model"
	"guest-portal/portal/internal/repository"
	"guest-portal/portal/internal/service"
)

type fakeAuthorizer struct {
	authorizeFunc func(req service.GuestRequest) (service.Attempt, error)
	calls         []service.GuestRequest
}

func (f *fakeAuthorizer) Authorize(_ context.Context, req service.GuestRequest) (service.Attempt, error) {
	f.calls = append(f.calls, req)
	if f.authorizeFunc == nil {
		return service.Attempt{}, errors.New("not implemented")
	}
	return f.authorizeFunc(req)
}

func newTestHandler(t *testing.T, auth *fakeAuthorizer) (*Handler, repository.Repository) {
	t.Helper()
	db, err := infra.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("OpenDB() error: %v", err)
	}
	if err := infra.Migrate(db); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	repo := repository.NewGormRepository(db)
	h, err := NewHandler(repo, auth, nil)
	if err != nil {
		t.Fatalf("NewHandler() error: %v", err)
	}
	return h, repo
}

func postForm(h http.Handler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/authenticate", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func formValues() url.Values {
	return url.Values{
		"email":  {"guest@example.com"},
		"mac":    {"AA-BB-CC-DD-EE-FF"},
		"ip":     {"10.0.0.23"},
		"ap_mac": {"11:22:33:44:55:66"},
		"ssid":   {"Guest"},
		"url":    {"http://example.com/"},
	}
}

func redirectQuery(t *testing.T, rec *httptest.ResponseRecorder) (string, url.Values) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad Location: %v", err)
	}
	return loc.Path, loc.Query()
}

func TestPortalLoginRendersParameters(t *testing.T) {
	h, _ := newTestHandler(t, &fakeAuthorizer{})
	req := httptest.NewRequest(http.MethodGet, "/?id=aa:bb:cc:dd:ee:ff&ip=10.0.0.5&ap=11:22:33:44:55:66&ssid=Guest", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `name="mac" value="aa:bb:cc:dd:ee:ff"`) {
		t.Fatalf("expected mac hidden field, got %s", body)
	}
	if !strings.Contains(body, `name="ssid" value="Guest"`) {
		t.Fatalf("expected ssid hidden field")
	}
}

func TestPortalLoginShowsMessage(t *testing.T) {
	h, _ := newTestHandler(t, &fakeAuthorizer{})
	req := httptest.NewRequest(http.MethodGet, "/?msg="+msgUnavailable, nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "System temporarily unavailable") {
		t.Fatalf("expected unavailable message")
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	auth := &fakeAuthorizer{authorizeFunc: func(req service.GuestRequest) (service.Attempt, error) {
		return service.Attempt{State: service.StateAuthorized, Guest: model.Guest{MAC: "aa:bb:cc:dd:ee:ff"}}, nil
	}}
	h, _ := newTestHandler(t, auth)

	path, q := redirectQuery(t, postForm(h.Routes(), formValues()))
	if path != "/success" || q.Get("url") != "http://example.com/" {
		t.Fatalf("unexpected redirect: %s?%s", path, q.Encode())
	}
	if len(auth.calls) != 1 {
		t.Fatalf("expected one authorization, got %d", len(auth.calls))
	}
	got := auth.calls[0]
	if got.Email != "guest@example.com" || got.MAC != "AA-BB-CC-DD-EE-FF" || got.APMAC != "11:22:33:44:55:66" {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	tests := []struct {
		name    string
		attempt service.Attempt
		err     error
		form    url.Values
		msg     string
		keepMAC bool
	}{
		{name: "unreachable", attempt: service.Attempt{State: service.StateFailed, Reason: service.ReasonUnreachable}, msg: msgUnavailable, keepMAC: true},
		{name: "login rejected", attempt: service.Attempt{State: service.StateFailed, Reason: service.ReasonAuthRejected}, msg: msgUnavailable, keepMAC: true},
		{name: "authorization rejected", attempt: service.Attempt{State: service.StateFailed, Reason: service.ReasonAuthorizationRejected}, msg: msgAuthFailed, keepMAC: true},
		{name: "invalid email", err: service.ValidationError{Field: "email", Msg: "bad"}, msg: msgInvalidEmail, keepMAC: true},
		{name: "missing mac", err: service.ValidationError{Field: "mac", Msg: "bad"}, form: url.Values{"email": {"guest@example.com"}}, msg: msgMACRequired},
		{name: "invalid mac", err: service.ValidationError{Field: "mac", Msg: "bad"}, msg: msgMACInvalid, keepMAC: true},
		{name: "storage error", err: errors.New("disk full"), msg: msgUnexpected, keepMAC: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuthorizer{authorizeFunc: func(service.GuestRequest) (service.Attempt, error) {
				return tt.attempt, tt.err
			}}
			h, _ := newTestHandler(t, auth)

			form := tt.form
			if form == nil {
				form = formValues()
			}
			path, q := redirectQuery(t, postForm(h.Routes(), form))
			if path != "/" {
				t.Fatalf("expected redirect to portal, got %s", path)
			}
			if q.Get("msg") != tt.msg {
				t.Fatalf("expected msg %q, got %q", tt.msg, q.Get("msg"))
			}
			if tt.keepMAC && q.Get("id") != "AA-BB-CC-DD-EE-FF" {
				t.Fatalf("expected portal params to be preserved, got %q", q.Get("id"))
			}
			if !tt.keepMAC && q.Get("id") != "" {
				t.Fatalf("expected no portal params, got %q", q.Get("id"))
			}
		})
	}
}

func TestSuccessPage(t *testing.T) {
	h, _ := newTestHandler(t, &fakeAuthorizer{})

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/success?url=https%3A%2F%2Fexample.com%2F", nil))
	if !strings.Contains(rec.Body.String(), `href="https://example.com/"`) {
		t.Fatalf("expected continue link, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/success?url=javascript%3Aalert(1)", nil))
	if strings.Contains(rec.Body.String(), "Continue</a>") {
		t.Fatalf("expected unsafe continue URL to be dropped")
	}
}

func TestAdminListsGuests(t *testing.T) {
	h, repo := newTestHandler(t, &fakeAuthorizer{})
	g := model.NewGuest("listed@example.com", "aa:bb:cc:dd:ee:ff", "10.0.0.2", "", "Guest", 60)
	g.Authorized = true
	if err := repo.CreateGuest(context.Background(), &g); err != nil {
		t.Fatalf("CreateGuest() error: %v", err)
	}

	rec := httptest.NewRecorder()
	h.AdminRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "listed@example.com") || !strings.Contains(body, "Authorized: 1") {
		t.Fatalf("unexpected admin page: %s", body)
	}
}

func TestNotFound(t *testing.T) {
	h, _ := newTestHandler(t, &fakeAuthorizer{})
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
