package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"github.com/shinyyama/centace-backend/internal/reqctx"
)

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyIDToken(_ context.Context, token string) (*auth.Token, error) {
	uid, ok := f[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &auth.Token{UID: uid, Claims: map[string]interface{}{"email": uid + "@example.com"}}, nil
}

type fakeRoles map[string]bool

func (f fakeRoles) IsAdmin(_ context.Context, uid string) bool { return f[uid] }

func echoUID(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if reqctx.UserUID(c.Request().Context()) != uid {
		return c.String(http.StatusInternalServerError, "context uid mismatch")
	}
	return c.String(http.StatusOK, uid)
}

func TestRequireAuth(t *testing.T) {
	mw := NewAuthMiddlewareWithVerifier(fakeVerifier{"good": "u1"})
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid token", "Bearer good", http.StatusOK, "u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if err := mw.RequireAuth(echoUID)(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Fatalf("body = %q", rec.Body.String())
			}
		})
	}
}

func TestRequireAuthQuery(t *testing.T) {
	mw := NewAuthMiddlewareWithVerifier(fakeVerifier{"good": "u1"})
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws?token=good", nil)
	rec := httptest.NewRecorder()
	if err := mw.RequireAuthQuery(echoUID)(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "u1" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestRequireAdmin(t *testing.T) {
	mw := NewAuthMiddlewareWithVerifier(fakeVerifier{}).WithAdmins([]string{" root "}, fakeRoles{"staff": true})
	tests := []struct {
		uid        string
		wantStatus int
	}{
		{"root", http.StatusOK},
		{"staff", http.StatusOK},
		{"user", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
		if tt.uid != "" {
			c.Set("uid", tt.uid)
		}
		ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
		if err := mw.RequireAdmin(ok)(c); err != nil {
			t.Fatal(err)
		}
		if rec.Code != tt.wantStatus {
			t.Errorf("uid %q: status = %d, want %d", tt.uid, rec.Code, tt.wantStatus)
		}
	}
}

func TestRequestContextSetsID(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	var seen string
	h := RequestContext(func(c echo.Context) error {
		seen = reqctx.RID(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})
	if err := h(c); err != nil {
		t.Fatal(err)
	}
	if seen == "" || rec.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("request id %q, header %q", seen, rec.Header().Get(HeaderRequestID))
	}
}
