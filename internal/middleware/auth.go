package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"github.com/shinyyama/centace-backend/internal/reqctx"
)

type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AdminChecker reports whether a user holds the admin role.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userUID string) bool
}

type AuthMiddleware struct {
	verifier TokenVerifier
	admins   map[string]struct{}
	roles    AdminChecker
}

func NewAuthMiddleware(ctx context.Context, projectID string) (*AuthMiddleware, error) {
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is not set")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return NewAuthMiddlewareWithVerifier(client), nil
}

func NewAuthMiddlewareWithVerifier(v TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: v, admins: map[string]struct{}{}}
}

// WithAdmins grants admin to the listed uids in addition to profile roles.
func (m *AuthMiddleware) WithAdmins(uids []string, roles AdminChecker) *AuthMiddleware {
	for _, uid := range uids {
		if uid = strings.TrimSpace(uid); uid != "" {
			m.admins[uid] = struct{}{}
		}
	}
	m.roles = roles
	return m
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		return m.verify(c, next, strings.TrimPrefix(authz, "Bearer "))
	}
}

// RequireAuthQuery also accepts the token as ?token=, since browsers cannot
// set headers on a websocket handshake.
func (m *AuthMiddleware) RequireAuthQuery(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if token == "" {
			token = strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
		}
		if token == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		return m.verify(c, next, token)
	}
}

func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, _ := c.Get("uid").(string)
		if uid == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		if _, ok := m.admins[uid]; ok {
			return next(c)
		}
		if m.roles != nil && m.roles.IsAdmin(c.Request().Context(), uid) {
			return next(c)
		}
		return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
	}
}

func (m *AuthMiddleware) verify(c echo.Context, next echo.HandlerFunc, tokenStr string) error {
	token, err := m.verifier.VerifyIDToken(c.Request().Context(), tokenStr)
	if err != nil || token == nil || token.UID == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
	}
	c.Set("uid", token.UID)
	if email, ok := token.Claims["email"].(string); ok {
		c.Set("email", email)
	}
	req := c.Request()
	c.SetRequest(req.WithContext(reqctx.WithUserUID(req.Context(), token.UID)))
	return next(c)
}
