package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-event-roster/core/config"
	"go-event-roster/core/constants"
	"go-event-roster/core/params"
	"go-event-roster/core/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

func newAuthServer(t *testing.T) (*echo.Echo, *params.Actor) {
	t.Helper()
	config.Set(&config.Config{Auth: config.AuthConfig{JWTSecret: testSecret, ManagerRole: "manager"}})

	var seen params.Actor
	e := echo.New()
	mw := NewMiddleware("intake", "manager")
	e.GET("/me", func(c echo.Context) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		seen = actor
		return c.NoContent(http.StatusOK)
	}, mw.AuthMiddleware())
	return e, &seen
}

func call(e *echo.Echo, authorization string) int {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthMiddlewareSetsActor(t *testing.T) {
	e, seen := newAuthServer(t)

	token, err := utils.GenerateToken("op-1", "Rook", []string{"pilot"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if code := call(e, "Bearer "+token); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if seen.ID != "op-1" || seen.Name != "Rook" || seen.Manager {
		t.Fatalf("actor = %+v, want op-1 Rook without manager", *seen)
	}
}

func TestAuthMiddlewareManagerRole(t *testing.T) {
	e, seen := newAuthServer(t)

	token, err := utils.GenerateToken("op-2", "Hawk", []string{"pilot", "manager"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if code := call(e, "Bearer "+token); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if !seen.Manager {
		t.Fatalf("actor = %+v, want manager", *seen)
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	e, _ := newAuthServer(t)

	expired, err := utils.GenerateToken("op-1", "Rook", nil, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, utils.TokenClaims{
		Scope:            constants.ScopeTokenAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "op-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	wrongScope, err := jwt.NewWithClaims(jwt.SigningMethodHS256, utils.TokenClaims{
		Scope:            "refresh",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "op-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic b3A6cHc=",
		"garbage":        "Bearer not-a-jwt",
		"expired":        "Bearer " + expired,
		"wrong secret":   "Bearer " + forged,
		"wrong scope":    "Bearer " + wrongScope,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			if code := call(e, header); code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", code)
			}
		})
	}
}

func TestIntakeMiddleware(t *testing.T) {
	e := echo.New()
	mw := NewMiddleware("intake", "manager")
	e.POST("/intake", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, mw.IntakeMiddleware())

	for header, want := range map[string]int{"intake": http.StatusNoContent, "wrong": http.StatusUnauthorized, "": http.StatusUnauthorized} {
		req := httptest.NewRequest(http.MethodPost, "/intake", nil)
		if header != "" {
			req.Header.Set(constants.HeaderIntakeToken, header)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("intake %q: status = %d, want %d", header, rec.Code, want)
		}
	}
}
