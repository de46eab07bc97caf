package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/staywizard/internal/authgate"
	"github.com/iliyamo/staywizard/internal/config"
	"github.com/iliyamo/staywizard/internal/utils"
)

const secret = "test-secret"

func serve(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, authgate.Identity) {
	t.Helper()
	e := echo.New()
	var seen authgate.Identity
	e.GET("/whoami", func(c echo.Context) error {
		seen = IdentityFrom(c)
		return c.NoContent(http.StatusNoContent)
	}, mw)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestAuthenticateResolvesIdentity(t *testing.T) {
	at, err := utils.NewAccessToken(secret, "7", "user", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+at.Token)
	_, id := serve(t, Authenticate(secret), req)
	if id.State != authgate.Authenticated || id.UserID != "7" || id.Token != at.Token {
		t.Fatalf("header identity = %+v", id)
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: at.Token})
	_, id = serve(t, Authenticate(secret), req)
	if id.State != authgate.Authenticated {
		t.Fatalf("cookie identity = %+v", id)
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec, id := serve(t, Authenticate(secret), req)
	if rec.Code != http.StatusNoContent || id.State != authgate.Unauthenticated {
		t.Fatalf("anonymous: code=%d identity=%+v", rec.Code, id)
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer nope")
	_, id = serve(t, Authenticate(secret), req)
	if id.State != authgate.Unauthenticated {
		t.Fatalf("bad token identity = %+v", id)
	}
}

func TestJWTAuthRejects(t *testing.T) {
	rec, _ := serve(t, JWTAuth(secret), httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "missing bearer token") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestIdentityDefaultsToUnknown(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if got := IdentityFrom(c).State; got != authgate.AuthUnknown {
		t.Fatalf("state = %v", got)
	}
}

func TestCacheKeysAreNamespaced(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/vocabularies?x=1", nil), httptest.NewRecorder())
	c.SetPath("/v1/vocabularies")

	a := cacheKeyFrom(cfg, "vocab", c)
	b := cacheKeyFrom(cfg, "listings", c)
	if !strings.HasPrefix(a, "cache:vocab:") || !strings.HasPrefix(b, "cache:listings:") {
		t.Fatalf("keys = %q, %q", a, b)
	}
	if a == b {
		t.Fatal("namespaces share a key")
	}
	if cacheKeyFrom(cfg, "vocab", c) != a {
		t.Fatal("key not stable")
	}
}

func TestPayloadCodec(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(200, hdr, []byte(`{"a":1}`))
	if err != nil {
		t.Fatal(err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != 200 || got.Get("Content-Type") != "application/json" || string(body) != `{"a":1}` {
		t.Fatalf("decoded %d %v %q %v", status, got, body, ok)
	}
	if _, _, _, ok := decodePayload([]byte{1, 2}); ok {
		t.Fatal("short payload decoded")
	}
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/flows/f1/submit", nil), httptest.NewRecorder())
	c.SetPath("/v1/flows/:id/submit")
	c.SetParamNames("id")
	c.SetParamValues("f1")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "flow"}
	if got := buildRateKey(cfg, c); got != "rl:flow:f1" {
		t.Fatalf("flow key = %q", got)
	}
	cfg.KeyStrategy = "user"
	if got := buildRateKey(cfg, c); got != "rl:user:anon" {
		t.Fatalf("user key = %q", got)
	}
}
