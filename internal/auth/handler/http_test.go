package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	authservice "tenant-auth-core/internal/auth/service"
	"tenant-auth-core/internal/security"
	tenantdomain "tenant-auth-core/internal/tenant/domain"
	tokendomain "tenant-auth-core/internal/token/domain"
	userdomain "tenant-auth-core/internal/user/domain"
)

type memUserRepo struct {
	mu sync.Mutex
	m  map[string]*userdomain.User
}

func (r *memUserRepo) GetByEmail(ctx context.Context, tenantID, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.m {
		if u.TenantID == tenantID && u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u2 := *u
	r.m[u.ID] = &u2
	return nil
}

type memTenantRepo struct {
	mu sync.Mutex
	m  map[string]*tenantdomain.Tenant
}

func (r *memTenantRepo) GetByID(ctx context.Context, id string) (*tenantdomain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id], nil
}

type memTokenRepo struct {
	mu sync.Mutex
	m  map[string]*tokendomain.RefreshToken
}

func (r *memTokenRepo) GetByDigest(ctx context.Context, digest string) (*tokendomain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.m {
		if t.SecretDigest == digest {
			t2 := *t
			return &t2, nil
		}
	}
	return nil, nil
}

func (r *memTokenRepo) Create(ctx context.Context, t *tokendomain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t2 := *t
	r.m[t.ID] = &t2
	return nil
}

func (r *memTokenRepo) Rotate(ctx context.Context, oldID string, replacement *tokendomain.RefreshToken) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.m[oldID]
	if !ok || old.RevokedAt != nil {
		return false, nil
	}
	now := time.Now().UTC()
	old.RevokedAt = &now
	t2 := *replacement
	r.m[replacement.ID] = &t2
	return true, nil
}

func (r *memTokenRepo) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for _, t := range r.m {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			n++
		}
	}
	return n, nil
}

func newTestHandler(t *testing.T) (*Handler, *echo.Echo) {
	t.Helper()
	provider, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("token provider: %v", err)
	}
	tenants := &memTenantRepo{m: map[string]*tenantdomain.Tenant{
		"t1": {ID: "t1", Name: "t1", Status: tenantdomain.TenantStatusActive, CreatedAt: time.Now().UTC()},
	}}
	svc := authservice.NewAuthService(
		&memUserRepo{m: map[string]*userdomain.User{}},
		tenants,
		&memTokenRepo{m: map[string]*tokendomain.RefreshToken{}},
		security.NewTestHasher(),
		provider,
	)
	return New(svc), echo.New()
}

func doJSON(e *echo.Echo, h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	h, e := newTestHandler(t)

	rec := doJSON(e, h.RegisterUser, `{"tenant_id":"t1","email":"alice@example.com","password":"pass-word"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Email != "alice@example.com" || resp.Role != "user" {
		t.Errorf("resp = %+v", resp)
	}

	// Same (tenant, email) again conflicts.
	rec = doJSON(e, h.RegisterUser, `{"tenant_id":"t1","email":"alice@example.com","password":"other"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}

	// Unknown tenant is a client error, not a 500.
	rec = doJSON(e, h.RegisterUser, `{"tenant_id":"nope","email":"bob@example.com","password":"pass-word"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown tenant status = %d, want 400", rec.Code)
	}
}

func TestLoginAndRefreshEndpoints(t *testing.T) {
	h, e := newTestHandler(t)

	if rec := doJSON(e, h.RegisterUser, `{"tenant_id":"t1","email":"alice@example.com","password":"pass-word"}`); rec.Code != http.StatusCreated {
		t.Fatalf("register: %d", rec.Code)
	}

	rec := doJSON(e, h.Login, `{"tenant_id":"t1","email":"alice@example.com","password":"pass-word"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var pair struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.TokenType != "bearer" {
		t.Fatalf("pair = %+v", pair)
	}

	rec = doJSON(e, h.Login, `{"tenant_id":"t1","email":"alice@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", rec.Code)
	}

	rec = doJSON(e, h.Refresh, `{"refresh_token":"`+pair.RefreshToken+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", rec.Code, rec.Body.String())
	}

	// The original refresh token is spent.
	rec = doJSON(e, h.Refresh, `{"refresh_token":"`+pair.RefreshToken+`"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("replay status = %d, want 401", rec.Code)
	}
}

func TestLogoutEndpoint(t *testing.T) {
	h, e := newTestHandler(t)

	if rec := doJSON(e, h.RegisterUser, `{"tenant_id":"t1","email":"alice@example.com","password":"pass-word"}`); rec.Code != http.StatusCreated {
		t.Fatalf("register: %d", rec.Code)
	}
	rec := doJSON(e, h.Login, `{"tenant_id":"t1","email":"alice@example.com","password":"pass-word"}`)
	var pair struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doJSON(e, h.Logout, `{"refresh_token":"`+pair.RefreshToken+`"}`)
	if rec.Code != http.StatusNoContent {
		t.Errorf("logout status = %d, want 204", rec.Code)
	}

	// Dead and garbage tokens get the same 204.
	rec = doJSON(e, h.Logout, `{"refresh_token":"`+pair.RefreshToken+`"}`)
	if rec.Code != http.StatusNoContent {
		t.Errorf("repeat logout status = %d, want 204", rec.Code)
	}
	rec = doJSON(e, h.Logout, `{"refresh_token":"garbage"}`)
	if rec.Code != http.StatusNoContent {
		t.Errorf("garbage logout status = %d, want 204", rec.Code)
	}
}

func TestMeEndpoint(t *testing.T) {
	h, e := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("auth_user", &userdomain.User{
		ID:       "u1",
		TenantID: "t1",
		Email:    "alice@example.com",
		Role:     userdomain.RoleUser,
		Status:   userdomain.UserStatusActive,
	})
	if err := h.Me(c); err != nil {
		t.Fatalf("me: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "u1" {
		t.Errorf("id = %q, want u1", resp.ID)
	}

	// No user in context.
	rec = httptest.NewRecorder()
	if err := h.Me(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)); err != nil {
		t.Fatalf("me unauth: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
