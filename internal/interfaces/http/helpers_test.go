package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/auth"
	"github.com/jhoicas/clinica-api/internal/application/permission"
	"github.com/jhoicas/clinica-api/internal/application/ratelimit"
	"github.com/jhoicas/clinica-api/internal/application/usecase"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/clinica-api/internal/interfaces/http"
	"github.com/jhoicas/clinica-api/pkg/jwt"
)

const (
	testSecret   = "clinica-http-test-secret-0123456789"
	testPassword = "Secreta#2026"
)

type testEnv struct {
	app    *fiber.App
	store  *memory.Store
	signer *jwt.Signer
	hasher *auth.PasswordHasher
}

func newTestEnv(t *testing.T, cookies apphttp.CookieConfig) *testEnv {
	t.Helper()
	env := &testEnv{
		store:  memory.New(),
		hasher: auth.NewPasswordHasher(bcrypt.MinCost, 2),
	}
	var err error
	env.signer, err = jwt.NewSigner(testSecret, "clinica-test")
	require.NoError(t, err)

	sessions := auth.NewSessionStore(env.store.Sessions(), time.Now)
	resolver := permission.NewResolver(env.store.Roles())
	authUC := auth.NewAuthUseCase(auth.Deps{
		Users:       env.store.Users(),
		Sessions:    sessions,
		Tokens:      env.signer,
		Hasher:      env.hasher,
		Limiter:     ratelimit.New(ratelimit.DefaultConfig(), ratelimit.NewMemoryStore(), nil),
		Permissions: resolver,
	})

	env.app = fiber.New()
	apphttp.Router(env.app, apphttp.RouterDeps{
		AuthUC:         authUC,
		UserUC:         usecase.NewUserUseCase(env.store.Users(), env.store, env.hasher, audit.Nop{}),
		RoleUC:         usecase.NewRoleUseCase(env.store.Roles(), audit.Nop{}),
		Modules:        usecase.NewModuleService(resolver),
		Identity:       auth.NewIdentityResolver(env.signer, sessions, env.store.Users()),
		Cookies:        cookies,
		RequestTimeout: 5 * time.Second,
	})
	return env
}

// seedUser crea un usuario con testPassword.
func (env *testEnv) seedUser(t *testing.T, id, email, role string, status entity.UserStatus) *entity.User {
	t.Helper()
	hash, err := env.hasher.Hash(context.Background(), testPassword)
	require.NoError(t, err)
	now := time.Now().UTC()
	u := &entity.User{
		ID: id, FirstName: "Ana", LastName: "Ruiz", Email: email,
		PasswordHash: hash, Role: role, Status: status, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, env.store.Users().Create(context.Background(), u))
	return u
}

type call struct {
	method  string
	path    string
	body    any
	token   string // viaja en la cookie session-token
	bearer  string
	headers map[string]string
}

func (env *testEnv) do(t *testing.T, c call) *http.Response {
	t.Helper()
	var rd io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(c.method, c.path, rd)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.AddCookie(&http.Cookie{Name: apphttp.SessionCookieName, Value: c.token})
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// login devuelve el valor de la cookie de sesión.
func (env *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	resp := env.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
		"email": email, "password": testPassword,
	}})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ck := sessionCookie(resp)
	require.NotNil(t, ck, "el login debe fijar la cookie de sesión")
	return ck.Value
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, ck := range resp.Cookies() {
		if ck.Name == apphttp.SessionCookieName {
			return ck
		}
	}
	return nil
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
