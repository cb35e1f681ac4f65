package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/auth"
	"github.com/jhoicas/clinica-api/internal/application/permission"
	"github.com/jhoicas/clinica-api/internal/application/ratelimit"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/infrastructure/memory"
	"github.com/jhoicas/clinica-api/pkg/jwt"
)

const testSecret = "clinica-test-secret-0123456789-abcdef"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type captureEmitter struct {
	mu     sync.Mutex
	events []audit.Event
}

func (e *captureEmitter) Emit(ev audit.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *captureEmitter) actions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Action)
	}
	return out
}

type fixture struct {
	clock    *testClock
	store    *memory.Store
	signer   *jwt.Signer
	hasher   *auth.PasswordHasher
	sessions *auth.SessionStore
	limiter  *ratelimit.Limiter
	identity *auth.IdentityResolver
	audit    *captureEmitter
	uc       *auth.AuthUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock: &testClock{t: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)},
		store: memory.New(),
		audit: &captureEmitter{},
	}
	var err error
	f.signer, err = jwt.NewSigner(testSecret, "clinica-test", jwt.WithClock(f.clock.Now))
	require.NoError(t, err)
	f.hasher = auth.NewPasswordHasher(bcrypt.MinCost, 2)
	f.sessions = auth.NewSessionStore(f.store.Sessions(), f.clock.Now)
	f.limiter = ratelimit.New(ratelimit.DefaultConfig(), ratelimit.NewMemoryStore(), f.clock)
	f.identity = auth.NewIdentityResolver(f.signer, f.sessions, f.store.Users())
	f.uc = auth.NewAuthUseCase(auth.Deps{
		Users:       f.store.Users(),
		Sessions:    f.sessions,
		Tokens:      f.signer,
		Hasher:      f.hasher,
		Limiter:     f.limiter,
		Permissions: permission.NewResolver(f.store.Roles()),
		Audit:       f.audit,
		Now:         f.clock.Now,
	})
	return f
}

// addUser crea un usuario con la contraseña dada.
func (f *fixture) addUser(t *testing.T, id, email, password, role string, status entity.UserStatus) *entity.User {
	t.Helper()
	hash, err := f.hasher.Hash(context.Background(), password)
	require.NoError(t, err)
	u := &entity.User{
		ID: id, FirstName: "Laura", LastName: "Gómez", Email: email,
		PasswordHash: hash, Role: role, Status: status,
		CreatedAt: f.clock.Now(), UpdatedAt: f.clock.Now(),
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}
