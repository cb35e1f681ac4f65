package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-api/internal/application/auth"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/pkg/jwt"
)

func authMeta() auth.SessionMeta {
	return auth.SessionMeta{UserAgent: "go-test", IP: "10.0.0.1"}
}

// openSession emite un token y registra su sesión, como hace el login.
func openSession(t *testing.T, f *fixture, userID string) string {
	t.Helper()
	tok, _, err := f.signer.Issue(userID)
	require.NoError(t, err)
	_, err = f.sessions.Create(context.Background(), userID, tok, authMeta())
	require.NoError(t, err)
	return tok
}

func TestResolve_UsuarioActivoConSesion(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "laura@clinica.mx", "Secreta#2026", entity.RoleMedico, entity.StatusActive)
	tok := openSession(t, f, "u1")

	u, err := f.identity.Resolve(context.Background(), tok)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)
}

func TestResolve_FallosEsperadosSonNil(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "laura@clinica.mx", "Secreta#2026", entity.RoleMedico, entity.StatusActive)
	ctx := context.Background()

	sinSesion, _, err := f.signer.Issue("u1")
	require.NoError(t, err)

	otro, err := jwt.NewSigner("otro-secreto-distinto-0123456789-xyz", "clinica-test")
	require.NoError(t, err)
	ajeno, _, err := otro.Issue("u1")
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"vacío":         "",
		"malformado":    "no.es.jwt",
		"sin sesión":    sinSesion,
		"firma ajena":   ajeno,
		"usuario falso": openSession(t, f, "fantasma"),
	} {
		u, err := f.identity.Resolve(ctx, tok)
		assert.NoError(t, err, name)
		assert.Nil(t, u, name)
	}
}

func TestResolve_UsuarioDesactivadoTrasLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "u1", "laura@clinica.mx", "Secreta#2026", entity.RoleMedico, entity.StatusActive)
	tok := openSession(t, f, "u1")

	user.Status = entity.StatusInactive
	require.NoError(t, f.store.Users().Update(ctx, user))

	u, err := f.identity.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Nil(t, u, "token válido y sesión viva no bastan si la cuenta está inactiva")
}

func TestResolve_SesionDeOtroUsuario(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "a@clinica.mx", "Secreta#2026", entity.RoleMedico, entity.StatusActive)
	tok, _, err := f.signer.Issue("u1")
	require.NoError(t, err)
	_, err = f.sessions.Create(context.Background(), "u2", tok, authMeta())
	require.NoError(t, err)

	u, err := f.identity.Resolve(context.Background(), tok)
	require.NoError(t, err)
	assert.Nil(t, u)
}

type failingUsers struct{ err error }

func (r failingUsers) GetByID(context.Context, string) (*entity.User, error) { return nil, r.err }

func TestResolve_ErrorDeInfraestructuraSePropaga(t *testing.T) {
	f := newFixture(t)
	tok := openSession(t, f, "u1")
	dbErr := errors.New("base de datos caída")

	r := auth.NewIdentityResolver(f.signer, f.sessions, failingUsers{err: dbErr})
	u, err := r.Resolve(context.Background(), tok)

	assert.Nil(t, u)
	assert.ErrorIs(t, err, dbErr)
}
