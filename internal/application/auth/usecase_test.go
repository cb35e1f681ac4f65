package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/auth"
	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

const clientIP = "203.0.113.7"

func meta() auth.RequestMeta {
	return auth.RequestMeta{ClientID: clientIP, IP: clientIP, UserAgent: "go-test"}
}

func TestLogin_Exitoso(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "laura@clinica.mx", "Secreta#2026", entity.RoleMedico, entity.StatusActive)
	ctx := context.Background()

	res, err := f.uc.Login(ctx, dto.LoginRequest{Email: " Laura@Clinica.mx", Password: "Secreta#2026"}, meta())
	require.NoError(t, err)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, f.clock.Now().Add(entity.SessionTTL), res.ExpiresAt)
	assert.Equal(t, "u1", res.User.ID)
	require.NotNil(t, res.User.LastAccess)

	u, err := f.identity.Resolve(ctx, res.Token)
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotNil(t, u.LastAccess, "last_access se actualiza en el login")
	assert.Contains(t, f.audit.actions(), audit.ActionLogin)
}

func TestLogin_CamposObligatorios(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: "a@b.mx"}, meta())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogin_CredencialesInvalidasNoRevelanElEmail(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "laura@clinica.mx", "Secreta#2026", entity.RoleMedico, entity.StatusActive)
	ctx := context.Background()

	_, errPwd := f.uc.Login(ctx, dto.LoginRequest{Email: "laura@clinica.mx", Password: "mala"}, meta())
	_, errEmail := f.uc.Login(ctx, dto.LoginRequest{Email: "nadie@clinica.mx", Password: "mala"}, meta())

	assert.ErrorIs(t, errPwd, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, errEmail, domain.ErrInvalidCredentials)
	assert.Equal(t, errPwd.Error(), errEmail.Error())
	assert.Contains(t, f.audit.actions(), audit.ActionLoginFailed)
}

func TestLogin_BloqueoTrasFallosRepetidos(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "laura@clinica.mx", "Secreta#2026", entity.RoleMedico, entity.StatusActive)
	ctx := context.Background()
	bad := dto.LoginRequest{Email: "laura@clinica.mx", Password: "mala"}

	for i := 0; i < 5; i++ {
		_, err := f.uc.Login(ctx, bad, meta())
		require.ErrorIs(t, err, domain.ErrInvalidCredentials, "intento %d", i+1)
	}

	_, err := f.uc.Login(ctx, dto.LoginRequest{Email: "laura@clinica.mx", Password: "Secreta#2026"}, meta())
	require.ErrorIs(t, err, domain.ErrRateLimited, "bloqueado incluso con la contraseña correcta")
	rl, ok := auth.IsRateLimited(err)
	require.True(t, ok)
	assert.Equal(t, f.clock.Now().Add(30*time.Minute), rl.ResetTime)

	otro := auth.RequestMeta{ClientID: "198.51.100.1"}
	_, err = f.uc.Login(ctx, dto.LoginRequest{Email: "laura@clinica.mx", Password: "Secreta#2026"}, otro)
	assert.NoError(t, err, "otro cliente no está bloqueado")

	f.clock.Advance(30 * time.Minute)
	_, err = f.uc.Login(ctx, dto.LoginRequest{Email: "laura@clinica.mx", Password: "Secreta#2026"}, meta())
	assert.NoError(t, err, "el bloqueo vence")
}

func TestLogin_ExitosNoConsumenIntentos(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "laura@clinica.mx", "Secreta#2026", entity.RoleMedico, entity.StatusActive)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := f.uc.Login(ctx, dto.LoginRequest{Email: "laura@clinica.mx", Password: "Secreta#2026"}, meta())
		require.NoError(t, err, "login %d", i+1)
	}
	st, err := f.limiter.Status(ctx, clientIP)
	require.NoError(t, err)
	assert.Equal(t, 5, st.Remaining)
}

func TestLogin_CuentaInactiva(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "laura@clinica.mx", "Secreta#2026", entity.RoleMedico, entity.StatusSuspended)

	_, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: "laura@clinica.mx", Password: "Secreta#2026"}, meta())
	assert.ErrorIs(t, err, domain.ErrInactiveAccount)
}

func TestLogin_RolSolicitadoDistinto(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "laura@clinica.mx", "Secreta#2026", entity.RoleMedico, entity.StatusActive)
	ctx := context.Background()

	_, err := f.uc.Login(ctx, dto.LoginRequest{Email: "laura@clinica.mx", Password: "Secreta#2026", Role: "enfermera"}, meta())
	assert.ErrorIs(t, err, domain.ErrRoleMismatch)

	_, err = f.uc.Login(ctx, dto.LoginRequest{Email: "laura@clinica.mx", Password: "Secreta#2026", Role: "Médico"}, meta())
	assert.NoError(t, err)
}

func TestLogout_Idempotente(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "laura@clinica.mx", "Secreta#2026", entity.RoleMedico, entity.StatusActive)
	ctx := context.Background()
	res, err := f.uc.Login(ctx, dto.LoginRequest{Email: "laura@clinica.mx", Password: "Secreta#2026"}, meta())
	require.NoError(t, err)

	require.NoError(t, f.uc.Logout(ctx, res.Token, meta()))
	require.NoError(t, f.uc.Logout(ctx, res.Token, meta()))
	require.NoError(t, f.uc.Logout(ctx, "", meta()))

	u, err := f.identity.Resolve(ctx, res.Token)
	require.NoError(t, err)
	assert.Nil(t, u, "tras logout el token ya no resuelve identidad")
}

func TestLogout_SoloCierraUnDispositivo(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "laura@clinica.mx", "Secreta#2026", entity.RoleMedico, entity.StatusActive)
	ctx := context.Background()
	in := dto.LoginRequest{Email: "laura@clinica.mx", Password: "Secreta#2026"}
	movil, err := f.uc.Login(ctx, in, meta())
	require.NoError(t, err)
	pc, err := f.uc.Login(ctx, in, meta())
	require.NoError(t, err)

	require.NoError(t, f.uc.Logout(ctx, movil.Token, meta()))

	u, err := f.identity.Resolve(ctx, pc.Token)
	require.NoError(t, err)
	assert.NotNil(t, u)
}

func TestRegister_RolPorDefectoYDuplicado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := dto.RegisterRequest{FirstName: "Pedro", LastName: "Ruiz", Email: "Pedro@Clinica.mx", Password: "Segura#2026"}

	out, err := f.uc.Register(ctx, in, meta())
	require.NoError(t, err)
	assert.Equal(t, entity.RoleRecepcionista, out.Role)
	assert.Equal(t, "pedro@clinica.mx", out.Email)
	assert.Equal(t, string(entity.StatusActive), out.Status)

	_, err = f.uc.Register(ctx, in, meta())
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = f.uc.Login(ctx, dto.LoginRequest{Email: "pedro@clinica.mx", Password: "Segura#2026"}, meta())
	assert.NoError(t, err)
}

func TestRegister_RolesNoPermitidos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, role := range []string{"Administrador", "admin", "superusuario"} {
		_, err := f.uc.Register(ctx, dto.RegisterRequest{
			FirstName: "X", LastName: "Y", Email: role + "@clinica.mx", Password: "Segura#2026", Role: role,
		}, meta())
		assert.ErrorIs(t, err, domain.ErrInvalidRole, role)
	}
}

func TestRegister_ContrasenaCorta(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Register(context.Background(), dto.RegisterRequest{
		FirstName: "X", LastName: "Y", Email: "x@clinica.mx", Password: "corta",
	}, meta())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChangePassword_CierraLasOtrasSesiones(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "laura@clinica.mx", "Secreta#2026", entity.RoleMedico, entity.StatusActive)
	ctx := context.Background()
	in := dto.LoginRequest{Email: "laura@clinica.mx", Password: "Secreta#2026"}
	actual, err := f.uc.Login(ctx, in, meta())
	require.NoError(t, err)
	otra, err := f.uc.Login(ctx, in, meta())
	require.NoError(t, err)

	user, err := f.identity.Resolve(ctx, actual.Token)
	require.NoError(t, err)

	err = f.uc.ChangePassword(ctx, user, actual.Token, dto.ChangePasswordRequest{CurrentPassword: "mala", NewPassword: "Nueva#20260"}, meta())
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	err = f.uc.ChangePassword(ctx, user, actual.Token, dto.ChangePasswordRequest{CurrentPassword: "Secreta#2026", NewPassword: "Nueva#20260"}, meta())
	require.NoError(t, err)

	u, _ := f.identity.Resolve(ctx, actual.Token)
	assert.NotNil(t, u, "la sesión actual sigue abierta")
	u, _ = f.identity.Resolve(ctx, otra.Token)
	assert.Nil(t, u, "las demás sesiones se cierran")

	_, err = f.uc.Login(ctx, dto.LoginRequest{Email: "laura@clinica.mx", Password: "Nueva#20260"}, meta())
	assert.NoError(t, err)
}

func TestPermissions_DelRolDelUsuario(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "u1", "laura@clinica.mx", "Secreta#2026", "Médico", entity.StatusActive)

	out, err := f.uc.Permissions(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, []string{"consultas", "dashboard", "pacientes"}, out.Permissions)
}

func TestSignOutEveryone(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "laura@clinica.mx", "Secreta#2026", entity.RoleMedico, entity.StatusActive)
	ctx := context.Background()
	in := dto.LoginRequest{Email: "laura@clinica.mx", Password: "Secreta#2026"}
	for i := 0; i < 3; i++ {
		_, err := f.uc.Login(ctx, in, meta())
		require.NoError(t, err)
	}

	n, err := f.uc.SignOutEveryone(ctx, "admin", meta())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Contains(t, f.audit.actions(), audit.ActionSessionsPurge)
}
