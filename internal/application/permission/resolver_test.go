package permission_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-api/internal/application/permission"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

// MockRoleLookup doble de la tabla de roles.
type MockRoleLookup struct {
	mock.Mock
}

func (m *MockRoleLookup) GetByName(ctx context.Context, name string) (*entity.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Role), args.Error(1)
}

func resolve(t *testing.T, r *permission.Resolver, role string) []string {
	t.Helper()
	set, err := r.Resolve(context.Background(), role)
	require.NoError(t, err)
	return set.List()
}

func TestResolve_MedicoSinRegistroUsaTablaPorDefecto(t *testing.T) {
	roles := new(MockRoleLookup)
	roles.On("GetByName", mock.Anything, "medico").Return(nil, nil)

	got := resolve(t, permission.NewResolver(roles), "Médico")

	assert.Equal(t, []string{"consultas", "dashboard", "pacientes"}, got)
	roles.AssertExpectations(t)
}

func TestResolve_RolDesconocidoSoloDashboard(t *testing.T) {
	roles := new(MockRoleLookup)
	roles.On("GetByName", mock.Anything, "bogus_role").Return(nil, nil)

	got := resolve(t, permission.NewResolver(roles), "bogus_role")

	assert.Equal(t, []string{"dashboard"}, got)
}

func TestResolve_RegistroActivoSeUsaTalCual(t *testing.T) {
	roles := new(MockRoleLookup)
	roles.On("GetByName", mock.Anything, "medico").Return(&entity.Role{
		Name: "medico", Active: true, Permissions: []string{"pacientes", "crear_pacientes", "laboratorio"},
	}, nil)

	got := resolve(t, permission.NewResolver(roles), "medico")

	assert.Equal(t, []string{"crear_pacientes", "dashboard", "laboratorio", "pacientes"}, got)
}

func TestResolve_RegistroInactivoSoloDashboard(t *testing.T) {
	roles := new(MockRoleLookup)
	roles.On("GetByName", mock.Anything, "recepcionista").Return(&entity.Role{
		Name: "recepcionista", Active: false, Permissions: []string{"pacientes", "citas"},
	}, nil)

	got := resolve(t, permission.NewResolver(roles), "recepcionista")

	assert.Equal(t, []string{"dashboard"}, got, "un rol inactivo no cae a la tabla por defecto")
}

func TestResolve_OverrideForzadoGanaSobreTodo(t *testing.T) {
	roles := new(MockRoleLookup)
	r := permission.NewResolver(roles, permission.WithOverrides(permission.ForcedOverrides))

	got := resolve(t, r, "Administrador")

	want := entity.NewPermissionSet(permission.ForcedOverrides[entity.RoleAdministrador]...)
	want.Add(entity.ModuleDashboard)
	assert.Equal(t, want.List(), got)
	roles.AssertNotCalled(t, "GetByName", mock.Anything, mock.Anything)
}

func TestResolve_OverrideIgnoraRegistroInactivo(t *testing.T) {
	roles := new(MockRoleLookup)
	roles.On("GetByName", mock.Anything, mock.Anything).Return(&entity.Role{Name: "enfermera", Active: false}, nil)
	r := permission.NewResolver(roles, permission.WithOverrides(permission.ForcedOverrides))

	got := resolve(t, r, "enfermera")

	assert.Contains(t, got, "crear_pacientes")
	assert.Contains(t, got, "dashboard")
}

func TestResolve_RolSinOverrideSigueLaCadena(t *testing.T) {
	roles := new(MockRoleLookup)
	roles.On("GetByName", mock.Anything, "ultrasonido").Return(nil, nil)
	r := permission.NewResolver(roles, permission.WithOverrides(permission.ForcedOverrides))

	assert.Equal(t, []string{"dashboard", "ultrasonido"}, resolve(t, r, "ultrasonido"))
}

func TestResolve_RolVacioSoloDashboard(t *testing.T) {
	roles := new(MockRoleLookup)
	assert.Equal(t, []string{"dashboard"}, resolve(t, permission.NewResolver(roles), "  "))
	roles.AssertNotCalled(t, "GetByName", mock.Anything, mock.Anything)
}

func TestResolve_ErrorDeInfraestructuraSePropaga(t *testing.T) {
	roles := new(MockRoleLookup)
	dbErr := errors.New("conexión rechazada")
	roles.On("GetByName", mock.Anything, "medico").Return(nil, dbErr)

	_, err := permission.NewResolver(roles).Resolve(context.Background(), "medico")

	assert.ErrorIs(t, err, dbErr)
}

func TestHasAccess(t *testing.T) {
	perms := entity.NewPermissionSet("dashboard", "pacientes")
	assert.True(t, permission.HasAccess(perms, "pacientes"))
	assert.False(t, permission.HasAccess(perms, "usuarios"))
}
