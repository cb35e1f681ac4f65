package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	apphttp "github.com/jhoicas/clinica-api/internal/interfaces/http"
)

// adminEnv entorno con un administrador y un médico con sesión abierta.
func adminEnv(t *testing.T) (env *testEnv, adminToken, medicoToken string) {
	t.Helper()
	env = newTestEnv(t, apphttp.CookieConfig{})
	env.seedUser(t, "admin-1", "admin@clinica.mx", entity.RoleAdministrador, entity.StatusActive)
	env.seedUser(t, "med-1", "medico@clinica.mx", entity.RoleMedico, entity.StatusActive)
	return env, env.login(t, "admin@clinica.mx"), env.login(t, "medico@clinica.mx")
}

func TestUsers_SoloConPermisoUsuarios(t *testing.T) {
	env, adminToken, medicoToken := adminEnv(t)

	resp := env.do(t, call{method: http.MethodGet, path: "/api/users?limit=10", token: adminToken})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.UserListResponse
	decode(t, resp, &list)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 10, list.Page.Limit)

	denied := env.do(t, call{method: http.MethodGet, path: "/api/users", token: medicoToken})
	defer denied.Body.Close()
	assert.Equal(t, http.StatusForbidden, denied.StatusCode)

	anon := env.do(t, call{method: http.MethodGet, path: "/api/users"})
	defer anon.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, anon.StatusCode)
}

func TestUsers_FiltroDeEstadoInvalido(t *testing.T) {
	env, adminToken, _ := adminEnv(t)
	resp := env.do(t, call{method: http.MethodGet, path: "/api/users?status=borrado", token: adminToken})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUsers_CrearYConsultar(t *testing.T) {
	env, adminToken, _ := adminEnv(t)

	resp := env.do(t, call{method: http.MethodPost, path: "/api/users", token: adminToken, body: dto.CreateUserRequest{
		FirstName: "Rosa", LastName: "Díaz", Email: "rosa@clinica.mx", Password: "Larga#2026", Role: "Enfermera",
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created dto.UserResponse
	decode(t, resp, &created)
	assert.Equal(t, entity.RoleEnfermera, created.Role)

	got := env.do(t, call{method: http.MethodGet, path: "/api/users/" + created.ID, token: adminToken})
	require.Equal(t, http.StatusOK, got.StatusCode)
	var fetched dto.UserResponse
	decode(t, got, &fetched)
	assert.Equal(t, "rosa@clinica.mx", fetched.Email)

	missing := env.do(t, call{method: http.MethodGet, path: "/api/users/no-existe", token: adminToken})
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestUsers_BorradoLogicoCierraSesiones(t *testing.T) {
	env, adminToken, medicoToken := adminEnv(t)

	resp := env.do(t, call{method: http.MethodDelete, path: "/api/users/med-1", token: adminToken})
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	me := env.do(t, call{method: http.MethodGet, path: "/api/auth/me", token: medicoToken})
	me.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, me.StatusCode)

	got := env.do(t, call{method: http.MethodGet, path: "/api/users/med-1", token: adminToken})
	var user dto.UserResponse
	decode(t, got, &user)
	assert.Equal(t, "inactive", user.Status, "el registro se conserva")

	self := env.do(t, call{method: http.MethodDelete, path: "/api/users/admin-1", token: adminToken})
	defer self.Body.Close()
	assert.Equal(t, http.StatusConflict, self.StatusCode)
}

func TestUsers_SuspenderPorUpdate(t *testing.T) {
	env, adminToken, medicoToken := adminEnv(t)
	suspended := "suspended"

	resp := env.do(t, call{method: http.MethodPut, path: "/api/users/med-1", token: adminToken,
		body: dto.UpdateUserRequest{Status: &suspended}})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	me := env.do(t, call{method: http.MethodGet, path: "/api/auth/me", token: medicoToken})
	defer me.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, me.StatusCode)
}

func TestRoles_RegistroInactivoDejaSoloDashboard(t *testing.T) {
	env, adminToken, medicoToken := adminEnv(t)

	create := env.do(t, call{method: http.MethodPost, path: "/api/roles", token: adminToken, body: dto.CreateRoleRequest{
		Name: "Médico", Description: "Personal médico", Permissions: []string{"pacientes", "laboratorio"},
	}})
	require.Equal(t, http.StatusCreated, create.StatusCode)
	var role dto.RoleResponse
	decode(t, create, &role)
	assert.Equal(t, "medico", role.Name)
	assert.True(t, role.Active)

	dup := env.do(t, call{method: http.MethodPost, path: "/api/roles", token: adminToken, body: dto.CreateRoleRequest{Name: "MEDICO"}})
	dup.Body.Close()
	assert.Equal(t, http.StatusConflict, dup.StatusCode)

	perms := env.do(t, call{method: http.MethodGet, path: "/api/auth/permissions", token: medicoToken})
	var before dto.PermissionsResponse
	decode(t, perms, &before)
	assert.Equal(t, []string{"dashboard", "laboratorio", "pacientes"}, before.Permissions)

	off := env.do(t, call{method: http.MethodDelete, path: "/api/roles/medico", token: adminToken})
	off.Body.Close()
	require.Equal(t, http.StatusNoContent, off.StatusCode)

	perms = env.do(t, call{method: http.MethodGet, path: "/api/auth/permissions", token: medicoToken})
	var after dto.PermissionsResponse
	decode(t, perms, &after)
	assert.Equal(t, []string{"dashboard"}, after.Permissions)
}

func TestRoles_MedicoSinAcceso(t *testing.T) {
	env, _, medicoToken := adminEnv(t)
	resp := env.do(t, call{method: http.MethodGet, path: "/api/roles", token: medicoToken})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSessions_DeleteAllDevuelveConteo(t *testing.T) {
	env, adminToken, medicoToken := adminEnv(t)

	resp := env.do(t, call{method: http.MethodDelete, path: "/api/sessions", token: adminToken})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.SessionsPurgeResponse
	decode(t, resp, &out)
	assert.Equal(t, int64(2), out.Deleted)

	for _, tok := range []string{adminToken, medicoToken} {
		me := env.do(t, call{method: http.MethodGet, path: "/api/auth/me", token: tok})
		me.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, me.StatusCode)
	}
}
