package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

func TestNormalizeRoleName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Médico", "medico"},
		{"  ENFERMERA ", "enfermera"},
		{"Administrator", "administrador"},
		{"admin", "administrador"},
		{"Recepcion", "recepcionista"},
		{"ultrasonido", "ultrasonido"},
		{"Rol_Inventado", "rol_inventado"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, entity.NormalizeRoleName(tc.in), tc.in)
	}
}

func TestPermissionSet(t *testing.T) {
	s := entity.NewPermissionSet("Pacientes", " citas ", "", "pacientes")
	assert.True(t, s.Has("pacientes"))
	assert.True(t, s.Has("CITAS"))
	assert.False(t, s.Has("laboratorio"))
	assert.Equal(t, []string{"citas", "pacientes"}, s.List())
}

func TestParseUserStatus(t *testing.T) {
	st, err := entity.ParseUserStatus(" Active ")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, st)

	_, err = entity.ParseUserStatus("deleted")
	assert.Error(t, err)
}

func TestSession_ExpiredAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := entity.Session{ExpiresAt: now}
	assert.True(t, s.ExpiredAt(now), "expires_at == now ya no es válida")
	assert.False(t, s.ExpiredAt(now.Add(-time.Millisecond)))
}

func TestHashToken_Determinista(t *testing.T) {
	assert.Equal(t, entity.HashToken("abc"), entity.HashToken("abc"))
	assert.NotEqual(t, entity.HashToken("abc"), entity.HashToken("abd"))
	assert.Len(t, entity.HashToken("abc"), 64)
}
