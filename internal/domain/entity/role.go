package entity

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Roles conocidos de la clínica.
const (
	RoleAdministrador = "administrador"
	RoleMedico        = "medico"
	RoleEnfermera     = "enfermera"
	RoleRecepcionista = "recepcionista"
	RoleLaboratorio   = "laboratorio"
	RoleUltrasonido   = "ultrasonido"
)

// KnownRoles roles con permisos por defecto.
var KnownRoles = []string{
	RoleAdministrador, RoleMedico, RoleEnfermera, RoleRecepcionista, RoleLaboratorio, RoleUltrasonido,
}

// IsKnownRole informa si el nombre (ya normalizado) es un rol conocido.
func IsKnownRole(name string) bool {
	for _, r := range KnownRoles {
		if r == name {
			return true
		}
	}
	return false
}

// ModuleDashboard se concede implícitamente a todo usuario autenticado.
const ModuleDashboard = "dashboard"

// roleAliases nombres alternativos que se guardan con el nombre canónico.
var roleAliases = map[string]string{
	"admin":         RoleAdministrador,
	"administrator": RoleAdministrador,
	"doctor":        RoleMedico,
	"enfermero":     RoleEnfermera,
	"recepcion":     RoleRecepcionista,
	"laboratorista": RoleLaboratorio,
}

// NormalizeRoleName pasa a minúsculas, elimina acentos y resuelve alias:
// "Médico " -> "medico", "Administrator" -> "administrador".
func NormalizeRoleName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, strings.TrimSpace(name))
	if err != nil {
		plain = strings.TrimSpace(name)
	}
	// Caser no es seguro entre goroutines: uno por llamada.
	n := cases.Lower(language.Spanish).String(plain)
	if canonical, ok := roleAliases[n]; ok {
		return canonical
	}
	return n
}

// Role paquete de permisos con nombre.
type Role struct {
	Name        string // normalizado
	Description string
	Permissions []string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PermissionSet conjunto de módulos/acciones concedidos.
type PermissionSet map[string]struct{}

// NewPermissionSet construye el conjunto ignorando entradas vacías.
func NewPermissionSet(perms ...string) PermissionSet {
	s := make(PermissionSet, len(perms))
	s.Add(perms...)
	return s
}

// Add agrega permisos (recortados, en minúsculas).
func (s PermissionSet) Add(perms ...string) {
	for _, p := range perms {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			s[p] = struct{}{}
		}
	}
}

// Has pertenencia exacta.
func (s PermissionSet) Has(module string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(module))]
	return ok
}

// List devuelve los permisos ordenados (salida estable para JSON).
func (s PermissionSet) List() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
