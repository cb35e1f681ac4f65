package permission

import "github.com/jhoicas/clinica-api/internal/domain/entity"

// Módulos de la aplicación.
const (
	ModulePacientes       = "pacientes"
	ModuleCitas           = "citas"
	ModuleConsultas       = "consultas"
	ModuleLaboratorio     = "laboratorio"
	ModuleUltrasonido     = "ultrasonido"
	ModuleExamenesFisicos = "examenes_fisicos"
	ModuleReportes        = "reportes"
	ModuleUsuarios        = "usuarios"
	ModuleRoles           = "roles"
	ModuleConfiguracion   = "configuracion"
	ModuleAuditoria       = "auditoria"
)

// AllModules catálogo completo (lo que ve un administrador).
var AllModules = []string{
	entity.ModuleDashboard,
	ModulePacientes, ModuleCitas, ModuleConsultas, ModuleLaboratorio, ModuleUltrasonido,
	ModuleExamenesFisicos, ModuleReportes, ModuleUsuarios, ModuleRoles, ModuleConfiguracion,
	ModuleAuditoria,
}

// DefaultTable permisos por rol conocido cuando no hay registro en la tabla de roles.
var DefaultTable = map[string][]string{
	entity.RoleAdministrador: AllModules,
	entity.RoleMedico:        {ModulePacientes, ModuleConsultas},
	entity.RoleEnfermera:     {ModulePacientes, ModuleCitas, ModuleExamenesFisicos},
	entity.RoleRecepcionista: {ModulePacientes, ModuleCitas},
	entity.RoleLaboratorio:   {ModuleLaboratorio},
	entity.RoleUltrasonido:   {ModuleUltrasonido},
}

// ForcedOverrides mapeo fijo para los roles canónicos. Cuando está habilitado
// tiene prioridad sobre la tabla de roles y sobre DefaultTable.
var ForcedOverrides = map[string][]string{
	entity.RoleAdministrador: append(append([]string{}, AllModules...),
		"crear_pacientes", "editar_pacientes", "eliminar_pacientes",
		"crear_citas", "editar_citas", "eliminar_citas",
		"crear_consultas", "editar_consultas",
		"subir_resultados", "exportar_reportes",
		"crear_usuarios", "editar_usuarios", "eliminar_usuarios",
	),
	entity.RoleMedico: {
		ModulePacientes, ModuleCitas, ModuleConsultas, ModuleLaboratorio, ModuleUltrasonido,
		ModuleExamenesFisicos, "crear_consultas", "editar_consultas", "editar_pacientes",
	},
	entity.RoleEnfermera: {
		ModulePacientes, ModuleCitas, ModuleExamenesFisicos,
		"crear_pacientes", "editar_pacientes",
	},
	entity.RoleRecepcionista: {
		ModulePacientes, ModuleCitas,
		"crear_pacientes", "crear_citas", "editar_citas",
	},
	entity.RoleLaboratorio: {
		ModuleLaboratorio, ModulePacientes, "subir_resultados",
	},
}
