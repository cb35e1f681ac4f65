package entity

import (
	"fmt"
	"strings"
	"time"
)

// UserStatus estado de la cuenta. Solo "active" puede resolverse como identidad.
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusInactive  UserStatus = "inactive"
	StatusSuspended UserStatus = "suspended"
)

// ParseUserStatus valida el estado contra el conjunto cerrado.
func ParseUserStatus(s string) (UserStatus, error) {
	switch st := UserStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusActive, StatusInactive, StatusSuspended:
		return st, nil
	default:
		return "", fmt.Errorf("estado %q no válido", s)
	}
}

// User representa un miembro del personal de la clínica.
type User struct {
	ID             string
	FirstName      string
	LastName       string
	Email          string // único, guardado en minúsculas
	Phone          string
	Address        string
	PasswordHash   string // bcrypt, nunca se expone
	ProfessionalID string // cédula profesional
	Specialty      string
	Role           string // nombre de rol normalizado (ver NormalizeRoleName)
	Status         UserStatus
	LastAccess     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive informa si la cuenta puede autenticarse.
func (u *User) IsActive() bool {
	return u != nil && u.Status == StatusActive
}

// FullName nombre y apellidos.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail recorta y pasa a minúsculas.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
