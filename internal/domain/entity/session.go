package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SessionTTL vigencia fija de una sesión desde su creación.
const SessionTTL = 7 * 24 * time.Hour

// Session vincula un token firmado con un usuario. ExpiresAt no cambia tras la creación.
type Session struct {
	ID        string
	UserID    string
	TokenHash string // SHA-256 del token; el token en claro no se persiste
	UserAgent string
	IP        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ExpiredAt informa si la sesión ya no es válida en el instante now.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// HashToken devuelve el hash hex SHA-256 usado como clave de búsqueda.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
