package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/jhoicas/clinica-api/internal/domain"
)

// PasswordHasher bcrypt con un número acotado de hashes simultáneos, para que
// una ráfaga de logins no acapare la CPU del resto de peticiones.
type PasswordHasher struct {
	cost  int
	sem   *semaphore.Weighted
	dummy []byte
}

// NewPasswordHasher cost fuera de rango usa bcrypt.DefaultCost; maxConcurrent
// <= 0 usa 4.
func NewPasswordHasher(cost int, maxConcurrent int64) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	// Hash de relleno: se compara cuando el email no existe para igualar tiempos.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("clinica-api/dummy-password"), cost)
	return &PasswordHasher{cost: cost, sem: semaphore.NewWeighted(maxConcurrent), dummy: dummy}
}

// Cost devuelve el costo efectivo.
func (h *PasswordHasher) Cost() int { return h.cost }

// Hash genera el hash de password. Contraseña vacía o de más de 72 bytes es
// ErrInvalidInput.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: contraseña vacía", domain.ErrInvalidInput)
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: la contraseña supera 72 bytes", domain.ErrInvalidInput)
		}
		return "", fmt.Errorf("hash de contraseña: %w", err)
	}
	return string(hash), nil
}

// Verify compara con la función de la librería. Un hash vacío o malformado
// devuelve false; el único error posible es la cancelación de ctx.
func (h *PasswordHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, nil
}
