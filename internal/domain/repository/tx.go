package repository

import "context"

// TxRunner ejecuta fn con repositorios atados a una misma transacción.
type TxRunner interface {
	RunUsers(ctx context.Context, fn func(users UserRepository, sessions SessionRepository) error) error
}
