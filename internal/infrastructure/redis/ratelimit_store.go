package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/clinica-api/internal/application/ratelimit"
)

// DefaultKeyPrefix prefijo de las claves del limitador.
const DefaultKeyPrefix = "clinica:ratelimit:"

const maxTxRetries = 10

// ErrContention se agotaron los reintentos por escrituras concurrentes.
var ErrContention = errors.New("ratelimit: demasiada contención en redis")

// RateLimitStore guarda cada Entry como JSON bajo una clave con TTL. Update
// usa WATCH/MULTI: si otra réplica modifica la clave entre la lectura y la
// escritura, la transacción se reintenta.
type RateLimitStore struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ratelimit.Store = (*RateLimitStore)(nil)

// NewRateLimitStore el TTL de las claves cubre ventana + bloqueo, de modo que
// una entrada inactiva desaparece sola. Se calcula con los defaults ya
// aplicados: un TTL de 0 en Redis significa "sin expiración".
func NewRateLimitStore(rdb goredis.UniversalClient, cfg ratelimit.Config) *RateLimitStore {
	cfg = cfg.WithDefaults()
	return &RateLimitStore{rdb: rdb, prefix: DefaultKeyPrefix, ttl: cfg.Window + cfg.BlockDuration}
}

// Update lee, aplica fn y escribe de forma atómica para la clave.
func (s *RateLimitStore) Update(ctx context.Context, key string, fn func(e *ratelimit.Entry)) error {
	k := s.prefix + key
	txf := func(tx *goredis.Tx) error {
		var e ratelimit.Entry
		raw, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, goredis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(raw, &e); err != nil {
				// Entrada corrupta: se reinicia el estado del cliente.
				e = ratelimit.Entry{}
			}
		}

		fn(&e)

		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			if len(e.Attempts) == 0 && !e.Blocked {
				p.Del(ctx, k)
				return nil
			}
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			p.Set(ctx, k, data, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, k)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("ratelimit redis %s: %w", key, err)
		}
		return nil
	}
	return ErrContention
}

// Get devuelve la entrada guardada (diagnóstico y tests).
func (s *RateLimitStore) Get(ctx context.Context, key string) (ratelimit.Entry, bool, error) {
	var e ratelimit.Entry
	raw, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return e, false, nil
	}
	if err != nil {
		return e, false, err
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return e, false, err
	}
	return e, true, nil
}
