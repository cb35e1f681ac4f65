// Package ratelimit limita intentos por cliente con ventana deslizante y
// bloqueo temporal. El estado vive detrás de un Store intercambiable: memoria
// (por proceso, se pierde al reiniciar) o Redis para despliegues con varias
// réplicas.
package ratelimit

import (
	"context"
	"time"
)

// Clock fuente de tiempo inyectable.
type Clock interface {
	Now() time.Time
}

// SystemClock reloj real.
type SystemClock struct{}

// Now devuelve time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Config parámetros del limitador.
type Config struct {
	MaxAttempts   int
	Window        time.Duration
	BlockDuration time.Duration
}

// DefaultConfig 5 intentos en 15 minutos, bloqueo de 30 minutos.
func DefaultConfig() Config {
	return Config{MaxAttempts: 5, Window: 15 * time.Minute, BlockDuration: 30 * time.Minute}
}

// Entry estado de un cliente. Sin intentos y sin bloqueo = Clean; con intentos
// por debajo del umbral = Tracking; Blocked hasta BlockUntil.
type Entry struct {
	Attempts   []time.Time `json:"attempts"`
	Blocked    bool        `json:"blocked"`
	BlockUntil time.Time   `json:"block_until"`
}

// Result decisión devuelta al llamador.
type Result struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

// Store guarda las entradas por clave. Update debe ejecutar fn de forma
// atómica respecto de otras llamadas con la misma clave; fn puede ejecutarse
// más de una vez si el store reintenta.
type Store interface {
	Update(ctx context.Context, key string, fn func(e *Entry)) error
}

// Limiter aplica la máquina de estados sobre un Store.
type Limiter struct {
	cfg   Config
	store Store
	clock Clock
}

// WithDefaults reemplaza los valores no positivos por los de DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.MaxAttempts < 1 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.BlockDuration <= 0 {
		c.BlockDuration = def.BlockDuration
	}
	return c
}

// New construye el limitador. Valores no positivos toman el default.
func New(cfg Config, store Store, clock Clock) *Limiter {
	cfg = cfg.WithDefaults()
	if clock == nil {
		clock = SystemClock{}
	}
	return &Limiter{cfg: cfg, store: store, clock: clock}
}

// Config devuelve la configuración efectiva.
func (l *Limiter) Config() Config { return l.cfg }

// Check registra el intento y decide. Con MaxAttempts=5 la 4.ª llamada queda
// permitida con Remaining=1 y la 5.ª bloquea al cliente.
func (l *Limiter) Check(ctx context.Context, clientID string) (Result, error) {
	return l.apply(ctx, clientID, true)
}

// RecordFailure cuenta un fallo confirmado (p. ej. contraseña incorrecta) y
// decide en la misma operación atómica. Comparte contador con Check.
func (l *Limiter) RecordFailure(ctx context.Context, clientID string) (Result, error) {
	return l.apply(ctx, clientID, true)
}

// Status evalúa sin registrar intento. Aplica las transiciones pendientes
// (desbloqueo vencido, bloqueo por umbral alcanzado con RecordAttempt).
func (l *Limiter) Status(ctx context.Context, clientID string) (Result, error) {
	return l.apply(ctx, clientID, false)
}

// RecordAttempt agrega una marca de tiempo sin lógica de decisión.
func (l *Limiter) RecordAttempt(ctx context.Context, clientID string) error {
	now := l.clock.Now()
	return l.store.Update(ctx, clientID, func(e *Entry) {
		e.Attempts = append(e.Attempts, now)
	})
}

func (l *Limiter) apply(ctx context.Context, clientID string, record bool) (Result, error) {
	now := l.clock.Now()
	var res Result
	err := l.store.Update(ctx, clientID, func(e *Entry) {
		res = l.evaluate(e, now, record)
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (l *Limiter) evaluate(e *Entry, now time.Time, record bool) Result {
	if e.Blocked {
		if now.Before(e.BlockUntil) {
			return Result{Allowed: false, Remaining: 0, ResetTime: e.BlockUntil}
		}
		e.Attempts = nil
		e.Blocked = false
		e.BlockUntil = time.Time{}
	}

	e.Attempts = prune(e.Attempts, now.Add(-l.cfg.Window))
	if record {
		e.Attempts = append(e.Attempts, now)
	}

	if len(e.Attempts) >= l.cfg.MaxAttempts {
		e.Blocked = true
		e.BlockUntil = now.Add(l.cfg.BlockDuration)
		return Result{Allowed: false, Remaining: 0, ResetTime: e.BlockUntil}
	}

	reset := now.Add(l.cfg.Window)
	if len(e.Attempts) > 0 {
		reset = e.Attempts[0].Add(l.cfg.Window)
	}
	return Result{Allowed: true, Remaining: l.cfg.MaxAttempts - len(e.Attempts), ResetTime: reset}
}

// prune conserva los intentos posteriores a cutoff, en orden.
func prune(attempts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(attempts) && !attempts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return attempts
	}
	return append(attempts[:0:0], attempts[i:]...)
}
