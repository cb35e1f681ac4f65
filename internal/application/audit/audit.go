// Package audit envía eventos de auditoría en segundo plano. Un fallo del
// destino se registra en el log y nunca llega a la petición que lo originó.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/clinica-api/pkg/logger"
)

// Acciones auditadas.
const (
	ActionLogin          = "login"
	ActionLoginFailed    = "login_failed"
	ActionLogout         = "logout"
	ActionRegister       = "register"
	ActionPasswordChange = "password_change"
	ActionCreate         = "create"
	ActionUpdate         = "update"
	ActionDelete         = "delete"
	ActionSessionsPurge  = "sessions_purge"
)

// Event registro de auditoría.
type Event struct {
	ID         string            `json:"id"`
	Action     string            `json:"action"`
	ActorID    string            `json:"actor_id,omitempty"`
	Entity     string            `json:"entity,omitempty"`
	EntityID   string            `json:"entity_id,omitempty"`
	IP         string            `json:"ip,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Sink destino de los eventos (cola, log, tabla...).
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

// Emitter contrato que usan los casos de uso. Emit no bloquea ni falla.
type Emitter interface {
	Emit(ev Event)
}

// Nop descarta los eventos.
type Nop struct{}

// Emit no hace nada.
func (Nop) Emit(Event) {}

// Dispatcher cola acotada + un worker que entrega al Sink.
type Dispatcher struct {
	sink    Sink
	log     *logger.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	ch     chan Event
	done   chan struct{}
}

var _ Emitter = (*Dispatcher)(nil)

// NewDispatcher arranca el worker. buffer <= 0 usa 256.
func NewDispatcher(sink Sink, log *logger.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	d := &Dispatcher{
		sink:    sink,
		log:     log,
		timeout: 5 * time.Second,
		ch:      make(chan Event, buffer),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Emit completa ID y fecha y encola. Con la cola llena el evento se descarta.
func (d *Dispatcher) Emit(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.ch <- ev:
	default:
		d.log.Warn().Str("action", ev.Action).Str("event_id", ev.ID).Msg("auditoría: cola llena, evento descartado")
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.ch {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sink.Record(ctx, ev); err != nil {
			d.log.Error().Err(err).Str("action", ev.Action).Str("event_id", ev.ID).Msg("auditoría: no se pudo registrar el evento")
		}
		cancel()
	}
}

// Close deja de aceptar eventos y espera a que se vacíe la cola o venza ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.ch)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSink escribe los eventos en el log estructurado.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink construye el sink de log.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

// Record nunca falla.
func (s *LogSink) Record(_ context.Context, ev Event) error {
	e := s.log.Info().
		Str("event_id", ev.ID).
		Str("action", ev.Action).
		Str("actor_id", ev.ActorID).
		Str("entity", ev.Entity).
		Str("entity_id", ev.EntityID).
		Str("ip", ev.IP).
		Time("occurred_at", ev.OccurredAt)
	for k, v := range ev.Details {
		e = e.Str("detail_"+k, v)
	}
	e.Msg("auditoría")
	return nil
}
