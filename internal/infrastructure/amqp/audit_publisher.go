// Package amqp publica los eventos de auditoría en una cola RabbitMQ durable.
// El consumidor que los persiste vive fuera de este servicio.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/clinica-api/internal/application/audit"
)

// DefaultQueue cola por defecto de los eventos.
const DefaultQueue = "clinica.audit"

// Channel subconjunto de *amqp.Channel que usa el publicador.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Dialer abre conexión + canal y declara la cola.
type Dialer func(url, queue string) (Channel, func() error, error)

// AuditPublisher implementa audit.Sink. Mantiene una conexión y la reabre en
// el siguiente evento si la publicación falla.
type AuditPublisher struct {
	url   string
	queue string
	dial  Dialer

	mu        sync.Mutex
	ch        Channel
	closeConn func() error
}

var _ audit.Sink = (*AuditPublisher)(nil)

// Option configura el publicador.
type Option func(*AuditPublisher)

// WithDialer reemplaza la conexión real (tests).
func WithDialer(d Dialer) Option {
	return func(p *AuditPublisher) { p.dial = d }
}

// NewAuditPublisher no conecta hasta el primer evento.
func NewAuditPublisher(url, queue string, opts ...Option) *AuditPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	p := &AuditPublisher{url: url, queue: queue, dial: dialRabbit}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Record publica el evento como JSON persistente en la cola.
func (p *AuditPublisher) Record(ctx context.Context, ev audit.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("auditoría: serializar evento: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		ch, closeConn, err := p.dial(p.url, p.queue)
		if err != nil {
			return fmt.Errorf("auditoría: conectar a rabbitmq: %w", err)
		}
		p.ch, p.closeConn = ch, closeConn
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Action,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.resetLocked()
		return fmt.Errorf("auditoría: publicar: %w", err)
	}
	return nil
}

// Close cierra canal y conexión.
func (p *AuditPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}

func (p *AuditPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.closeConn != nil {
		_ = p.closeConn()
	}
	p.ch, p.closeConn = nil, nil
}

func dialRabbit(url, queue string) (Channel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("abrir canal: %w", err)
	}
	// Durable: los eventos sobreviven a un reinicio del broker.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declarar cola %s: %w", queue, err)
	}
	return ch, conn.Close, nil
}
