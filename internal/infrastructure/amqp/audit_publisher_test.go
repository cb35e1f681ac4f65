package amqp_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp091 "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/infrastructure/amqp"
)

type fakeChannel struct {
	published []amqp091.Publishing
	keys      []string
	failNext  error
	closed    bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp091.Publishing) error {
	if c.failNext != nil {
		err := c.failNext
		c.failNext = nil
		return err
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestAuditPublisher_PublicaJSONPersistente(t *testing.T) {
	ch := &fakeChannel{}
	dials := 0
	p := amqp.NewAuditPublisher("amqp://x", "", amqp.WithDialer(func(_, queue string) (amqp.Channel, func() error, error) {
		dials++
		assert.Equal(t, amqp.DefaultQueue, queue)
		return ch, func() error { return nil }, nil
	}))

	ev := audit.Event{ID: "ev-1", Action: audit.ActionLogin, ActorID: "u1"}
	require.NoError(t, p.Record(context.Background(), ev))
	require.NoError(t, p.Record(context.Background(), ev))

	assert.Equal(t, 1, dials, "la conexión se reutiliza")
	require.Len(t, ch.published, 2)
	msg := ch.published[0]
	assert.Equal(t, amqp091.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.DefaultQueue, ch.keys[0])

	var got audit.Event
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, "u1", got.ActorID)
}

func TestAuditPublisher_ReconectaTrasFallo(t *testing.T) {
	first := &fakeChannel{failNext: errors.New("canal cerrado")}
	second := &fakeChannel{}
	channels := []*fakeChannel{first, second}
	p := amqp.NewAuditPublisher("amqp://x", "auditoria", amqp.WithDialer(func(_, _ string) (amqp.Channel, func() error, error) {
		ch := channels[0]
		channels = channels[1:]
		return ch, func() error { return nil }, nil
	}))

	err := p.Record(context.Background(), audit.Event{Action: audit.ActionLogout})
	assert.Error(t, err)
	assert.True(t, first.closed)

	require.NoError(t, p.Record(context.Background(), audit.Event{Action: audit.ActionLogout}))
	assert.Len(t, second.published, 1)
}

func TestAuditPublisher_ErrorDeConexion(t *testing.T) {
	p := amqp.NewAuditPublisher("amqp://x", "q", amqp.WithDialer(func(_, _ string) (amqp.Channel, func() error, error) {
		return nil, nil, errors.New("broker caído")
	}))
	assert.Error(t, p.Record(context.Background(), audit.Event{Action: audit.ActionLogin}))
	assert.NoError(t, p.Close())
}
