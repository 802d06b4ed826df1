package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

type published struct {
	exchange, key string
	msg           amqp091.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishCompleted(t *testing.T) {
	log, _ := test.NewNullLogger()
	ch := &fakeChannel{}
	p := newPublisher(ch, "leagues", log)
	at := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	event := domain.CompletionEvent{
		SessionID:   "s-1",
		ChallengeID: "speed-reading-sprint",
		UserID:      "u1",
		Result:      domain.Result{CorrectAnswers: 4, TotalQuestions: 5, AccuracyPercent: 80},
	}
	require.NoError(t, p.PublishCompleted(context.Background(), event))
	require.Len(t, ch.sent, 1)

	sent := ch.sent[0]
	assert.Equal(t, "leagues", sent.exchange)
	assert.Equal(t, RoutingKeyCompleted, sent.key)
	assert.Equal(t, "s-1", sent.msg.MessageId)
	assert.Equal(t, amqp091.Persistent, sent.msg.DeliveryMode)

	var body struct {
		Type    string                 `json:"type"`
		Payload domain.CompletionEvent `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(sent.msg.Body, &body))
	assert.Equal(t, RoutingKeyCompleted, body.Type)
	assert.Equal(t, 80, body.Payload.Result.AccuracyPercent)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublishCompletedWrapsChannelError(t *testing.T) {
	log, _ := test.NewNullLogger()
	boom := errors.New("channel closed")
	p := newPublisher(&fakeChannel{err: boom}, "leagues", log)

	err := p.PublishCompleted(context.Background(), domain.CompletionEvent{SessionID: "s-1"})
	assert.ErrorIs(t, err, boom)
}
