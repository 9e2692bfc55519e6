package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/sublimall/internal/models"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

type mockAck struct {
	mock.Mock
}

func (m *mockAck) Ack(multiple bool) error {
	return m.Called(multiple).Error(0)
}

func (m *mockAck) Nack(multiple, requeue bool) error {
	return m.Called(multiple, requeue).Error(0)
}

func TestPublisher_Notify(t *testing.T) {
	n := models.Notification{
		Subject:  "Sublimall account activation",
		To:       "user@example.com",
		Template: models.TemplateRegistrationConfirmation,
		Context:  map[string]string{"registration_confirmation_link": "http://localhost/registration-confirmation/1/abc/"},
	}

	t.Run("publishes json to mail routing key", func(t *testing.T) {
		ch := new(mockChannel)
		ch.On("Publish", "notifications", "mail", false, false, mock.MatchedBy(func(p amqp.Publishing) bool {
			var got models.Notification
			if err := json.Unmarshal(p.Body, &got); err != nil {
				return false
			}
			return p.ContentType == "application/json" &&
				p.DeliveryMode == amqp.Persistent &&
				got.Subject == n.Subject &&
				got.Template == n.Template
		})).Return(nil).Once()

		err := NewPublisher(ch).Notify(context.Background(), n)
		require.NoError(t, err)
		ch.AssertExpectations(t)
	})

	t.Run("publish error", func(t *testing.T) {
		ch := new(mockChannel)
		ch.On("Publish", mock.Anything, mock.Anything, false, false, mock.Anything).
			Return(errors.New("channel closed")).Once()

		err := NewPublisher(ch).Notify(context.Background(), n)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.Notify")
	})

	t.Run("canceled context", func(t *testing.T) {
		ch := new(mockChannel)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewPublisher(ch).Notify(ctx, n)
		require.ErrorIs(t, err, context.Canceled)
		ch.AssertNotCalled(t, "Publish")
	})
}

func TestPublishMessage_MarshalError(t *testing.T) {
	ch := new(mockChannel)
	badMsg := struct {
		Ch chan int `json:"ch"`
	}{
		Ch: make(chan int),
	}

	err := PublishMessage(ch, "", "queue", badMsg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
	ch.AssertNotCalled(t, "Publish")
}

func TestSettle(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("ack on success", func(t *testing.T) {
		ack := new(mockAck)
		ack.On("Ack", false).Return(nil).Once()

		var got []byte
		settle(log, ack, []byte("hello"), func(b []byte) error {
			got = b
			return nil
		})

		assert.Equal(t, []byte("hello"), got)
		ack.AssertExpectations(t)
		ack.AssertNotCalled(t, "Nack", mock.Anything, mock.Anything)
	})

	t.Run("nack with requeue on handler error", func(t *testing.T) {
		ack := new(mockAck)
		ack.On("Nack", false, true).Return(nil).Once()

		settle(log, ack, []byte("hello"), func([]byte) error {
			return errors.New("smtp down")
		})

		ack.AssertExpectations(t)
		ack.AssertNotCalled(t, "Ack", mock.Anything)
	})

	t.Run("nack without requeue on permanent error", func(t *testing.T) {
		ack := new(mockAck)
		ack.On("Nack", false, false).Return(nil).Once()

		settle(log, ack, []byte("not json"), func([]byte) error {
			return fmt.Errorf("sender.HandleMessage: %w: bad body", ErrPermanent)
		})

		ack.AssertExpectations(t)
		ack.AssertNotCalled(t, "Nack", false, true)
		ack.AssertNotCalled(t, "Ack", mock.Anything)
	})
}
