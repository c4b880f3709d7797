package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"chemxplore/internal/model"
	"chemxplore/internal/platform/rabbitmq"
)

type AuthEventStore interface {
	Create(event *model.AuthEvent) error
}

// AuthEventWorker drains the auth event queue into the audit table.
type AuthEventWorker struct {
	conn      *amqp.Connection
	store     AuthEventStore
	queueName string
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewAuthEventWorker(conn *amqp.Connection, store AuthEventStore, queueName string, logger *slog.Logger) *AuthEventWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthEventWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		logger:    logger.With("component", "auth_event_worker", "queue", queueName),
	}
}

func (w *AuthEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(d)
			}
		}
	}()

	w.logger.Info("auth event worker started")
	return nil
}

func (w *AuthEventWorker) handle(d amqp.Delivery) {
	if err := w.persist(d.Body); err != nil {
		w.logger.Error("auth event dropped", "error", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func (w *AuthEventWorker) persist(body []byte) error {
	var event model.AuthEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode auth event failed: %w", err)
	}
	if !event.Kind.Valid() {
		return fmt.Errorf("unknown auth event kind %q", event.Kind)
	}
	event.ID = 0
	return w.store.Create(&event)
}

func (w *AuthEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
