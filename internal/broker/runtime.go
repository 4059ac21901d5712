// Copyright 2025 NeIC System Developers
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package broker

import (
	"context"
	"encoding/json"
	"errors"

	amqp091 "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	brokerrs "github.com/neicnordic/sda-orchestrator-go/internal/errs"
	"github.com/neicnordic/sda-orchestrator-go/internal/messages"
	"github.com/neicnordic/sda-orchestrator-go/internal/schema"
)

// Handler processes one delivery body and returns an error to route it to
// the error queue instead of acking it. A *StageError carries enough of the
// original message for the runtime to build an ErrorRecord without
// re-parsing the delivery body.
type Handler interface {
	Handle(ctx context.Context, body []byte, correlationID string) error
}

// StageError is returned by a Handler to attach the fields the runtime needs
// to publish a shaped ingestion-user-error record, without the runtime
// having to re-decode the original, possibly-invalid, message body.
type StageError struct {
	User                string
	FilePath            string
	Reason              string
	EncryptedChecksums  []messages.Checksum
	DecryptedChecksums  []messages.Checksum
	Underlying          error
}

func (e *StageError) Error() string {
	if e.Underlying != nil {
		return e.Reason + ": " + e.Underlying.Error()
	}
	return e.Reason
}

func (e *StageError) Unwrap() error { return e.Underlying }

// Channel is the subset of *amqp091.Channel the runtime depends on, narrowed
// so stage handlers and the runtime itself are unit-testable against a fake.
type Channel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
	NotifyClose(c chan *amqp091.Error) chan *amqp091.Error
	Close() error
}

// Topology names the exchange/queue layout the runtime declares at startup.
type Topology struct {
	Exchange   string
	ErrorQueue string
}

// Runtime owns one broker connection and channel at a time (a new pair after
// each reconnect) and drives a single-threaded consume loop: no goroutine is spawned per
// delivery, matching the no-concurrent-dispatch requirement for a single
// consumer process.
type Runtime struct {
	dialer    *Dialer
	topology  Topology
	validator *schema.Validator
	log       *zap.Logger

	newChannel func(*amqp091.Connection) (Channel, error)
}

// NewRuntime builds a Runtime. newChannel defaults to opening a real
// *amqp091.Channel; tests override it to return a fake Channel.
func NewRuntime(dialer *Dialer, topology Topology, validator *schema.Validator, log *zap.Logger) *Runtime {
	return &Runtime{
		dialer:    dialer,
		topology:  topology,
		validator: validator,
		log:       log,
		newChannel: func(conn *amqp091.Connection) (Channel, error) {
			return conn.Channel()
		},
	}
}

// NewHandlerFunc builds a stage Handler bound to the channel the runtime
// will publish downstream messages on. It is invoked once per connection
// session (including after every reconnect) since a stage handler holds no
// state longer-lived than the channel it publishes on.
type NewHandlerFunc func(pub Channel) Handler

// Run subscribes to queue and dispatches each delivery to a handler built by
// newHandler, until ctx is cancelled (clean return) or connect retries are
// exhausted (returns the *errs.BrokerTransportError). A connection-level
// close reconnects, rebuilds the handler against the new channel, and
// resubscribes rather than returning.
func (r *Runtime) Run(ctx context.Context, queue string, newHandler NewHandlerFunc) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, err := r.dialer.Connect(ctx)
		if err != nil {
			return err
		}

		err = r.runOnce(ctx, conn, queue, newHandler)
		_ = conn.Close()

		if ctx.Err() != nil {
			return nil
		}
		if err != nil && r.log != nil {
			r.log.Warn("broker session ended, reconnecting", zap.Error(err))
		}
	}
}

func (r *Runtime) runOnce(ctx context.Context, conn *amqp091.Connection, queue string, newHandler NewHandlerFunc) error {
	ch, err := r.newChannel(conn)
	if err != nil {
		return &brokerrs.BrokerTransportError{Msg: "open channel", Underlying: err}
	}
	defer func() { _ = ch.Close() }()

	if err := r.declareTopology(ch, queue); err != nil {
		return err
	}

	handler := newHandler(ch)

	closeCh := ch.NotifyClose(make(chan *amqp091.Error, 1))

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return &brokerrs.BrokerTransportError{Msg: "consume " + queue, Underlying: err}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr, ok := <-closeCh:
			if !ok || amqpErr == nil {
				return nil
			}
			return &brokerrs.BrokerTransportError{Msg: "channel closed", Underlying: amqpErr}
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			r.dispatch(ctx, ch, delivery, handler)
		}
	}
}

func (r *Runtime) declareTopology(ch Channel, queue string) error {
	if err := ch.ExchangeDeclare(r.topology.Exchange, "topic", true, false, false, false, nil); err != nil {
		return &brokerrs.BrokerTransportError{Msg: "declare exchange " + r.topology.Exchange, Underlying: err}
	}
	for _, q := range []string{queue, r.topology.ErrorQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return &brokerrs.BrokerTransportError{Msg: "declare queue " + q, Underlying: err}
		}
		if err := ch.QueueBind(q, q, r.topology.Exchange, false, nil); err != nil {
			return &brokerrs.BrokerTransportError{Msg: "bind queue " + q, Underlying: err}
		}
	}
	return nil
}

func (r *Runtime) dispatch(ctx context.Context, ch Channel, delivery amqp091.Delivery, handler Handler) {
	err := handler.Handle(ctx, delivery.Body, delivery.CorrelationId)
	if err == nil {
		if ackErr := delivery.Ack(false); ackErr != nil && r.log != nil {
			r.log.Error("ack failed", zap.Error(ackErr))
		}
		return
	}

	r.publishError(ch, delivery.CorrelationId, err)

	if rejectErr := delivery.Reject(false); rejectErr != nil && r.log != nil {
		r.log.Error("reject failed", zap.Error(rejectErr))
	}
}

func (r *Runtime) publishError(ch Channel, correlationID string, handlerErr error) {
	record := messages.ErrorRecord{Reason: handlerErr.Error()}

	var stageErr *StageError
	if errors.As(handlerErr, &stageErr) {
		record = messages.ErrorRecord{
			User:               stageErr.User,
			FilePath:           stageErr.FilePath,
			Reason:             stageErr.Reason,
			EncryptedChecksums: stageErr.EncryptedChecksums,
			DecryptedChecksums: stageErr.DecryptedChecksums,
		}
	}

	instance, marshalErr := toInstance(record)
	if marshalErr != nil {
		if r.log != nil {
			r.log.Error("marshal error record failed", zap.Error(marshalErr))
		}
		return
	}

	validated, valErr := r.validator.Validate("ingestion-user-error", instance)
	if valErr != nil {
		if r.log != nil {
			r.log.Error("error record failed its own schema", zap.Error(valErr))
		}
		return
	}

	body, marshalErr := json.Marshal(validated)
	if marshalErr != nil {
		if r.log != nil {
			r.log.Error("marshal validated error record failed", zap.Error(marshalErr))
		}
		return
	}

	publishErr := ch.Publish(r.topology.Exchange, r.topology.ErrorQueue, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		CorrelationId: correlationID,
		Body:          body,
	})
	if publishErr != nil && r.log != nil {
		r.log.Error("publish error record failed", zap.Error(publishErr))
	}
}

func toInstance(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var instance map[string]any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, err
	}
	return instance, nil
}
