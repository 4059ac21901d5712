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

// Package stage implements the three per-queue message transformers: decode
// against an input schema, shape a downstream message, validate it against
// its output schema, and publish it with the inbound correlation id
// propagated.
package stage

import (
	"encoding/json"
	"fmt"

	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/neicnordic/sda-orchestrator-go/internal/schema"
)

// Publisher is the subset of broker.Channel a stage handler needs to emit
// its output message, narrowed so handlers don't depend on the broker
// package's full Channel interface.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// publishJSON validates payload against outputSchema, marshals the validated
// form, and publishes it to routingKey on exchange with the inbound
// correlation id propagated and a persistent delivery mode.
func publishJSON(v *schema.Validator, pub Publisher, outputSchema string, payload any, exchange, routingKey, correlationID string) error {
	instance, err := toInstance(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", outputSchema, err)
	}

	validated, err := v.Validate(outputSchema, instance)
	if err != nil {
		return fmt.Errorf("validate %s output: %w", outputSchema, err)
	}

	body, err := json.Marshal(validated)
	if err != nil {
		return fmt.Errorf("marshal validated %s payload: %w", outputSchema, err)
	}

	return pub.Publish(exchange, routingKey, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		CorrelationId: correlationID,
		Body:          body,
	})
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

func decodeInstance(body []byte) (map[string]any, error) {
	var instance map[string]any
	if err := json.Unmarshal(body, &instance); err != nil {
		return nil, err
	}
	return instance, nil
}

func decodeInto(instance map[string]any, target any) error {
	raw, err := json.Marshal(instance)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
