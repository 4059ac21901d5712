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
	"crypto/tls"
	"fmt"
	"time"

	amqp091 "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/neicnordic/sda-orchestrator-go/internal/errs"
)

// DialConfig names the connection parameters Dialer needs.
type DialConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	VHost      string
	SSL        bool
	TLS        TLSConfig
	MaxRetries int
}

// Dialer connects to the broker with a bounded min(2n, 30) second backoff, a
// deliberately simpler and more aggressive policy than the exponential-jitter
// backoff used for HTTP retries elsewhere -- broker reconnects and external
// API retries are distinct policies.
type Dialer struct {
	cfg DialConfig
	log *zap.Logger
}

// NewDialer builds a Dialer from cfg.
func NewDialer(cfg DialConfig, log *zap.Logger) *Dialer {
	return &Dialer{cfg: cfg, log: log}
}

// Connect dials the broker, retrying on failure until connected or
// d.cfg.MaxRetries attempts are exhausted (0 means unlimited). ctx
// cancellation aborts the wait between attempts.
func (d *Dialer) Connect(ctx context.Context) (*amqp091.Connection, error) {
	uri := amqp091.URI{
		Scheme:   "amqp",
		Host:     d.cfg.Host,
		Port:     d.cfg.Port,
		Username: d.cfg.User,
		Password: d.cfg.Password,
		Vhost:    d.cfg.VHost,
	}
	if d.cfg.SSL {
		uri.Scheme = "amqps"
	}

	var tlsCfg *tls.Config
	if d.cfg.SSL {
		built, err := buildTLSConfig(d.cfg.TLS, d.log)
		if err != nil {
			return nil, &errs.BrokerTransportError{Msg: "build tls config", Underlying: err}
		}
		tlsCfg = built
	}

	var lastErr error
	for attempt := 1; d.cfg.MaxRetries == 0 || attempt <= d.cfg.MaxRetries; attempt++ {
		var conn *amqp091.Connection
		var err error
		if tlsCfg != nil {
			conn, err = amqp091.DialTLS(uri.String(), tlsCfg)
		} else {
			conn, err = amqp091.Dial(uri.String())
		}
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if d.log != nil {
			d.log.Warn("broker connect attempt failed",
				zap.Int("attempt", attempt), zap.Error(err))
		}

		delaySeconds := attempt * 2
		if delaySeconds > 30 {
			delaySeconds = 30
		}

		select {
		case <-ctx.Done():
			return nil, &errs.BrokerTransportError{Msg: "connect cancelled", Underlying: ctx.Err()}
		case <-time.After(time.Duration(delaySeconds) * time.Second):
		}
	}

	return nil, &errs.BrokerTransportError{Msg: fmt.Sprintf("exhausted %d connect attempts", d.cfg.MaxRetries), Underlying: lastErr}
}
