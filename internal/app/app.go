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

// Package app wires the shared dependencies every stage binary needs:
// logger, environment config, schema validator, and broker runtime. Each
// cmd/*-consumer binary calls New and then runs its own stage handler
// against the returned runtime.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/neicnordic/sda-orchestrator-go/internal/accessregistry"
	"github.com/neicnordic/sda-orchestrator-go/internal/broker"
	"github.com/neicnordic/sda-orchestrator-go/internal/doi"
	"github.com/neicnordic/sda-orchestrator-go/internal/envconfig"
	"github.com/neicnordic/sda-orchestrator-go/internal/orchestrate"
	"github.com/neicnordic/sda-orchestrator-go/internal/regconfig"
	"github.com/neicnordic/sda-orchestrator-go/internal/schema"
)

// Bootstrap holds the dependencies common to every stage consumer.
type Bootstrap struct {
	Log       *zap.Logger
	Config    *envconfig.Config
	Validator *schema.Validator
	Runtime   *broker.Runtime
}

// New loads config, preloads schemaNames, and constructs the broker runtime
// around the caller's logger. It does not dial the broker. Startup failures
// are returned unwrapped as the typed *errs.ConfigError/*errs.SchemaError
// the caller needs to decide the process exit code.
func New(log *zap.Logger, schemaNames ...string) (*Bootstrap, error) {
	cfg, err := envconfig.Load()
	if err != nil {
		return nil, err
	}

	validator := schema.New()
	if err := validator.Preload(schemaNames...); err != nil {
		return nil, err
	}
	if err := validator.Preload("ingestion-user-error"); err != nil {
		return nil, err
	}

	dialer := broker.NewDialer(broker.DialConfig{
		Host:       cfg.BrokerHost,
		Port:       cfg.BrokerPort,
		User:       cfg.BrokerUser,
		Password:   cfg.BrokerPassword,
		VHost:      cfg.BrokerVHost,
		SSL:        cfg.BrokerSSL,
		MaxRetries: cfg.MaxRetries,
		TLS: broker.TLSConfig{
			CACertPath:     cfg.SSLCACert,
			ClientCertPath: cfg.SSLClientCert,
			ClientKeyPath:  cfg.SSLClientKey,
		},
	}, log)

	runtime := broker.NewRuntime(dialer, broker.Topology{
		Exchange:   cfg.BrokerExchange,
		ErrorQueue: cfg.ErrorQueue,
	}, validator, log)

	return &Bootstrap{Log: log, Config: cfg, Validator: validator, Runtime: runtime}, nil
}

// Fatalf logs err at ERROR and returns a formatted error for main to report
// before exiting non-zero.
func Fatalf(log *zap.Logger, format string, err error) error {
	if log != nil {
		log.Error(fmt.Sprintf(format, err))
	}
	return fmt.Errorf(format, err)
}

// NewIdentifierResolver builds the completed stage's identifier resolver,
// wiring the DOI and access-registry clients when the registered-DOI
// protocol is fully configured and falling back to the deterministic URN
// scheme otherwise.
func NewIdentifierResolver(cfg *envconfig.Config, log *zap.Logger) (*orchestrate.IdentifierResolver, error) {
	if !cfg.IdentifierProtocolConfigured() {
		return orchestrate.NewIdentifierResolver(nil, nil, false), nil
	}

	tmpl, err := regconfig.Load(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}

	doiClient := doi.NewDataCiteClient(doi.Config{
		BaseURL:  cfg.DOIAPI,
		Prefix:   cfg.DOIPrefix,
		Username: cfg.DOIUser,
		Password: cfg.DOIKey,
	}, log)

	accessClient := accessregistry.NewRegistryClient(accessregistry.Config{
		BaseURL:  cfg.RemsAPI,
		APIKey:   cfg.RemsKey,
		UserID:   cfg.RemsUser,
		Template: tmpl,
	}, log)

	return orchestrate.NewIdentifierResolver(doiClient, accessClient, true), nil
}
