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

// Package envconfig loads the orchestrator's process configuration from
// environment variables. Viper is used purely for its environment-variable
// binding here -- there is no YAML file for process config, only env.
package envconfig

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/neicnordic/sda-orchestrator-go/internal/errs"
)

// Config holds every environment variable the orchestrator reads, across all
// three stages; a given stage binary only uses the subset relevant to it.
type Config struct {
	BrokerHost     string
	BrokerPort     int
	BrokerUser     string
	BrokerPassword string
	BrokerVHost    string
	BrokerExchange string
	BrokerSSL      bool
	MaxRetries     int

	SSLCACert     string
	SSLClientCert string
	SSLClientKey  string

	InboxQueue        string
	VerifiedQueue     string
	CompletedQueue    string
	IngestQueue       string
	AccessionIDsQueue string
	MappingsQueue     string
	ErrorQueue        string

	ConfigFile string
	LogLevel   string

	DOIPrefix string
	DOIAPI    string
	DOIUser   string
	DOIKey    string
	RemsAPI   string
	RemsUser  string
	RemsKey   string
}

// Load binds every variable in the orchestrator's environment surface with
// its documented default and returns the resulting Config.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := map[string]any{
		"broker_port":     5670,
		"broker_user":     "sda",
		"broker_vhost":    "sda",
		"broker_exchange": "sda",
		"broker_ssl":      true,
		"max_retries":     0,

		"inbox_queue":         "inbox",
		"verified_queue":      "verified",
		"completed_queue":     "completed",
		"ingest_queue":        "ingest",
		"accessionids_queue":  "accessionIDs",
		"mappings_queue":      "mappings",
		"error_queue":         "error",

		"log_level": "info",
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, &errs.ConfigError{Msg: "bind env " + key, Underlying: err}
		}
	}

	cfg := &Config{
		BrokerHost:     v.GetString("broker_host"),
		BrokerPort:     v.GetInt("broker_port"),
		BrokerUser:     v.GetString("broker_user"),
		BrokerPassword: v.GetString("broker_password"),
		BrokerVHost:    v.GetString("broker_vhost"),
		BrokerExchange: v.GetString("broker_exchange"),
		BrokerSSL:      v.GetBool("broker_ssl"),
		MaxRetries:     v.GetInt("max_retries"),

		SSLCACert:     v.GetString("ssl_cacert"),
		SSLClientCert: v.GetString("ssl_clientcert"),
		SSLClientKey:  v.GetString("ssl_clientkey"),

		InboxQueue:        v.GetString("inbox_queue"),
		VerifiedQueue:     v.GetString("verified_queue"),
		CompletedQueue:    v.GetString("completed_queue"),
		IngestQueue:       v.GetString("ingest_queue"),
		AccessionIDsQueue: v.GetString("accessionids_queue"),
		MappingsQueue:     v.GetString("mappings_queue"),
		ErrorQueue:        v.GetString("error_queue"),

		ConfigFile: v.GetString("config_file"),
		LogLevel:   v.GetString("log_level"),

		DOIPrefix: v.GetString("doi_prefix"),
		DOIAPI:    v.GetString("doi_api"),
		DOIUser:   v.GetString("doi_user"),
		DOIKey:    v.GetString("doi_key"),
		RemsAPI:   v.GetString("rems_api"),
		RemsUser:  v.GetString("rems_user"),
		RemsKey:   v.GetString("rems_key"),
	}

	if cfg.BrokerHost == "" {
		return nil, &errs.ConfigError{Msg: "BROKER_HOST is required"}
	}

	return cfg, nil
}

var envKeys = []string{
	"broker_host", "broker_port", "broker_user", "broker_password", "broker_vhost",
	"broker_exchange", "broker_ssl", "max_retries",
	"ssl_cacert", "ssl_clientcert", "ssl_clientkey",
	"inbox_queue", "verified_queue", "completed_queue",
	"ingest_queue", "accessionids_queue", "mappings_queue", "error_queue",
	"config_file", "log_level",
	"doi_prefix", "doi_api", "doi_user", "doi_key", "rems_api", "rems_user", "rems_key",
}

// IdentifierProtocolConfigured reports whether every variable required for
// the registered-DOI protocol is present.
func (c *Config) IdentifierProtocolConfigured() bool {
	return c.DOIPrefix != "" && c.DOIAPI != "" && c.DOIUser != "" && c.DOIKey != "" &&
		c.RemsAPI != "" && c.RemsUser != "" && c.RemsKey != ""
}
