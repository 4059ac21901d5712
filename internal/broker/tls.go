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

// Package broker implements the TLS-aware AMQP 0-9-1 runtime: connect with
// bounded backoff, consume with manual ack, and fan failed deliveries out to
// an error queue.
package broker

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"go.uber.org/zap"
)

// TLSConfig names the environment-derived inputs to buildTLSConfig.
type TLSConfig struct {
	CACertPath     string
	ClientCertPath string
	ClientKeyPath  string
}

// buildTLSConfig builds a *tls.Config from the SSL_* environment variables.
// Absent SSL_CACERT falls back to InsecureSkipVerify=true, the literal "do
// not verify" relaxation the broker protocol calls for when no CA is
// supplied; this is logged at WARN since it is a conscious relaxation.
func buildTLSConfig(cfg TLSConfig, log *zap.Logger) (*tls.Config, error) {
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.CACertPath == "" {
		if log != nil {
			log.Warn("SSL_CACERT not set, disabling broker TLS certificate verification")
		}
		tlsCfg.InsecureSkipVerify = true
	} else {
		pem, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, &malformedCACertError{path: cfg.CACertPath}
		}
		tlsCfg.RootCAs = pool
	}

	if cfg.ClientCertPath != "" && cfg.ClientKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, err
		}
		tlsCfg.Certificates = append(tlsCfg.Certificates, cert)
	}

	return tlsCfg, nil
}

type malformedCACertError struct{ path string }

func (e *malformedCACertError) Error() string {
	return "malformed CA certificate at " + e.path
}
