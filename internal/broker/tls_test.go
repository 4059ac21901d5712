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

import "testing"

func TestBuildTLSConfig_NoCACertSkipsVerification(t *testing.T) {
	cfg, err := buildTLSConfig(TLSConfig{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.InsecureSkipVerify {
		t.Error("expected InsecureSkipVerify=true when no CA cert is configured")
	}
}

func TestBuildTLSConfig_MissingCACertFileErrors(t *testing.T) {
	_, err := buildTLSConfig(TLSConfig{CACertPath: "/nonexistent/ca.pem"}, nil)
	if err == nil {
		t.Error("expected error for missing CA cert file")
	}
}

func TestBuildTLSConfig_MissingClientKeyErrors(t *testing.T) {
	_, err := buildTLSConfig(TLSConfig{ClientCertPath: "/nonexistent/cert.pem", ClientKeyPath: "/nonexistent/key.pem"}, nil)
	if err == nil {
		t.Error("expected error for missing client keypair")
	}
}
