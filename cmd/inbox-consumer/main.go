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

// Command inbox-consumer drains the inbox queue, turning upload events into
// ingest triggers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/neicnordic/sda-orchestrator-go/internal/app"
	"github.com/neicnordic/sda-orchestrator-go/internal/broker"
	"github.com/neicnordic/sda-orchestrator-go/internal/logging"
	"github.com/neicnordic/sda-orchestrator-go/internal/stage"
)

var version = "dev"

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "inbox-consumer",
		Short:   "Consume inbox events and publish ingest triggers",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(context.Background())
		},
	}
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := logging.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	boot, err := app.New(log, "inbox-upload", "inbox-rename", "inbox-remove", "ingestion-trigger")
	if err != nil {
		return app.Fatalf(log, "startup failed: %w", err)
	}

	newHandler := func(pub broker.Channel) broker.Handler {
		return stage.NewInboxHandler(boot.Validator, pub, boot.Config.BrokerExchange, boot.Config.IngestQueue)
	}

	if err := boot.Runtime.Run(ctx, boot.Config.InboxQueue, newHandler); err != nil {
		return app.Fatalf(log, "inbox consumer stopped: %w", err)
	}
	return nil
}
