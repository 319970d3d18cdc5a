// Copyright 2026 Blink Labs Software
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

package postgres

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestWithConnectionOptions(t *testing.T) {
	m := &MetadataStorePostgres{}
	for _, opt := range []PostgresOptionFunc{
		WithHost("db.local"),
		WithPort(uint(6543)),
		WithUser("forge"),
		WithPassword("secret"),
		WithDatabase("ledger"),
		WithSSLMode("require"),
		WithTimeZone("Europe/Berlin"),
	} {
		opt(m)
	}
	if m.host != "db.local" {
		t.Errorf("Expected host to be 'db.local', got '%s'", m.host)
	}
	if m.port != 6543 {
		t.Errorf("Expected port to be 6543, got '%d'", m.port)
	}
	if m.user != "forge" || m.password != "secret" || m.database != "ledger" {
		t.Errorf("Expected credentials to be set, got %+v", m)
	}
	if m.sslMode != "require" || m.timeZone != "Europe/Berlin" {
		t.Errorf("Expected ssl mode and timezone to be set")
	}
}

func TestWithLoggerAndRegistry(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := &MetadataStorePostgres{}
	WithLogger(logger)(m)
	WithPromRegistry(reg)(m)
	if m.logger != logger {
		t.Errorf("Expected logger to be set")
	}
	if m.promRegistry != reg {
		t.Errorf("Expected promRegistry to be set")
	}
}

func TestNewWithOptionsDefaults(t *testing.T) {
	m, err := NewWithOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dsn := m.buildDSN()
	for _, part := range []string{
		"host=localhost",
		"user=postgres",
		"dbname=forge",
		"port=5432",
		"sslmode=disable",
	} {
		if !strings.Contains(dsn, part) {
			t.Errorf("expected DSN %q to contain %q", dsn, part)
		}
	}
	if strings.Contains(dsn, "password=") {
		t.Errorf("expected DSN without password, got %q", dsn)
	}
	// Close before Start is a no-op
	if err := m.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestBuildDSNOverride(t *testing.T) {
	m, err := NewWithOptions(
		WithHost("ignored"),
		WithDSN("  postgres://forge@db:5432/forge  "),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.buildDSN(); got != "postgres://forge@db:5432/forge" {
		t.Errorf("unexpected DSN: %q", got)
	}
}
