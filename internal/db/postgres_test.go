package db

import (
	"strings"
	"testing"
	"time"
)

func TestPostgresConfigWithDefaults(t *testing.T) {
	got := PostgresConfig{MaxOpenConns: 4, MaxIdleConns: 50}.withDefaults()
	if got.MaxOpenConns != 4 || got.MaxIdleConns != 4 {
		t.Fatalf("idle conns should be capped to open conns, got %+v", got)
	}
	if got.ConnMaxLifetime != 30*time.Minute {
		t.Fatalf("expected default lifetime, got %s", got.ConnMaxLifetime)
	}

	zero := PostgresConfig{}.withDefaults()
	if zero.MaxOpenConns != 10 || zero.MaxIdleConns != 10 {
		t.Fatalf("unexpected zero-value defaults: %+v", zero)
	}
}

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"users", "admin_sessions", "surveys", "questions", "responses", "answers"} {
		if !strings.Contains(schemaSQL, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Fatalf("schema missing table %s", table)
		}
	}
}
