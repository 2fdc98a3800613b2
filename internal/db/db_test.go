package db

import (
	"path/filepath"
	"testing"

	"github.com/diewo77/freelance-pro/internal/config"
	"github.com/diewo77/freelance-pro/internal/storage/sqlkv"
)

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  'postgres://u:p@h:5432/db'  ", "postgres://u:p@h:5432/db"},
		{"host=h   user=u dbname=db", "host=h user=u dbname=db sslmode=disable"},
		{"host=h user=u sslmode=require", "host=h user=u sslmode=require"},
		{"garbage", "garbage"},
	}
	for _, tt := range tests {
		if got := NormalizeDSN(tt.in); got != tt.want {
			t.Errorf("NormalizeDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	cfg := config.StorageConfig{SQLitePath: filepath.Join(t.TempDir(), "kv.db")}
	d, err := Open("sqlite", cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := Migrate(d); err != nil {
		t.Fatal(err)
	}
	if err := Migrate(d); err != nil {
		t.Fatalf("migrate should be idempotent: %v", err)
	}
	for _, m := range sqlkv.Models() {
		if !d.Migrator().HasTable(m) {
			t.Fatalf("missing table for %T", m)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", config.StorageConfig{}, false); err == nil {
		t.Fatal("expected error")
	}
}
