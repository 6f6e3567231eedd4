package kv

import (
	"context"
	"os"
	"testing"
)

func testSQLite(t *testing.T) *SQLite {
	t.Helper()
	f, err := os.CreateTemp("", "weekboard-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	s, err := OpenSQLite(f.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_SchemaCreation(t *testing.T) {
	s := testSQLite(t)
	var count int
	if err := s.conn.QueryRow(`SELECT count(*) FROM kv`).Scan(&count); err != nil {
		t.Fatalf("kv table missing: %v", err)
	}
}

func TestSQLite_SetAndGet(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()
	if err := s.Set(ctx, "weeks-data", "[]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found, err := s.Get(ctx, "weeks-data")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || got != "[]" {
		t.Errorf("Get = %q, %v", got, found)
	}
}

func TestSQLite_Upsert(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()
	_ = s.Set(ctx, "k", "v1")
	_ = s.Set(ctx, "k", "v2")

	got, _, _ := s.Get(ctx, "k")
	if got != "v2" {
		t.Errorf("value = %q, want v2", got)
	}
	var rows int
	_ = s.conn.QueryRow(`SELECT count(*) FROM kv WHERE key = 'k'`).Scan(&rows)
	if rows != 1 {
		t.Errorf("rows = %d, want 1", rows)
	}
}

func TestSQLite_GetMissing(t *testing.T) {
	s := testSQLite(t)
	_, found, err := s.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected not found")
	}
}

func TestSQLite_ClosedFails(t *testing.T) {
	s := testSQLite(t)
	_ = s.Close()
	if _, _, err := s.Get(context.Background(), "k"); err == nil {
		t.Error("expected error on closed db")
	}
	if err := s.Set(context.Background(), "k", "v"); err == nil {
		t.Error("expected error on closed db")
	}
}
