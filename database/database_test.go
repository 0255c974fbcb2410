package database

import (
	"path/filepath"
	"testing"
)

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")

	db, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT 1").Scan(&n); err != nil || n != 1 {
		t.Fatalf("SELECT 1 = %d, %v", n, err)
	}
}

func TestOpenEmptyDSN(t *testing.T) {
	if _, err := Open(DriverPostgres, ""); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}
