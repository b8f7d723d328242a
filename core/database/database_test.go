package database

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigration(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestSQLiteConnectAndMigrate(t *testing.T) {
	tmp := t.TempDir()
	migrations := filepath.Join(tmp, "migrations")
	if err := os.Mkdir(migrations, 0o755); err != nil {
		t.Fatal(err)
	}
	writeMigration(t, migrations, "000001_items.up.sql", "CREATE TABLE items (id BIGINT PRIMARY KEY);")
	writeMigration(t, migrations, "000001_items.down.sql", "DROP TABLE items;")

	cfg := Config{
		Driver:        DriverSQLite,
		Path:          filepath.Join(tmp, "data", "bot.db"),
		MigrationsDir: migrations,
	}
	if err := RunMigrations(cfg); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	if err := RunMigrations(cfg); err != nil {
		t.Fatalf("second RunMigrations must be a no-op: %v", err)
	}

	db, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(db.Rebind(`INSERT INTO items (id) VALUES (?)`), 7); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM items`); err != nil || n != 1 {
		t.Fatalf("count = %d, %v", n, err)
	}
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	if _, err := Connect(Config{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if _, err := Connect(Config{Driver: DriverSQLite}); err == nil {
		t.Fatal("expected error for sqlite without path")
	}
}

func TestSelectApplied(t *testing.T) {
	files := []string{"000001_a.up.sql", "000002_b.up.sql", "000003_c.up.sql"}
	got := selectApplied(files, 1, 3)
	if len(got) != 2 || got[0] != "000002_b.up.sql" {
		t.Fatalf("selectApplied = %v", got)
	}
	if got := selectApplied(files, 3, 3); got != nil {
		t.Fatalf("expected nothing applied, got %v", got)
	}
}
