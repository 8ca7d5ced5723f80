package migrations

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db, DialectSQLite); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tables := []string{"content_items", "content_tags", "payments", "purchases", "tips", "media", "operations", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	err := CheckDBMigrationStatus(db, DialectSQLite)
	if err == nil {
		t.Fatal("CheckDBMigrationStatus() expected error for fresh database, got nil")
	}

	if err.Error() != "database has no schema version (needs migration)" {
		t.Errorf("CheckDBMigrationStatus() error = %q, want error about needing migration", err.Error())
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db, DialectSQLite); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if err := CheckDBMigrationStatus(db, DialectSQLite); err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db, DialectSQLite); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}

	if err := MigrateUp(db, DialectSQLite); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}

	if err := CheckDBMigrationStatus(db, DialectSQLite); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestLatestVersion(t *testing.T) {
	for _, dialect := range []string{DialectSQLite, DialectPostgres} {
		v, err := LatestVersion(dialect)
		if err != nil {
			t.Fatalf("LatestVersion(%s) error = %v", dialect, err)
		}
		if v != 2 {
			t.Errorf("LatestVersion(%s) = %d, want 2", dialect, v)
		}
	}

	if _, err := LatestVersion("mysql"); err == nil {
		t.Error("LatestVersion(mysql) expected error, got nil")
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db, DialectSQLite); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	_, err := db.Exec(`INSERT INTO content_tags (content_id, position, tag) VALUES ('missing', 0, 'go')`)
	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

func TestSchema_CheckConstraints(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db, DialectSQLite); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	insert := `INSERT INTO content_items (id, title, content_type, creator_address, created_at, updated_at, status)
		VALUES (?, 'title', ?, '0xabc', datetime('now'), datetime('now'), ?)`

	if _, err := db.Exec(insert, "ok", "article", "draft"); err != nil {
		t.Fatalf("valid insert failed: %v", err)
	}
	if _, err := db.Exec(insert, "bad-type", "podcast", "draft"); err == nil {
		t.Error("Expected check constraint violation for content_type, but insert succeeded")
	}
	if _, err := db.Exec(insert, "bad-status", "article", "deleted"); err == nil {
		t.Error("Expected check constraint violation for status, but insert succeeded")
	}
}

func TestSchema_IdempotencyKeyUnique(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db, DialectSQLite); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	insert := `INSERT INTO payments (id, kind, idempotency_key, payer_address, recipient_address, amount, status, created_at, updated_at)
		VALUES (?, 'tip', 'key-1', ?, '0xcreator', '1', 'pending', datetime('now'), datetime('now'))`

	if _, err := db.Exec(insert, "p1", "0xbuyer"); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := db.Exec(insert, "p2", "0xbuyer"); err == nil {
		t.Error("Expected unique constraint violation for reused key, but insert succeeded")
	}
	if _, err := db.Exec(insert, "p3", "0xother"); err != nil {
		t.Errorf("same key for a different payer failed: %v", err)
	}
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	return db
}
