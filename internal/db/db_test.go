package db

import (
	"testing"

	"github.com/draftwire/draftwire/internal/config"
	"github.com/draftwire/draftwire/internal/models"
)

func TestConnect_SQLiteDefault(t *testing.T) {
	gdb, err := Connect(config.DatabaseConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, model := range AllModels() {
		if !gdb.Migrator().HasTable(model) {
			t.Errorf("table missing for %T", model)
		}
	}
}

func TestConnect_UnknownDriver(t *testing.T) {
	if _, err := Connect(config.DatabaseConfig{Driver: "postgres"}); err == nil {
		t.Error("Connect accepted unknown driver")
	}
}

func TestMigrate_EmbeddedIntentColumns(t *testing.T) {
	gdb, err := Connect(config.DatabaseConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The intent embeds into tickets under the intent_ prefix, and the
	// ticket keeps its own id as the sole primary key.
	for _, col := range []string{"id", "intent_id", "intent_confidence", "status"} {
		if !gdb.Migrator().HasColumn(&models.Ticket{}, col) {
			t.Errorf("tickets table missing column %q", col)
		}
	}
}
