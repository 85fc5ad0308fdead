package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/syncdeck/syncdeck-backend/pkg/migrate"
)

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestDealsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_deals.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no deals migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE deals",
		"state deal_state NOT NULL DEFAULT 'pending'",
		"CREATE TABLE deal_history_entries",
		"deal_id uuid NOT NULL REFERENCES deals (id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS deal_history_entries",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxMigrationHasDedupIndex(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_outbox_events.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no outbox migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	if !strings.Contains(string(data), "ux_outbox_events_event_aggregate") {
		t.Fatal("outbox migration missing dedup index")
	}
}
