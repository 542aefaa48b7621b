package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matches %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestBookingsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_bookings.sql")

	checks := []string{
		"CREATE TYPE booking_status AS ENUM",
		"CREATE TABLE IF NOT EXISTS bookings",
		"FOREIGN KEY (buyer_user_id) REFERENCES users(id)",
		"CHECK (amount_funded_cents >= 0)",
		"CHECK (retainage_bps BETWEEN 0 AND 10000)",
		"idx_bookings_stripe_payment_intent_id",
		"DROP TABLE IF EXISTS bookings",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}

	for _, status := range []string{
		"'pending'", "'accepted'", "'declined'", "'canceled'", "'funded'",
		"'in_progress'", "'final_proposed'", "'final_approved'",
		"'partial_released'", "'settled'", "'paid'", "'completed'",
	} {
		if !strings.Contains(content, status) {
			t.Errorf("booking_status enum missing %s", status)
		}
	}
}

func TestEscrowEventsMigrationContainsLedgerShape(t *testing.T) {
	content := readMigration(t, "*_create_escrow_events.sql")

	checks := []string{
		"CREATE TYPE escrow_event_type AS ENUM",
		"CREATE TABLE IF NOT EXISTS escrow_events",
		"FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE",
		"CHECK (amount_cents >= 0)",
		"DROP TABLE IF EXISTS escrow_events",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}

	for _, kind := range []string{
		"'deposit'", "'delta_charge'", "'delta_refund'",
		"'final_payout'", "'retainage_release'", "'flat_payout'",
	} {
		if !strings.Contains(content, kind) {
			t.Errorf("escrow_event_type enum missing %s", kind)
		}
	}
}

func TestUsersMigrationContainsPayoutColumns(t *testing.T) {
	content := readMigration(t, "*_create_users.sql")

	checks := []string{
		"CREATE TYPE actor_role AS ENUM",
		"CREATE TYPE payout_status AS ENUM",
		"stripe_payment_method_id",
		"stripe_connect_account_id",
		"stripe_requirements JSONB",
		"idx_users_stripe_connect_account_id",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
