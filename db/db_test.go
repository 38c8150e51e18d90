package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/onnwee/coinbot/db"
	"github.com/onnwee/coinbot/testutil"
)

func TestTokenRoundTrip(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	if err := db.UpsertToken(ctx, database, "twitch-chat", "acc1", "ref1", expires, "chat:read chat:edit"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	access, refresh, expiresAt, scope, err := db.LoadToken(ctx, database, "twitch-chat")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if access != "acc1" || refresh != "ref1" || scope != "chat:read chat:edit" {
		t.Errorf("loaded %q/%q/%q", access, refresh, scope)
	}
	if !expiresAt.UTC().Truncate(time.Second).Equal(expires) {
		t.Errorf("expires_at = %v, want %v", expiresAt, expires)
	}

	// replacement keeps a single row per provider
	if err := db.UpsertToken(ctx, database, "twitch-chat", "acc2", "ref2", expires, ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	access, refresh, _, _, err = db.LoadToken(ctx, database, "twitch-chat")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if access != "acc2" || refresh != "ref2" {
		t.Errorf("after replace: %q/%q", access, refresh)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	database := testutil.SetupTestDB(t)
	// SetupTestDB already migrated once; a second run must not fail.
	if err := db.Migrate(context.Background(), database); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
