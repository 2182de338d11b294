package outbox_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/outbox"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/persistence/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := sqlite.RunMigrations(db); err != nil {
		t.Fatal(err)
	}

	return db
}

func TestOutbox_ShouldPersistEvent_BeforePublish(t *testing.T) {
	db := setupTestDB(t)
	repo := outbox.NewSQLiteRepository(db)
	ctx := context.Background()

	evt := outbox.OutboxEvent{
		ID:        "evt-1",
		Type:      event.PaymentStatusNotified,
		Payload:   []byte(`{"payment_id":"id-1","status":"PAID"}`),
		CreatedAt: time.Now(),
	}

	err := repo.Save(ctx, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, err := repo.FindUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	if events[0].Published {
		t.Fatalf("expected event to be unpublished")
	}
}

func TestOutbox_MarkPublished(t *testing.T) {
	db := setupTestDB(t)
	repo := outbox.NewSQLiteRepository(db)
	ctx := context.Background()

	for _, id := range []string{"evt-1", "evt-2"} {
		if err := repo.Save(ctx, outbox.OutboxEvent{
			ID:        id,
			Type:      event.PaymentStatusNotified,
			Payload:   []byte(`{}`),
			CreatedAt: time.Now(),
		}); err != nil {
			t.Fatal(err)
		}
	}

	if err := repo.MarkPublished(ctx, "evt-1"); err != nil {
		t.Fatal(err)
	}

	events, _ := repo.FindUnpublished(ctx, 10)
	if len(events) != 1 || events[0].ID != "evt-2" {
		t.Fatalf("expected only evt-2 unpublished, got %+v", events)
	}
}
