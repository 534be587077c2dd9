package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/yapchat/yap/internal/store"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	result, err := db.Migrate()
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if result.Changed {
		t.Error("second migrate should be a no-change run")
	}
	if result.Dirty {
		t.Error("migration left database dirty")
	}
}

func TestAppendAndFetchRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := &store.Message{
		ID: "m1", Author: "alice", Content: "hello", Timestamp: 10,
		ReplyTo: "m0", ReplyToAuthor: "bob", ReplyToContent: "earlier",
	}
	if err := db.Append(ctx, "ROOM", m); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := db.FetchRecent(ctx, "ROOM", 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	r := got[0]
	if r.ID != "m1" || r.Author != "alice" || r.Content != "hello" || r.Timestamp != 10 {
		t.Errorf("record fields wrong: %+v", r)
	}
	if r.ReplyTo != "m0" || r.ReplyToAuthor != "bob" || r.ReplyToContent != "earlier" {
		t.Errorf("reply snapshot not archived: %+v", r)
	}
	if r.Edited || len(r.ReadBy) != 0 {
		t.Errorf("edited/readBy must not come back from the archive: %+v", r)
	}
}

func TestAppendIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := &store.Message{ID: "m1", Author: "alice", Content: "hello", Timestamp: 10}
	for i := 0; i < 3; i++ {
		if err := db.Append(ctx, "ROOM", m); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := db.FetchRecent(ctx, "ROOM", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected a single record after repeated appends, got %d", len(got))
	}
}

func TestFetchIsScopedToRoomAndOrdered(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_ = db.Append(ctx, "A", &store.Message{ID: "m2", Author: "alice", Content: "second", Timestamp: 20})
	_ = db.Append(ctx, "A", &store.Message{ID: "m1", Author: "alice", Content: "first", Timestamp: 10})
	_ = db.Append(ctx, "B", &store.Message{ID: "m1", Author: "bob", Content: "other room", Timestamp: 5})

	got, err := db.FetchRecent(ctx, "A", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records for room A, got %d", len(got))
	}
	if got[0].ID != "m1" || got[1].ID != "m2" {
		t.Errorf("expected ascending timestamp order, got %s then %s", got[0].ID, got[1].ID)
	}

	// Same msg_id in another room is a distinct record.
	other, err := db.FetchRecent(ctx, "B", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 1 || other[0].Author != "bob" {
		t.Errorf("room B records wrong: %+v", other)
	}
}

func TestFetchHonorsLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = db.Append(ctx, "ROOM", &store.Message{
			ID: string(rune('a' + i)), Author: "alice", Content: "x", Timestamp: int64(i),
		})
	}

	got, err := db.FetchRecent(ctx, "ROOM", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 records, got %d", len(got))
	}
}

func TestLogJoin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.LogJoin(ctx, "alice", "ROOM"); err != nil {
		t.Fatalf("log join: %v", err)
	}
	if err := db.LogJoin(ctx, "alice", "ROOM"); err != nil {
		t.Fatalf("repeat join must be a fresh row: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM logins WHERE name = ? AND room = ?`, "alice", "ROOM").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 login rows, got %d", count)
	}
}
