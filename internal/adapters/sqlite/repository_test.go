package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zonecal/zonecal/internal/adapters/sqlite/gormsqlite"
	"github.com/zonecal/zonecal/internal/core/domain"
	"github.com/zonecal/zonecal/migrations"
)

func newTestDB(t *testing.T) *gormsqlite.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.sqlite")
	db, err := gormsqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	wdb, err := db.WriteSQLDB()
	if err != nil {
		t.Fatalf("writer sql db: %v", err)
	}
	if err := migrations.Up(context.Background(), wdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func insertProfile(t *testing.T, repo *ProfileRepository, id, name string, createdAt time.Time) {
	t.Helper()
	err := repo.Insert(context.Background(), domain.Profile{
		ID:           id,
		Name:         name,
		UserTimezone: "UTC",
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	})
	if err != nil {
		t.Fatalf("insert profile %s: %v", id, err)
	}
}

func insertEvent(t *testing.T, repo *EventRepository, id string, profileIDs []string, start time.Time) {
	t.Helper()
	err := repo.Insert(context.Background(), domain.Event{
		ID:            id,
		ProfileIDs:    profileIDs,
		StartUTC:      start,
		EndUTC:        start.Add(time.Hour),
		EventTimezone: "UTC",
		CreatedAt:     start,
		UpdatedAt:     start,
	})
	if err != nil {
		t.Fatalf("insert event %s: %v", id, err)
	}
}

func TestProfileRepositoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	insertProfile(t, repo, "p2", "Bob", base.Add(time.Hour))
	insertProfile(t, repo, "p1", "Alice", base)

	got, err := repo.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Alice" || got.UserTimezone != "UTC" {
		t.Fatalf("unexpected profile: %+v", got)
	}
	if !got.CreatedAt.Equal(base) {
		t.Fatalf("expected createdAt %v, got %v", base, got.CreatedAt)
	}

	got.Name = "Alicia"
	got.UserTimezone = "Europe/Vilnius"
	got.UpdatedAt = base.Add(2 * time.Hour)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	updated, err := repo.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if updated.Name != "Alicia" || updated.UserTimezone != "Europe/Vilnius" {
		t.Fatalf("update not persisted: %+v", updated)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != "p1" || all[1].ID != "p2" {
		t.Fatalf("expected creation order p1,p2, got %v", all)
	}
}

func TestProfileRepositoryNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on get, got %v", err)
	}
	err := repo.Update(ctx, domain.Profile{ID: "missing", Name: "X", UserTimezone: "UTC"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
	if _, err := repo.Delete(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestProfileRepositoryGetByIDsSkipsAbsent(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	insertProfile(t, repo, "p1", "Alice", base)

	got, err := repo.GetByIDs(context.Background(), []string{"p1", "ghost"})
	if err != nil {
		t.Fatalf("get by ids: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("expected only p1, got %v", got)
	}

	empty, err := repo.GetByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("get by empty ids: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty result, got %v", empty)
	}
}

func TestProfileRepositoryDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	profiles := NewProfileRepository(db)
	events := NewEventRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	insertProfile(t, profiles, "p1", "Alice", base)
	insertProfile(t, profiles, "p2", "Bob", base)
	insertEvent(t, events, "solo", []string{"p1"}, base)
	insertEvent(t, events, "shared", []string{"p1", "p2"}, base)
	insertEvent(t, events, "other", []string{"p2"}, base)

	result, err := profiles.Delete(ctx, "p1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result.EventsUpdated != 1 || result.EventsDeleted != 1 {
		t.Fatalf("expected 1 updated and 1 deleted, got %+v", result)
	}

	if _, err := events.Get(ctx, "solo"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected solo event deleted, got %v", err)
	}
	shared, err := events.Get(ctx, "shared")
	if err != nil {
		t.Fatalf("get shared: %v", err)
	}
	if !slices.Equal(shared.ProfileIDs, []string{"p2"}) {
		t.Fatalf("expected membership p2, got %v", shared.ProfileIDs)
	}
	if _, err := profiles.Get(ctx, "p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected profile deleted, got %v", err)
	}
}

func TestEventRepositoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	profiles := NewProfileRepository(db)
	events := NewEventRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	insertProfile(t, profiles, "p1", "Alice", base)
	insertProfile(t, profiles, "p2", "Bob", base)

	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	insertEvent(t, events, "e1", []string{"p2", "p1"}, start)

	got, err := events.Get(ctx, "e1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !slices.Equal(got.ProfileIDs, []string{"p1", "p2"}) {
		t.Fatalf("expected sorted membership, got %v", got.ProfileIDs)
	}
	if !got.StartUTC.Equal(start) {
		t.Fatalf("expected start %v, got %v", start, got.StartUTC)
	}
	if got.StartUTC.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.StartUTC.Location())
	}

	got.ProfileIDs = []string{"p2"}
	got.StartUTC = start.Add(time.Hour)
	got.EndUTC = start.Add(2 * time.Hour)
	got.UpdatedAt = start.Add(time.Hour)
	if err := events.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	updated, err := events.Get(ctx, "e1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if !slices.Equal(updated.ProfileIDs, []string{"p2"}) {
		t.Fatalf("expected membership replaced, got %v", updated.ProfileIDs)
	}
	if !updated.StartUTC.Equal(start.Add(time.Hour)) {
		t.Fatalf("expected shifted start, got %v", updated.StartUTC)
	}

	if err := events.Delete(ctx, "e1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := events.Get(ctx, "e1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := events.Delete(ctx, "e1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on double delete, got %v", err)
	}
}

func TestEventRepositoryListForProfile(t *testing.T) {
	db := newTestDB(t)
	profiles := NewProfileRepository(db)
	events := NewEventRepository(db)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	insertProfile(t, profiles, "p1", "Alice", base)
	insertProfile(t, profiles, "p2", "Bob", base)

	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	insertEvent(t, events, "late", []string{"p1"}, start.Add(2*time.Hour))
	insertEvent(t, events, "early", []string{"p1", "p2"}, start)
	insertEvent(t, events, "unrelated", []string{"p2"}, start.Add(time.Hour))

	got, err := events.ListForProfile(context.Background(), "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "early" || got[1].ID != "late" {
		t.Fatalf("expected early,late, got %v", got)
	}
	if !slices.Equal(got[0].ProfileIDs, []string{"p1", "p2"}) {
		t.Fatalf("expected full membership on shared event, got %v", got[0].ProfileIDs)
	}
}

func TestAuditRepositoryAppendListPrune(t *testing.T) {
	db := newTestDB(t)
	audit := NewAuditRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := audit.Append(ctx, domain.LogEntry{
			ID:          string(rune('a' + i)),
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			EventType:   domain.EventTypeEventCreated,
			EntityID:    "e1",
			Description: "created event",
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := audit.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 5 || entries[0].ID != "e" || entries[4].ID != "a" {
		t.Fatalf("expected newest first, got %v", entries)
	}

	removed, err := audit.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}

	entries, err = audit.List(ctx)
	if err != nil {
		t.Fatalf("list after prune: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "e" || entries[1].ID != "d" {
		t.Fatalf("expected the 2 newest entries, got %v", entries)
	}

	removed, err = audit.Prune(ctx, 10)
	if err != nil {
		t.Fatalf("second prune: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected nothing removed under the cap, got %d", removed)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "migrate.sqlite")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.Up(ctx, db); err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if err := migrations.Up(ctx, db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
