package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quantmind-br/tytm/internal/core"
)

func TestDBOperations(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "history.db")
	db, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if db.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
	}

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	events := []*Event{
		{ThemeID: "dracula", Action: core.ActionInstall, Version: "1.2.0", Subs: []string{"dracula"}, CreatedAt: base},
		{ThemeID: "nord", Action: core.ActionInstall, Version: "0.4", Subs: []string{"nord"}, CreatedAt: base.Add(time.Minute)},
		{ThemeID: "dracula", Action: core.ActionRemoveSub, Subs: []string{"dracula-dark"}, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, event := range events {
		if err := db.Record(ctx, event); err != nil {
			t.Fatalf("Failed to record event: %v", err)
		}
		if event.ID == 0 {
			t.Error("Record() should set the event id")
		}
	}

	all, err := db.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("Failed to list events: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List() length = %d, want 3", len(all))
	}
	if all[0].Action != core.ActionRemoveSub || all[2].ThemeID != "dracula" {
		t.Errorf("List() should return newest first, got %+v", all)
	}
	if !all[2].CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", all[2].CreatedAt, base)
	}

	dracula, err := db.List(ctx, "dracula", 0)
	if err != nil {
		t.Fatalf("Failed to list events: %v", err)
	}
	if len(dracula) != 2 {
		t.Errorf("List(dracula) length = %d, want 2", len(dracula))
	}
	if len(dracula[0].Subs) != 1 || dracula[0].Subs[0] != "dracula-dark" {
		t.Errorf("Subs = %v, want [dracula-dark]", dracula[0].Subs)
	}

	limited, err := db.List(ctx, "", 1)
	if err != nil {
		t.Fatalf("Failed to list events: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("List(limit 1) length = %d, want 1", len(limited))
	}

	removed, err := db.Clear(ctx)
	if err != nil {
		t.Fatalf("Failed to clear events: %v", err)
	}
	if removed != 3 {
		t.Errorf("Clear() = %d, want 3", removed)
	}

	all, err = db.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("Failed to list events: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("List() after Clear length = %d, want 0", len(all))
	}
}

func TestRecordDefaultsTimestamp(t *testing.T) {
	ctx := context.Background()
	db, err := New(ctx, filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	event := &Event{ThemeID: "nord", Action: core.ActionUninstall}
	if err := db.Record(ctx, event); err != nil {
		t.Fatalf("Failed to record event: %v", err)
	}
	if event.CreatedAt.IsZero() {
		t.Error("Record() should set CreatedAt")
	}

	events, err := db.List(ctx, "nord", 0)
	if err != nil {
		t.Fatalf("Failed to list events: %v", err)
	}
	if len(events) != 1 || events[0].Subs == nil || len(events[0].Subs) != 0 {
		t.Errorf("expected one event with empty subs, got %+v", events)
	}
}

func TestNewReopensExistingDatabase(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "history.db")

	first, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	if err := first.Record(ctx, &Event{ThemeID: "dracula", Action: core.ActionInstall}); err != nil {
		t.Fatalf("Failed to record event: %v", err)
	}
	first.Close()

	second, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer second.Close()

	events, err := second.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("Failed to list events: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("List() length = %d, want 1", len(events))
	}
}

func TestNewFailureIsDatabaseError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New(context.Background(), filepath.Join(blocker, "history.db"))
	if !errors.Is(err, core.ErrDatabase) {
		t.Fatalf("New() error = %v, want core.ErrDatabase", err)
	}
	if got := core.ExitCodeFor(err); got != core.ExitDatabase {
		t.Errorf("ExitCodeFor() = %d, want %d", got, core.ExitDatabase)
	}
}
