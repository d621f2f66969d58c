package store

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/farmhand/farmhand/internal/db"
	"github.com/farmhand/farmhand/internal/models"
	"github.com/farmhand/farmhand/internal/remote/sqldoc"
)

func TestCloud_SQLDocumentsEndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	gdb, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	rs := sqldoc.New(gdb, sqldoc.Options{PollInterval: 5 * time.Millisecond})
	ctx := context.Background()
	if err := rs.Provision(ctx); err != nil {
		t.Fatalf("Provision: %v", err)
	}

	s, err := Open(ctx, Options{Remote: rs, Now: fixedNow})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !s.CloudConnected() || s.Backend() != "mysql" {
		t.Fatalf("CloudConnected = %v Backend = %q", s.CloudConnected(), s.Backend())
	}

	s.AddField(ctx, testField("f9"))
	s.AddCycle(ctx, models.CropCycle{ID: "c9", FieldID: "f9", StartDate: "2024-03-01", Status: models.CycleActive}, "")

	waitFor(t, func() bool {
		f, ok := s.Field("f9")
		_, cok := s.Cycle("c9")
		return ok && cok && f.CurrentCropID == "c9"
	})

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := rs.Close(); err != nil {
		t.Fatalf("remote Close: %v", err)
	}
}

func TestCloud_CancelledCallerStillWrites(t *testing.T) {
	gdb, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rs := sqldoc.New(gdb, sqldoc.Options{PollInterval: 5 * time.Millisecond})
	defer rs.Close()
	if err := rs.Provision(context.Background()); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	s, err := Open(context.Background(), Options{Remote: rs, Now: fixedNow})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if !s.CloudConnected() {
		t.Fatal("expected cloud mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.AddField(ctx, testField("f9"))
	s.AddCycle(ctx, models.CropCycle{ID: "c9", FieldID: "f9", StartDate: "2024-03-01", Status: models.CycleActive}, "")
	s.EndCycle(ctx, "c9")

	waitFor(t, func() bool {
		c, ok := s.Cycle("c9")
		_, fok := s.Field("f9")
		return fok && ok && c.Status == models.CycleCompleted
	})
	if _, err := rs.Get(context.Background(), "fields", "f9"); err != nil {
		t.Errorf("remote Get(f9) = %v, want stored", err)
	}
}

func TestCloud_SQLDocumentsSchemaMissingFallsBack(t *testing.T) {
	gdb, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rs := sqldoc.New(gdb, sqldoc.Options{})
	defer rs.Close()
	s, err := Open(context.Background(), Options{Remote: rs})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if s.Mode() != ModeLocal {
		t.Errorf("Mode = %q, want local without document tables", s.Mode())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
