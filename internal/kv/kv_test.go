package kv

import (
	"errors"
	"testing"

	"github.com/farmhand/farmhand/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(gdb)
}

func TestGet_Missing(t *testing.T) {
	s := newTestStore(t)
	var v string
	if err := s.Get("farm_auth", &v); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestSetGet(t *testing.T) {
	s := newTestStore(t)
	type item struct {
		Name string  `json:"name"`
		Area float64 `json:"area"`
	}
	want := []item{{"A1", 50}, {"B2", 80}}
	if err := s.Set("farm_fields", want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got []item
	if err := s.Get("farm_fields", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}

func TestSet_Overwrites(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set("farm_email", "a@example.com"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("farm_email", "b@example.com"); err != nil {
		t.Fatalf("Set again: %v", err)
	}
	var got string
	if err := s.Get("farm_email", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "b@example.com" {
		t.Errorf("Get = %q, want %q", got, "b@example.com")
	}
	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("Keys = %v, want one key", keys)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set("farm_auth", "true"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete("farm_auth"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.GetRaw("farm_auth"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRaw after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete("never_set"); err != nil {
		t.Errorf("Delete missing key: %v", err)
	}
}

func TestGet_DecodeError(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set("farm_fields", map[string]int{"a": 1}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var v []string
	err := s.Get("farm_fields", &v)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get with wrong type = %v, want decode error", err)
	}
}

func TestKeys_Sorted(t *testing.T) {
	s := newTestStore(t)
	for _, k := range []string{"farm_user", "farm_cycles", "farm_fields"} {
		if err := s.Set(k, 1); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{"farm_cycles", "farm_fields", "farm_user"}
	for i := range want {
		if i >= len(keys) || keys[i] != want[i] {
			t.Fatalf("Keys = %v, want %v", keys, want)
		}
	}
}
