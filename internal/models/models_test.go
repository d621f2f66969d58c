package models

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertJSONName checks the JSON attribute name of a struct field.
func assertJSONName(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	name := strings.Split(f.Tag.Get("json"), ",")[0]
	if name != expected {
		t.Errorf("%s.%s json name = %q, want %q", typ.Name(), fieldName, name, expected)
	}
}

func TestKVEntry_Fields(t *testing.T) {
	typ := reflect.TypeOf(KVEntry{})
	assertGormTag(t, typ, "Key", "primaryKey")
	assertGormTag(t, typ, "Key", "size:64")
	assertGormTag(t, typ, "Value", "not null")
}

func TestDocument_Fields(t *testing.T) {
	typ := reflect.TypeOf(Document{})
	assertGormTag(t, typ, "Collection", "primaryKey")
	assertGormTag(t, typ, "DocID", "primaryKey")
	assertGormTag(t, typ, "UpdatedAt", "index")

	rev := reflect.TypeOf(CollectionRevision{})
	assertGormTag(t, rev, "Collection", "primaryKey")
	assertGormTag(t, rev, "Revision", "default:0")
}

func TestWireNames(t *testing.T) {
	assertJSONName(t, reflect.TypeOf(Field{}), "CurrentCropID", "currentCropId")
	assertJSONName(t, reflect.TypeOf(Field{}), "SoilType", "soilType")
	assertJSONName(t, reflect.TypeOf(CropCycle{}), "FieldID", "fieldId")
	assertJSONName(t, reflect.TypeOf(CropCycle{}), "EstimatedHarvestDate", "estimatedHarvestDate")
	assertJSONName(t, reflect.TypeOf(Task{}), "CycleID", "cycleId")
	assertJSONName(t, reflect.TypeOf(HarvestLog{}), "QuantityKg", "quantityKg")
	assertJSONName(t, reflect.TypeOf(PestReport{}), "AIDiagnosis", "aiDiagnosis")
	assertJSONName(t, reflect.TypeOf(CropPreset{}), "DefaultTasks", "defaultTasks")
}

func TestApply_MergesAttributes(t *testing.T) {
	f := Field{ID: "f1", Name: "A1", Area: 50, SoilType: SoilAlluvial, Location: "river"}

	got, err := Apply(f, Patch{"name": "A1 north", "area": 75.5})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Name != "A1 north" {
		t.Errorf("Name = %q, want %q", got.Name, "A1 north")
	}
	if got.Area != 75.5 {
		t.Errorf("Area = %v, want 75.5", got.Area)
	}
	if got.Location != "river" {
		t.Errorf("Location = %q, want untouched %q", got.Location, "river")
	}
	if f.Name != "A1" {
		t.Errorf("original mutated: Name = %q", f.Name)
	}
}

func TestApply_NilClears(t *testing.T) {
	f := Field{ID: "f1", CurrentCropID: "c2", Coordinates: &LatLng{Lat: 11, Lng: 106}}

	got, err := Apply(f, Patch{"currentCropId": nil, "coordinates": nil})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.CurrentCropID != "" {
		t.Errorf("CurrentCropID = %q, want cleared", got.CurrentCropID)
	}
	if got.Coordinates != nil {
		t.Errorf("Coordinates = %+v, want nil", got.Coordinates)
	}
}

func TestApply_IgnoresID(t *testing.T) {
	got, err := Apply(Field{ID: "f1", Name: "x"}, Patch{"id": "f9", "name": "y"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.ID != "f1" {
		t.Errorf("ID = %q, want immutable %q", got.ID, "f1")
	}
	if got.Name != "y" {
		t.Errorf("Name = %q, want %q", got.Name, "y")
	}
}

func TestApply_TypeMismatch(t *testing.T) {
	f := Field{ID: "f1", Area: 10}
	got, err := Apply(f, Patch{"area": "lots"})
	if err == nil {
		t.Fatal("expected error for string area")
	}
	if got.Area != 10 {
		t.Errorf("Area = %v, want unchanged 10", got.Area)
	}
}

func TestApply_DecodedJSONPatch(t *testing.T) {
	var p Patch
	if err := json.Unmarshal([]byte(`{"status":"completed","cost":15000}`), &p); err != nil {
		t.Fatal(err)
	}
	task := Task{ID: "t1", CycleID: "c1", Status: TaskPending}
	got, err := Apply(task, p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Status != TaskCompleted {
		t.Errorf("Status = %q, want %q", got.Status, TaskCompleted)
	}
	if got.Cost == nil || *got.Cost != 15000 {
		t.Errorf("Cost = %v, want 15000", got.Cost)
	}
}

func TestSanitized(t *testing.T) {
	p := Patch{"id": "x", "name": "n"}
	s := p.Sanitized()
	if _, ok := s["id"]; ok {
		t.Error("Sanitized kept id")
	}
	if _, ok := p["id"]; !ok {
		t.Error("Sanitized mutated the receiver")
	}
	if s["name"] != "n" {
		t.Errorf("name = %v, want n", s["name"])
	}
}

func TestCropCycle_CloneDoesNotAlias(t *testing.T) {
	cost := 10.0
	c := CropCycle{ID: "c1", Tasks: []Task{{ID: "t1", Cost: &cost}}, Harvests: []HarvestLog{{ID: "h1"}}}
	cl := c.Clone()
	cl.Tasks[0].Status = TaskCompleted
	*cl.Tasks[0].Cost = 99
	cl.Harvests = append(cl.Harvests, HarvestLog{ID: "h2"})

	if c.Tasks[0].Status != "" {
		t.Errorf("original task status = %q, want empty", c.Tasks[0].Status)
	}
	if *c.Tasks[0].Cost != 10 {
		t.Errorf("original cost = %v, want 10", *c.Tasks[0].Cost)
	}
	if len(c.Harvests) != 1 {
		t.Errorf("original harvests = %d, want 1", len(c.Harvests))
	}
}

func TestCropCycle_CloneNilSlices(t *testing.T) {
	cl := CropCycle{ID: "c1"}.Clone()
	if cl.Tasks == nil || cl.Harvests == nil {
		t.Error("Clone should return non-nil empty slices")
	}
}
