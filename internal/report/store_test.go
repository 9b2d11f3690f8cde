package report

import (
	"fmt"
	"testing"
	"time"
)

func sampleRecord(id string) *InstallRecord {
	return &InstallRecord{
		ID:         id,
		Time:       time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC),
		Script:     "echo hello\n",
		Status:     StatusCompleted,
		ExitCode:   0,
		Stdout:     "hello",
		DurationMS: 12,
		Verdict:    "indeterminate",
	}
}

func TestDiskStore_SaveLoad(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	s := NewDiskStore()

	want := sampleRecord("run-1")
	want.Stderr = "warning: noise"
	want.TimedOut = true
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load("run-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ID != want.ID || got.Status != want.Status || got.Stdout != want.Stdout {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
	if got.Stderr != want.Stderr || !got.TimedOut {
		t.Errorf("Load dropped fields: %+v", got)
	}
	if !got.Time.Equal(want.Time) {
		t.Errorf("Time = %v, want %v", got.Time, want.Time)
	}
}

func TestDiskStore_LoadMissing(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	s := NewDiskStore()

	if _, err := s.Load("no-such-run"); err == nil {
		t.Fatal("expected error for unknown run ID")
	}
}

// mapStore is a backing store that counts loads.
type mapStore struct {
	m     map[string]*InstallRecord
	loads int
}

func newMapStore() *mapStore {
	return &mapStore{m: make(map[string]*InstallRecord)}
}

func (s *mapStore) Save(rec *InstallRecord) error {
	s.m[rec.ID] = rec
	return nil
}

func (s *mapStore) Load(runID string) (*InstallRecord, error) {
	s.loads++
	rec, ok := s.m[runID]
	if !ok {
		return nil, fmt.Errorf("no record %s", runID)
	}
	return rec, nil
}

func TestLRUStore_ServesFromCache(t *testing.T) {
	back := newMapStore()
	s := NewLRUStore(4, back)

	if err := s.Save(sampleRecord("run-1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := s.Load("run-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.loads != 0 {
		t.Errorf("backing store hit %d times, want 0", back.loads)
	}
}

func TestLRUStore_EvictsToBackingStore(t *testing.T) {
	back := newMapStore()
	s := NewLRUStore(1, back)

	if err := s.Save(sampleRecord("run-1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(sampleRecord("run-2")); err != nil {
		t.Fatal(err)
	}

	// run-1 was evicted; the load must come from the backing store.
	got, err := s.Load("run-1")
	if err != nil {
		t.Fatalf("Load after eviction: %v", err)
	}
	if got.ID != "run-1" {
		t.Errorf("ID = %q, want run-1", got.ID)
	}
	if back.loads != 1 {
		t.Errorf("backing store hit %d times, want 1", back.loads)
	}

	// The reload promoted run-1 back into the cache.
	if _, err := s.Load("run-1"); err != nil {
		t.Fatal(err)
	}
	if back.loads != 1 {
		t.Errorf("promoted record still loaded from backing store (%d loads)", back.loads)
	}
}

func TestInstallRecord_Succeeded(t *testing.T) {
	rec := sampleRecord("run-1")
	if !rec.Succeeded() || !rec.Executed() {
		t.Error("completed zero-exit run should be a success")
	}

	rec.ExitCode = 1
	if rec.Succeeded() {
		t.Error("non-zero exit is not a success")
	}
	if !rec.Executed() {
		t.Error("non-zero exit still executed")
	}

	rec.Status = StatusRejected
	rec.ExitCode = 0
	if rec.Succeeded() || rec.Executed() {
		t.Error("rejected run neither executed nor succeeded")
	}
}
