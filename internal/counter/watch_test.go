package counter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestScriptWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "step.lua")
	if err := os.WriteFile(path, []byte(`function step(a, c) return 1 end`), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadLuaStepper(path)
	if err != nil {
		t.Fatalf("LoadLuaStepper() failed: %v", err)
	}
	defer s.Close()

	w, err := WatchStepScript(s, path, nil)
	if err != nil {
		t.Fatalf("WatchStepScript() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() returned %v", err)
		}
	}()

	step := func() int {
		n, err := s.Step(context.Background(), "increment", 0)
		if err != nil {
			t.Fatalf("Step() failed: %v", err)
		}
		return n
	}

	// A broken script is reported and the previous one keeps working.
	if err := os.WriteFile(path, []byte(`function step(`), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, "failed reload", func() bool { return w.Failures() > 0 })
	if n := step(); n != 1 {
		t.Errorf("expected previous script to stay active, got step %d", n)
	}

	if err := os.WriteFile(path, []byte(`function step(a, c) return 7 end`), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, "script reloaded", func() bool { return step() == 7 })
	if w.Reloads() == 0 {
		t.Error("expected a successful reload to be counted")
	}
}

func TestScriptWatcher_ReplacedByRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "step.lua")
	if err := os.WriteFile(path, []byte(`function step(a, c) return 1 end`), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadLuaStepper(path)
	if err != nil {
		t.Fatalf("LoadLuaStepper() failed: %v", err)
	}
	defer s.Close()

	w, err := WatchStepScript(s, path, nil)
	if err != nil {
		t.Fatalf("WatchStepScript() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	other := filepath.Join(dir, "other.lua")
	if err := os.WriteFile(other, []byte(`function step(`), 0o644); err != nil {
		t.Fatal(err)
	}
	// Replacing the watched script afterwards proves the earlier event was
	// processed and skipped.
	staged := filepath.Join(t.TempDir(), "step.lua")
	if err := os.WriteFile(staged, []byte(`function step(a, c) return 3 end`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(staged, path); err != nil {
		t.Fatal(err)
	}
	eventually(t, "script reloaded", func() bool { return w.Reloads() > 0 })
	if n, _ := s.Step(context.Background(), "increment", 0); n != 3 {
		t.Errorf("expected replaced script to be active, got step %d", n)
	}

	cancel()
	<-done

	if w.Failures() != 0 {
		t.Errorf("expected no failures from unrelated files, got %d", w.Failures())
	}
}

func TestWatchStepScript_MissingDirectory(t *testing.T) {
	s, err := NewLuaStepper(`function step(a, c) return 1 end`)
	if err != nil {
		t.Fatalf("NewLuaStepper() failed: %v", err)
	}
	defer s.Close()

	if _, err := WatchStepScript(s, filepath.Join(t.TempDir(), "missing", "step.lua"), nil); err == nil {
		t.Error("expected error for missing directory")
	}
}
