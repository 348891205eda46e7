package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/artpar/llmgate/adapters/snapshot"
	"github.com/artpar/llmgate/app"
)

func newRegistry(t *testing.T) (*app.RegistryService, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.json")
	return app.NewRegistryService(snapshot.NewFileStore(path)), path
}

func TestRegisterAndResolve(t *testing.T) {
	reg, _ := newRegistry(t)

	if err := reg.Register("llama3", "8b", "fast"); err != nil {
		t.Fatalf("register: %v", err)
	}

	byName, ok := reg.Resolve("llama3")
	if !ok {
		t.Fatal("resolve by name failed")
	}
	byAlias, ok := reg.Resolve("fast")
	if !ok {
		t.Fatal("resolve by alias failed")
	}
	if byName != byAlias {
		t.Errorf("name/alias mismatch: %+v vs %+v", byName, byAlias)
	}
}

func TestRegisterUpsertKeepsPosition(t *testing.T) {
	reg, _ := newRegistry(t)

	reg.Register("first", "1", "")
	reg.Register("second", "1", "")
	reg.Register("first", "2", "f1")

	entries := reg.List()
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].Name != "first" || entries[0].Version != "2" {
		t.Errorf("entries[0] = %+v, want updated first in place", entries[0])
	}
}

func TestRegisterDefaultsAlias(t *testing.T) {
	reg, _ := newRegistry(t)

	reg.Register("llama3", "8b", "")
	e, ok := reg.Resolve("llama3")
	if !ok || e.Alias != "llama3" {
		t.Errorf("Resolve = (%+v, %v), want alias defaulted to name", e, ok)
	}
}

func TestRegisterEmptyNameFails(t *testing.T) {
	reg, _ := newRegistry(t)
	if err := reg.Register("", "v", ""); err == nil {
		t.Error("register with empty name should fail")
	}
}

func TestResolveMissIsNotAnError(t *testing.T) {
	reg, _ := newRegistry(t)
	if _, ok := reg.Resolve("ghost"); ok {
		t.Error("resolve of unknown model should miss")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	reg, path := newRegistry(t)
	ctx := context.Background()

	reg.Register("llama3", "8b", "fast")
	reg.Register("gpt-x", "1", "")
	if err := reg.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	fresh := app.NewRegistryService(snapshot.NewFileStore(path))
	if err := fresh.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	want := reg.List()
	got := fresh.List()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadWithoutSnapshotIsNoop(t *testing.T) {
	reg, _ := newRegistry(t)
	reg.Register("keep-me", "1", "")

	if err := reg.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d, want 1 (load of missing snapshot must not clear)", reg.Len())
	}
}

func TestLoadReplacesWholesale(t *testing.T) {
	reg, path := newRegistry(t)
	ctx := context.Background()

	reg.Register("persisted", "1", "")
	reg.Save(ctx)

	other := app.NewRegistryService(snapshot.NewFileStore(path))
	other.Register("in-memory-only", "1", "")
	if err := other.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	entries := other.List()
	if len(entries) != 1 || entries[0].Name != "persisted" {
		t.Errorf("List = %+v, want wholesale replacement with snapshot contents", entries)
	}
}
