package secret

import (
	"errors"
	"slices"
	"testing"
)

func TestRegistry_RegisterAndCreate(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register("stub", func(cfg map[string]any) (Provider, error) {
		return &stubProvider{name: "stub"}, nil
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p, err := reg.Create("stub", map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.Name() != "stub" {
		t.Fatalf("Name() = %q", p.Name())
	}
}

func TestRegistry_RegisterRejects(t *testing.T) {
	reg := NewRegistry()
	factory := func(map[string]any) (Provider, error) { return &stubProvider{name: "stub"}, nil }
	_ = reg.Register("stub", factory)

	if err := reg.Register("stub", factory); err == nil {
		t.Error("expected duplicate registration error")
	}
	if err := reg.Register("  ", factory); err == nil {
		t.Error("expected blank name error")
	}
	if err := reg.Register("other", nil); err == nil {
		t.Error("expected nil factory error")
	}
}

func TestRegistry_CreateUnknown(t *testing.T) {
	_, err := NewRegistry().Create("vault", nil)
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestDefaultRegistry_Builtins(t *testing.T) {
	names := DefaultRegistry.List()
	for _, want := range []string{"env", "file"} {
		if !slices.Contains(names, want) {
			t.Errorf("DefaultRegistry missing %q: %v", want, names)
		}
	}

	p, err := DefaultRegistry.Create("file", map[string]any{"base_dir": "/run/keys"})
	if err != nil {
		t.Fatalf("Create(file) error = %v", err)
	}
	if fp, ok := p.(FileProvider); !ok || fp.BaseDir != "/run/keys" {
		t.Fatalf("unexpected provider: %#v", p)
	}
}
