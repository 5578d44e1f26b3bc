package secret

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type stubProvider struct {
	name    string
	values  map[string]string
	resolve func(ref string) (string, error)
	closed  bool
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Resolve(_ context.Context, ref string) (string, error) {
	if s.resolve != nil {
		return s.resolve(ref)
	}
	return s.values[ref], nil
}

func (s *stubProvider) Close() error {
	s.closed = true
	return nil
}

func TestParseSecretRef(t *testing.T) {
	tests := []struct {
		in       string
		provider string
		ref      string
		ok       bool
	}{
		{"secretref:env:TIERCACHE_SECURE_KEY", "env", "TIERCACHE_SECURE_KEY", true},
		{"secretref:file:/run/keys/cache.key", "file", "/run/keys/cache.key", true},
		{"secretref:env:", "", "", false},
		{"secretref::x", "", "", false},
		{"plain", "", "", false},
	}
	for _, tt := range tests {
		p, r, ok := ParseSecretRef(tt.in)
		if ok != tt.ok || p != tt.provider || r != tt.ref {
			t.Errorf("ParseSecretRef(%q) = %q, %q, %v", tt.in, p, r, ok)
		}
	}
}

func TestResolver_ResolveValue(t *testing.T) {
	t.Setenv("TC_SUFFIX", "beta")
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{
		"alpha": "one",
		"beta":  "two",
	}})

	tests := []struct {
		in   string
		want string
	}{
		{"secretref:stub:alpha", "one"},
		{"key=secretref:stub:alpha", "key=one"},
		{"secretref:stub:${TC_SUFFIX}", "two"},
		{"literal", "literal"},
	}
	for _, tt := range tests {
		got, err := r.ResolveValue(context.Background(), tt.in)
		if err != nil {
			t.Fatalf("ResolveValue(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ResolveValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolver_Errors(t *testing.T) {
	boom := errors.New("explode")
	r := NewResolver(true, &stubProvider{name: "stub", resolve: func(ref string) (string, error) {
		switch ref {
		case "boom":
			return "", boom
		case "empty":
			return "", nil
		}
		return "ok", nil
	}})
	ctx := context.Background()

	if _, err := r.ResolveValue(ctx, "secretref:stub:boom"); !errors.Is(err, boom) {
		t.Errorf("provider error not propagated: %v", err)
	}
	if _, err := r.ResolveValue(ctx, "secretref:stub:empty"); err == nil {
		t.Error("strict resolver accepted empty value")
	}
	if _, err := r.ResolveValue(ctx, "secretref:vault:x"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestResolver_Close(t *testing.T) {
	p := &stubProvider{name: "stub"}
	if err := NewResolver(false, p).Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !p.closed {
		t.Error("provider not closed")
	}
}

func TestDefaultResolver_EnvAndFile(t *testing.T) {
	t.Setenv("TC_SECURE_KEY", "from-env")
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.key")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := NewDefaultResolver()
	if err != nil {
		t.Fatalf("NewDefaultResolver() error = %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	if got, err := r.ResolveValue(ctx, "secretref:env:TC_SECURE_KEY"); err != nil || got != "from-env" {
		t.Errorf("env: got %q, %v", got, err)
	}
	if got, err := r.ResolveValue(ctx, "secretref:file:"+path); err != nil || got != "from-file" {
		t.Errorf("file: got %q, %v", got, err)
	}
	if _, err := r.ResolveValue(ctx, "secretref:env:TC_NOT_SET_ANYWHERE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.ResolveValue(ctx, "secretref:file:"+filepath.Join(dir, "absent")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
