package secret

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Resolver resolves secret references using registered providers.
//
// Values with the prefix "secretref:" are resolved via providers.
// Other values are returned after strict environment expansion.
type Resolver struct {
	providers map[string]Provider
	strict    bool
}

// NewResolver creates a resolver. In strict mode an empty resolved secret
// is an error.
func NewResolver(strict bool, providers ...Provider) *Resolver {
	r := &Resolver{
		providers: make(map[string]Provider),
		strict:    strict,
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// NewDefaultResolver creates a strict resolver holding every provider in
// DefaultRegistry, each built with a nil config.
func NewDefaultResolver() (*Resolver, error) {
	r := NewResolver(true)
	for _, name := range DefaultRegistry.List() {
		p, err := DefaultRegistry.Create(name, nil)
		if err != nil {
			return nil, fmt.Errorf("create secret provider %q: %w", name, err)
		}
		r.Register(p)
	}
	return r, nil
}

// Register registers a provider with the resolver.
func (r *Resolver) Register(provider Provider) {
	if r == nil || provider == nil {
		return
	}
	if r.providers == nil {
		r.providers = make(map[string]Provider)
	}
	r.providers[provider.Name()] = provider
}

// Close closes every registered provider.
func (r *Resolver) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, p := range r.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ResolveValue resolves environment variables and secret refs in value.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}
	if r == nil {
		return expanded, nil
	}

	if providerName, ref, ok := ParseSecretRef(expanded); ok {
		return r.resolveSingle(ctx, providerName, ref)
	}
	return r.resolveInline(ctx, expanded)
}

// ParseSecretRef parses a full secret reference of the form:
//
//	secretref:<provider>:<ref>
func ParseSecretRef(value string) (provider string, ref string, ok bool) {
	const prefix = "secretref:"
	if !strings.HasPrefix(value, prefix) {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(value, prefix), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func (r *Resolver) resolveSingle(ctx context.Context, providerName string, ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", errors.New("secret ref is required")
	}
	provider, ok := r.providers[providerName]
	if !ok || provider == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, providerName)
	}
	resolved, err := provider.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if r.strict && resolved == "" {
		return "", fmt.Errorf("secret provider %q returned empty value", providerName)
	}
	return resolved, nil
}

var inlineSecretRefPattern = regexp.MustCompile(`secretref:([^:\s]+):([^\s]+)`)

func (r *Resolver) resolveInline(ctx context.Context, value string) (string, error) {
	matches := inlineSecretRefPattern.FindAllStringSubmatchIndex(value, -1)
	if len(matches) == 0 {
		return value, nil
	}

	out := value
	// Replace from the end so earlier indexes stay valid.
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		resolved, err := r.resolveSingle(ctx, out[m[2]:m[3]], out[m[4]:m[5]])
		if err != nil {
			return "", err
		}
		out = out[:m[0]] + resolved + out[m[1]:]
	}
	return out, nil
}
