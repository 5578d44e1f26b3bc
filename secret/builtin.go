package secret

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func init() {
	_ = DefaultRegistry.Register("env", func(map[string]any) (Provider, error) {
		return EnvProvider{}, nil
	})
	_ = DefaultRegistry.Register("file", func(cfg map[string]any) (Provider, error) {
		p := FileProvider{}
		if dir, ok := cfg["base_dir"].(string); ok {
			p.BaseDir = dir
		}
		return p, nil
	})
}

// EnvProvider resolves a reference as an environment variable name.
type EnvProvider struct{}

// Name returns "env".
func (EnvProvider) Name() string { return "env" }

// Resolve returns the value of the variable named ref.
func (EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("%w: env %s", ErrNotFound, ref)
	}
	return v, nil
}

// Close is a no-op.
func (EnvProvider) Close() error { return nil }

// FileProvider resolves a reference as a file path and returns the file's
// contents with surrounding whitespace trimmed. Relative paths are joined
// to BaseDir when it is set.
type FileProvider struct {
	BaseDir string
}

// Name returns "file".
func (FileProvider) Name() string { return "file" }

// Resolve reads the file at ref.
func (p FileProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := ref
	if p.BaseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(p.BaseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: file %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("secret: read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Close is a no-op.
func (FileProvider) Close() error { return nil }
