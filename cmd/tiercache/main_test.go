package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonwraymond/tiercache/cache"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// writeConfig writes a config file pointing at a fresh database and returns
// its path. extra is appended verbatim.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tiercache.yaml")
	content := fmt.Sprintf("store:\n  path: %s\n  secure_key: %s\n%s",
		filepath.Join(dir, "data", "cache.db"), testKeyHex, extra)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLI_WriteRead(t *testing.T) {
	cfg := writeConfig(t, "")

	for _, tier := range []string{"standard", "secure"} {
		t.Run(tier, func(t *testing.T) {
			var flags []string
			if tier == "secure" {
				flags = []string{"--secure"}
			}
			key := "stats:" + tier

			args := append([]string{"-c", cfg, "write", key, `{"pts":21.4}`, "--category", "player-stats"}, flags...)
			if code, _, stderr := runCLI(t, "", args...); code != exitOK {
				t.Fatalf("write exit = %d, stderr = %s", code, stderr)
			}

			args = append([]string{"-c", cfg, "read", key}, flags...)
			code, stdout, stderr := runCLI(t, "", args...)
			if code != exitOK {
				t.Fatalf("read exit = %d, stderr = %s", code, stderr)
			}
			if stdout != "{\"pts\":21.4}\n" {
				t.Fatalf("read stdout = %q", stdout)
			}
		})
	}

	// Tiers are separate namespaces.
	if code, _, _ := runCLI(t, "", "-c", cfg, "read", "stats:secure"); code != exitMiss {
		t.Fatalf("standard read of secure key exit = %d, want %d", code, exitMiss)
	}
}

func TestCLI_WriteFromStdin(t *testing.T) {
	cfg := writeConfig(t, "")

	if code, _, stderr := runCLI(t, "sunny\n", "-c", cfg, "write", "weather:nyc", "--category", "weather"); code != exitOK {
		t.Fatalf("write exit = %d, stderr = %s", code, stderr)
	}
	_, stdout, _ := runCLI(t, "", "-c", cfg, "read", "weather:nyc")
	if stdout != "sunny\n\n" {
		t.Fatalf("read stdout = %q, want value with its newline kept", stdout)
	}

	if code, _, stderr := runCLI(t, "no newline", "-c", cfg, "write", "weather:sf", "-", "--category", "weather"); code != exitOK {
		t.Fatalf("write exit = %d, stderr = %s", code, stderr)
	}
	_, stdout, _ = runCLI(t, "", "-c", cfg, "read", "weather:sf")
	if stdout != "no newline\n" {
		t.Fatalf("read stdout = %q", stdout)
	}
}

func TestCLI_ReadMiss(t *testing.T) {
	cfg := writeConfig(t, "")

	code, stdout, stderr := runCLI(t, "", "-c", cfg, "read", "nothing")
	if code != exitMiss {
		t.Fatalf("exit = %d, want %d", code, exitMiss)
	}
	if stdout != "" || stderr != "" {
		t.Fatalf("miss printed stdout=%q stderr=%q", stdout, stderr)
	}
}

func TestCLI_CacheFull(t *testing.T) {
	cfg := writeConfig(t, "cache:\n  max_size_bytes: 64\n")

	code, _, stderr := runCLI(t, "", "-c", cfg, "write", "video:1", strings.Repeat("x", 100), "--category", "video-content")
	if code != exitFull {
		t.Fatalf("exit = %d, want %d (stderr %s)", code, exitFull, stderr)
	}
	if !strings.Contains(stderr, "size budget exceeded") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestCLI_RemoveAndClear(t *testing.T) {
	cfg := writeConfig(t, "")

	runCLI(t, "", "-c", cfg, "write", "a", "1", "--category", "weather")
	runCLI(t, "", "-c", cfg, "write", "b", "2", "--category", "weather", "--secure")

	if code, _, _ := runCLI(t, "", "-c", cfg, "remove", "a"); code != exitOK {
		t.Fatalf("remove exit = %d", code)
	}
	if code, _, _ := runCLI(t, "", "-c", cfg, "read", "a"); code != exitMiss {
		t.Fatalf("read after remove exit = %d", code)
	}

	if code, _, _ := runCLI(t, "", "-c", cfg, "clear"); code != exitError {
		t.Fatalf("clear without --yes exit = %d, want %d", code, exitError)
	}
	if code, _, _ := runCLI(t, "", "-c", cfg, "read", "b", "--secure"); code != exitOK {
		t.Fatalf("unconfirmed clear removed entries")
	}
	if code, _, _ := runCLI(t, "", "-c", cfg, "clear", "--yes"); code != exitOK {
		t.Fatalf("clear exit = %d", code)
	}
	if code, _, _ := runCLI(t, "", "-c", cfg, "read", "b", "--secure"); code != exitMiss {
		t.Fatalf("read after clear exit = %d", code)
	}
}

func TestCLI_StatsSweepHealth(t *testing.T) {
	cfg := writeConfig(t, "")
	runCLI(t, "", "-c", cfg, "write", "a", "1", "--category", "weather")

	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"stats"}, []string{"size_bytes:", "max_bytes: 52428800"}},
		{[]string{"sweep"}, []string{"scanned: 1", "expired: 0"}},
		{[]string{"health"}, []string{"sqlite", "budget", "overall"}},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "", append([]string{"-c", cfg}, tt.args...)...)
			if code != exitOK {
				t.Fatalf("exit = %d, stderr = %s", code, stderr)
			}
			for _, w := range tt.want {
				if !strings.Contains(stdout, w) {
					t.Errorf("stdout missing %q:\n%s", w, stdout)
				}
			}
		})
	}
}

func TestCLI_HealthUnhealthy(t *testing.T) {
	cfg := writeConfig(t, "cache:\n  max_size_bytes: 51\n")
	if code, _, stderr := runCLI(t, "", "-c", cfg, "write", "k", "v", "--category", "weather"); code != exitOK {
		t.Fatalf("write exit = %d, stderr = %s", code, stderr)
	}

	code, stdout, _ := runCLI(t, "", "-c", cfg, "health")
	if code != exitError {
		t.Fatalf("exit = %d, want %d\n%s", code, exitError, stdout)
	}
	if !strings.Contains(stdout, "unhealthy") {
		t.Fatalf("stdout = %q", stdout)
	}
}

func TestCLI_ConfigErrors(t *testing.T) {
	t.Run("missing secure key", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tiercache.yaml")
		content := fmt.Sprintf("store:\n  path: %s\n  secure_key: secretref:env:TIERCACHE_TEST_MISSING\n", filepath.Join(dir, "cache.db"))
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		code, _, stderr := runCLI(t, "", "-c", path, "read", "k")
		if code != exitError || !strings.Contains(stderr, "secure_key") {
			t.Fatalf("exit = %d, stderr = %q", code, stderr)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		code, _, _ := runCLI(t, "", "-c", filepath.Join(t.TempDir(), "nope.yaml"), "stats")
		if code != exitError {
			t.Fatalf("exit = %d", code)
		}
	})

	t.Run("missing category", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", "-c", writeConfig(t, ""), "write", "k", "v")
		if code != exitError || !strings.Contains(stderr, "category") {
			t.Fatalf("exit = %d, stderr = %q", code, stderr)
		}
	})
}

func TestCLI_Version(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "version")
	if code != exitOK || !strings.Contains(stdout, "tiercache version: dev") {
		t.Fatalf("exit = %d, stdout = %q", code, stdout)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{errMiss, exitMiss},
		{fmt.Errorf("write: %w", cache.ErrCacheFull), exitFull},
		{cache.ErrCacheError, exitError},
		{errors.New("boom"), exitError},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
