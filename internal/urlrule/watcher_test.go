package urlrule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func writeRules(t *testing.T, path string, configs []RuleConfig) {
	t.Helper()
	data, err := yaml.Marshal(configs)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func readRules(path string) ([]RuleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var configs []RuleConfig
	if err := yaml.Unmarshal(data, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	writeRules(t, path, []RuleConfig{
		{Prefix: "https://a.test/", ConvertTo: []string{"link"}},
	})

	compile := func() (*CompiledRules, error) {
		configs, err := readRules(path)
		if err != nil {
			return nil, err
		}
		return Compile(configs, nil)
	}

	initial, err := compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	rules := NewRules(initial)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	go Watch(ctx, path, rules, compile, logger)
	time.Sleep(100 * time.Millisecond) // let the watcher attach

	writeRules(t, path, []RuleConfig{
		{Prefix: "https://a.test/", ConvertTo: []string{"link"}},
		{Prefix: "https://b.test/", ConvertTo: []string{"embed"}},
	})

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		return rules.Load().Len() == 2
	}, "rules were not reloaded after config write")
}

func TestWatchKeepsOldRulesOnCompileError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	writeRules(t, path, []RuleConfig{
		{Prefix: "https://a.test/", ConvertTo: []string{"link"}},
	})

	broken := false
	compile := func() (*CompiledRules, error) {
		if broken {
			return nil, errors.New("boom")
		}
		configs, err := readRules(path)
		if err != nil {
			return nil, err
		}
		return Compile(configs, nil)
	}

	initial, err := compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	rules := NewRules(initial)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	go Watch(ctx, path, rules, compile, logger)
	time.Sleep(100 * time.Millisecond)

	broken = true
	writeRules(t, path, nil)

	// Give the debounce and reload a chance to run, then confirm the old
	// snapshot is still in effect.
	time.Sleep(600 * time.Millisecond)
	if rules.Load().Len() != 1 {
		t.Errorf("rules = %d, want the previous set kept", rules.Load().Len())
	}
}
