package config

import (
	"strings"
	"testing"
)

func TestLookup_Exists(t *testing.T) {
	spec := Lookup("api-url")
	if spec == nil {
		t.Fatal("expected to find key 'api-url', got nil")
	}
	if spec.Name != "api-url" {
		t.Errorf("expected Name %q, got %q", "api-url", spec.Name)
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	spec := Lookup("  API-URL ")
	if spec == nil {
		t.Fatal("expected case-insensitive lookup to succeed")
	}
	if spec.Name != "api-url" {
		t.Errorf("expected Name %q, got %q", "api-url", spec.Name)
	}
}

func TestLookup_NotFound(t *testing.T) {
	spec := Lookup("nonexistent-key")
	if spec != nil {
		t.Errorf("expected nil for unknown key, got %+v", spec)
	}
}

func TestKeys_AllHaveGetAndSet(t *testing.T) {
	for _, k := range Keys {
		if k.Get == nil {
			t.Errorf("key %q has nil Get function", k.Name)
		}
		if k.Set == nil {
			t.Errorf("key %q has nil Set function", k.Name)
		}
		if k.Description == "" {
			t.Errorf("key %q has empty Description", k.Name)
		}
	}
}

func TestKeys_GetSetRoundtrip(t *testing.T) {
	// Concurrency is numeric; the rest are strings.
	values := map[string]string{
		"api-url":         "https://console.example.com",
		"default-timeout": "45s",
		"concurrency":     "8",
	}

	for _, k := range Keys {
		value, ok := values[k.Name]
		if !ok {
			t.Fatalf("no test value registered for key %q", k.Name)
		}
		cfg := &Config{}
		k.Set(cfg, value)
		if got := k.Get(cfg); got != value {
			t.Errorf("key %q: Set then Get = %q, want %q", k.Name, got, value)
		}
	}
}

func TestConcurrencyKey_BadValueFallsBack(t *testing.T) {
	spec := Lookup("concurrency")
	if spec == nil {
		t.Fatal("expected concurrency key")
	}

	cfg := &Config{}
	spec.Set(cfg, "lots")
	if cfg.Concurrency != 0 {
		t.Errorf("expected bad value to fall back to 0, got %d", cfg.Concurrency)
	}
	if got := spec.Get(cfg); got != "" {
		t.Errorf("expected empty display for unset concurrency, got %q", got)
	}
}

func TestKeyNames(t *testing.T) {
	names := KeyNames()
	if len(names) != len(Keys) {
		t.Fatalf("expected %d names, got %d", len(Keys), len(names))
	}
	for i, name := range names {
		if name != Keys[i].Name {
			t.Errorf("index %d: expected %q, got %q", i, Keys[i].Name, name)
		}
	}
}

func TestKeysHelp_ContainsAllKeys(t *testing.T) {
	help := KeysHelp()
	if !strings.Contains(help, "Available keys:") {
		t.Error("expected 'Available keys:' header in help output")
	}
	for _, k := range Keys {
		if !strings.Contains(help, k.Name) {
			t.Errorf("expected key %q in help output", k.Name)
		}
		if !strings.Contains(help, k.Description) {
			t.Errorf("expected description %q in help output", k.Description)
		}
	}
}
