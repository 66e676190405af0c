package config

import (
	"os"
	"path/filepath"
	"testing"

	"glot-server/internal/domain/provider"
)

func writeProvidersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "providers.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write providers file: %v", err)
	}
	return path
}

func TestLoadProviderConfigs(t *testing.T) {
	t.Setenv("TEST_PROVIDER_TOKEN", "tok-123")

	path := writeProvidersFile(t, `
providers:
  - id: openai
    display_name: OpenAI
    api_url: https://api.openai.com/v1/chat/completions
    token: ${TEST_PROVIDER_TOKEN}
    model: gpt-4o-mini
  - id: broken
    display_name: Missing URL
`)

	providers, err := LoadProviderConfigs(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(providers) != 1 {
		t.Fatalf("expected undispatchable entry to be skipped, got %d providers", len(providers))
	}
	if providers[0].Token != "tok-123" {
		t.Fatalf("env reference not expanded: %q", providers[0].Token)
	}
	if providers[0].Category != provider.CategoryCloud {
		t.Fatalf("missing category not defaulted: %q", providers[0].Category)
	}
}

func TestLoadProviderConfigsEmptyFile(t *testing.T) {
	path := writeProvidersFile(t, "providers: []\n")
	if _, err := LoadProviderConfigs(path); err == nil {
		t.Fatalf("expected error for empty provider list")
	}
}

func TestLoadProviderConfigsMissingFile(t *testing.T) {
	if _, err := LoadProviderConfigs(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
