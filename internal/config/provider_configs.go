package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"glot-server/internal/domain/provider"
	"glot-server/internal/infrastructure/logger"
)

const DefaultProviderConfigFile = "config/providers.yml"

type providerConfigDocument struct {
	Providers []provider.Config `yaml:"providers"`
}

// LoadProviderConfigs parses the YAML file at path into provider configs,
// skipping entries that are not dispatchable.
func LoadProviderConfigs(path string) ([]provider.Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("provider config path is empty")
	}

	log := logger.GetLogger()
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read provider config %q: %w", cleanPath, err)
	}
	log.Info().Str("path", cleanPath).Msg("loading provider config file")

	// Tokens and secrets are referenced as ${VAR} in the file.
	data = []byte(os.ExpandEnv(string(data)))

	var doc providerConfigDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse provider config %q: %w", cleanPath, err)
	}

	result := make([]provider.Config, 0, len(doc.Providers))
	for _, entry := range doc.Providers {
		if !entry.IsAvailable() {
			log.Warn().Str("provider", entry.ID).Msg("skipping provider with missing id or api_url")
			continue
		}
		if entry.Category == "" {
			entry.Category = provider.CategoryCloud
		}
		result = append(result, entry)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("provider config %q defines no usable providers", cleanPath)
	}
	return result, nil
}
