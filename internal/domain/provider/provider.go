// Package provider defines the provider configurations the fan-out client
// dispatches to.
package provider

import "strings"

// Category is the closed set of provider kinds. Capabilities derive from
// the category, never from runtime type inspection.
type Category string

const (
	CategoryCloud Category = "cloud"
	CategoryLocal Category = "local"
)

// Config describes one chat-completions endpoint the client may call.
// Configs are owned by the caller and passed by value per dispatch.
type Config struct {
	ID             string   `yaml:"id"`
	DisplayName    string   `yaml:"display_name"`
	APIURL         string   `yaml:"api_url"`
	Token          string   `yaml:"token"`
	AuthHeaderName string   `yaml:"auth_header_name"`
	Model          string   `yaml:"model"`
	Category       Category `yaml:"category"`
	// SigningSecret is set only for the built-in gateway provider; when
	// present the client signs each request with the shared HMAC secret.
	SigningSecret string `yaml:"signing_secret"`
}

// Capabilities reports what a provider supports, derived from its category.
type Capabilities struct {
	SupportsStreaming bool
	SupportsVision    bool
}

// Capabilities returns the capability set for this provider.
func (c Config) Capabilities() Capabilities {
	switch c.Category {
	case CategoryLocal:
		return Capabilities{SupportsStreaming: true, SupportsVision: false}
	default:
		return Capabilities{SupportsStreaming: true, SupportsVision: true}
	}
}

// IsAvailable reports whether the config carries enough information to be
// dispatched to.
func (c Config) IsAvailable() bool {
	return strings.TrimSpace(c.ID) != "" && strings.TrimSpace(c.APIURL) != ""
}

// AuthHeader returns the header name/value pair for this provider, using
// Authorization: Bearer when no custom header is configured. Providers
// without a token return an empty name.
func (c Config) AuthHeader() (name, value string) {
	if strings.TrimSpace(c.Token) == "" {
		return "", ""
	}
	header := strings.TrimSpace(c.AuthHeaderName)
	if header == "" || strings.EqualFold(header, "Authorization") {
		return "Authorization", "Bearer " + c.Token
	}
	return header, c.Token
}
