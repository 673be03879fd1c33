package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	AllowAutoCreateNamespaces bool              `json:"allowAutoCreateNamespaces"`
	DefaultNamespaceName      string            `json:"defaultNamespaceName"`
	NamespaceNameRegex        string            `json:"namespaceNameRegex"`
	NamespaceDefaults         NamespaceDefaults `json:"namespaceDefaults"`
	MaxNamespaces             int               `json:"maxNamespaces"`
	AllowedNamespaces         []string          `json:"allowedNamespaces"`

	// KafkaBootstrapServers and ServiceUser describe the bus endpoint and
	// credentials a real Kafka/Aiven client would use to reach the shared
	// behov/løsning topic (spec.md §6). This process drives that topic
	// through the embedded internal/eventlog log instead, behind the
	// bus.Adapter seam, but these fields are accepted, loaded, and logged
	// at startup so the shape of the spec's configuration is visible.
	KafkaBootstrapServers []string    `json:"kafkaBootstrapServers"`
	SpleisBehovtopic      string      `json:"spleisBehovtopic"`
	ServiceUser           ServiceUser `json:"serviceUser"`

	// StateDir names a local path for the state store's on-disk section. It
	// is loaded from file/env but not read by this process: the state
	// store's changelog lives in the runtime's Pebble database under the
	// data directory, alongside the topic log.
	StateDir string `json:"stateDir"`

	// CommitIntervalMs is loaded from file/env but not read by this process:
	// the accumulator commits each record's offset right after its state
	// write becomes durable.
	CommitIntervalMs int `json:"commitIntervalMs"`
}

// ServiceUser carries the credentials a bus client would authenticate
// with. behovsakkumulator never performs auth itself (spec.md Non-goals).
type ServiceUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// NamespaceDefaults captures per-namespace baseline limits.
type NamespaceDefaults struct {
	Partitions      int `json:"partitions"`
	PayloadMaxBytes int `json:"payloadMaxBytes"`
	HeadersMaxBytes int `json:"headersMaxBytes"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		AllowAutoCreateNamespaces: true,
		DefaultNamespaceName:      "default",
		NamespaceNameRegex:        "[a-z0-9-_]{1,64}",
		NamespaceDefaults: NamespaceDefaults{
			Partitions:      16,
			PayloadMaxBytes: 1 << 20,
			HeadersMaxBytes: 16 << 10,
		},
		SpleisBehovtopic: "behov",
		StateDir:         "state",
		CommitIntervalMs: 1000,
	}
}

// Load reads configuration from a JSON file. A .yaml/.yml path returns an
// error; any other extension is parsed as JSON. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	ext := filepath.Ext(path)
	switch ext {
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	case ".yaml", ".yml":
		// YAML is not parsed: there is no YAML decoder in this package.
		// If YAML is needed now, prefer adding gopkg.in/yaml.v3; for MVP we accept JSON-only.
		return Config{}, errors.New("yaml config not supported yet; use JSON for now")
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
