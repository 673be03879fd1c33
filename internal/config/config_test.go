package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if !cfg.AllowAutoCreateNamespaces {
		t.Fatalf("default allow auto create should be true")
	}
	if cfg.DefaultNamespaceName != "default" {
		t.Fatalf("default ns name")
	}
	if cfg.NamespaceDefaults.Partitions != 16 {
		t.Fatalf("partitions default")
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "behovsakkumulator.json")
	data := []byte(`{"allowAutoCreateNamespaces":false,"defaultNamespaceName":"prod","namespaceDefaults":{"partitions":32,"payloadMaxBytes":2048,"headersMaxBytes":1024}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AllowAutoCreateNamespaces {
		t.Fatalf("expected false")
	}
	if cfg.DefaultNamespaceName != "prod" {
		t.Fatalf("expected prod")
	}
	if cfg.NamespaceDefaults.Partitions != 32 {
		t.Fatalf("expected 32")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	os.Setenv("BEHOV_ALLOW_AUTO_CREATE_NAMESPACES", "false")
	os.Setenv("BEHOV_DEFAULT_NAMESPACE_NAME", "staging")
	os.Setenv("BEHOV_NAMESPACE_DEFAULTS_PARTITIONS", "24")
	t.Cleanup(func() {
		os.Unsetenv("BEHOV_ALLOW_AUTO_CREATE_NAMESPACES")
		os.Unsetenv("BEHOV_DEFAULT_NAMESPACE_NAME")
		os.Unsetenv("BEHOV_NAMESPACE_DEFAULTS_PARTITIONS")
	})
	FromEnv(&cfg)
	if cfg.AllowAutoCreateNamespaces {
		t.Fatalf("env override bool")
	}
	if cfg.DefaultNamespaceName != "staging" {
		t.Fatalf("env override name")
	}
	if cfg.NamespaceDefaults.Partitions != 24 {
		t.Fatalf("env override partitions")
	}
}

func TestFromEnvDomainFields(t *testing.T) {
	cfg := Default()
	os.Setenv("BEHOV_KAFKA_BOOTSTRAP_SERVERS", "broker-1:9092, broker-2:9092")
	os.Setenv("BEHOV_SPLEIS_BEHOVTOPIC", "spleis.behov.v1")
	os.Setenv("BEHOV_SERVICE_USER_USERNAME", "svc-behovsakkumulator")
	os.Setenv("BEHOV_SERVICE_USER_PASSWORD", "secret")
	os.Setenv("BEHOV_STATE_DIR", "/data/state")
	os.Setenv("BEHOV_COMMIT_INTERVAL_MS", "250")
	t.Cleanup(func() {
		os.Unsetenv("BEHOV_KAFKA_BOOTSTRAP_SERVERS")
		os.Unsetenv("BEHOV_SPLEIS_BEHOVTOPIC")
		os.Unsetenv("BEHOV_SERVICE_USER_USERNAME")
		os.Unsetenv("BEHOV_SERVICE_USER_PASSWORD")
		os.Unsetenv("BEHOV_STATE_DIR")
		os.Unsetenv("BEHOV_COMMIT_INTERVAL_MS")
	})
	FromEnv(&cfg)
	if len(cfg.KafkaBootstrapServers) != 2 || cfg.KafkaBootstrapServers[0] != "broker-1:9092" {
		t.Fatalf("unexpected bootstrap servers: %v", cfg.KafkaBootstrapServers)
	}
	if cfg.SpleisBehovtopic != "spleis.behov.v1" {
		t.Fatalf("env override topic")
	}
	if cfg.ServiceUser.Username != "svc-behovsakkumulator" || cfg.ServiceUser.Password != "secret" {
		t.Fatalf("env override service user: %+v", cfg.ServiceUser)
	}
	if cfg.StateDir != "/data/state" {
		t.Fatalf("env override state dir")
	}
	if cfg.CommitIntervalMs != 250 {
		t.Fatalf("env override commit interval")
	}
}
