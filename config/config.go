package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chainforge/crypto"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

// Config is a witness node's TOML-file configuration: where its state and
// block log live, how its witness signing key is provisioned, and how it
// exposes RPC and metrics. Peer discovery and gossip are out of scope
// (spec.md's Non-goals) so no networking fields live here.
type Config struct {
	RPCAddress      string `toml:"RPCAddress"`
	MetricsAddress  string `toml:"MetricsAddress"`
	DataDir         string `toml:"DataDir"`
	GenesisFile     string `toml:"GenesisFile"`
	WitnessName     string `toml:"WitnessName"`
	NetworkName     string `toml:"NetworkName"`
	NodeID          string `toml:"NodeID"` // persistent per-installation identifier, stamped on telemetry

	ValidatorKeystorePath string `toml:"ValidatorKeystorePath"`
	ValidatorKMSURI       string `toml:"ValidatorKMSURI"`
	ValidatorKMSEnv       string `toml:"ValidatorKMSEnv"`

	OtelEndpoint string `toml:"OtelEndpoint"`
	Environment  string `toml:"Environment"`
}

// Load reads the configuration at path, generating a default file (with a
// freshly minted witness keystore) if none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	for _, undecoded := range meta.Undecoded() {
		if len(undecoded) == 1 && undecoded[0] == "ValidatorKey" {
			return nil, fmt.Errorf("config file %s uses deprecated ValidatorKey field; migrate to ValidatorKeystorePath", path)
		}
	}

	if cfg.ValidatorKMSURI == "" && cfg.ValidatorKMSEnv == "" {
		if err := ensureKeystore(path, cfg); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "chainforge-local"
	}
	if strings.TrimSpace(cfg.NodeID) == "" {
		cfg.NodeID = uuid.NewString()
		if err := persist(path, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func ensureKeystore(configPath string, cfg *Config) error {
	keystorePath := cfg.ValidatorKeystorePath
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}

	if _, err := os.Stat(keystorePath); os.IsNotExist(err) {
		key, genErr := crypto.GeneratePrivateKey()
		if genErr != nil {
			return genErr
		}
		if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if cfg.ValidatorKeystorePath != keystorePath {
		cfg.ValidatorKeystorePath = keystorePath
		return persist(configPath, cfg)
	}
	return nil
}

func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	keystorePath := defaultKeystorePath(path)
	if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:            ":8080",
		MetricsAddress:        ":9090",
		DataDir:               "./chainforge-data",
		NetworkName:           "chainforge-local",
		NodeID:                uuid.NewString(),
		ValidatorKeystorePath: keystorePath,
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "witness.keystore")
}
