package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	defaultNetwork   = "hardhat"
	defaultAlgorithm = "fastest"
	defaultCurrency  = "USD"
	defaultInterval  = 1

	configFile      = "config.json"
	accountsFile    = "accounts.json"
	deploymentsFile = "deployments.json"
	dbDir           = "db"
	keysDir         = "keys"
)

// Load reads config from dir (or creates defaults) and applies the
// environment overlay. dir defaults to ~/.fundme.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".fundme")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}

	if err := env.Parse(&cfg.Env); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// Save writes config.json. The environment overlay is not saved.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.configDir, configFile), c)
}

// Network returns the active network: FUNDME_NETWORK, then default_network.
func (c *Config) Network() string {
	if c.Env.Network != "" {
		return strings.ToLower(c.Env.Network)
	}
	return c.DefaultNetwork
}

// AddRPC adds a custom RPC URL for a network.
func (c *Config) AddRPC(network, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[network], url) {
		return fmt.Errorf("RPC %s already exists for network %s", url, network)
	}
	c.CustomRPCs[network] = append(c.CustomRPCs[network], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a network.
func (c *Config) RemoveRPC(network, url string) error {
	rpcs := c.CustomRPCs[network]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for network %s", url, network)
	}
	c.CustomRPCs[network] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// GetRPCs returns custom RPCs for a network. SEPOLIA_URL comes first for
// sepolia.
func (c *Config) GetRPCs(network string) []string {
	var out []string
	if network == "sepolia" && c.Env.SepoliaURL != "" {
		out = append(out, c.Env.SepoliaURL)
	}
	return append(out, c.CustomRPCs[network]...)
}

// Dir returns the config directory.
func (c *Config) Dir() string { return c.configDir }

// AccountsPath is where account metadata is stored.
func (c *Config) AccountsPath() string { return filepath.Join(c.configDir, accountsFile) }

// DBPath is the LevelDB directory for campaign state.
func (c *Config) DBPath() string { return filepath.Join(c.configDir, dbDir) }

// KeysDir holds the keyring file backend.
func (c *Config) KeysDir() string { return filepath.Join(c.configDir, keysDir) }

// LoadDeployments reads deployments.json.
func (c *Config) LoadDeployments() (*DeploymentsFile, error) {
	df, err := loadJSON[DeploymentsFile](filepath.Join(c.configDir, deploymentsFile))
	if err != nil {
		return nil, err
	}
	if df.Deployments == nil {
		df.Deployments = make(map[string]Deployment)
	}
	if df.Nonces == nil {
		df.Nonces = make(map[string]uint64)
	}
	return df, nil
}

// SaveDeployments writes deployments.json.
func (c *Config) SaveDeployments(df *DeploymentsFile) error {
	return saveJSON(filepath.Join(c.configDir, deploymentsFile), df)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		DefaultNetwork: defaultNetwork,
		RPCAlgorithm:   defaultAlgorithm,
		PriceCurrency:  defaultCurrency,
		WatchInterval:  defaultInterval,
		CustomRPCs:     make(map[string][]string),
		configDir:      dir,
	}
}

func loadJSON[T any](path string) (*T, error) {
	var v T
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &v, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return &v, nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
