package config

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config holds all fundme configuration: the persisted config.json plus the
// environment overlay.
type Config struct {
	DefaultNetwork string              `json:"default_network"`
	DefaultAccount string              `json:"default_account"`
	RPCAlgorithm   string              `json:"rpc_algorithm"`   // "fastest" | "failover"
	PriceCurrency  string              `json:"price_currency"`
	WatchInterval  int                 `json:"watch_interval"`  // seconds
	CustomRPCs     map[string][]string `json:"custom_rpcs"`

	// Env is read from the process environment on every Load and never saved.
	Env Env `json:"-"`

	// internal: config dir path used for Save()
	configDir string
}

// Deployment records one campaign deployment.
type Deployment struct {
	Network    string         `json:"network"`
	Address    common.Address `json:"address"`
	Owner      common.Address `json:"owner"`
	PriceFeed  common.Address `json:"price_feed"`
	MockFeed   bool           `json:"mock_feed"`
	Nonce      uint64         `json:"nonce"`
	LockTime   uint64         `json:"lock_time"`
	DeployedAt time.Time      `json:"deployed_at"`
}

// DeploymentsFile is the structure of deployments.json.
type DeploymentsFile struct {
	Deployments map[string]Deployment `json:"deployments"`
	// Nonces counts deployments per network and deployer address.
	Nonces map[string]uint64 `json:"nonces"`
}
