package chain

import (
	"errors"
	"sort"
	"strings"
)

// ErrNetworkNotFound is returned when a network is not in the registry.
var ErrNetworkNotFound = errors.New("network not found")

// Network holds deployment metadata for one target network.
type Network struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	ChainID     int64  `json:"chain_id"`
	// Development networks get a mock oracle and a movable clock.
	Development   bool     `json:"development"`
	RPCs          []string `json:"rpcs"`
	Explorer      string   `json:"explorer,omitempty"`
	EthUsdFeed    string   `json:"eth_usd_feed,omitempty"`
	Confirmations int      `json:"confirmations"`
}

// Registry is the network registry.
type Registry struct {
	networks []Network
	byName   map[string]*Network
}

// NewRegistry returns the registry of every supported network.
func NewRegistry() *Registry {
	nets := allNetworks()
	r := &Registry{
		networks: nets,
		byName:   make(map[string]*Network, len(nets)),
	}
	for i := range r.networks {
		n := &r.networks[i]
		r.byName[n.Name] = n
	}
	return r
}

// All returns every network sorted by name.
func (r *Registry) All() []Network {
	out := append([]Network(nil), r.networks...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetByName finds a network by its slug name (e.g. "sepolia").
func (r *Registry) GetByName(name string) (*Network, error) {
	n, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, ErrNetworkNotFound
	}
	return n, nil
}

// DevelopmentNames returns the names of development networks.
func (r *Registry) DevelopmentNames() []string {
	var out []string
	for _, n := range r.networks {
		if n.Development {
			out = append(out, n.Name)
		}
	}
	sort.Strings(out)
	return out
}

// Endpoints returns custom RPCs first, then the built-in ones, without
// duplicates.
func (n *Network) Endpoints(custom []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range append(append([]string(nil), custom...), n.RPCs...) {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// --- network data ---

func allNetworks() []Network {
	return []Network{
		{
			Name: "hardhat", DisplayName: "Hardhat (in-process)", ChainID: 31337,
			Development: true,
		},
		{
			Name: "localhost", DisplayName: "Local node", ChainID: 31337,
			Development: true,
			RPCs:        []string{"http://127.0.0.1:8545"},
		},
		{
			Name: "sepolia", DisplayName: "Sepolia", ChainID: 11155111,
			RPCs:          []string{"https://rpc.sepolia.org", "https://ethereum-sepolia-rpc.publicnode.com"},
			Explorer:      "https://sepolia.etherscan.io",
			EthUsdFeed:    "0x694AA1769357215DE4FAC081bf1f309aDC325306",
			Confirmations: 5,
		},
	}
}
