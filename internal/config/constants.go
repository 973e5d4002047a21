package config

import "time"

// Development oracle and deployment defaults.
const (
	Decimal       = 8
	InitialAnswer = 3000 * 100_000_000 // 3000 USD with 8 decimals
	LockTime      = 180                // seconds
	Confirmations = 5                  // block confirmations on public testnets
)

// Timeout constants used across cmd and the API server.
const (
	RPCSelectTimeout = 10 * time.Second // endpoint probing
	ShutdownTimeout  = 5 * time.Second  // HTTP server graceful stop
)

// Well-known keys of the first two accounts on a fresh hardhat or anvil
// node. Development networks seed firstAccount and secondAccount from them
// when PRIVATE_KEY and PRIVATE_KEY_2 are unset. Never fund these on a public
// network.
const (
	DevKey0 = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	DevKey1 = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
)
