package e2e_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary before all E2E tests.
	tmp, err := os.MkdirTemp("", "fundme-e2e-test")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "fundme")
	// Build from the module root (two levels up from test/e2e/).
	moduleRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		panic(err)
	}
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = moduleRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("build failed: " + string(out))
	}

	os.Exit(m.Run())
}

// cliEnv isolates a run from the caller's environment: fresh config dir,
// in-process network, no keys or Redis.
func cliEnv(configDir string) []string {
	var env []string
	for _, kv := range os.Environ() {
		switch strings.SplitN(kv, "=", 2)[0] {
		case "FUNDME_NETWORK", "PRIVATE_KEY", "PRIVATE_KEY_2", "REDIS_ADDR", "FUNDME_LOCK_TIME":
			continue
		}
		env = append(env, kv)
	}
	return append(env,
		"FUNDME_CONFIG_DIR="+configDir,
		"FUNDME_KEYRING_PASSWORD=e2e",
		"LOG_LEVEL=warn",
	)
}

func runCLI(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = cliEnv(configDir)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func mustRun(t *testing.T, configDir string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, configDir, args...)
	require.NoError(t, err, out)
	return out
}

func TestVersionFlag(t *testing.T) {
	out := mustRun(t, t.TempDir(), "--version")
	assert.Contains(t, out, "fundme")
	assert.Contains(t, out, "1.0.0")
}

func TestHelpCommand(t *testing.T) {
	out := strings.ToLower(mustRun(t, t.TempDir(), "--help"))
	for _, c := range []string{"deploy", "fund", "getfund", "refund", "transfer-ownership", "status", "events", "serve", "wallet"} {
		assert.Contains(t, out, c)
	}
	assert.Contains(t, out, "--network")
	assert.Contains(t, out, "--api")
}

func TestNetworkList(t *testing.T) {
	out := strings.ToLower(mustRun(t, t.TempDir(), "network", "list"))
	for _, n := range []string{"hardhat", "localhost", "sepolia"} {
		assert.Contains(t, out, n, "network list should contain %s", n)
	}
}

func TestNetworkUse(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "network", "use", "sepolia")
	assert.Contains(t, out, "sepolia")

	cfgOut := mustRun(t, dir, "config", "list")
	assert.Contains(t, cfgOut, `"default_network": "sepolia"`)
}

func TestNetworkUseUnknown(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "network", "use", "unknownchain99")
	assert.Error(t, err)
}

func TestWalletAddAndList(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "wallet", "add", "watcher", "0x1234567890abcdef1234567890abcdef12345678")

	out := mustRun(t, dir, "wallet", "list")
	assert.Contains(t, out, "watcher")
	assert.Contains(t, out, "0x1234")
	// Named accounts are always listed on development networks.
	assert.Contains(t, out, "firstAccount")
	assert.Contains(t, out, "secondAccount")
}

func TestWalletRemove(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "wallet", "add", "w1", "0x1234567890abcdef1234567890abcdef12345678")
	mustRun(t, dir, "wallet", "remove", "w1", "--yes")

	out := mustRun(t, dir, "wallet", "list")
	assert.NotContains(t, out, "w1")
}

func TestRPCAdd(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "rpc", "add", "sepolia", "https://custom.rpc.url")

	out := mustRun(t, dir, "rpc", "list", "sepolia")
	assert.Contains(t, out, "custom.rpc.url")
}

func TestRPCAlgorithmSet(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "rpc", "algorithm", "set", "failover")
	assert.Contains(t, mustRun(t, dir, "config", "list"), `"rpc_algorithm": "failover"`)

	_, err := runCLI(t, dir, "rpc", "algorithm", "set", "round-robin")
	assert.Error(t, err)
}

func TestConfigList(t *testing.T) {
	out := mustRun(t, t.TempDir(), "config", "list")
	assert.Contains(t, out, "default_network")
	assert.Contains(t, out, "rpc_algorithm")
	assert.Contains(t, out, "Lock time")
}

func TestUnknownCommandShowsError(t *testing.T) {
	out, _ := runCLI(t, t.TempDir(), "unknowncommand")
	assert.Contains(t, strings.ToLower(out), "unknown command")
}

func TestStatusBeforeDeploy(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "status")
	require.Error(t, err)
	assert.Contains(t, out, "fundme deploy")
}

func TestDeployTwiceNeedsReset(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "deploy")
	assert.Contains(t, out, "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	assert.Contains(t, out, "0x5FbDB2315678afecb367f032d93F642f64180aa3")

	out, err := runCLI(t, dir, "deploy")
	require.Error(t, err)
	assert.Contains(t, out, "already deployed")

	mustRun(t, dir, "deploy", "--reset")
}

func TestLifecycleTargetMet(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "deploy")

	// 1 ETH is 3000 USD at the mock price.
	out := mustRun(t, dir, "fund", "1", "--account", "secondAccount")
	assert.Contains(t, out, "Funded 1 ETH")

	out, err := runCLI(t, dir, "getfund")
	require.Error(t, err)
	assert.Contains(t, out, "window is not closed")

	mustRun(t, dir, "time", "increase", "200")
	assert.Contains(t, mustRun(t, dir, "status"), "closed")

	out, err = runCLI(t, dir, "getfund", "--account", "secondAccount")
	require.Error(t, err)
	assert.Contains(t, out, "not the owner")

	out = mustRun(t, dir, "getfund")
	assert.Contains(t, out, "Owner withdrew 1 ETH")

	out = mustRun(t, dir, "events")
	assert.Contains(t, out, "Funded")
	assert.Contains(t, out, "WithdrawnByOwner")
}

func TestLifecycleRefund(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "deploy")

	out, err := runCLI(t, dir, "fund", "0.0001")
	require.Error(t, err)
	assert.Contains(t, out, "insufficient amount")

	mustRun(t, dir, "interact")
	out = mustRun(t, dir, "contributions")
	assert.Contains(t, out, "0.0004")

	mustRun(t, dir, "time", "increase", "3m20s")
	out = mustRun(t, dir, "refund", "--account", "secondAccount")
	assert.Contains(t, out, "Refunded 0.0004 ETH")

	out, err = runCLI(t, dir, "refund", "--account", "secondAccount")
	require.Error(t, err)
	assert.Contains(t, out, "no contribution")
}

func TestTransferOwnership(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "deploy")
	out := mustRun(t, dir, "transfer-ownership", "secondAccount")
	assert.Contains(t, out, "Ownership moved")

	out = mustRun(t, dir, "status")
	assert.Contains(t, out, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
}
