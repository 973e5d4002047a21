package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

// EVMClient is a minimal JSON-RPC client for EVM chains.
type EVMClient struct {
	url    string
	client *http.Client
}

// NewEVMClient creates a new EVM JSON-RPC client pointed at url.
func NewEVMClient(url string) *EVMClient {
	return &EVMClient{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// URL returns the endpoint the client talks to.
func (c *EVMClient) URL() string { return c.url }

// GetBalance returns the native balance in wei for an address.
func (c *EVMClient) GetBalance(address string) (*big.Int, error) {
	return c.callBig("eth_getBalance", "balance", address, "latest")
}

// GetBlockNumber returns the latest block number.
func (c *EVMClient) GetBlockNumber() (uint64, error) {
	n, err := c.callBig("eth_blockNumber", "block number")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// ChainID returns the chain's ID.
func (c *EVMClient) ChainID() (int64, error) {
	n, err := c.callBig("eth_chainId", "chain id")
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}

// CallContract calls a smart contract read function with the given calldata.
func (c *EVMClient) CallContract(toAddr, calldata string) (string, error) {
	result, err := c.call("eth_call", map[string]string{
		"to":   toAddr,
		"data": calldata,
	}, "latest")
	if err != nil {
		return "", err
	}
	s, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result: %T", result)
	}
	return s, nil
}

// Ping tests the RPC endpoint and returns latency + block number.
func (c *EVMClient) Ping(ctx context.Context) (latency time.Duration, blockNum uint64, err error) {
	start := time.Now()
	result, err := c.callCtx(ctx, "eth_blockNumber")
	latency = time.Since(start)
	if err != nil {
		return latency, 0, err
	}
	hexStr, ok := result.(string)
	if !ok {
		return latency, 0, fmt.Errorf("unexpected result: %T", result)
	}
	n, ok := parseBigHex(hexStr)
	if !ok {
		return latency, 0, fmt.Errorf("could not parse block number")
	}
	return latency, n.Uint64(), nil
}

// --- internal JSON-RPC plumbing ---

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *EVMClient) callBig(method, what string, params ...interface{}) (*big.Int, error) {
	result, err := c.call(method, params...)
	if err != nil {
		return nil, err
	}
	hexStr, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected result: %T", result)
	}
	n, ok := parseBigHex(hexStr)
	if !ok {
		return nil, fmt.Errorf("could not parse %s: %s", what, hexStr)
	}
	return n, nil
}

func (c *EVMClient) call(method string, params ...interface{}) (interface{}, error) {
	return c.callCtx(context.Background(), method, params...)
}

func (c *EVMClient) callCtx(ctx context.Context, method string, params ...interface{}) (interface{}, error) {
	if params == nil {
		params = []interface{}{}
	}
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var result interface{}
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, fmt.Errorf("parsing result: %w", err)
	}

	return result, nil
}

func parseBigHex(s string) (*big.Int, bool) {
	return new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
}
