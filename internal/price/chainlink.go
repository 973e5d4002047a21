package price

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// AggregatorV3ABI is the subset of AggregatorV3Interface the feed reader uses.
const AggregatorV3ABI = `[
  {"name":"decimals","type":"function","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"uint8"}]},
  {"name":"description","type":"function","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"string"}]},
  {"name":"latestRoundData","type":"function","stateMutability":"view","inputs":[],
   "outputs":[
     {"name":"roundId","type":"uint80"},
     {"name":"answer","type":"int256"},
     {"name":"startedAt","type":"uint256"},
     {"name":"updatedAt","type":"uint256"},
     {"name":"answeredInRound","type":"uint80"}]}
]`

var aggregatorABI = mustParseABI(AggregatorV3ABI)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("price: bad aggregator ABI: %v", err))
	}
	return parsed
}

// contractCaller is the slice of chain.EVMClient the reader needs.
type contractCaller interface {
	CallContract(toAddr, calldata string) (string, error)
}

// ChainlinkAggregator reads a deployed AggregatorV3 over JSON-RPC.
type ChainlinkAggregator struct {
	client  contractCaller
	address common.Address
}

// NewChainlinkAggregator reads the feed at address through rpcURL.
func NewChainlinkAggregator(rpcURL string, address common.Address) *ChainlinkAggregator {
	return &ChainlinkAggregator{client: chain.NewEVMClient(rpcURL), address: address}
}

// Address returns the feed contract address.
func (a *ChainlinkAggregator) Address() common.Address { return a.address }

// Decimals calls decimals().
func (a *ChainlinkAggregator) Decimals() (uint8, error) {
	out, err := a.call("decimals")
	if err != nil {
		return 0, err
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected type %T", out[0])
	}
	return d, nil
}

// Description calls description().
func (a *ChainlinkAggregator) Description() (string, error) {
	out, err := a.call("description")
	if err != nil {
		return "", err
	}
	s, _ := out[0].(string)
	return s, nil
}

// LatestRoundData calls latestRoundData().
func (a *ChainlinkAggregator) LatestRoundData() (*RoundData, error) {
	out, err := a.call("latestRoundData")
	if err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("latestRoundData: expected 5 values, got %d", len(out))
	}
	vals := make([]*big.Int, 5)
	for i, v := range out {
		n, ok := v.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("latestRoundData: value %d has type %T", i, v)
		}
		vals[i] = n
	}
	return &RoundData{
		RoundID:         vals[0],
		Answer:          vals[1],
		StartedAt:       time.Unix(vals[2].Int64(), 0),
		UpdatedAt:       time.Unix(vals[3].Int64(), 0),
		AnsweredInRound: vals[4],
	}, nil
}

func (a *ChainlinkAggregator) call(method string) ([]interface{}, error) {
	data, err := aggregatorABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	res, err := a.client.CallContract(a.address.Hex(), hexutil.Encode(data))
	if err != nil {
		return nil, fmt.Errorf("calling %s on %s: %w", method, a.address.Hex(), err)
	}
	raw, err := hexutil.Decode(res)
	if err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", method, err)
	}
	out, err := aggregatorABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s: %w", method, err)
	}
	return out, nil
}
