package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/fundme/internal/api"
	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/config"
	"github.com/Mohsinsiddi/fundme/internal/engine"
	"github.com/Mohsinsiddi/fundme/internal/events"
	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/Mohsinsiddi/fundme/internal/price"
	"github.com/Mohsinsiddi/fundme/internal/rpc"
	"github.com/Mohsinsiddi/fundme/internal/store"
	"github.com/Mohsinsiddi/fundme/internal/ui"
	"github.com/Mohsinsiddi/fundme/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// activeNetwork resolves --network, then FUNDME_NETWORK, then the default.
func activeNetwork() (*chain.Network, error) {
	name := networkFlag
	if name == "" {
		name = cfg.Network()
	}
	return lookupNetwork(name)
}

// accountBook resolves accounts from the persisted wallet first, then from
// the named accounts seeded for this network. Seeded accounts are never
// written to disk, so dev keys do not leak into sepolia runs.
type accountBook struct {
	saved *wallet.Manager
	named *wallet.Manager
}

// newWalletManager creates a Manager backed by the config-dir JSON store and
// the OS keychain.
func newWalletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.AccountsPath())),
		wallet.WithKeystore(wallet.DefaultKeystore(cfg.KeysDir())),
	)
}

func newAccountBook(n *chain.Network) (*accountBook, error) {
	named := wallet.NewManager(wallet.WithInMemoryStore())
	first, second := cfg.Env.SeedKeys(n.Development)
	if err := named.SeedNamed(first, second); err != nil {
		return nil, err
	}
	return &accountBook{saved: newWalletManager(), named: named}, nil
}

// resolve finds nameOrAddr, or the default account when it is empty. The
// returned manager holds the account's key.
func (b *accountBook) resolve(nameOrAddr string) (*wallet.Account, *wallet.Manager, error) {
	if nameOrAddr == "" {
		nameOrAddr = cfg.DefaultAccount
	}
	if nameOrAddr == "" {
		if a, err := b.saved.Default(); err == nil {
			return a, b.saved, nil
		}
		nameOrAddr = wallet.FirstAccount
	}
	if a, err := b.saved.Resolve(nameOrAddr); err == nil {
		return a, b.saved, nil
	}
	if a, err := b.named.Resolve(nameOrAddr); err == nil {
		return a, b.named, nil
	}
	return nil, nil, fmt.Errorf("%w: %s (add it with `fundme wallet add %s --key ...`, or set PRIVATE_KEY)",
		wallet.ErrAccountNotFound, nameOrAddr, nameOrAddr)
}

// signer resolves an account that can sign.
func (b *accountBook) signer(nameOrAddr string) (*wallet.Account, *wallet.Manager, error) {
	a, mgr, err := b.resolve(nameOrAddr)
	if err != nil {
		return nil, nil, err
	}
	if a.Type != wallet.TypeSigning {
		return nil, nil, fmt.Errorf("%s: %w", a.Name, wallet.ErrWatchOnly)
	}
	return a, mgr, nil
}

func openStore() (*store.LevelDB, error) {
	s, err := store.OpenLevelDB(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("%w (is `fundme serve` running? pass --api to submit through it)", err)
	}
	return s, nil
}

// deployment returns the recorded deployment for n. Campaigns deployed
// without a record fall back to the network defaults.
func deployment(n *chain.Network, st store.Store) (config.Deployment, error) {
	records, err := cfg.LoadDeployments()
	if err != nil {
		return config.Deployment{}, err
	}
	if d, ok := records.Deployments[n.Name]; ok {
		return d, nil
	}
	state, err := st.LoadCampaign(n.Name)
	if err != nil {
		return config.Deployment{}, err
	}
	return config.Deployment{
		Network:   n.Name,
		Address:   state.Address,
		Owner:     state.Owner,
		PriceFeed: state.PriceFeed,
		MockFeed:  n.Development,
	}, nil
}

// feedFor builds the campaign's price feed: the mock aggregator when the
// deployment used one, otherwise the on-chain Chainlink aggregator.
func feedFor(ctx context.Context, n *chain.Network, d config.Deployment) (*price.Converter, error) {
	if d.MockFeed {
		return price.NewConverter(price.NewMockAggregator(config.Decimal, big.NewInt(config.InitialAnswer))), nil
	}
	ctx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
	defer cancel()
	url, err := ui.Run("selecting RPC endpoint…", func() (string, error) {
		return rpc.ForNetwork(ctx, n, cfg.GetRPCs(n.Name), cfg.RPCAlgorithm, logger)
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNoHealthyRPC) {
			return nil, fmt.Errorf("%w: set SEPOLIA_URL or run `fundme rpc add %s <url>`", err, n.Name)
		}
		return nil, err
	}
	checkChainID(n, url)
	return price.NewConverter(price.NewChainlinkAggregator(url, d.PriceFeed)), nil
}

// checkChainID warns when an endpoint serves a different chain than n, which
// usually means SEPOLIA_URL points at the wrong network.
func checkChainID(n *chain.Network, url string) {
	id, err := chain.NewEVMClient(url).ChainID()
	if err != nil {
		logger.Debug("chain id check skipped", "url", url, "error", err)
		return
	}
	if id != n.ChainID {
		logger.Warn("rpc serves a different chain", "url", url, "chain_id", id, "want", n.ChainID)
	}
}

// subscribers returns the event sinks for n and a cleanup func.
func subscribers(n *chain.Network) ([]ledger.Subscriber, func(), error) {
	subs := []ledger.Subscriber{events.NewLogSubscriber(logger, n.Name)}
	if cfg.Env.Redis.Addr == "" {
		return subs, func() {}, nil
	}
	client, err := events.NewRedisClient(cfg.Env.Redis.Addr)
	if err != nil {
		return nil, nil, err
	}
	subs = append(subs, events.NewRedisPublisher(client, cfg.Env.Redis.Key, n.Name))
	return subs, func() { _ = client.Close() }, nil
}

// session is an opened engine and everything it holds open.
type session struct {
	network *chain.Network
	store   *store.LevelDB
	engine  *engine.Engine
	feed    *price.Converter
	closers []func()
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openSession opens the local store and the engine for n.
func openSession(ctx context.Context, n *chain.Network) (*session, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	s := &session{network: n, store: st, closers: []func(){func() { _ = st.Close() }}}

	d, err := deployment(n, st)
	if err != nil {
		s.Close()
		return nil, notDeployed(n, err)
	}
	s.feed, err = feedFor(ctx, n, d)
	if err != nil {
		s.Close()
		return nil, err
	}
	subs, closeSubs, err := subscribers(n)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, closeSubs)

	s.engine, err = engine.Open(engine.Options{
		Network:     n,
		Store:       st,
		Feed:        s.feed,
		Logger:      logger,
		Subscribers: subs,
	})
	if err != nil {
		s.Close()
		return nil, notDeployed(n, err)
	}
	return s, nil
}

func notDeployed(n *chain.Network, err error) error {
	if errors.Is(err, store.ErrNoCampaign) {
		return fmt.Errorf("%w on %s: run `fundme deploy --network %s`", err, n.Name, n.Name)
	}
	return err
}

// remoteCampaign fetches the campaign served at --api and checks it runs on n.
func remoteCampaign(ctx context.Context, n *chain.Network) (*api.CampaignView, error) {
	v, err := api.NewClient(apiFlag).Campaign(ctx)
	if err != nil {
		return nil, err
	}
	if v.Network != n.Name {
		return nil, fmt.Errorf("%w: server runs %s", engine.ErrWrongNetwork, v.Network)
	}
	return v, nil
}

// submit signs a call as the selected account and applies it, locally or
// through --api.
func submit(ctx context.Context, op wallet.Op, value *big.Int, newOwner *common.Address) (*engine.Receipt, error) {
	return submitAs(ctx, accountFlag, op, value, newOwner)
}

func submitAs(ctx context.Context, account string, op wallet.Op, value *big.Int, newOwner *common.Address) (*engine.Receipt, error) {
	n, err := activeNetwork()
	if err != nil {
		return nil, err
	}
	book, err := newAccountBook(n)
	if err != nil {
		return nil, err
	}
	acct, mgr, err := book.signer(account)
	if err != nil {
		return nil, err
	}

	call := wallet.Call{Op: op, Network: n.Name}
	if value != nil {
		call.Value = (*hexutil.Big)(value)
	}
	call.NewOwner = newOwner

	if apiFlag != "" {
		v, err := remoteCampaign(ctx, n)
		if err != nil {
			return nil, err
		}
		client := api.NewClient(apiFlag)
		call.Campaign = v.Address
		if call.Nonce, err = client.NextNonce(ctx, acct.Address); err != nil {
			return nil, err
		}
		sc, err := mgr.SignCall(acct, call)
		if err != nil {
			return nil, err
		}
		rv, err := client.Submit(ctx, sc)
		if err != nil {
			return nil, err
		}
		return receiptFromView(rv), nil
	}

	s, err := openSession(ctx, n)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	call.Campaign = s.engine.Campaign().Address()
	if call.Nonce, err = s.engine.NextNonce(acct.Address); err != nil {
		return nil, err
	}
	sc, err := mgr.SignCall(acct, call)
	if err != nil {
		return nil, err
	}
	return s.engine.Apply(sc)
}

func receiptFromView(v *api.ReceiptView) *engine.Receipt {
	r := &engine.Receipt{Op: v.Op, From: v.From, Events: v.Events}
	if v.AmountWei != "" {
		r.Amount, _ = new(big.Int).SetString(v.AmountWei, 10)
	}
	return r
}
