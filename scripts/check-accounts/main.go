// check-accounts: checks every RPC-backed network in parallel and prints the
// chain id, head block and native balance of firstAccount and secondAccount,
// so a deployer can see where they have gas before running `fundme deploy`.
//
// Keys come from PRIVATE_KEY and PRIVATE_KEY_2 (dev node keys on development
// networks). Run from the module root:
//
//	go run ./scripts/check-accounts
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/config"
	"github.com/Mohsinsiddi/fundme/internal/wallet"
	"github.com/caarlos0/env/v11"
)

const rpcTimeout = 12 * time.Second

// ── types ─────────────────────────────────────────────────────────────────────

type result struct {
	network string
	url     string
	chainID string
	block   string
	account string
	address string
	balance string
	note    string
}

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	var e config.Env
	if err := env.Parse(&e); err != nil {
		fmt.Fprintln(os.Stderr, "parsing environment:", err)
		os.Exit(1)
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []result
	)

	for _, n := range chain.NewRegistry().All() {
		var custom []string
		if n.Name == "sepolia" && e.SepoliaURL != "" {
			custom = []string{e.SepoliaURL}
		}
		urls := n.Endpoints(custom)
		if len(urls) == 0 {
			continue // in-process network
		}

		mgr := wallet.NewManager()
		if err := mgr.SeedNamed(e.SeedKeys(n.Development)); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", n.Name, err)
			continue
		}
		accounts, _ := mgr.List()
		if len(accounts) == 0 {
			mu.Lock()
			results = append(results, result{network: n.Name, url: urls[0], note: "no keys (set PRIVATE_KEY)"})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(n chain.Network, url string, accounts []*wallet.Account) {
			defer wg.Done()
			rs := checkNetwork(n, url, accounts)
			mu.Lock()
			results = append(results, rs...)
			mu.Unlock()
		}(n, urls[0], accounts)
	}

	wg.Wait()
	printTable(results)
}

func checkNetwork(n chain.Network, url string, accounts []*wallet.Account) []result {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	client := chain.NewEVMClient(url)
	base := result{network: n.Name, url: url, chainID: "—", block: "—"}

	// Quick ping first; skip networks that don't respond.
	if _, _, err := client.Ping(ctx); err != nil {
		base.note = "unreachable"
		return []result{base}
	}
	if id, err := client.ChainID(); err == nil {
		base.chainID = fmt.Sprint(id)
		if id != n.ChainID {
			base.note = fmt.Sprintf("expected chain %d", n.ChainID)
		}
	}
	if b, err := client.GetBlockNumber(); err == nil {
		base.block = fmt.Sprint(b)
	}

	out := make([]result, 0, len(accounts))
	for _, a := range accounts {
		r := base
		r.account = a.Name
		r.address = shortAddr(a.Address.Hex())
		bal, err := client.GetBalance(a.Address.Hex())
		if err != nil {
			r.balance = "—"
			r.note = shortErr(err)
		} else {
			r.balance = chain.FormatEther(bal)
		}
		out = append(out, r)
	}
	return out
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(results []result) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.network != b.network {
			return a.network < b.network
		}
		return a.account < b.account
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NETWORK\tCHAIN ID\tBLOCK\tACCOUNT\tADDRESS\tBALANCE (ETH)\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 8)+"\t"+
		strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 13)+"\t"+
		strings.Repeat("-", 13)+"\t"+
		strings.Repeat("-", 20)+"\t"+
		strings.Repeat("-", 12))

	lastNetwork := ""
	for _, r := range results {
		if r.network != lastNetwork {
			if lastNetwork != "" {
				fmt.Fprintln(w, "\t\t\t\t\t\t") // blank separator between networks
			}
			lastNetwork = r.network
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.network, r.chainID, r.block, r.account, r.address, r.balance, r.note)
	}
	w.Flush()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func shortAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}
