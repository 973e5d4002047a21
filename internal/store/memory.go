package store

import (
	"sort"
	"sync"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// Memory is an in-process Store, used by the hardhat network and tests.
type Memory struct {
	mu        sync.Mutex
	campaigns map[string]ledger.State
	events    map[string]map[uint64]ledger.Event
	offsets   map[string]time.Duration
	nonces    map[string]map[common.Address]uint64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		campaigns: make(map[string]ledger.State),
		events:    make(map[string]map[uint64]ledger.Event),
		offsets:   make(map[string]time.Duration),
		nonces:    make(map[string]map[common.Address]uint64),
	}
}

func (m *Memory) LoadCampaign(network string) (*ledger.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.campaigns[network]
	if !ok {
		return nil, ErrNoCampaign
	}
	return &st, nil
}

func (m *Memory) SaveCampaign(network string, st ledger.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[network] = st
	return nil
}

func (m *Memory) DeleteCampaign(network string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.campaigns, network)
	delete(m.events, network)
	delete(m.nonces, network)
	return nil
}

func (m *Memory) Commit(network string, c Commit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[network] = c.State
	m.appendEvents(network, c.Events)
	nonces, ok := m.nonces[network]
	if !ok {
		nonces = make(map[common.Address]uint64)
		m.nonces[network] = nonces
	}
	nonces[c.Caller] = c.Nonce
	return nil
}

func (m *Memory) Nonce(network string, addr common.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nonces[network][addr], nil
}

func (m *Memory) AppendEvents(network string, evs []ledger.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendEvents(network, evs)
	return nil
}

// appendEvents must be called with m.mu held.
func (m *Memory) appendEvents(network string, evs []ledger.Event) {
	log, ok := m.events[network]
	if !ok {
		log = make(map[uint64]ledger.Event)
		m.events[network] = log
	}
	for _, ev := range evs {
		log[ev.Seq] = ev
	}
}

func (m *Memory) Events(network string, from uint64) ([]ledger.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.Event
	for seq, ev := range m.events[network] {
		if seq >= from {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *Memory) ClockOffset(network string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offsets[network], nil
}

func (m *Memory) SetClockOffset(network string, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offsets[network] = d
	return nil
}

func (m *Memory) Close() error { return nil }
