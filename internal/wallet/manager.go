package wallet

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account types.
const (
	TypeWatchOnly = "watch-only"
	TypeSigning   = "signing"
)

// Named accounts used by deploy and the interact script.
const (
	FirstAccount  = "firstAccount"
	SecondAccount = "secondAccount"
)

// Errors.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrInvalidKey      = errors.New("invalid private key")
	ErrWatchOnly       = errors.New("account is watch-only and cannot sign")
)

// Account holds metadata for one named account. Keys live in the keystore.
type Account struct {
	Name      string         `json:"name"`
	Address   common.Address `json:"address"`
	Type      string         `json:"type"`
	KeyRef    string         `json:"key_ref,omitempty"`
	IsDefault bool           `json:"is_default"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store persists account metadata.
type Store interface {
	Load() ([]*Account, error)
	Save([]*Account) error
}

// Manager handles account CRUD and key lookup.
type Manager struct {
	store    Store
	keystore KeystoreBackend
	accounts map[string]*Account
	loaded   bool
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithInMemoryStore keeps metadata and keys in memory.
func WithInMemoryStore() Option {
	return func(m *Manager) {
		m.store = &memStore{}
		m.keystore = NewInMemoryKeystore()
	}
}

// WithStore sets the metadata store.
func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithKeystore sets the key backend.
func WithKeystore(ks KeystoreBackend) Option {
	return func(m *Manager) { m.keystore = ks }
}

// NewManager creates an account manager. Without options everything lives in
// memory.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		accounts: make(map[string]*Account),
		store:    &memStore{},
		keystore: NewInMemoryKeystore(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddWatchOnly registers an address without a key.
func (m *Manager) AddWatchOnly(name string, addr common.Address) (*Account, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	if _, exists := m.accounts[name]; exists {
		return nil, ErrAccountExists
	}
	a := &Account{Name: name, Address: addr, Type: TypeWatchOnly, CreatedAt: m.now().UTC()}
	m.accounts[name] = a
	return a, m.persist()
}

// AddWithKey derives the address from a hex private key and stores the key.
func (m *Manager) AddWithKey(name, hexKey string) (*Account, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	if _, exists := m.accounts[name]; exists {
		return nil, ErrAccountExists
	}
	key, err := parseKey(hexKey)
	if err != nil {
		return nil, err
	}
	ref, err := m.keystore.Store(name, hexKey)
	if err != nil {
		return nil, fmt.Errorf("storing key: %w", err)
	}
	a := &Account{
		Name:      name,
		Address:   crypto.PubkeyToAddress(key.PublicKey),
		Type:      TypeSigning,
		KeyRef:    ref,
		CreatedAt: m.now().UTC(),
	}
	m.accounts[name] = a
	return a, m.persist()
}

// Get returns an account by name.
func (m *Manager) Get(name string) (*Account, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	a, ok := m.accounts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	return a, nil
}

// Resolve finds an account by name or by hex address.
func (m *Manager) Resolve(nameOrAddr string) (*Account, error) {
	if a, err := m.Get(nameOrAddr); err == nil {
		return a, nil
	}
	if common.IsHexAddress(nameOrAddr) {
		addr := common.HexToAddress(nameOrAddr)
		for _, a := range m.accounts {
			if a.Address == addr {
				return a, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, nameOrAddr)
}

// Remove deletes an account and its stored key.
func (m *Manager) Remove(name string) error {
	if err := m.load(); err != nil {
		return err
	}
	a, ok := m.accounts[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	if a.KeyRef != "" {
		if err := m.keystore.Delete(a.KeyRef); err != nil {
			return fmt.Errorf("deleting key: %w", err)
		}
	}
	delete(m.accounts, name)
	return m.persist()
}

// List returns all accounts sorted by name.
func (m *Manager) List() ([]*Account, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	out := make([]*Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SetDefault marks an account as the default signer.
func (m *Manager) SetDefault(name string) error {
	if err := m.load(); err != nil {
		return err
	}
	if _, ok := m.accounts[name]; !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	for _, a := range m.accounts {
		a.IsDefault = a.Name == name
	}
	return m.persist()
}

// Default returns the default account, falling back to firstAccount.
func (m *Manager) Default() (*Account, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	for _, a := range m.accounts {
		if a.IsDefault {
			return a, nil
		}
	}
	if a, ok := m.accounts[FirstAccount]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: no default account", ErrAccountNotFound)
}

// SeedNamed registers firstAccount and secondAccount from the given keys when
// they are not already present. Empty keys are skipped.
func (m *Manager) SeedNamed(firstKey, secondKey string) error {
	for _, nk := range []struct{ name, key string }{{FirstAccount, firstKey}, {SecondAccount, secondKey}} {
		if nk.key == "" {
			continue
		}
		if _, err := m.Get(nk.name); err == nil {
			continue
		}
		if _, err := m.AddWithKey(nk.name, nk.key); err != nil {
			return fmt.Errorf("seeding %s: %w", nk.name, err)
		}
	}
	return nil
}

// PrivateKey loads the signing key for an account.
func (m *Manager) PrivateKey(a *Account) (*ecdsa.PrivateKey, error) {
	if a.Type != TypeSigning {
		return nil, fmt.Errorf("%s: %w", a.Name, ErrWatchOnly)
	}
	hexKey, err := m.keystore.Retrieve(a.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}
	return parseKey(hexKey)
}

// --- internal ---

func (m *Manager) load() error {
	if m.loaded {
		return nil
	}
	accounts, err := m.store.Load()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		m.accounts[a.Name] = a
	}
	m.loaded = true
	return nil
}

func (m *Manager) persist() error {
	accounts := make([]*Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return m.store.Save(accounts)
}

func parseKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

// --- in-memory store ---

type memStore struct {
	accounts []*Account
}

func (s *memStore) Load() ([]*Account, error) { return s.accounts, nil }

func (s *memStore) Save(accounts []*Account) error {
	s.accounts = accounts
	return nil
}

// --- JSON file store ---

// JSONStore persists account metadata to a JSON file.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed account store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Load() ([]*Account, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var accounts []*Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(s.path), err)
	}
	return accounts, nil
}

func (s *JSONStore) Save(accounts []*Account) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

