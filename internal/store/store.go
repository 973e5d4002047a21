// Package store persists deployed campaigns, their event log and the
// development clock offset, keyed by network.
package store

import (
	"errors"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// ErrNoCampaign is returned when nothing has been deployed to a network.
var ErrNoCampaign = errors.New("no campaign deployed on this network")

// Store is the persistence boundary used by the runtime.
type Store interface {
	// LoadCampaign returns the saved campaign state for network.
	LoadCampaign(network string) (*ledger.State, error)
	// SaveCampaign replaces the saved campaign state for network.
	SaveCampaign(network string, st ledger.State) error
	// DeleteCampaign drops the campaign, its event log and call nonces.
	DeleteCampaign(network string) error
	// Commit writes the outcome of one applied call in a single write:
	// either all of it is stored or none of it.
	Commit(network string, c Commit) error
	// Nonce returns the next call nonce expected from addr.
	Nonce(network string, addr common.Address) (uint64, error)
	// AppendEvents adds events to the log. Events with a Seq already stored
	// are overwritten.
	AppendEvents(network string, evs []ledger.Event) error
	// Events returns logged events with Seq >= from, in order.
	Events(network string, from uint64) ([]ledger.Event, error)
	ClockOffset(network string) (time.Duration, error)
	SetClockOffset(network string, d time.Duration) error
	Close() error
}

// Commit is the outcome of one applied call.
type Commit struct {
	State  ledger.State
	Events []ledger.Event
	Caller common.Address
	Nonce  uint64 // next nonce expected from Caller
}
