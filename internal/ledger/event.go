package ledger

import (
	"encoding/binary"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EventKind names an observable campaign event.
type EventKind string

const (
	EventFunded               EventKind = "Funded"
	EventWithdrawnByOwner     EventKind = "WithdrawnByOwner"
	EventRefundedByFunder     EventKind = "RefundedByFunder"
	EventOwnershipTransferred EventKind = "OwnershipTransferred"
)

// Signature returns the Solidity-style event signature, used for topic hashing.
func (k EventKind) Signature() string {
	switch k {
	case EventFunded:
		return "Funded(address,uint256)"
	case EventWithdrawnByOwner:
		return "WithdrawnByOwner(uint256)"
	case EventRefundedByFunder:
		return "RefundedByFunder(address,uint256)"
	case EventOwnershipTransferred:
		return "OwnershipTransferred(address,address)"
	}
	return string(k) + "()"
}

// Topic returns keccak256 of the event signature.
func (k EventKind) Topic() common.Hash {
	return crypto.Keccak256Hash([]byte(k.Signature()))
}

// Event is emitted by a successful mutation.
type Event struct {
	Seq         uint64         `json:"seq"`
	Kind        EventKind      `json:"kind"`
	Contributor common.Address `json:"contributor"` // funder, or new owner for OwnershipTransferred
	Previous    common.Address `json:"previous"`    // previous owner for OwnershipTransferred
	Amount      *big.Int       `json:"amount,omitempty"`
	Time        time.Time      `json:"time"`
	TxHash      common.Hash    `json:"tx_hash"`
}

// Subscriber is notified of every event once it has been stored.
type Subscriber interface {
	Publish(Event) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(Event) error

// Publish calls f(e).
func (f SubscriberFunc) Publish(e Event) error { return f(e) }

func txHash(kind EventKind, seq uint64, who common.Address, amount *big.Int) common.Hash {
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], seq)
	var amt []byte
	if amount != nil {
		amt = common.LeftPadBytes(amount.Bytes(), 32)
	}
	return crypto.Keccak256Hash(kind.Topic().Bytes(), seqBuf[:], who.Bytes(), amt)
}
