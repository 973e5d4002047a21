package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signature errors.
var (
	// ErrSignerMismatch is returned when a call was signed by someone other
	// than its declared sender.
	ErrSignerMismatch   = errors.New("signature does not match sender")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Op names a state-changing ledger call.
type Op string

const (
	OpFund              Op = "fund"
	OpGetFund           Op = "getFund"
	OpRefund            Op = "refund"
	OpTransferOwnership Op = "transferOwnership"
)

// Call is the signed envelope for one ledger operation. From is the
// authenticated caller once the signature is verified. Nonce must equal the
// number of calls From has already had applied, so each signature is usable
// once.
type Call struct {
	Op       Op              `json:"op"`
	Network  string          `json:"network"`
	Campaign common.Address  `json:"campaign"`
	From     common.Address  `json:"from"`
	Nonce    uint64          `json:"nonce"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	NewOwner *common.Address `json:"new_owner,omitempty"`
}

// SignedCall pairs a Call with its EIP-191 signature.
type SignedCall struct {
	Call      Call          `json:"call"`
	Signature hexutil.Bytes `json:"signature"`
}

// ValueInt returns the attached value, or zero.
func (c Call) ValueInt() *big.Int {
	if c.Value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(c.Value.ToInt())
}

// message is the canonical byte form that gets signed.
func (c Call) message() ([]byte, error) {
	return json.Marshal(c)
}

// SignCall signs c as account a. From is overwritten with a's address.
func (m *Manager) SignCall(a *Account, c Call) (*SignedCall, error) {
	c.From = a.Address
	msg, err := c.message()
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}
	sig, err := m.SignMessage(a, msg)
	if err != nil {
		return nil, err
	}
	return &SignedCall{Call: c, Signature: sig}, nil
}

// VerifyCall checks that sc was signed by sc.Call.From.
func VerifyCall(sc *SignedCall) (common.Address, error) {
	msg, err := sc.Call.message()
	if err != nil {
		return common.Address{}, fmt.Errorf("encoding call: %w", err)
	}
	signer, err := VerifyMessage(msg, sc.Signature)
	if err != nil {
		return common.Address{}, err
	}
	if signer != sc.Call.From {
		return signer, fmt.Errorf("%w: signed by %s, sent as %s", ErrSignerMismatch, signer.Hex(), sc.Call.From.Hex())
	}
	return signer, nil
}

// SignMessage signs a message using EIP-191 (personal_sign).
// Returns a 65-byte signature (R || S || V) with V in {27, 28}.
func (m *Manager) SignMessage(a *Account, message []byte) ([]byte, error) {
	key, err := m.PrivateKey(a)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(eip191Hash(message), key)
	if err != nil {
		return nil, fmt.Errorf("signing message: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

// VerifyMessage recovers the signer address from an EIP-191 signature.
func VerifyMessage(message, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("%w: expected 65 bytes, got %d", ErrInvalidSignature, len(sig))
	}
	recoverSig := make([]byte, 65)
	copy(recoverSig, sig)
	if recoverSig[64] >= 27 {
		recoverSig[64] -= 27
	}

	pubKey, err := crypto.SigToPub(eip191Hash(message), recoverSig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

// eip191Hash returns the Keccak-256 hash of the EIP-191 prefixed message.
func eip191Hash(message []byte) []byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	return crypto.Keccak256(append([]byte(prefix), message...))
}
