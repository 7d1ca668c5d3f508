// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"crypto/ecdsa"
	"io"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/thor"
)

// Transaction is an immutable signed request to run one ledger operation.
type Transaction struct {
	body body

	cache struct {
		signingHash atomic.Pointer[thor.Bytes32]
		origin      atomic.Pointer[thor.Address]
		id          atomic.Pointer[thor.Bytes32]
	}
}

// body describes details of a tx.
type body struct {
	ChainTag  byte
	Nonce     uint64
	Op        string
	Value     *big.Int
	Args      rlp.RawValue
	Signature []byte
}

// ChainTag returns the tag of the ledger the tx is meant for.
func (t *Transaction) ChainTag() byte {
	return t.body.ChainTag
}

// Nonce must equal the account nonce of the origin.
func (t *Transaction) Nonce() uint64 {
	return t.body.Nonce
}

// Op returns the name of the operation to run.
func (t *Transaction) Op() string {
	return t.body.Op
}

// Value returns the amount sent along with the operation.
func (t *Transaction) Value() *big.Int {
	if t.body.Value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(t.body.Value)
}

// DecodeArgs decodes the rlp encoded operation arguments into v.
func (t *Transaction) DecodeArgs(v any) error {
	if len(t.body.Args) == 0 {
		return errors.New("missing args")
	}
	return rlp.DecodeBytes(t.body.Args, v)
}

// Signature returns signature.
func (t *Transaction) Signature() []byte {
	return append([]byte(nil), t.body.Signature...)
}

// SigningHash returns hash of tx excludes signature.
func (t *Transaction) SigningHash() thor.Bytes32 {
	if cached := t.cache.signingHash.Load(); cached != nil {
		return *cached
	}
	data, _ := rlp.EncodeToBytes([]any{
		t.body.ChainTag,
		t.body.Nonce,
		t.body.Op,
		t.Value(),
		t.body.Args,
	})
	hash := thor.Blake2b(data)
	t.cache.signingHash.Store(&hash)
	return hash
}

// Origin returns the account that signed the tx.
func (t *Transaction) Origin() (thor.Address, error) {
	if cached := t.cache.origin.Load(); cached != nil {
		return *cached, nil
	}
	if len(t.body.Signature) != crypto.SignatureLength {
		return thor.Address{}, errors.New("invalid signature length")
	}
	hash := t.SigningHash()
	pub, err := crypto.SigToPub(hash[:], t.body.Signature)
	if err != nil {
		return thor.Address{}, errors.Wrap(err, "recover origin")
	}
	origin := thor.Address(crypto.PubkeyToAddress(*pub))
	t.cache.origin.Store(&origin)
	return origin, nil
}

// ID returns the id of the tx, which binds the signing hash to the origin.
func (t *Transaction) ID() thor.Bytes32 {
	if cached := t.cache.id.Load(); cached != nil {
		return *cached
	}
	origin, err := t.Origin()
	if err != nil {
		return thor.Bytes32{}
	}
	hash := t.SigningHash()
	id := thor.Blake2b(hash[:], origin[:])
	t.cache.id.Store(&id)
	return id
}

// WithSignature create a new tx with signature set.
func (t *Transaction) WithSignature(sig []byte) *Transaction {
	newTx := Transaction{
		body: t.body,
	}
	// copy sig
	newTx.body.Signature = append([]byte(nil), sig...)
	return &newTx
}

// Sign signs the tx with key.
func Sign(t *Transaction, key *ecdsa.PrivateKey) (*Transaction, error) {
	hash := t.SigningHash()
	sig, err := crypto.Sign(hash[:], key)
	if err != nil {
		return nil, err
	}
	return t.WithSignature(sig), nil
}

// EncodeRLP implements rlp.Encoder
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &t.body)
}

// DecodeRLP implements rlp.Decoder
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var body body
	if err := s.Decode(&body); err != nil {
		return err
	}
	t.body = body
	t.cache.signingHash.Store(nil)
	t.cache.origin.Store(nil)
	t.cache.id.Store(nil)
	return nil
}

// MarshalBinary returns the canonical encoding of the tx.
func (t *Transaction) MarshalBinary() ([]byte, error) {
	return rlp.EncodeToBytes(t)
}

// UnmarshalBinary decodes the canonical encoding of a tx.
func (t *Transaction) UnmarshalBinary(b []byte) error {
	return rlp.DecodeBytes(b, t)
}
