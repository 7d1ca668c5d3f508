// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// Builder to make it easy to build transaction.
type Builder struct {
	body body
	err  error
}

func NewBuilder() *Builder {
	return &Builder{}
}

// ChainTag set chain tag.
func (b *Builder) ChainTag(tag byte) *Builder {
	b.body.ChainTag = tag
	return b
}

// Nonce set nonce.
func (b *Builder) Nonce(nonce uint64) *Builder {
	b.body.Nonce = nonce
	return b
}

// Op set the operation name.
func (b *Builder) Op(op string) *Builder {
	b.body.Op = op
	return b
}

// Value set the amount sent with the operation.
func (b *Builder) Value(value *big.Int) *Builder {
	b.body.Value = new(big.Int).Set(value)
	return b
}

// Args rlp encodes the operation arguments.
func (b *Builder) Args(args any) *Builder {
	b.body.Args, b.err = rlp.EncodeToBytes(args)
	return b
}

// Build build tx object.
func (b *Builder) Build() (*Transaction, error) {
	if b.err != nil {
		return nil, b.err
	}
	tx := Transaction{body: b.body}
	if tx.body.Value == nil {
		tx.body.Value = new(big.Int)
	}
	return &tx, nil
}
