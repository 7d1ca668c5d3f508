// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package beacondeposit locks validator collateral. Collectors only see the Locker
// interface, the Contract type is the in-process implementation.
package beacondeposit

import (
	"math/big"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

var logger = log.WithContext("pkg", "beacondeposit")

const EventDeposit = "DepositEvent"

// Locker accepts the collateral of a freshly registered validator. The amount is
// carried as the value of env.
type Locker interface {
	Address() thor.Address
	Deposit(env *xenv.Environment, pubKey []byte, withdrawalCredentials thor.Bytes32, signature []byte, root thor.Bytes32, amount *big.Int) error
}

type depositEvent struct {
	PubKey                []byte
	WithdrawalCredentials thor.Bytes32
	Amount                uint64
	Signature             []byte
	Index                 uint64
}

// DepositDataRoot returns the SSZ hash tree root of the deposit data. Amount is in wei.
func DepositDataRoot(pubKey []byte, withdrawalCredentials thor.Bytes32, signature []byte, amount *big.Int) (thor.Bytes32, error) {
	if len(pubKey) != thor.BLSPubKeyLength {
		return thor.Bytes32{}, reverts.Newf(reverts.InvalidArgument, "public key must be %d bytes", thor.BLSPubKeyLength)
	}
	if len(signature) != thor.BLSSignatureLength {
		return thor.Bytes32{}, reverts.Newf(reverts.InvalidArgument, "signature must be %d bytes", thor.BLSSignatureLength)
	}
	gwei := new(big.Int).Quo(amount, thor.Gwei)
	if !gwei.IsUint64() {
		return thor.Bytes32{}, reverts.New(reverts.InvalidArgument, "deposit amount too large")
	}

	data := &phase0.DepositData{
		WithdrawalCredentials: withdrawalCredentials.Bytes(),
		Amount:                phase0.Gwei(gwei.Uint64()),
	}
	copy(data.PublicKey[:], pubKey)
	copy(data.Signature[:], signature)

	root, err := data.HashTreeRoot()
	if err != nil {
		return thor.Bytes32{}, errors.Wrap(err, "deposit data root")
	}
	return thor.Bytes32(root), nil
}

// Contract holds every locked deposit at its own address.
type Contract struct {
	addr  thor.Address
	count *solidity.Uint256
}

func New(addr thor.Address, state *state.State) *Contract {
	sctx := solidity.NewContext(addr, state)
	return &Contract{
		addr:  addr,
		count: solidity.NewUint256(sctx, solidity.Slot("deposit-count")),
	}
}

func (c *Contract) Address() thor.Address {
	return c.addr
}

// DepositCount returns the number of accepted deposits.
func (c *Contract) DepositCount() (uint64, error) {
	n, err := c.count.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

func (c *Contract) Deposit(env *xenv.Environment, pubKey []byte, withdrawalCredentials thor.Bytes32, signature []byte, root thor.Bytes32, amount *big.Int) error {
	if env.Value().Cmp(amount) != 0 {
		return reverts.New(reverts.InvalidArgument, "deposit value mismatch")
	}
	if amount.Cmp(thor.Ether) < 0 {
		return reverts.New(reverts.InvalidArgument, "deposit value too low")
	}
	if new(big.Int).Rem(amount, thor.Gwei).Sign() != 0 {
		return reverts.New(reverts.InvalidArgument, "deposit value not multiple of gwei")
	}
	expected, err := DepositDataRoot(pubKey, withdrawalCredentials, signature, amount)
	if err != nil {
		return err
	}
	if expected != root {
		return reverts.New(reverts.InvalidArgument, "reconstructed deposit data root does not match supplied root")
	}

	index, err := c.count.Increment()
	if err != nil {
		return err
	}

	logger.Debug("deposit locked", "pubkey", thor.ValidatorID(pubKey), "index", index)
	return env.Log(EventDeposit, []thor.Bytes32{thor.ValidatorID(pubKey)}, &depositEvent{
		PubKey:                pubKey,
		WithdrawalCredentials: withdrawalCredentials,
		Amount:                new(big.Int).Quo(amount, thor.Gwei).Uint64(),
		Signature:             signature,
		Index:                 index,
	})
}
