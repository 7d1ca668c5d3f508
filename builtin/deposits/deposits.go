// Copyright (c) 2026 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package deposits

import (
	"math/big"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/builtin/roles"
	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/xenv"
)

var logger = log.WithContext("pkg", "deposits")

const (
	EventDepositAdded    = "DepositAdded"
	EventDepositCanceled = "DepositCanceled"
)

// depositEvent is the body of DepositAdded and DepositCanceled.
type depositEvent struct {
	EntityID    thor.Bytes32
	Sender      thor.Address
	Recipient   thor.Address
	Amount      *big.Int
	TotalBefore *big.Int
	TotalAfter  *big.Int
}

// Deposits records how much each user put into each entity.
// Only collector contracts may change it.
type Deposits struct {
	addr    thor.Address
	check   roles.Checker
	amounts *solidity.Mapping[thor.Bytes32, *big.Int]
	totals  *solidity.Mapping[thor.Bytes32, *big.Int]
}

func New(addr thor.Address, state *state.State, check roles.Checker) *Deposits {
	sctx := solidity.NewContext(addr, state)
	return &Deposits{
		addr:    addr,
		check:   check,
		amounts: solidity.NewMapping[thor.Bytes32, *big.Int](sctx, solidity.Slot("amounts")),
		totals:  solidity.NewMapping[thor.Bytes32, *big.Int](sctx, solidity.Slot("totals")),
	}
}

func (d *Deposits) Address() thor.Address {
	return d.addr
}

// Amount returns the cumulative deposit of a user.
func (d *Deposits) Amount(userID thor.Bytes32) (*big.Int, error) {
	return d.amounts.Get(userID)
}

// AmountOf returns the cumulative deposit sender made for recipient into an entity.
func (d *Deposits) AmountOf(entityID thor.Bytes32, sender, recipient thor.Address) (*big.Int, error) {
	return d.Amount(thor.UserID(entityID, sender, recipient))
}

// EntityTotal returns the sum of all deposits into an entity.
func (d *Deposits) EntityTotal(entityID thor.Bytes32) (*big.Int, error) {
	return d.totals.Get(entityID)
}

func topics(entityID thor.Bytes32, sender, recipient thor.Address) []thor.Bytes32 {
	return []thor.Bytes32{entityID, thor.BytesToBytes32(sender[:]), thor.BytesToBytes32(recipient[:])}
}

// AddDeposit adds amount to the user and entity totals.
func (d *Deposits) AddDeposit(env *xenv.Environment, entityID thor.Bytes32, sender, recipient thor.Address, amount *big.Int) error {
	if err := roles.Require(d.check, env.Caller(), roles.Collector); err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidArgument, "invalid deposit amount")
	}
	userID := thor.UserID(entityID, sender, recipient)
	before, err := d.amounts.Get(userID)
	if err != nil {
		return err
	}
	after := new(big.Int).Add(before, amount)
	if err := d.amounts.Set(userID, after); err != nil {
		return err
	}
	total, err := d.totals.Get(entityID)
	if err != nil {
		return err
	}
	if err := d.totals.Set(entityID, total.Add(total, amount)); err != nil {
		return err
	}

	logger.Debug("deposit added", "entity", entityID, "sender", sender, "recipient", recipient, "amount", amount)
	return env.Log(EventDepositAdded, topics(entityID, sender, recipient), &depositEvent{
		EntityID:    entityID,
		Sender:      sender,
		Recipient:   recipient,
		Amount:      amount,
		TotalBefore: before,
		TotalAfter:  after,
	})
}

// CancelDeposit subtracts amount from the user and entity totals. The calling collector
// guarantees the entity still accepts cancellations.
func (d *Deposits) CancelDeposit(env *xenv.Environment, entityID thor.Bytes32, sender, recipient thor.Address, amount *big.Int) error {
	if err := roles.Require(d.check, env.Caller(), roles.Collector); err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidArgument, "invalid cancel amount")
	}
	userID := thor.UserID(entityID, sender, recipient)
	before, err := d.amounts.Get(userID)
	if err != nil {
		return err
	}
	if before.Cmp(amount) < 0 {
		return reverts.New(reverts.InsufficientFunds, "insufficient balance")
	}
	after := new(big.Int).Sub(before, amount)
	if err := d.amounts.Set(userID, after); err != nil {
		return err
	}
	total, err := d.totals.Get(entityID)
	if err != nil {
		return err
	}
	if err := d.totals.Set(entityID, total.Sub(total, amount)); err != nil {
		return err
	}

	logger.Debug("deposit canceled", "entity", entityID, "sender", sender, "recipient", recipient, "amount", amount)
	return env.Log(EventDepositCanceled, topics(entityID, sender, recipient), &depositEvent{
		EntityID:    entityID,
		Sender:      sender,
		Recipient:   recipient,
		Amount:      amount,
		TotalBefore: before,
		TotalAfter:  after,
	})
}
